package mutate

import (
	"math/big"
	"math/rand"

	"github.com/orizon-lang/orizon-mutator/internal/errorsx"
)

// maxSkewCeiling is the implementation-chosen hard maximum for rand_skewed's
// argument (spec §7: "max > hard maximum" is fatal). It comfortably covers
// any realistic max_input_size while keeping the big.Int arithmetic in
// Skewed cheap.
const maxSkewCeiling = 1 << 24

// DefaultRand is the reference RandSource, backed by math/rand. It is not
// safe for concurrent use by multiple goroutines; each fuzzing worker must
// own its own instance, matching spec §5's single-owner-per-run model.
type DefaultRand struct {
	r *rand.Rand
}

// NewDefaultRand wraps a seeded PRNG as a RandSource.
func NewDefaultRand(seed int64) *DefaultRand {
	return &DefaultRand{r: rand.New(rand.NewSource(seed))}
}

// Intn returns a uniform integer in [min, max].
func (d *DefaultRand) Intn(min, max int) int {
	if min > max {
		panic(errorsx.InvalidRandRange(min, max))
	}

	if min == max {
		return min
	}

	return min + d.r.Intn(max-min+1)
}

// Skewed returns an integer in [1, max] biased quadratically toward 1: draw
// r uniformly from [1, max^2-1], return clamp(floor(r^2/max^3)+1, 1, max).
// big.Int arithmetic is used so the reference distribution holds exactly
// even for max values where max^3 would overflow a machine word.
func (d *DefaultRand) Skewed(max int) int {
	if max == 0 || max > maxSkewCeiling {
		panic(errorsx.InvalidSkewBound(max, maxSkewCeiling))
	}

	if max == 1 {
		return 1
	}

	bigMax := big.NewInt(int64(max))
	// rangeSize counts the integers in [1, max^2-1].
	rangeSize := new(big.Int).Sub(new(big.Int).Mul(bigMax, bigMax), big.NewInt(1))

	r := new(big.Int).Add(randBigInt(d.r, new(big.Int).Sub(rangeSize, big.NewInt(1))), big.NewInt(1)) // [1, max^2-1]

	rSquared := new(big.Int).Mul(r, r)
	cube := new(big.Int).Mul(bigMax, new(big.Int).Mul(bigMax, bigMax))

	q := new(big.Int).Div(rSquared, cube)
	q.Add(q, big.NewInt(1))

	if q.Cmp(bigMax) > 0 {
		return max
	}

	v := int(q.Int64())
	if v < 1 {
		v = 1
	}

	return v
}

// randBigInt returns a uniform value in [0, n] inclusive using r as the
// entropy source (math/big.Int.Rand wants a io.Reader-free rand.Source, so
// we drive it off the same *rand.Rand callers already seeded).
func randBigInt(r *rand.Rand, n *big.Int) *big.Int {
	if n.Sign() <= 0 {
		return big.NewInt(0)
	}

	return new(big.Int).Rand(r, new(big.Int).Add(n, big.NewInt(1)))
}

// Byte returns a uniform random byte.
func (d *DefaultRand) Byte() byte {
	return byte(d.r.Intn(256))
}

// PrintableByte returns a uniform random byte in 32..=126.
func (d *DefaultRand) PrintableByte() byte {
	return byte(32 + d.r.Intn(126-32+1))
}

// Offset biases toward the beginning of a size-length buffer:
// rand_offset(size) = rand_skewed(size) - 1.
func Offset(rs RandSource, size int) int {
	if size <= 0 {
		return 0
	}

	return rs.Skewed(size) - 1
}

// FillRandom fills buf with uniform random bytes.
func FillRandom(rs RandSource, buf []byte) {
	for i := range buf {
		buf[i] = rs.Byte()
	}
}

// FillPrintable fills buf with uniform random printable bytes.
func FillPrintable(rs RandSource, buf []byte) {
	for i := range buf {
		buf[i] = rs.PrintableByte()
	}
}
