package corpus

import (
	"math/rand"
	"time"
)

// Interesting reports whether data still reproduces whatever made the
// original input worth minimizing (e.g. the fuzz target still crashes, or
// still hits the coverage edge that triggered a save). Minimize never
// inspects the crash itself; this predicate is the caller's concern.
type Interesting func(data []byte) bool

// Minimize reduces in to a smaller input that keeps satisfying isInteresting,
// using a greedy delta-debugging pass: repeatedly try removing large chunks,
// then the trailing byte, then perturbing bytes, for as long as budget allows.
// Returns in unchanged if isInteresting(in) is already false.
func Minimize(seed int64, in []byte, isInteresting Interesting, budget time.Duration) []byte {
	if seed == 0 {
		seed = 1
	}

	r := rand.New(rand.NewSource(seed))
	start := time.Now()

	best := append([]byte(nil), in...)
	if !isInteresting(best) {
		return best
	}

	for time.Since(start) < budget {
		if removeChunks(&best, isInteresting, start, budget) {
			continue
		}

		if truncateTail(&best, isInteresting) {
			continue
		}

		if perturbByte(&best, r, isInteresting) {
			continue
		}

		break
	}

	return best
}

// removeChunks tries deleting the input in halves, quarters, and eighths,
// keeping the first deletion that preserves isInteresting.
func removeChunks(best *[]byte, isInteresting Interesting, start time.Time, budget time.Duration) bool {
	for parts := 2; parts <= 8 && time.Since(start) < budget; parts *= 2 {
		n := len(*best)
		if n < parts {
			break
		}

		seg := n / parts

		for i := 0; i < parts && time.Since(start) < budget; i++ {
			cand := append([]byte(nil), (*best)[:i*seg]...)
			cand = append(cand, (*best)[(i+1)*seg:]...)

			if len(cand) == 0 {
				continue
			}

			if isInteresting(cand) {
				*best = cand

				return true
			}
		}
	}

	return false
}

func truncateTail(best *[]byte, isInteresting Interesting) bool {
	if len(*best) <= 1 {
		return false
	}

	cand := append([]byte(nil), (*best)[:len(*best)-1]...)
	if isInteresting(cand) {
		*best = cand

		return true
	}

	return false
}

func perturbByte(best *[]byte, r *rand.Rand, isInteresting Interesting) bool {
	if len(*best) == 0 {
		return false
	}

	idx := r.Intn(len(*best))

	cand := append([]byte(nil), (*best)...)
	cand[idx] ^= 1 << uint(r.Intn(8))

	if isInteresting(cand) {
		*best = cand

		return true
	}

	cand[idx] = byte(r.Intn(256))
	if isInteresting(cand) {
		*best = cand

		return true
	}

	return false
}
