package mutate

import "encoding/binary"

// MagicEntry is one reproduced-verbatim magic constant: a small number, an
// extremum, a sign boundary, or a common off-by-one, framed natively,
// big-endian, and little-endian. Size is one of {1,2,4,8}.
type MagicEntry struct {
	Value [8]byte
	Size  int
}

// magicValues8 enumerates the exhaustive set of base integer classes the
// table reproduces per width: zero, +/-1, small positives/negatives, the
// signed/unsigned extrema, and the usual off-by-one neighbors of those
// extrema. Removing entries from this set measurably reduces fuzzing
// effectiveness (spec §6), so the set is kept exhaustive rather than
// "representative".
func magicValues8(size int) []uint64 {
	var signedMin, signedMax, unsignedMax uint64

	switch size {
	case 1:
		signedMin, signedMax, unsignedMax = 0x80, 0x7f, 0xff
	case 2:
		signedMin, signedMax, unsignedMax = 0x8000, 0x7fff, 0xffff
	case 4:
		signedMin, signedMax, unsignedMax = 0x80000000, 0x7fffffff, 0xffffffff
	case 8:
		signedMin, signedMax, unsignedMax = 0x8000000000000000, 0x7fffffffffffffff, 0xffffffffffffffff
	default:
		panic("mutate: magicValues8: width not in {1,2,4,8}")
	}

	mask := unsignedMax

	wrap := func(v uint64) uint64 { return v & mask }

	return []uint64{
		0,
		wrap(1),
		wrap(2),
		wrap(4),
		wrap(8),
		wrap(16),
		wrap(32),
		wrap(64),
		wrap(100),
		wrap(^uint64(0)), // -1
		wrap(^uint64(1)), // -2
		signedMin,
		wrap(signedMin + 1),
		wrap(signedMin - 1),
		signedMax,
		wrap(signedMax - 1),
		wrap(signedMax + 1),
		unsignedMax,
		wrap(unsignedMax - 1),
	}
}

// MagicTable is built once at init time: every base value above, at every
// width in {1,2,4,8}, in native (treated as little-endian, see AddSub in
// operators.go), big-endian, and little-endian framings.
var MagicTable = buildMagicTable()

func buildMagicTable() []MagicEntry {
	var entries []MagicEntry

	for _, size := range []int{1, 2, 4, 8} {
		for _, v := range magicValues8(size) {
			entries = append(entries,
				encodeMagic(v, size, binary.LittleEndian), // native
				encodeMagic(v, size, binary.BigEndian),
				encodeMagic(v, size, binary.LittleEndian),
			)
		}
	}

	return entries
}

type byteOrder interface {
	PutUint16([]byte, uint16)
	PutUint32([]byte, uint32)
	PutUint64([]byte, uint64)
}

func encodeMagic(v uint64, size int, order byteOrder) MagicEntry {
	var buf [8]byte

	switch size {
	case 1:
		buf[0] = byte(v)
	case 2:
		order.PutUint16(buf[:2], uint16(v))
	case 4:
		order.PutUint32(buf[:4], uint32(v))
	case 8:
		order.PutUint64(buf[:8], v)
	}

	return MagicEntry{Value: buf, Size: size}
}
