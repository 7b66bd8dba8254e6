package corpus

import "encoding/binary"

// Harvested holds base values extracted from a corpus, grouped by how the
// magic/splice/ASCII-num operators can best reuse them: the engine never
// reads this directly (it only sees the corpus through PickRandomInput for
// splicing); cmd/mutate-summary uses it to report corpus statistics.
type Harvested struct {
	// Integers are little-endian-decoded 1/2/4/8-byte windows pulled from
	// every corpus entry, mirroring how a comparison-feedback table
	// accumulates operands observed during real execution.
	Integers []uint64
	// Strings are printable runs of length >= 4 found in corpus entries,
	// candidate dictionary tokens a curator hasn't added yet.
	Strings [][]byte
}

// Harvest scans every entry in s and extracts reusable base values. This is
// the harvesting counterpart of medusa's txGeneratorMutation: instead of
// building inputs purely synthetically, it gives later mutation passes
// access to "sensible" values actually observed in the corpus.
func Harvest(s *Set) Harvested {
	var h Harvested

	seenInt := make(map[uint64]struct{})

	for _, entry := range s.All() {
		harvestIntegers(entry, &h, seenInt)
		harvestStrings(entry, &h)
	}

	return h
}

func harvestIntegers(data []byte, h *Harvested, seen map[uint64]struct{}) {
	for _, width := range []int{1, 2, 4, 8} {
		for off := 0; off+width <= len(data); off += width {
			var v uint64

			switch width {
			case 1:
				v = uint64(data[off])
			case 2:
				v = uint64(binary.LittleEndian.Uint16(data[off : off+2]))
			case 4:
				v = uint64(binary.LittleEndian.Uint32(data[off : off+4]))
			case 8:
				v = binary.LittleEndian.Uint64(data[off : off+8])
			}

			if _, ok := seen[v]; ok {
				continue
			}

			seen[v] = struct{}{}
			h.Integers = append(h.Integers, v)
		}
	}
}

const minHarvestedStringLen = 4

func harvestStrings(data []byte, h *Harvested) {
	start := -1

	flush := func(end int) {
		if start < 0 {
			return
		}

		if end-start >= minHarvestedStringLen {
			run := make([]byte, end-start)
			copy(run, data[start:end])
			h.Strings = append(h.Strings, run)
		}

		start = -1
	}

	for i, b := range data {
		if b >= 32 && b <= 126 {
			if start < 0 {
				start = i
			}

			continue
		}

		flush(i)
	}

	flush(len(data))
}
