package mutate

import "testing"

func TestMagicTableNotEmpty(t *testing.T) {
	if len(MagicTable) == 0 {
		t.Fatal("MagicTable is empty")
	}
}

func TestMagicTableEntrySizes(t *testing.T) {
	for i, e := range MagicTable {
		switch e.Size {
		case 1, 2, 4, 8:
		default:
			t.Fatalf("entry %d has invalid size %d", i, e.Size)
		}
	}
}

func TestMagicTableContainsKeyExtrema(t *testing.T) {
	want := []MagicEntry{
		{Value: [8]byte{0xff}, Size: 1},
		{Value: [8]byte{0x80}, Size: 1},
		{Value: [8]byte{0x7f}, Size: 1},
	}

	for _, w := range want {
		found := false

		for _, e := range MagicTable {
			if e.Size == w.Size && e.Value[0] == w.Value[0] {
				found = true

				break
			}
		}

		if !found {
			t.Fatalf("MagicTable missing expected width-1 entry %#v", w)
		}
	}
}
