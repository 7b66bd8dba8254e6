package corpus

import "testing"

func TestHarvestExtractsIntegers(t *testing.T) {
	s := New(1)
	s.Add([]byte{0x01, 0x00, 0x00, 0x00})

	h := Harvest(s)
	if len(h.Integers) == 0 {
		t.Fatal("Harvest() produced no integers")
	}

	found := false

	for _, v := range h.Integers {
		if v == 1 {
			found = true
		}
	}

	if !found {
		t.Fatal("Harvest() did not surface the width-1 value 1")
	}
}

func TestHarvestDeduplicatesIntegers(t *testing.T) {
	s := New(1)
	s.Add([]byte{0, 0, 0, 0, 0, 0, 0, 0})

	h := Harvest(s)

	count := 0

	for _, v := range h.Integers {
		if v == 0 {
			count++
		}
	}

	if count != 1 {
		t.Fatalf("Harvest() produced %d copies of 0, want 1 (deduplicated)", count)
	}
}

func TestHarvestExtractsPrintableStrings(t *testing.T) {
	s := New(1)
	s.Add([]byte("\x00\x01hello world\x02\x03ok\x04"))

	h := Harvest(s)
	if len(h.Strings) != 1 {
		t.Fatalf("Harvest() produced %d strings, want 1 (short run 'ok' below threshold)", len(h.Strings))
	}

	if string(h.Strings[0]) != "hello world" {
		t.Fatalf("Harvest() string = %q, want %q", h.Strings[0], "hello world")
	}
}
