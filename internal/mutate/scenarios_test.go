package mutate

import "testing"

// scenarioRand is a scripted RandSource that reproduces the exact PRNG
// draws spec.md §8's end-to-end scenarios specify, one queued value per
// call. Intn mirrors DefaultRand's min==max short-circuit so callers don't
// need to queue a value for draws the real oracle would answer for free.
type scenarioRand struct {
	intn   []int
	skewed []int
	pos    struct{ intn, skewed int }
}

func (s *scenarioRand) Intn(min, max int) int {
	if min == max {
		return min
	}

	v := s.intn[s.pos.intn]
	s.pos.intn++

	return v
}

func (s *scenarioRand) Skewed(max int) int {
	v := s.skewed[s.pos.skewed]
	s.pos.skewed++

	return v
}

func (s *scenarioRand) Byte() byte          { return 0 }
func (s *scenarioRand) PrintableByte() byte { return ' ' }

// Scenario A - empty input triggers resize (spec.md §8).
func TestScenarioA_EmptyInputTriggersResize(t *testing.T) {
	r := &scenarioRand{intn: []int{0, 10}} // resize-choice 0 (arbitrary), new size 10
	e := newTestEngine(r)
	in := New(64, nil)

	opResize(e, in, true)

	if in.Size() != 10 {
		t.Fatalf("size = %d, want 10", in.Size())
	}

	for i, b := range in.Bytes() {
		if b != ' ' {
			t.Fatalf("data[%d] = %q, want space", i, b)
		}
	}
}

// Scenario B - bit flip preserves length (spec.md §8).
func TestScenarioB_BitFlipPreservesLength(t *testing.T) {
	r := &scenarioRand{skewed: []int{3}, intn: []int{3}} // off=Skewed(4)-1=2, bit=3
	e := newTestEngine(r)
	in := New(4, []byte{0xFF, 0xFF, 0xFF, 0xFF})

	opBit(e, in, false)

	want := []byte{0xFF, 0xFF, 0xF7, 0xFF}
	if in.Size() != 4 {
		t.Fatalf("size = %d, want 4", in.Size())
	}

	for i, b := range want {
		if in.Bytes()[i] != b {
			t.Fatalf("data = %v, want %v", in.Bytes(), want)
		}
	}
}

// Scenario C - magic overwrite (spec.md §8).
func TestScenarioC_MagicOverwrite(t *testing.T) {
	target := -1

	for i, entry := range MagicTable {
		if entry.Size == 1 && entry.Value[0] == 0x80 {
			target = i

			break
		}
	}

	if target < 0 {
		t.Fatal("MagicTable has no 1-byte 0x80 entry")
	}

	r := &scenarioRand{intn: []int{target}, skewed: []int{4}} // index, off=Skewed(8)-1=3
	e := newTestEngine(r)
	in := New(8, make([]byte, 8))

	opMagicOverwrite(e, in, false)

	want := []byte{0, 0, 0, 0x80, 0, 0, 0, 0}
	for i, b := range want {
		if in.Bytes()[i] != b {
			t.Fatalf("data = %v, want %v", in.Bytes(), want)
		}
	}
}

// Scenario D - insert past max (spec.md §8).
func TestScenarioD_InsertPastMax(t *testing.T) {
	r := &scenarioRand{skewed: []int{1, 1}}
	e := newTestEngine(r)

	seed := []byte("01234567")
	in := New(len(seed), seed)

	opRandomInsert(e, in, false)

	if in.Size() != len(seed) {
		t.Fatalf("size = %d, want %d (unchanged)", in.Size(), len(seed))
	}

	for i, b := range seed {
		if in.Bytes()[i] != b {
			t.Fatalf("data = %q, want unchanged %q", in.Bytes(), seed)
		}
	}
}

// Scenario E - AddSub width-2 foreign-endian swap path (spec.md §8).
func TestScenarioE_AddSubForeignEndianSwap(t *testing.T) {
	r := &scenarioRand{
		skewed: []int{1},       // off = Skewed(2)-1 = 0
		intn:   []int{1, 1, 1}, // width candidates index 1 (width=2), delta=+1, foreign=true
	}
	e := newTestEngine(r)
	in := New(2, []byte{0x01, 0x00})

	opAddSub(e, in, false)

	want := []byte{0x01, 0x01}
	for i, b := range want {
		if in.Bytes()[i] != b {
			t.Fatalf("data = %v, want %v", in.Bytes(), want)
		}
	}
}

// Scenario F - Shrink is a no-op at size<=2, regardless of PRNG draws
// (spec.md §8): no Intn/Skewed values are queued, so any draw would panic
// on an empty slice, proving the no-op returns before consuming entropy.
func TestScenarioF_ShrinkNoopAtSizeTwo(t *testing.T) {
	r := &scenarioRand{}
	e := newTestEngine(r)
	in := New(8, []byte{0x01, 0x02})

	opShrink(e, in, false)

	if in.Size() != 2 {
		t.Fatalf("size = %d, want 2", in.Size())
	}

	want := []byte{0x01, 0x02}
	for i, b := range want {
		if in.Bytes()[i] != b {
			t.Fatalf("data = %v, want %v", in.Bytes(), want)
		}
	}
}
