package mutate

import "testing"

func isPrintable(b byte) bool { return b >= 32 && b <= 126 }

func TestNegByteIsInvolutionNonPrintable(t *testing.T) {
	r := NewDefaultRand(10)

	for i := 0; i < 256; i++ {
		in := New(4, []byte{byte(i)})
		opNegByte(newTestEngine(r), in, false)
		opNegByte(newTestEngine(r), in, false)

		if in.Bytes()[0] != byte(i) {
			t.Fatalf("NegByte twice on %d gave %d, want involution back to %d", i, in.Bytes()[0], i)
		}
	}
}

func TestNegByteIsInvolutionPrintable(t *testing.T) {
	r := NewDefaultRand(11)

	for b := 32; b <= 126; b++ {
		in := New(4, []byte{byte(b)})
		opNegByte(newTestEngine(r), in, true)
		opNegByte(newTestEngine(r), in, true)

		if in.Bytes()[0] != byte(b) {
			t.Fatalf("printable NegByte twice on %d gave %d, want involution back to %d", b, in.Bytes()[0], b)
		}

		if !isPrintable(in.Bytes()[0]) {
			t.Fatalf("printable NegByte escaped printable range: %d", in.Bytes()[0])
		}
	}
}

func TestIncThenDecByteRoundTrips(t *testing.T) {
	r := NewDefaultRand(12)

	for i := 0; i < 256; i++ {
		in := New(4, []byte{byte(i)})
		opIncByte(newTestEngine(r), in, false)
		opDecByte(newTestEngine(r), in, false)

		if in.Bytes()[0] != byte(i) {
			t.Fatalf("IncByte then DecByte on %d gave %d, want %d", i, in.Bytes()[0], i)
		}
	}
}

func TestIncThenDecByteRoundTripsPrintable(t *testing.T) {
	r := NewDefaultRand(13)

	for b := 32; b <= 126; b++ {
		in := New(4, []byte{byte(b)})
		opIncByte(newTestEngine(r), in, true)
		opDecByte(newTestEngine(r), in, true)

		if in.Bytes()[0] != byte(b) {
			t.Fatalf("printable IncByte then DecByte on %d gave %d, want %d", b, in.Bytes()[0], b)
		}
	}
}

// newTestEngine builds a minimal Engine suitable for direct operator calls
// in unit tests (no dictionary/corpus/feedback wired).
func newTestEngine(r RandSource) *Engine {
	return NewEngine(Config{MaxInputSize: 64, MutationsPerRun: 1}, r)
}

func TestAllOperatorsPreserveSizeInvariant(t *testing.T) {
	r := NewDefaultRand(14)
	e := newTestEngine(r)
	e.Corpus = stubCorpus{data: []byte("the quick brown fox jumps")}
	e.Dictionary = StaticDictionary([][]byte{[]byte("dict-token"), []byte("x")})
	e.Feedback = stubFeedback{vals: [][]byte{[]byte("feedback-val")}}
	e.Config.CmpFeedbackEnabled = true

	for _, op := range catalog {
		in := New(32, []byte("seed"))

		for i := 0; i < 200; i++ {
			op(e, in, i%2 == 0)

			if in.Size() < 0 || in.Size() > in.MaxSize() {
				t.Fatalf("operator broke size invariant: size=%d maxSize=%d", in.Size(), in.MaxSize())
			}
		}
	}
}

func TestAllOperatorsStayPrintableInPrintableMode(t *testing.T) {
	r := NewDefaultRand(15)
	e := newTestEngine(r)
	e.Corpus = stubCorpus{data: []byte("printable corpus seed data")}
	e.Dictionary = StaticDictionary([][]byte{[]byte("ok")})

	for _, op := range catalog {
		in := New(32, []byte("seed"))

		for i := 0; i < 100; i++ {
			op(e, in, true)

			for _, b := range in.Bytes() {
				if !isPrintable(b) {
					t.Fatalf("printable-mode operator produced non-printable byte %d", b)
				}
			}
		}
	}
}

type stubCorpus struct{ data []byte }

func (s stubCorpus) PickRandomInput() []byte { return s.data }

type stubFeedback struct{ vals [][]byte }

func (s stubFeedback) Snapshot() [][]byte { return s.vals }
