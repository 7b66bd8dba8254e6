package mutate

import "testing"

func TestNewMmapHonorsSizeInvariant(t *testing.T) {
	in := NewMmap(64, []byte("seed"))
	defer in.Close()

	if in.Size() != 4 {
		t.Fatalf("Size() = %d, want 4", in.Size())
	}

	if in.MaxSize() != 64 {
		t.Fatalf("MaxSize() = %d, want 64", in.MaxSize())
	}

	in.SetSize(1000)

	if in.Size() != 64 {
		t.Fatalf("SetSize() clamp failed: Size() = %d, want 64", in.Size())
	}

	if err := in.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestNewMmapMangleRoundTrip(t *testing.T) {
	in := NewMmap(128, []byte("hello world"))
	defer in.Close()

	r := NewDefaultRand(7)
	e := NewEngine(Config{MaxInputSize: 128, MutationsPerRun: 4}, r)

	for i := 0; i < 20; i++ {
		e.Mangle(in, uint8(i%3))

		if in.Size() < 0 || in.Size() > in.MaxSize() {
			t.Fatalf("size invariant violated after Mangle: %d", in.Size())
		}
	}
}
