package corpus

import (
	"bytes"
	"testing"
	"time"
)

func TestMinimizeReturnsUnchangedIfNotInteresting(t *testing.T) {
	in := []byte("not interesting")

	got := Minimize(1, in, func([]byte) bool { return false }, time.Second)
	if !bytes.Equal(got, in) {
		t.Fatalf("Minimize() = %q, want unchanged %q", got, in)
	}
}

func TestMinimizeShrinksWhilePreservingMarker(t *testing.T) {
	in := []byte("xxxxxxxxxxMARKERyyyyyyyyyy")

	isInteresting := func(data []byte) bool {
		return bytes.Contains(data, []byte("MARKER"))
	}

	got := Minimize(7, in, isInteresting, 2*time.Second)

	if !isInteresting(got) {
		t.Fatalf("Minimize() result %q lost the marker", got)
	}

	if len(got) >= len(in) {
		t.Fatalf("Minimize() result length %d did not shrink from %d", len(got), len(in))
	}
}

func TestMinimizeNeverGrowsInput(t *testing.T) {
	in := []byte("abcdefghijklmnopqrstuvwxyz")

	isInteresting := func(data []byte) bool { return len(data) > 3 }

	got := Minimize(9, in, isInteresting, time.Second)
	if len(got) > len(in) {
		t.Fatalf("Minimize() grew input: %d > %d", len(got), len(in))
	}
}
