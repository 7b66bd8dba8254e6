package feedback

import (
	"sync"
	"testing"
)

func TestNewClampsCapacity(t *testing.T) {
	tb := New(0)
	if tb.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tb.Len())
	}
}

func TestAddAndSnapshot(t *testing.T) {
	tb := New(4)
	tb.Add([]byte("alpha"))
	tb.Add([]byte("beta"))

	got := tb.Snapshot()
	if len(got) != 2 {
		t.Fatalf("Snapshot() returned %d entries, want 2", len(got))
	}
}

func TestAddIgnoresEmpty(t *testing.T) {
	tb := New(4)
	tb.Add(nil)
	tb.Add([]byte{})

	if got := tb.Snapshot(); len(got) != 0 {
		t.Fatalf("Snapshot() = %v, want empty", got)
	}
}

func TestAddTruncatesOversizedEntries(t *testing.T) {
	tb := New(2)
	big := make([]byte, maxEntryLen*4)

	for i := range big {
		big[i] = byte(i)
	}

	tb.Add(big)

	got := tb.Snapshot()
	if len(got) != 1 {
		t.Fatalf("Snapshot() returned %d entries, want 1", len(got))
	}

	if len(got[0]) != maxEntryLen {
		t.Fatalf("entry length = %d, want %d", len(got[0]), maxEntryLen)
	}
}

func TestSnapshotNeverAliasesInternalStorage(t *testing.T) {
	tb := New(2)
	tb.Add([]byte("original"))

	snap := tb.Snapshot()
	snap[0][0] = 'X'

	again := tb.Snapshot()
	if string(again[0]) != "original" {
		t.Fatalf("Snapshot copy was aliased: got %q", again[0])
	}
}

// TestConcurrentAddAndSnapshot exercises the acquire/release discipline: a
// concurrent reader must never observe a length that doesn't match the
// bytes actually copied.
func TestConcurrentAddAndSnapshot(t *testing.T) {
	tb := New(8)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		for i := 0; i < 5000; i++ {
			tb.Add([]byte{byte(i), byte(i + 1), byte(i + 2)})
		}
	}()

	go func() {
		defer wg.Done()

		for i := 0; i < 5000; i++ {
			for _, e := range tb.Snapshot() {
				if len(e) == 0 || len(e) > maxEntryLen {
					t.Errorf("observed malformed entry of length %d", len(e))
				}
			}
		}
	}()

	wg.Wait()
}
