//go:build linux

package mutate

import (
	"golang.org/x/sys/unix"
)

// mmapBacking backs an Input with a single anonymous mmap region sized to
// maxSize, so SetSize never triggers a Go allocation or a syscall: the
// logical view is always a re-slice of the same mapped pages. This is how
// spec §5's "the engine owns no heap allocations" is delivered for
// long-running campaigns rather than merely asserted.
type mmapBacking struct {
	region []byte
}

func (mmapBacking) Resize(int) {}

func (b mmapBacking) Close() error {
	if b.region == nil {
		return nil
	}

	return unix.Munmap(b.region)
}

// NewMmap allocates an Input backed by an anonymous mmap region instead of
// a heap slice. Callers must call Close when the Input is no longer needed
// to release the mapping. Falls back silently to a normal heap-backed
// Input if the mmap syscall fails (e.g. under a sandbox that denies it).
func NewMmap(maxSize int, initial []byte) *Input {
	if maxSize < 1 {
		maxSize = 1
	}

	region, err := unix.Mmap(-1, 0, maxSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return New(maxSize, initial)
	}

	n := copy(region, initial)

	return &Input{data: region, size: n, maxSize: maxSize, backing: mmapBacking{region: region}}
}
