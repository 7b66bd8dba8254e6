package corpus

import (
	"bytes"

	"github.com/natefinch/atomic"
)

// atomicWriteFile writes data to path via a temp-file-plus-rename so a
// concurrent reader (another worker scanning the corpus directory, or a
// crashed process restarting) never observes a half-written entry.
func atomicWriteFile(path string, data []byte) error {
	return atomic.WriteFile(path, bytes.NewReader(data))
}
