// Package session persists and restores a mutation campaign's resumable
// state: the corpus directory it's pointed at, the cumulative execution
// count, and the coverage-stagnation timer, so a campaign killed and
// restarted keeps its counters and stagnation timing. The
// comparison-feedback table is not persisted.
package session

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/natefinch/atomic"
)

// magic identifies a session file before any version-compatibility check is
// even attempted.
var magic = [4]byte{'O', 'M', 'F', 'Z'}

// formatVersion is this build's on-disk format version. Compatibility with
// a file written by another build is decided by compatConstraint, not by
// exact equality, so older sessions remain loadable across patch releases.
const formatVersion = "1.0.0"

// compatConstraint is the range of format versions this build can read.
const compatConstraint = "^1.0.0"

// State is the resumable campaign state, round-tripped as JSON inside the
// versioned envelope below.
type State struct {
	LastCoverageUpdateMillis int64  `json:"last_coverage_update_millis"`
	CorpusDir                string `json:"corpus_dir"`
	Executions               uint64 `json:"executions"`
}

// Save writes state to path as a versioned, atomically-written file: a
// 4-byte magic, a length-prefixed format-version string, then the JSON
// payload. The temp-file-plus-rename write (via natefinch/atomic) means a
// crash mid-save leaves the previous session file intact.
func Save(path string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: marshal state: %w", err)
	}

	var buf bytes.Buffer

	buf.Write(magic[:])

	verBytes := []byte(formatVersion)

	var verLen [2]byte
	binary.LittleEndian.PutUint16(verLen[:], uint16(len(verBytes)))
	buf.Write(verLen[:])
	buf.Write(verBytes)

	buf.Write(payload)

	return atomic.WriteFile(path, &buf)
}

// Load reads and validates a session file written by Save. A format version
// outside compatConstraint is reported as an error rather than silently
// discarded, so callers can decide whether to start a fresh campaign.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}

	if len(data) < 4+2 {
		return State{}, fmt.Errorf("session: %s: truncated header", path)
	}

	if !bytes.Equal(data[:4], magic[:]) {
		return State{}, fmt.Errorf("session: %s: bad magic", path)
	}

	verLen := int(binary.LittleEndian.Uint16(data[4:6]))
	if len(data) < 6+verLen {
		return State{}, fmt.Errorf("session: %s: truncated version string", path)
	}

	verStr := string(data[6 : 6+verLen])

	if err := checkCompatible(verStr); err != nil {
		return State{}, err
	}

	var state State
	if err := json.Unmarshal(data[6+verLen:], &state); err != nil {
		return State{}, fmt.Errorf("session: %s: invalid payload: %w", path, err)
	}

	return state, nil
}

func checkCompatible(verStr string) error {
	fileVer, err := semver.NewVersion(verStr)
	if err != nil {
		return fmt.Errorf("session: invalid format version %q: %w", verStr, err)
	}

	constraint, err := semver.NewConstraint(compatConstraint)
	if err != nil {
		return fmt.Errorf("session: invalid compatibility constraint %q: %w", compatConstraint, err)
	}

	if !constraint.Check(fileVer) {
		return fmt.Errorf("session: format version %s is not compatible with this build (requires %s)",
			fileVer, compatConstraint)
	}

	return nil
}
