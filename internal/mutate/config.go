// Package mutate implements the input mutation engine of a coverage-guided
// fuzzing harness: a stateless dispatcher over a fixed menu of mutation
// operators that transforms a length-bounded byte buffer in place.
package mutate

import "time"

// Config is the immutable context a mutation run executes under.
type Config struct {
	// MaxInputSize bounds growth for Expand/Insert/Resize.
	MaxInputSize int
	// MutationsPerRun is the baseline operator-application count; 0 disables
	// mutation entirely.
	MutationsPerRun int
	// OnlyPrintable forces every write into the 32..=126 ASCII range.
	OnlyPrintable bool
	// CmpFeedbackEnabled gates whether the comparison-feedback dictionary is
	// consulted by ConstFeedbackOverwrite/Insert.
	CmpFeedbackEnabled bool
	// LastCoverageUpdateMillis is read-only timing state owned by the
	// caller; the driver compares it against Clock.NowMillis() to decide
	// whether coverage has stagnated long enough to warrant an extra
	// splice.
	LastCoverageUpdateMillis int64
}

// RandSource is the uniform/skewed random oracle described in spec §4.1.
// Implementations must panic (via errorsx) on malformed bounds; every other
// method always succeeds.
type RandSource interface {
	// Intn returns a uniform integer in [min, max]. Panics if min > max.
	Intn(min, max int) int
	// Skewed returns an integer in [1, max] with quadratic bias toward 1.
	// Panics if max == 0 or max exceeds the implementation's hard ceiling.
	Skewed(max int) int
	// Byte returns a uniform random byte.
	Byte() byte
	// PrintableByte returns a uniform random byte in 32..=126.
	PrintableByte() byte
}

// CorpusAccessor returns a borrowed view of some other corpus input for
// splicing. An empty or nil result means "no corpus available" and callers
// must fall back to a non-splice operator.
type CorpusAccessor interface {
	PickRandomInput() []byte
}

// FeedbackSource exposes a read-only, already-filtered snapshot of the
// comparison-feedback dictionary. Implementations perform the acquire-load
// dance themselves; Snapshot must never block a concurrent producer.
type FeedbackSource interface {
	Snapshot() [][]byte
}

// DictionarySource exposes the current user dictionary. Implementations may
// hot-swap the underlying token list (see internal/dictionary) without the
// engine needing to know.
type DictionarySource interface {
	Tokens() [][]byte
}

// Clock is the read-only timing collaborator.
type Clock interface {
	NowMillis() int64
}

// staticDictionary and staticCorpus adapt plain slices to the collaborator
// interfaces for callers that have no hot-reload or corpus-management
// story (tests, simple embedders).
type staticDictionary [][]byte

func (d staticDictionary) Tokens() [][]byte { return d }

// StaticDictionary wraps a fixed token list as a DictionarySource.
func StaticDictionary(tokens [][]byte) DictionarySource { return staticDictionary(tokens) }

type noCorpus struct{}

func (noCorpus) PickRandomInput() []byte { return nil }

// NoCorpus is a CorpusAccessor that never has anything to splice from.
func NoCorpus() CorpusAccessor { return noCorpus{} }

type noFeedback struct{}

func (noFeedback) Snapshot() [][]byte { return nil }

// NoFeedback is a FeedbackSource with an always-empty table.
func NoFeedback() FeedbackSource { return noFeedback{} }

// systemClock is the default Clock, backed by the wall clock.
type systemClock struct{}

func (systemClock) NowMillis() int64 { return time.Now().UnixMilli() }

// SystemClock is a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
