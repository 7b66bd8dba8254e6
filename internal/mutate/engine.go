package mutate

// MaxBlock bounds most block operators to promote locality (spec §4.3).
const MaxBlock = 512

// Engine wires the random oracle and the external collaborators (user
// dictionary, comparison-feedback table, corpus accessor, clock) to the
// operator catalog and the driver. An Engine holds a single RandSource, so
// concurrent Mangle calls on one Engine share it; parallel workers each
// build their own Engine with their own RandSource (as cmd/mutate-fuzz
// does) and own their Input exclusively for the duration of a Mangle call.
type Engine struct {
	Config     Config
	Rand       RandSource
	Dictionary DictionarySource
	Feedback   FeedbackSource
	Corpus     CorpusAccessor
	Clock      Clock
}

// NewEngine constructs an Engine, defaulting any nil collaborator to its
// no-op/empty implementation so callers only need to supply what they use.
func NewEngine(cfg Config, rs RandSource) *Engine {
	return &Engine{
		Config:     cfg,
		Rand:       rs,
		Dictionary: StaticDictionary(nil),
		Corpus:     NoCorpus(),
		Feedback:   NoFeedback(),
		Clock:      SystemClock(),
	}
}

func (e *Engine) offset(size int) int {
	return Offset(e.Rand, size)
}

// blockLen returns a skewed block length bounded by both MaxBlock and the
// caller-supplied room, always at least 1.
func (e *Engine) blockLen(room int) int {
	m := room
	if m > MaxBlock {
		m = MaxBlock
	}

	if m < 1 {
		m = 1
	}

	return e.Rand.Skewed(m)
}
