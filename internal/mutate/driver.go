package mutate

// catalog is the fixed operator menu the driver dispatches over. Shrink
// appears four times rather than being bias-weighted, per spec §4.3: every
// other operator appears exactly once, so Shrink's selection frequency
// (4/30) stays close to "4 times as likely as any other single operator"
// without introducing a separate weighting mechanism.
var catalog = []operatorFunc{
	opBit,
	opIncByte,
	opDecByte,
	opNegByte,
	opAddSub,
	opMemSet,
	opMemCopyOverwrite,
	opMemCopyInsert,
	opBytesOverwrite,
	opBytesInsert,
	opASCIINumOverwrite,
	opASCIINumInsert,
	opByteRepeatOverwrite,
	opByteRepeatInsert,
	opMagicOverwrite,
	opMagicInsert,
	opDictionaryOverwrite,
	opDictionaryInsert,
	opConstFeedbackOverwrite,
	opConstFeedbackInsert,
	opRandomOverwrite,
	opRandomInsert,
	opSpliceOverwrite,
	opSpliceInsert,
	opExpand,
	opShrink,
	opShrink,
	opShrink,
	opShrink,
	opResize,
}

// stagnationMillis is how long coverage must go unchanged before Mangle
// makes an extra stagnation-splice draw (SpliceOverwrite, SpliceInsert, or
// nothing, each equally likely) on top of the ordinary catalog draws, per
// spec §4.4.
const stagnationMillis = 1000

// Mangle is the engine's single entry point: it applies a slow_factor-scaled
// number of catalog draws to in, in place, publishing a new Seq() once done.
//
// A slow_factor of 0 to 2 applies a random count between 1 and
// MutationsPerRun; higher slow_factor values raise the count to fixed
// floors of 5, 7 or 10, trading speed for more aggressive per-call
// mutation (spec §4.4). If the configured MutationsPerRun is 0,
// Mangle returns immediately without touching in.
func (e *Engine) Mangle(in *Input, slowFactor uint8) {
	if e.Config.MutationsPerRun == 0 {
		return
	}

	if in.Size() == 0 {
		opResize(e, in, e.Config.OnlyPrintable)

		if in.Size() == 0 {
			in.seq.publish()

			return
		}
	}

	changeCount := e.changeCount(slowFactor)

	if e.stagnating() {
		e.stagnationSplice(in)
	}

	for i := 0; i < changeCount; i++ {
		op := catalog[e.Rand.Intn(0, len(catalog)-1)]
		op(e, in, e.Config.OnlyPrintable)
	}

	in.seq.publish()
}

// changeCount derives the number of catalog draws from slow_factor, per the
// exact table in spec §4.4 step 3:
//
//	slow_factor ∈ {0,1,2} -> rand(1, mutations_per_run)
//	slow_factor ∈ {3,4}   -> max(mutations_per_run, 5)
//	slow_factor ∈ {5..9}  -> max(mutations_per_run, 7)
//	slow_factor >= 10     -> max(mutations_per_run, 10)
func (e *Engine) changeCount(slowFactor uint8) int {
	base := e.Config.MutationsPerRun

	switch {
	case slowFactor <= 2:
		return e.Rand.Intn(1, max1(base))
	case slowFactor <= 4:
		return maxOf(base, 5)
	case slowFactor <= 9:
		return maxOf(base, 7)
	default:
		return maxOf(base, 10)
	}
}

func max1(v int) int {
	if v < 1 {
		return 1
	}

	return v
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}

	return b
}

// stagnationSplice performs spec §4.4 step 4: with equal probability, one of
// SpliceOverwrite, SpliceInsert, or nothing at all. Broken out of Mangle so
// the three-way choice can be exercised directly in tests.
func (e *Engine) stagnationSplice(in *Input) {
	switch e.Rand.Intn(0, 2) {
	case 0:
		spliceOp(e, in, e.Config.OnlyPrintable, false)
	case 1:
		spliceOp(e, in, e.Config.OnlyPrintable, true)
	default:
		// equal-probability "do nothing" branch.
	}
}

// stagnating reports whether coverage has gone unchanged long enough
// (spec §4.4: LastCoverageUpdateMillis more than stagnationMillis behind
// Clock.NowMillis()) to warrant the extra stagnation-splice draw this call.
func (e *Engine) stagnating() bool {
	if e.Clock == nil {
		return false
	}

	return e.Clock.NowMillis()-e.Config.LastCoverageUpdateMillis > stagnationMillis
}
