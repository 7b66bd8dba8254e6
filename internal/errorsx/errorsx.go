// Package errorsx provides standardized fatal-error reporting for the
// mutation engine's three programmer-error conditions.
package errorsx

import (
	"fmt"
	"runtime"
)

// Category groups faults by the invariant they violate.
type Category string

const (
	CategoryRandom Category = "RANDOM"
	CategoryBounds Category = "BOUNDS"
	CategoryConfig Category = "CONFIG"
	CategorySystem Category = "SYSTEM"
)

// Fault is a structured, categorized error. The engine never returns one of
// these to a caller — it panics with it. Inside the engine only the three
// conditions in spec §7 ("Error Handling Design") construct a Fault:
// malformed rand bounds, a malformed skew bound, and an AddSub width outside
// {1,2,4,8}. Every other engine failure mode is a silent clamp or fallback,
// not a Fault. InvalidConfig is the one constructor meant for callers
// outside Mangle.
type Fault struct {
	Category Category
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

func (e *Fault) Error() string {
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

func newFault(category Category, code, message string, context map[string]interface{}) *Fault {
	pc, _, _, ok := runtime.Caller(2)
	caller := "unknown"

	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &Fault{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// InvalidRandRange reports rand(min, max) called with min > max.
func InvalidRandRange(min, max int) *Fault {
	return newFault(CategoryRandom, "INVALID_RAND_RANGE",
		fmt.Sprintf("rand range invalid: min=%d > max=%d", min, max),
		map[string]interface{}{"min": min, "max": max})
}

// InvalidSkewBound reports rand_skewed(max) called with max == 0 or max
// above the implementation's hard ceiling.
func InvalidSkewBound(max, ceiling int) *Fault {
	return newFault(CategoryRandom, "INVALID_SKEW_BOUND",
		fmt.Sprintf("rand_skewed bound invalid: max=%d (ceiling=%d)", max, ceiling),
		map[string]interface{}{"max": max, "ceiling": ceiling})
}

// InvalidAddSubWidth reports an AddSub width outside {1,2,4,8}.
func InvalidAddSubWidth(width int) *Fault {
	return newFault(CategoryBounds, "INVALID_ADDSUB_WIDTH",
		fmt.Sprintf("AddSub width invalid: %d", width),
		map[string]interface{}{"width": width})
}

// InvalidConfig reports a Config that cannot be used to run a campaign
// (e.g. a zero MaxInputSize). Unlike the three fatal mutation-time
// conditions above, this is raised by callers constructing an Engine, not
// by Mangle itself.
func InvalidConfig(reason string) *Fault {
	return newFault(CategoryConfig, "INVALID_CONFIG", reason, nil)
}
