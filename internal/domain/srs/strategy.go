// Package srs implements the spaced repetition scheduling core: the static
// catalog of review strategies and the pure calculation functions that derive
// review timestamps from them.
package srs

// Strategy is a named review cadence: an ordered table of day-intervals
// indexed by review count. Strategies are immutable catalog data; they are
// never created or modified at runtime.
type Strategy struct {
	// Name uniquely identifies the strategy (e.g. "standard").
	Name string `json:"name"`

	// Intervals holds the gap, in days, before each successive review.
	// Fractional values are allowed (0.5 = 12 hours). Once the review count
	// reaches the end of the table, the last value is reused indefinitely.
	Intervals []float64 `json:"intervals"`

	// CycleDays is the nominal number of days to mastery. Metadata only;
	// it never participates in schedule calculation.
	CycleDays int `json:"cycle_days"`

	// Description is human-readable text shown to the learner when
	// choosing a cadence.
	Description string `json:"description"`
}

// TotalReviews returns the number of reviews needed to complete the cycle.
func (s Strategy) TotalReviews() int {
	return len(s.Intervals)
}

// DefaultStrategyName is the strategy used when a caller supplies an
// unknown or empty strategy name.
const DefaultStrategyName = "standard"

// catalogOrder fixes the enumeration order of List. Map iteration order
// would make the discovery endpoint non-deterministic.
var catalogOrder = []string{"aggressive", "balanced", "standard"}

// catalog is the full set of supported review strategies, built once at
// process start. No dynamic registration is supported.
var catalog = map[string]Strategy{
	"aggressive": {
		Name:        "aggressive",
		Intervals:   []float64{0.5, 1, 2, 4},
		CycleDays:   7,
		Description: "Short, concentrated cycle for chapters that must be mastered quickly",
	},
	"balanced": {
		Name:        "balanced",
		Intervals:   []float64{1, 3, 7, 14},
		CycleDays:   14,
		Description: "Standard two-week cycle suited to day-to-day study",
	},
	"standard": {
		Name:        "standard",
		Intervals:   []float64{1, 3, 7, 15, 30},
		CycleDays:   30,
		Description: "Classic Ebbinghaus forgetting curve, best for long-term retention",
	},
}

// Resolve returns the strategy registered under name. Unknown or empty
// names silently fall back to the default strategy; this is documented
// policy, not error swallowing, so callers never need an error path for a
// bad strategy name.
func Resolve(name string) Strategy {
	if s, ok := catalog[name]; ok {
		return s
	}
	return catalog[DefaultStrategyName]
}

// List enumerates all registered strategies in stable order.
func List() []Strategy {
	out := make([]Strategy, 0, len(catalogOrder))
	for _, name := range catalogOrder {
		out = append(out, catalog[name])
	}
	return out
}
