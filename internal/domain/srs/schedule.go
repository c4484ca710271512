package srs

import (
	"fmt"
	"math"
	"time"
)

// timeLayouts are the accepted formats for stored review timestamps.
// RFC 3339 is what this service writes; the zone-less variants appear in
// collections imported from older flat-file exports.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTime parses a stored review timestamp. It returns a zero time and
// false when the value is empty or not in any accepted format.
func ParseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTime renders a timestamp in the canonical stored form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// NextReviewTime computes when an item with the given review count should
// next be reviewed under the given strategy, measured from reference.
//
// The interval is Intervals[reviewCount]; once the count reaches or exceeds
// the table length the last interval is reused indefinitely (plateau
// policy). Intervals are fractional days, so sub-day cadences such as the
// aggressive strategy's 0.5-day first gap resolve to 12 hours.
func NextReviewTime(reviewCount int, strategy Strategy, reference time.Time) time.Time {
	intervals := strategy.Intervals
	var days float64
	if reviewCount < len(intervals) {
		days = intervals[reviewCount]
	} else {
		days = intervals[len(intervals)-1]
	}
	return reference.Add(time.Duration(days * float64(24*time.Hour)))
}

// IsDue reports whether an item scheduled for nextReviewAt is due at now.
//
// An empty value means the item was never scheduled and is always due. A
// malformed value fails closed: the item is reported not due rather than
// surfacing a parse error, so one corrupt row can never abort a due-list
// query.
func IsDue(nextReviewAt string, now time.Time) bool {
	if nextReviewAt == "" {
		return true
	}
	next, ok := ParseTime(nextReviewAt)
	if !ok {
		return false
	}
	return !next.After(now)
}

// Completion describes how far an item has progressed through its
// strategy's review cycle.
type Completion struct {
	CurrentReviewCount   int     `json:"current_review_count"`
	TotalReviewsNeeded   int     `json:"total_reviews_needed"`
	CompletionPercentage float64 `json:"completion_percentage"`
	IsCompleted          bool    `json:"is_completed"`
	NextReviewCount      int     `json:"next_review_count"`
}

// CompletionEstimate returns the completion state for reviewCount reviews
// under the given strategy. The percentage is capped at 100 and rounded to
// one decimal place.
func CompletionEstimate(reviewCount int, strategy Strategy) Completion {
	total := len(strategy.Intervals)
	pct := math.Min(float64(reviewCount)/float64(total)*100, 100)
	return Completion{
		CurrentReviewCount:   reviewCount,
		TotalReviewsNeeded:   total,
		CompletionPercentage: math.Round(pct*10) / 10,
		IsCompleted:          reviewCount >= total,
		NextReviewCount:      reviewCount + 1,
	}
}

// Countdown describes the remaining wait before an item is due.
type Countdown struct {
	Ready   bool   `json:"ready"`
	Days    int    `json:"days"`
	Hours   int    `json:"hours"`
	Message string `json:"message"`
}

// TimeUntilDue returns the remaining wait before nextReviewAt, split into
// whole days and remainder hours. An empty value counts as ready now; a
// malformed value is reported as never ready, mirroring IsDue's fail-closed
// policy.
func TimeUntilDue(nextReviewAt string, now time.Time) Countdown {
	if nextReviewAt == "" {
		return Countdown{Ready: true, Message: "ready for review"}
	}

	next, ok := ParseTime(nextReviewAt)
	if !ok {
		return Countdown{Ready: false, Days: -1, Hours: -1, Message: "invalid review time"}
	}

	diff := next.Sub(now)
	if diff <= 0 {
		return Countdown{Ready: true, Message: "ready for review"}
	}

	days := int(diff / (24 * time.Hour))
	hours := int(diff%(24*time.Hour)) / int(time.Hour)
	return Countdown{
		Ready:   false,
		Days:    days,
		Hours:   hours,
		Message: fmt.Sprintf("due in %d days %d hours", days, hours),
	}
}
