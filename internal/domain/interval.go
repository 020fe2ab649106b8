package domain

import (
	"fmt"
	"strings"
	"time"
)

// Interval is a half-open time window [Start, End). Comparisons are done
// after normalization to UTC.
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start.UTC(), End: end.UTC()}
}

func (iv Interval) IsValid() bool {
	return iv.End.After(iv.Start)
}

func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Subtract removes window from iv and returns the remainders: the part
// before window.Start and the part after window.End. A non-overlapping
// window leaves iv unchanged; a covering window leaves nothing.
func (iv Interval) Subtract(window Interval) []Interval {
	if !iv.Overlaps(window) {
		return []Interval{iv}
	}

	var remainders []Interval
	if iv.Start.Before(window.Start) {
		remainders = append(remainders, Interval{Start: iv.Start, End: window.Start})
	}
	if iv.End.After(window.End) {
		remainders = append(remainders, Interval{Start: window.End, End: iv.End})
	}
	return remainders
}

// EncodeSlot serializes an interval for slot-list storage.
func EncodeSlot(iv Interval) string {
	return iv.Start.UTC().Format(time.RFC3339Nano) + "|" + iv.End.UTC().Format(time.RFC3339Nano)
}

// ParseSlot parses a stored "start|end" pair. Malformed entries are
// reported via error so callers can skip stale data instead of failing.
func ParseSlot(raw string) (Interval, error) {
	parts := strings.SplitN(raw, "|", 2)
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("malformed slot %q", raw)
	}
	start, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Interval{}, fmt.Errorf("malformed slot start %q: %w", parts[0], err)
	}
	end, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return Interval{}, fmt.Errorf("malformed slot end %q: %w", parts[1], err)
	}
	return NewInterval(start, end), nil
}
