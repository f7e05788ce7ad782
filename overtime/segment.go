package overtime

import (
	"fmt"
	"math"
)

const hoursPerDay = 24.0

// Segment is the part of a request that falls on one calendar day, as
// time-of-day hours in [0, 24]. Day counts days since the request's start date.
type Segment struct {
	Day   int
	Start float64
	End   float64
}

func (s Segment) Duration() float64 { return s.End - s.Start }

func (s Segment) String() string {
	return fmt.Sprintf("d%d[%.2f-%.2f)", s.Day, s.Start, s.End)
}

// SplitSegments cuts the extended-timeline interval [start, end) at every
// midnight. start is a time-of-day on day 0; end may exceed 24 by any number
// of days. Empty pieces are dropped, so [22, 24) yields one segment and
// [23, 50) yields [23,24) [0,24) [0,2).
func SplitSegments(start, end float64) []Segment {
	if !(end > start) {
		return nil
	}
	var segs []Segment
	for day := int(math.Floor(start / hoursPerDay)); float64(day)*hoursPerDay < end; day++ {
		offset := float64(day) * hoursPerDay
		s := math.Max(start, offset) - offset
		e := math.Min(end, offset+hoursPerDay) - offset
		if s < e {
			segs = append(segs, Segment{Day: day, Start: s, End: e})
		}
	}
	return segs
}

// overlap returns the length of [aStart, aEnd) ∩ [bStart, bEnd) and its bounds.
func overlap(aStart, aEnd, bStart, bEnd float64) (start, end, length float64) {
	start = math.Max(aStart, bStart)
	end = math.Min(aEnd, bEnd)
	if start < end {
		return start, end, end - start
	}
	return start, end, 0
}
