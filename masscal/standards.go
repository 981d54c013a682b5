package masscal

import (
	"math"
	"sort"
)

// AnyRetentionTime marks a calibrant that can be found at all retention
// times (e.g. background ions such as cyclosiloxanes)
const AnyRetentionTime = -math.MaxFloat64

// StandardsIndex holds calibrants ordered by m/z. It is never modified
// after creation, so it can be shared by concurrent matching calls.
type StandardsIndex struct {
	items []StandardsListItem // sorted by MZRatio
}

// NewStandardsIndex creates an index from a list of calibrants.
// The input slice is copied.
func NewStandardsIndex(items []StandardsListItem) *StandardsIndex {
	sorted := make([]StandardsListItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted,
		func(i, j int) bool { return sorted[i].MZRatio < sorted[j].MZRatio })
	return &StandardsIndex{items: sorted}
}

// Len returns the number of calibrants
func (s *StandardsIndex) Len() int {
	return len(s.items)
}

// Items returns a copy of the calibrants, ordered by m/z
func (s *StandardsIndex) Items() []StandardsListItem {
	out := make([]StandardsListItem, len(s.items))
	copy(out, s.items)
	return out
}

// InRanges returns the calibrants with m/z in mzRange and retention time
// in rtRange. A nil range means no filtering on that axis.
func (s *StandardsIndex) InRanges(mzRange, rtRange *Range) *StandardsIndex {
	lo, hi := 0, len(s.items)
	if mzRange != nil {
		lo = sort.Search(len(s.items), func(i int) bool { return s.items[i].MZRatio >= mzRange.Lo })
		hi = sort.Search(len(s.items), func(i int) bool { return s.items[i].MZRatio > mzRange.Hi })
		if hi < lo {
			hi = lo
		}
	}
	if rtRange == nil {
		return &StandardsIndex{items: s.items[lo:hi:hi]}
	}
	found := make([]StandardsListItem, 0, hi-lo)
	for _, item := range s.items[lo:hi] {
		if rtRange.Contains(item.RetentionTime) {
			found = append(found, item)
		}
	}
	return &StandardsIndex{items: found}
}

// rtCandidates returns the calibrants with retention time in rtRange,
// plus the ones that elute at all retention times
func (s *StandardsIndex) rtCandidates(rtRange Range) *StandardsIndex {
	found := make([]StandardsListItem, 0, len(s.items))
	for _, item := range s.items {
		if item.RetentionTime == AnyRetentionTime || rtRange.Contains(item.RetentionTime) {
			found = append(found, item)
		}
	}
	return &StandardsIndex{items: found}
}
