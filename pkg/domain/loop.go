package domain

import (
	"maps"
	"slices"
)

// LoopRecord tracks the loop nests a state currently occupies and how many
// times it took each loop's back edge.
type LoopRecord struct {
	// Active lists the entry addresses of the loops the state is inside,
	// outermost first.
	Active []uint64 `json:"active,omitempty"`

	// TripCounts maps a loop entry to the back-edge counts of every visit to
	// that loop. The last element belongs to the current visit.
	TripCounts map[uint64][]int `json:"trip_counts,omitempty"`
}

// NewLoopRecord returns an empty record.
func NewLoopRecord() *LoopRecord {
	return &LoopRecord{TripCounts: make(map[uint64][]int)}
}

// Clone returns a deep copy. Cloning nil yields nil.
func (r *LoopRecord) Clone() *LoopRecord {
	if r == nil {
		return nil
	}
	c := &LoopRecord{
		Active:     slices.Clone(r.Active),
		TripCounts: make(map[uint64][]int, len(r.TripCounts)),
	}
	for entry, counts := range r.TripCounts {
		c.TripCounts[entry] = slices.Clone(counts)
	}
	return c
}

// Enter records a new visit to the loop at entry.
func (r *LoopRecord) Enter(entry uint64) {
	if r.TripCounts == nil {
		r.TripCounts = make(map[uint64][]int)
	}
	r.Active = append(r.Active, entry)
	r.TripCounts[entry] = append(r.TripCounts[entry], 0)
}

// BackEdge increments the current trip count of the loop at entry.
func (r *LoopRecord) BackEdge(entry uint64) {
	counts := r.TripCounts[entry]
	if len(counts) == 0 {
		r.Enter(entry)
		counts = r.TripCounts[entry]
	}
	counts[len(counts)-1]++
}

// Exit leaves the loop at entry and every loop nested inside it.
func (r *LoopRecord) Exit(entry uint64) {
	if i := slices.Index(r.Active, entry); i >= 0 {
		r.Active = r.Active[:i]
	}
}

// Inside reports whether the state currently occupies the loop at entry.
func (r *LoopRecord) Inside(entry uint64) bool {
	return r != nil && slices.Contains(r.Active, entry)
}

// Current returns the back-edge count of the ongoing visit to entry.
func (r *LoopRecord) Current(entry uint64) int {
	if r == nil {
		return 0
	}
	counts := r.TripCounts[entry]
	if len(counts) == 0 {
		return 0
	}
	return counts[len(counts)-1]
}

// Depth sums the current trip counts over every occupied loop.
func (r *LoopRecord) Depth() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, entry := range r.Active {
		total += r.Current(entry)
	}
	return total
}

// Max returns the largest current trip count among occupied loops.
func (r *LoopRecord) Max() int {
	if r == nil {
		return 0
	}
	highest := 0
	for _, entry := range r.Active {
		highest = max(highest, r.Current(entry))
	}
	return highest
}

// Equal compares the trip-count histories of two records.
func (r *LoopRecord) Equal(o *LoopRecord) bool {
	if r == nil || o == nil {
		return r.empty() && o.empty()
	}
	return maps.EqualFunc(r.TripCounts, o.TripCounts, slices.Equal[[]int])
}

func (r *LoopRecord) empty() bool {
	return r == nil || len(r.TripCounts) == 0
}
