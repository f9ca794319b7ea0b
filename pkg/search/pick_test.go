package search_test

import (
	"math/rand"
	"testing"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/search"
	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		sample  float64
		want    int
	}{
		{"First bucket", []float64{0.7, 0.3}, 0.5, 0},
		{"Second bucket", []float64{0.7, 0.3}, 0.8, 1},
		{"Boundary goes right", []float64{0.5, 0.5}, 0.5, 1},
		{"Zero weights are skipped", []float64{0, 1, 0}, 0.2, 1},
		{"Rounding overshoot lands on last positive", []float64{0.2, 0.3, 0}, 0.5000001, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, search.Select(tt.weights, tt.sample))
		})
	}
}

func TestPick(t *testing.T) {
	t.Run("Consumes exactly one draw", func(t *testing.T) {
		r := &seqRand{t: t, vals: []float64{0.5}}
		assert.Equal(t, 0, search.Pick(r, []float64{0.7, 0.3}))
		assert.Equal(t, 1, r.i)
	})

	t.Run("Scales the draw by the total", func(t *testing.T) {
		r := &seqRand{t: t, vals: []float64{0.5}}
		assert.Equal(t, 1, search.Pick(r, []float64{1, 3}), "0.5*4=2 falls in the second bucket")
	})

	t.Run("All zero falls back to uniform", func(t *testing.T) {
		r := &seqRand{t: t, vals: []float64{0.99}}
		assert.Equal(t, 2, search.Pick(r, []float64{0, 0, 0}))
	})

	t.Run("Negative weights count as zero", func(t *testing.T) {
		r := &seqRand{t: t, vals: []float64{0.1}}
		assert.Equal(t, 1, search.Pick(r, []float64{-5, 2}))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, -1, search.Pick(rand.New(rand.NewSource(1)), nil))
	})

	t.Run("Frequencies follow weights", func(t *testing.T) {
		r := rand.New(rand.NewSource(search.DefaultSeed))
		hits := make([]int, 3)
		for range 30000 {
			hits[search.Pick(r, []float64{1, 2, 7})]++
		}
		assert.InDelta(t, 0.1, float64(hits[0])/30000, 0.02)
		assert.InDelta(t, 0.2, float64(hits[1])/30000, 0.02)
		assert.InDelta(t, 0.7, float64(hits[2])/30000, 0.02)
	})
}

func TestMeta(t *testing.T) {
	meta := search.NewMeta[float64]()
	parent := domain.NewState(0x1, 1)
	a, b := parent.Fork(), parent.Fork()

	assert.Equal(t, 1.0, meta.Ensure(parent.ID, 1))
	assert.Equal(t, 1.0, meta.Ensure(parent.ID, 9), "existing value wins")

	meta.Inherit(parent.ID, 1, func(w float64) float64 { return w / 2 }, a, b)
	got, ok := meta.Get(a.ID)
	assert.True(t, ok)
	assert.Equal(t, 0.5, got)

	meta.Forget(parent.ID)
	assert.Equal(t, 42.0, meta.Value(parent.ID, 42))

	meta.Retain(func(id domain.StateID) bool { return id == a.ID })
	assert.Equal(t, 1, meta.Len())

	meta.Reset()
	assert.Equal(t, 0, meta.Len())
}
