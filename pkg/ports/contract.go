package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunReportStoreContract runs a suite of tests to verify that a ReportStore
// implementation adheres to the defined interface contract.
func RunReportStoreContract(t *testing.T, store ReportStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newReport := func(id string) *domain.Report {
		return &domain.Report{
			SessionID: id,
			Strategy:  "tree",
			Seed:      42,
			Steps:     10,
			Outcome:   domain.OutcomeRunning,
			Pools:     domain.PoolCounts{domain.PoolActive: 1, domain.PoolDeferred: 3},
			Covered:   12,
			StartedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		report := newReport(sessionID)
		report.Outcome = domain.OutcomeExploded

		err := store.Save(ctx, report)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, report.Strategy, loaded.Strategy)
		assert.Equal(t, report.Steps, loaded.Steps)
		assert.Equal(t, domain.OutcomeExploded, loaded.Outcome)
		assert.Equal(t, 3, loaded.Pools[domain.PoolDeferred])
		assert.True(t, report.StartedAt.Equal(loaded.StartedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		report := newReport(sessionID)
		report.Steps = 99
		require.NoError(t, store.Save(ctx, report))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 99, loaded.Steps)
	})

	t.Run("Loaded Report Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Pools[domain.PoolActive] = 1000

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotEqual(t, 1000, again.Pools[domain.PoolActive])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrReportNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newReport(sessionID)))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrReportNotFound, "Load after Delete should return ErrReportNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, newReport(id1))
		_ = store.Save(ctx, newReport(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
