package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/furrow/internal/config"
	"github.com/aretw0/furrow/pkg/adapters/memory"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diamondYAML = `
entry: 0x1000
blocks:
  - addr: 0x1000
    insns: 4
    succ: [0x1010, 0x1020]
  - addr: 0x1010
    insns: 8
    succ: [0x1030]
  - addr: 0x1020
    insns: 2
    succ: [0x1030]
  - addr: 0x1030
    insns: 1
`

func writeGraph(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diamond.yaml")
	require.NoError(t, os.WriteFile(path, []byte(diamondYAML), 0o644))
	return path
}

func testConfig(t *testing.T) config.Config {
	c := config.Default()
	c.Heartbeat.Sentinel = filepath.Join(t.TempDir(), "stop_heartbeat.txt")
	c.Log.Level = "error"
	return c
}

func TestRun_JSONReportAndFileStore(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = config.DriverFile
	c.Store.Path = t.TempDir()

	var out bytes.Buffer
	report, err := Run(context.Background(), c, RunOptions{
		GraphPath: writeGraph(t),
		SessionID: "cli-1",
		Format:    "json",
		Out:       &out,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeExhausted, report.Outcome)

	var printed domain.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &printed))
	assert.Equal(t, "cli-1", printed.SessionID)
	assert.Equal(t, 4, printed.Covered)

	backend, err := OpenBackend(context.Background(), c.Store)
	require.NoError(t, err)
	saved, err := backend.Store.Load(context.Background(), "cli-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeExhausted, saved.Outcome)
}

func TestRun_MarkdownWhenNotATerminal(t *testing.T) {
	var out bytes.Buffer
	_, err := Run(context.Background(), testConfig(t), RunOptions{GraphPath: writeGraph(t), SessionID: "md", Out: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "# Session `md`")
	assert.Contains(t, out.String(), "| Outcome | **exhausted** |")
}

func TestRun_Errors(t *testing.T) {
	c := testConfig(t)
	c.Strategy = "bfs"
	_, err := Run(context.Background(), c, RunOptions{GraphPath: writeGraph(t), Quiet: true})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = Run(context.Background(), testConfig(t), RunOptions{GraphPath: filepath.Join(t.TempDir(), "none.yaml"), Quiet: true})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := OpenBackend(ctx, config.StoreConfig{Driver: config.DriverMemory})
		require.NoError(t, err)
		assert.Nil(t, b.Locker)
		assert.NoError(t, b.Close())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		b, err := OpenBackend(ctx, config.StoreConfig{
			Driver:    config.DriverRedis,
			RedisAddr: mr.Addr(),
			Prefix:    "t:",
			TTL:       time.Hour,
		})
		require.NoError(t, err)
		defer b.Close()
		require.NotNil(t, b.Locker)

		require.NoError(t, b.Store.Save(ctx, &domain.Report{SessionID: "r1"}))
		assert.True(t, mr.Exists("t:r1"))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := OpenBackend(ctx, config.StoreConfig{Driver: config.DriverRedis, RedisAddr: addr})
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := OpenBackend(ctx, config.StoreConfig{Driver: "s3"})
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestMetricsRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	metrics.Hooks().OnGuardTrip(context.Background(), &domain.GuardEvent{Reason: domain.GuardTimeout})

	store := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), &domain.Report{SessionID: "r1", Outcome: domain.OutcomeExhausted}))
	srv := httptest.NewServer(NewMetricsRouter(reg, store))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	assert.Contains(t, body.String(), `furrow_guard_trips_total{reason="timeout"} 1`)

	resp, err = http.Get(srv.URL + "/api/reports/r1")
	require.NoError(t, err)
	defer resp.Body.Close()
	var report domain.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, domain.OutcomeExhausted, report.Outcome)
}

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	path := writeGraph(t)
	require.NoError(t, Validate(&out, path))
	assert.Contains(t, out.String(), "4 blocks, 0 natural loops, entry 0x1000")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("blocks:\n  - addr: 1\n    succ: [2]\n"), 0o644))
	assert.ErrorIs(t, Validate(&out, bad), domain.ErrInvalidGraph)
}

func TestGraph(t *testing.T) {
	path := writeGraph(t)

	var static bytes.Buffer
	require.NoError(t, Graph(context.Background(), &static, testConfig(t), path, false))
	assert.Contains(t, static.String(), `b1000(("0x1000"))`)
	assert.Contains(t, static.String(), "b1000 --> b1010")
	assert.NotContains(t, static.String(), "covered")

	var explored bytes.Buffer
	require.NoError(t, Graph(context.Background(), &explored, testConfig(t), path, true))
	for _, id := range []string{"b1000", "b1010", "b1020", "b1030"} {
		assert.Contains(t, explored.String(), "class "+id+" covered;")
	}

	assert.Error(t, Graph(context.Background(), &explored, testConfig(t), filepath.Join(t.TempDir(), "missing.yaml"), false))
}
