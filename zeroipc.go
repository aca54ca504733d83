// Package zeroipc is the top-level convenience facade: one-call setup of a
// shared-memory segment plus its metadata table, with the process-local
// ambient state (config, metrics, debug probes) every attached process
// keeps for itself. Every container and codata constructor is reachable
// directly from package table/container/codata; this package only saves
// callers from wiring table.Create/Attach and control.New* by hand on
// every call site.
package zeroipc

import (
	"time"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/control"
	"github.com/zeroipc/zeroipc/internal/backoff"
	"github.com/zeroipc/zeroipc/internal/stats"
	"github.com/zeroipc/zeroipc/table"
)

// Config configures a new segment+table pair, plus this process's own
// spin-backoff tuning. SpinMin/SpinMax override internal/backoff's default
// bounds for every blocking primitive created afterward in this process;
// leaving either at zero keeps the package default.
type Config struct {
	Name          string
	Size          int
	MaxEntries    uint32
	EnableMetrics bool
	EnableDebug   bool
	SpinMin       time.Duration
	SpinMax       time.Duration
}

// DefaultConfig returns a Config sized for moderate use: a 64MiB segment
// with room for 256 named entries, and the backoff package's own spin
// bounds left unchanged.
func DefaultConfig(name string) *Config {
	return &Config{
		Name:          name,
		Size:          64 << 20,
		MaxEntries:    256,
		EnableMetrics: true,
		EnableDebug:   false,
		SpinMin:       backoff.Min,
		SpinMax:       backoff.Max,
	}
}

// Memory bundles a metadata Table with this process's own ConfigStore,
// MetricsRegistry and DebugProbes. None of the control state is shared
// across processes; only the Table's underlying segment is.
type Memory struct {
	table          *table.Table
	config         *control.ConfigStore
	metrics        *control.MetricsRegistry
	debug          *control.DebugProbes
	metricsEnabled bool
}

// New creates a fresh segment and table per cfg. cfg == nil is rejected;
// callers should start from DefaultConfig and override fields.
func New(cfg *Config) (*Memory, error) {
	if cfg == nil {
		return nil, api.ErrInvalidArgument.WithContext("reason", "cfg must not be nil")
	}
	control.Debug = cfg.EnableDebug
	tb, err := table.Create(cfg.Name, cfg.Size, cfg.MaxEntries)
	if err != nil {
		return nil, err
	}
	control.Logf("zeroipc: created segment %q size=%d max_entries=%d", cfg.Name, cfg.Size, cfg.MaxEntries)
	m := &Memory{
		table:          tb,
		config:         control.NewConfigStore(),
		metrics:        control.NewMetricsRegistry(),
		debug:          control.NewDebugProbes(),
		metricsEnabled: cfg.EnableMetrics,
	}
	applySpinBounds(m.config, cfg.SpinMin, cfg.SpinMax)
	m.config.SetConfig(map[string]any{
		"name":        cfg.Name,
		"size":        cfg.Size,
		"max_entries": cfg.MaxEntries,
	})
	if cfg.EnableDebug {
		m.debug.RegisterProbe("table.count", func() any { return tb.Count() })
	}
	return m, nil
}

// Open attaches to an existing segment by name, validating its table header.
func Open(name string) (*Memory, error) {
	tb, err := table.Attach(name)
	if err != nil {
		return nil, err
	}
	control.Logf("zeroipc: attached segment %q", name)
	return &Memory{
		table:          tb,
		config:         control.NewConfigStore(),
		metrics:        control.NewMetricsRegistry(),
		debug:          control.NewDebugProbes(),
		metricsEnabled: true,
	}, nil
}

// applySpinBounds overrides internal/backoff's process-wide spin bounds when
// cfg names both ends of the range, and records the chosen bounds in cs so
// ConfigStore.GetSnapshot reflects what is actually in effect.
func applySpinBounds(cs *control.ConfigStore, min, max time.Duration) {
	if min <= 0 || max <= 0 {
		return
	}
	backoff.SetBounds(min, max)
	cs.SetConfig(map[string]any{
		"spin_min": min,
		"spin_max": max,
	})
}

// Unlink removes the OS-level name backing a segment.
func Unlink(name string) error { return table.Unlink(name) }

// Table returns the underlying metadata table, for callers that want the
// lower-level package API directly.
func (m *Memory) Table() *table.Table { return m.table }

// Config returns this process's local configuration store.
func (m *Memory) Config() *control.ConfigStore { return m.config }

// Metrics returns this process's local metrics registry, refreshed with the
// current allocation count, CAS retry count, and spin iteration count
// accumulated by internal/stats across every container and primitive this
// process has touched. When cfg.EnableMetrics was false at New time, the
// registry is left untouched on every call and GetSnapshot stays empty —
// the counters in internal/stats still accumulate process-wide, but this
// Memory declined to expose them.
func (m *Memory) Metrics() *control.MetricsRegistry {
	if !m.metricsEnabled {
		return m.metrics
	}
	m.metrics.Set("allocations", stats.Allocations())
	m.metrics.Set("cas_retries", stats.CASRetries())
	m.metrics.Set("spin_iterations", stats.SpinIterations())
	return m.metrics
}

// Debug returns this process's local debug probe registry.
func (m *Memory) Debug() *control.DebugProbes { return m.debug }

// Close detaches this process's mapping of the segment. It does not unlink
// the OS-level name; other attached processes keep working.
func (m *Memory) Close() error {
	control.Logf("zeroipc: closing segment")
	return m.table.Segment().Detach()
}
