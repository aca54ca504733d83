package control_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeroipc/zeroipc/control"
)

func TestConfigStoreSetAndSnapshot(t *testing.T) {
	cs := control.NewConfigStore()
	cs.SetConfig(map[string]any{"a": 1})
	cs.SetConfig(map[string]any{"b": 2})

	snap := cs.GetSnapshot()
	require.Equal(t, 1, snap["a"])
	require.Equal(t, 2, snap["b"])
}

func TestConfigStoreOnReloadFiresOnSetConfig(t *testing.T) {
	cs := control.NewConfigStore()
	fired := make(chan struct{}, 1)
	cs.OnReload(func() { fired <- struct{}{} })

	cs.SetConfig(map[string]any{"x": true})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("OnReload listener never fired")
	}
}

func TestMetricsRegistrySetAndSnapshot(t *testing.T) {
	mr := control.NewMetricsRegistry()
	mr.Set("allocations", 7)
	snap := mr.GetSnapshot()
	require.Equal(t, 7, snap["allocations"])
}

func TestDebugProbesRegisterAndDump(t *testing.T) {
	dp := control.NewDebugProbes()
	dp.RegisterProbe("count", func() any { return 3 })
	dp.RegisterProbe("label", func() any { return "ready" })

	dump := dp.DumpState()
	require.Equal(t, 3, dump["count"])
	require.Equal(t, "ready", dump["label"])
}
