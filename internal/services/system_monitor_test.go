package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/exohunter-go/internal/logging"
)

func fakeMonitor(maxHistory int) *SystemMonitor {
	m := NewSystemMonitor(maxHistory)
	m.cpuPercent = func(context.Context, time.Duration, bool) ([]float64, error) {
		return []float64{12.5}, nil
	}
	m.virtualMemory = func(context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 8 << 30, Used: 2 << 30, UsedPercent: 25}, nil
	}
	return m
}

func TestSystemMonitor_Collect(t *testing.T) {
	m := fakeMonitor(3)

	_, ok := m.Latest()
	assert.False(t, ok)

	snapshot, err := m.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, snapshot.CPUUsage)
	assert.Equal(t, 25.0, snapshot.MemoryUsage)
	assert.Equal(t, uint64(2048), snapshot.MemoryUsedMB)
	assert.Equal(t, uint64(8192), snapshot.MemoryTotalMB)
	assert.Positive(t, snapshot.Goroutines)
	assert.Positive(t, snapshot.HeapAllocMB)

	latest, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, snapshot, latest)
}

func TestSystemMonitor_HistoryIsBounded(t *testing.T) {
	m := fakeMonitor(3)
	for i := 0; i < 5; i++ {
		_, err := m.Collect(context.Background())
		require.NoError(t, err)
	}

	assert.Len(t, m.History(0), 3)
	assert.Len(t, m.History(2), 2)
	assert.Len(t, m.History(10), 3)
}

func TestSystemMonitor_CollectErrors(t *testing.T) {
	m := fakeMonitor(3)
	m.cpuPercent = func(context.Context, time.Duration, bool) ([]float64, error) {
		return nil, errors.New("no /proc")
	}
	_, err := m.Collect(context.Background())
	assert.ErrorContains(t, err, "failed to get CPU usage")

	m = fakeMonitor(3)
	m.virtualMemory = func(context.Context) (*mem.VirtualMemoryStat, error) {
		return nil, errors.New("no meminfo")
	}
	_, err = m.Collect(context.Background())
	assert.ErrorContains(t, err, "failed to get memory usage")
	assert.Empty(t, m.History(0))
}

func TestSystemMonitor_GetSystemInfo(t *testing.T) {
	m := fakeMonitor(3)
	info := m.GetSystemInfo()
	assert.Contains(t, info, "cpu_cores")
	assert.NotContains(t, info, "cpu_percent")

	_, err := m.Collect(context.Background())
	require.NoError(t, err)
	info = m.GetSystemInfo()
	assert.Equal(t, 12.5, info["cpu_percent"])
	assert.Equal(t, 25.0, info["memory_percent"])
}

func TestSystemMonitor_Run(t *testing.T) {
	m := fakeMonitor(10)
	var buf bytes.Buffer
	logger := logging.NewStandardLoggerTo(&buf, "info", "test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond, logger)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(m.History(0)) >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Contains(t, buf.String(), "system_monitor")
}
