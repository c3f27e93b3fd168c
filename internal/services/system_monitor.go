package services

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/irfndi/exohunter-go/internal/logging"
)

// SystemSnapshot is one sample of host and runtime usage.
type SystemSnapshot struct {
	Timestamp     time.Time `json:"timestamp"`
	CPUUsage      float64   `json:"cpu_percent"`
	MemoryUsage   float64   `json:"memory_percent"`
	MemoryUsedMB  uint64    `json:"memory_used_mb"`
	MemoryTotalMB uint64    `json:"memory_total_mb"`
	HeapAllocMB   float64   `json:"heap_alloc_mb"`
	Goroutines    int       `json:"goroutines"`
}

// SystemMonitor samples CPU, memory and goroutine counts for /health and
// the periodic resource log.
type SystemMonitor struct {
	mu         sync.RWMutex
	started    time.Time
	history    []SystemSnapshot
	maxHistory int

	// cpuInterval 0 compares against the previous call instead of blocking.
	cpuInterval time.Duration

	cpuPercent    func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)
	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// NewSystemMonitor creates a monitor keeping the last maxHistory samples.
func NewSystemMonitor(maxHistory int) *SystemMonitor {
	if maxHistory <= 0 {
		maxHistory = 60
	}
	return &SystemMonitor{
		started:       time.Now(),
		maxHistory:    maxHistory,
		cpuPercent:    cpu.PercentWithContext,
		virtualMemory: mem.VirtualMemoryWithContext,
	}
}

// Collect takes a snapshot and appends it to the history.
func (m *SystemMonitor) Collect(ctx context.Context) (SystemSnapshot, error) {
	snapshot := SystemSnapshot{
		Timestamp:  time.Now(),
		Goroutines: runtime.NumGoroutine(),
	}

	cpuPercent, err := m.cpuPercent(ctx, m.cpuInterval, false)
	if err != nil {
		return snapshot, fmt.Errorf("failed to get CPU usage: %w", err)
	}
	if len(cpuPercent) > 0 {
		snapshot.CPUUsage = cpuPercent[0]
	}

	memInfo, err := m.virtualMemory(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("failed to get memory usage: %w", err)
	}
	snapshot.MemoryUsage = memInfo.UsedPercent
	snapshot.MemoryUsedMB = memInfo.Used >> 20
	snapshot.MemoryTotalMB = memInfo.Total >> 20

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snapshot.HeapAllocMB = float64(ms.HeapAlloc) / (1 << 20)

	m.mu.Lock()
	m.history = append(m.history, snapshot)
	if len(m.history) > m.maxHistory {
		m.history = m.history[len(m.history)-m.maxHistory:]
	}
	m.mu.Unlock()

	return snapshot, nil
}

// Latest returns the most recent snapshot, if any.
func (m *SystemMonitor) Latest() (SystemSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.history) == 0 {
		return SystemSnapshot{}, false
	}
	return m.history[len(m.history)-1], true
}

// History returns up to limit recent snapshots, oldest first.
func (m *SystemMonitor) History(limit int) []SystemSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.history) {
		limit = len(m.history)
	}
	out := make([]SystemSnapshot, limit)
	copy(out, m.history[len(m.history)-limit:])
	return out
}

// Uptime returns the time since the monitor was created.
func (m *SystemMonitor) Uptime() time.Duration {
	return time.Since(m.started)
}

// GetSystemInfo returns the latest sample as loggable fields.
func (m *SystemMonitor) GetSystemInfo() map[string]interface{} {
	info := map[string]interface{}{
		"cpu_cores":      runtime.NumCPU(),
		"goroutines":     runtime.NumGoroutine(),
		"uptime_seconds": int64(m.Uptime().Seconds()),
	}
	if latest, ok := m.Latest(); ok {
		info["cpu_percent"] = latest.CPUUsage
		info["memory_percent"] = latest.MemoryUsage
		info["heap_alloc_mb"] = latest.HeapAllocMB
	}
	return info
}

// Run collects every interval and logs the result until ctx is done.
func (m *SystemMonitor) Run(ctx context.Context, interval time.Duration, logger *logging.StandardLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Collect(ctx); err != nil {
				logger.WithError(err).Warn("System stats collection failed")
				continue
			}
			logger.LogResourceStats("system_monitor", m.GetSystemInfo())
		}
	}
}
