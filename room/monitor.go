package room

import (
	"context"
	"runtime"
	"sync"
	"time"

	"hangman/common/log"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// StatsProvider reports how many rooms and players this node is carrying.
type StatsProvider interface {
	Stats() (rooms, players int)
}

// LoadInfo is one sample of node load.
type LoadInfo struct {
	Rooms      int     `json:"rooms"`
	Players    int     `json:"players"`
	CPUUsage   float64 `json:"cpuUsage"`
	MemUsage   float64 `json:"memUsage"`
	Goroutines int     `json:"goroutines"`
}

// Monitor periodically samples node load and keeps the latest sample for
// the health endpoint.
type Monitor struct {
	stats          StatsProvider
	updateInterval time.Duration
	stopCh         chan struct{}

	mu   sync.RWMutex
	last LoadInfo
}

func NewMonitor(stats StatsProvider, updateInterval time.Duration) *Monitor {
	return &Monitor{
		stats:          stats,
		updateInterval: updateInterval,
		stopCh:         make(chan struct{}),
	}
}

// Start samples on the interval until the context is cancelled or Stop is
// called. Run it on its own goroutine.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.updateInterval)
	defer ticker.Stop()

	m.sample()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

// Snapshot returns the most recent load sample.
func (m *Monitor) Snapshot() LoadInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

func (m *Monitor) sample() {
	rooms, players := m.stats.Stats()

	info := LoadInfo{
		Rooms:      rooms,
		Players:    players,
		CPUUsage:   cpuUsage(),
		MemUsage:   memUsage(),
		Goroutines: runtime.NumGoroutine(),
	}

	m.mu.Lock()
	m.last = info
	m.mu.Unlock()

	log.Info("load sample: Rooms=%d, Players=%d, CPU=%.2f%%, Mem=%.2f%%, Goroutines=%d",
		info.Rooms, info.Players, info.CPUUsage, info.MemUsage, info.Goroutines)
}

func cpuUsage() float64 {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return 0.0
	}
	return percents[0]
}

func memUsage() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0.0
	}
	return vm.UsedPercent
}
