package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a point-in-time sample of the machine the app runs on.
type HostStats struct {
	CPUPercent    float64   `json:"cpuPercent"`
	MemoryUsed    uint64    `json:"memoryUsed"`
	MemoryTotal   uint64    `json:"memoryTotal"`
	MemoryPercent float64   `json:"memoryPercent"`
	UptimeSeconds uint64    `json:"uptimeSeconds"`
	SampledAt     time.Time `json:"sampledAt"`
}

// StatUpdater periodically samples host statistics for the health endpoint.
type StatUpdater struct {
	interval time.Duration
	sample   func(ctx context.Context) (HostStats, error)
	done     chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	latest HostStats
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(interval time.Duration) *StatUpdater {
	return &StatUpdater{
		interval: interval,
		sample:   sampleHost,
		done:     make(chan struct{}),
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Dur("interval", su.interval).Msg("Starting background stat updater...")
	ticker := time.NewTicker(su.interval)
	defer ticker.Stop()

	// Run once immediately on start
	su.update()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-ticker.C:
			su.update()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.stopOnce.Do(func() { close(su.done) })
}

// Latest returns the most recent sample; SampledAt is zero before the first one.
func (su *StatUpdater) Latest() HostStats {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.latest
}

func (su *StatUpdater) update() {
	ctx, cancel := context.WithTimeout(context.Background(), su.interval)
	defer cancel()

	stats, err := su.sample(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("StatUpdater: failed to sample host stats")
		return
	}
	su.mu.Lock()
	su.latest = stats
	su.mu.Unlock()
}

func sampleHost(ctx context.Context) (HostStats, error) {
	var stats HostStats

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return HostStats{}, err
	}
	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return HostStats{}, err
	}
	stats.MemoryUsed = vm.Used
	stats.MemoryTotal = vm.Total
	stats.MemoryPercent = vm.UsedPercent

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return HostStats{}, err
	}
	stats.UptimeSeconds = uptime
	stats.SampledAt = time.Now()
	return stats, nil
}
