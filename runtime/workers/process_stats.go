package workers

import (
	"companion-hub/contract"
	"companion-hub/domain/event"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*ProcessStatsWorker)(nil)

// ProcessStatsWorker samples the hub's own RSS and CPU usage.
type ProcessStatsWorker struct {
	log            *slog.Logger
	registry       contract.IRegistry
	telemetryChan  chan<- event.Event
	metricInterval time.Duration
}

func NewProcessStatsWorker(log *slog.Logger, registry contract.IRegistry,
	telemetryChan chan<- event.Event, metricInterval time.Duration) *ProcessStatsWorker {
	return &ProcessStatsWorker{
		log:            log,
		registry:       registry,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
	}
}

func (w *ProcessStatsWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "error", err)
				continue
			}
			stats.LiveConnections = w.registry.Count()
			select {
			case w.telemetryChan <- event.NewTechnicalEvent(event.ProcessStatsType, stats):
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		}
	}
}

func selfStats(p *process.Process) (event.ProcessStats, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return event.ProcessStats{}, err
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return event.ProcessStats{}, err
	}
	return event.ProcessStats{PID: p.Pid, RSS: memInfo.RSS, CPU: cpu}, nil
}
