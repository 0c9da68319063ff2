package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/sekai/sekai/internal/core/system"
)

// ReportSystem logs each tick's faults and a running summary every
// `every` ticks. A zero interval disables the summary.
// Phase 2 (Report).
type ReportSystem struct {
	stats      *Stats
	population func() int
	every      uint64
	log        *zap.Logger
}

func NewReportSystem(stats *Stats, population func() int, every uint64, log *zap.Logger) *ReportSystem {
	return &ReportSystem{stats: stats, population: population, every: every, log: log}
}

func (s *ReportSystem) Phase() coresys.Phase { return coresys.PhaseReport }

func (s *ReportSystem) Update(_ time.Duration) {
	rep := s.stats.Last
	if rep == nil {
		return
	}
	for _, f := range rep.Faults {
		s.log.Error("entity removed after fault",
			zap.Uint64("tick", f.Tick),
			zap.Uint64("entity", uint64(f.ID)),
			zap.Stringer("phase", f.Phase),
			zap.Error(f.Err),
		)
	}
	if s.every == 0 || rep.Tick%s.every != 0 {
		return
	}
	s.log.Info("simulation progress",
		zap.Uint64("tick", rep.Tick),
		zap.Int("entities", s.population()),
		zap.Int("messages", s.stats.Messages),
		zap.Int("delivered", s.stats.Delivered),
		zap.Int("spawned", s.stats.Spawned),
		zap.Int("despawned", s.stats.Despawned),
		zap.Int("faults", s.stats.Faults),
	)
}
