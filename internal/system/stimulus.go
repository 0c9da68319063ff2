package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/sekai/sekai/internal/core/event"
	coresys "github.com/sekai/sekai/internal/core/system"
	"github.com/sekai/sekai/internal/world"
)

// StimulusSource returns the external envelopes due at tick.
type StimulusSource[M any] func(tick uint64) []event.Envelope[M]

// StimulusSystem queues scheduled external messages so the coming tick
// delivers them ahead of the entities' own. Envelopes the world refuses are
// counted in Stats.Rejected and logged.
// Phase 0 (Stimulus).
type StimulusSystem[M any] struct {
	world  *world.World[M]
	source StimulusSource[M]
	stats  *Stats
	log    *zap.Logger
}

func NewStimulusSystem[M any](w *world.World[M], source StimulusSource[M], stats *Stats, log *zap.Logger) *StimulusSystem[M] {
	return &StimulusSystem[M]{world: w, source: source, stats: stats, log: log}
}

func (s *StimulusSystem[M]) Phase() coresys.Phase { return coresys.PhaseStimulus }

func (s *StimulusSystem[M]) Update(_ time.Duration) {
	tick := s.world.Ticks() + 1
	for _, env := range s.source(tick) {
		if err := s.world.Emit(env); err != nil {
			s.stats.Rejected++
			s.log.Warn("stimulus rejected", zap.Uint64("tick", tick), zap.Error(err))
		}
	}
}
