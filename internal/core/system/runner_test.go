package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"report", PhaseReport, &log})
	r.Register(recorder{"step", PhaseStep, &log})
	r.Register(recorder{"stim-a", PhaseStimulus, &log})
	r.Register(recorder{"stim-b", PhaseStimulus, &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"stim-a", "stim-b", "step", "report"}, log)

	log = log[:0]
	r.TickPhase(PhaseStep, time.Millisecond)
	assert.Equal(t, []string{"step"}, log)
}
