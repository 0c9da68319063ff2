package data

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario kinds select which behavior family populates the world.
const (
	KindFirefly = "firefly"
	KindAnt     = "ant"
	KindLife    = "life"
	KindMortal  = "mortal"
	KindScript  = "script"
)

var knownKinds = []string{KindFirefly, KindAnt, KindLife, KindMortal, KindScript}

// ErrInvalidScenario is returned for scenarios that load but cannot run.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is one simulation setup: the initial population and the
// external stimuli injected while it runs.
type Scenario struct {
	Name     string        `yaml:"name"`
	Kind     string        `yaml:"kind"`
	Dims     int           `yaml:"dims"`  // 0 = caller default
	Ticks    uint64        `yaml:"ticks"` // 0 = use config max_ticks
	Seed     int64         `yaml:"seed"`
	Board    []string      `yaml:"board"` // life only: rows of '#' and '.'
	Entities []EntityGroup `yaml:"entities"`
	Stimuli  []Stimulus    `yaml:"stimuli"`
}

// Entity group layouts.
const (
	LayoutGaussian = "gaussian"
	LayoutUniform  = "uniform"
)

// EntityGroup places Count entities around Position. With Spread > 0 the
// positions are scattered: normally with that deviation, or uniformly within
// that half-width for the uniform layout.
type EntityGroup struct {
	Count    int                `yaml:"count"`
	Position []float64          `yaml:"position"`
	Spread   float64            `yaml:"spread"`
	Layout   string             `yaml:"layout"`
	Script   string             `yaml:"script"` // script kind only
	Params   map[string]float64 `yaml:"params"`
}

// Stimulus is a message injected from outside at a given tick. Without a
// position it is broadcast to everyone.
type Stimulus struct {
	Tick     uint64    `yaml:"tick"`
	Name     string    `yaml:"name"`
	Value    float64   `yaml:"value"`
	Color    []float64 `yaml:"color"`
	Position []float64 `yaml:"position"`
	Radius   float64   `yaml:"radius"`
}

// LoadScenario loads and validates a scenario YAML file. defaultDims fills
// in an unset dims key.
func LoadScenario(path string, defaultDims int) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := ParseScenario(raw, defaultDims)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(raw []byte, defaultDims int) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i := range s.Entities {
		if s.Entities[i].Count == 0 {
			s.Entities[i].Count = 1
		}
		if s.Entities[i].Layout == "" {
			s.Entities[i].Layout = LayoutGaussian
		}
	}
	if s.Dims == 0 {
		s.Dims = defaultDims
		if s.Kind == KindLife {
			s.Dims = 2
		}
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	known := false
	for _, k := range knownKinds {
		if s.Kind == k {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("kind %q not one of %s: %w", s.Kind, strings.Join(knownKinds, ", "), ErrInvalidScenario)
	}
	if s.Dims < 1 || s.Dims > 3 {
		return fmt.Errorf("dims %d not in [1,3]: %w", s.Dims, ErrInvalidScenario)
	}
	for i, g := range s.Entities {
		if g.Count < 0 {
			return fmt.Errorf("entities[%d]: negative count: %w", i, ErrInvalidScenario)
		}
		if g.Position != nil && len(g.Position) != s.Dims {
			return fmt.Errorf("entities[%d]: position has %d coordinates, want %d: %w", i, len(g.Position), s.Dims, ErrInvalidScenario)
		}
		if g.Spread < 0 {
			return fmt.Errorf("entities[%d]: negative spread: %w", i, ErrInvalidScenario)
		}
		if g.Layout != LayoutGaussian && g.Layout != LayoutUniform {
			return fmt.Errorf("entities[%d]: layout %q: %w", i, g.Layout, ErrInvalidScenario)
		}
		if s.Kind == KindScript && g.Script == "" {
			return fmt.Errorf("entities[%d]: script kind needs a script name: %w", i, ErrInvalidScenario)
		}
	}
	for i, st := range s.Stimuli {
		if st.Position != nil && len(st.Position) != s.Dims {
			return fmt.Errorf("stimuli[%d]: position has %d coordinates, want %d: %w", i, len(st.Position), s.Dims, ErrInvalidScenario)
		}
		if !(st.Radius >= 0) {
			return fmt.Errorf("stimuli[%d]: radius %v: %w", i, st.Radius, ErrInvalidScenario)
		}
		if st.Color != nil && len(st.Color) != 3 {
			return fmt.Errorf("stimuli[%d]: color needs 3 channels: %w", i, ErrInvalidScenario)
		}
	}
	if s.Kind == KindLife {
		if s.Dims != 2 {
			return fmt.Errorf("life board needs 2 dims: %w", ErrInvalidScenario)
		}
		for y, row := range s.Board {
			if len(row) != len(s.Board[0]) {
				return fmt.Errorf("board row %d: width %d, want %d: %w", y, len(row), len(s.Board[0]), ErrInvalidScenario)
			}
		}
	}
	return nil
}

// Count returns the number of entities the scenario creates.
func (s *Scenario) Count() int {
	if s.Kind == KindLife {
		if len(s.Board) == 0 {
			return 0
		}
		return len(s.Board) * len(s.Board[0])
	}
	n := 0
	for _, g := range s.Entities {
		n += g.Count
	}
	return n
}

// LiveCells returns the (x, y) of every '#' on the board.
func (s *Scenario) LiveCells() [][2]int {
	var out [][2]int
	for y, row := range s.Board {
		for x, c := range row {
			if c == '#' {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}

// StimuliAt returns the stimuli scheduled for tick, in file order.
func (s *Scenario) StimuliAt(tick uint64) []Stimulus {
	var out []Stimulus
	for _, st := range s.Stimuli {
		if st.Tick == tick {
			out = append(out, st)
		}
	}
	return out
}
