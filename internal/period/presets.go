package period

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Preset names a window recipe relative to "now".
type Preset string

const (
	// Recent7 is the last seven days including today (daily chart).
	Recent7 Preset = "recent7"
	// Last7 is the seven days before today.
	Last7 Preset = "last7"
	// Last30 is the thirty days before today.
	Last30   Preset = "last30"
	ThisWeek Preset = "this-week"
	LastWeek Preset = "last-week"
)

// Generator builds a window anchored at now.
type Generator interface {
	Window(now time.Time) Window
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(now time.Time) Window

func (f GeneratorFunc) Window(now time.Time) Window { return f(now) }

// TrailingGenerator is a fixed-size trailing window.
type TrailingGenerator struct {
	Days         int
	IncludeToday bool
}

func (g TrailingGenerator) Window(now time.Time) Window {
	return Trailing(now, g.Days, g.IncludeToday)
}

var presets = map[Preset]Generator{
	Recent7: TrailingGenerator{Days: 7, IncludeToday: true},
	Last7:   TrailingGenerator{Days: 7},
	Last30:  TrailingGenerator{Days: 30},
	ThisWeek: GeneratorFunc(func(now time.Time) Window {
		this, _ := Week(now)
		return this
	}),
	LastWeek: GeneratorFunc(func(now time.Time) Window {
		_, last := Week(now)
		return last
	}),
}

var ErrUnknownPreset = errors.New("unknown period")

// Get returns the generator registered under name.
func Get(name Preset) (Generator, error) {
	g, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownPreset, name, Names())
	}
	return g, nil
}

// Register adds or replaces a named generator.
func Register(name Preset, g Generator) {
	presets[name] = g
}

// Names lists the registered presets in lexical order.
func Names() []Preset {
	names := make([]Preset, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
