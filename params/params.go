// Package params holds the simulation's tunable constants (spec.md §6) and
// the functional-options constructor used to assemble them, following the
// options pattern the teacher uses for [Router] configuration.
package params

import "github.com/maqi/datachains-sim/internal/rng"

// Params are the tunable constants that parameterize one simulation run.
// All fields have the defaults listed in spec.md §6's CLI table.
type Params struct {
	Seed                    rng.Seed
	NumIterations           uint64
	GroupSize               uint64
	InitAge                 uint64
	AdultAge                uint64
	MaxSectionSize          uint64
	MaxRelocationAttempts   uint64
	MaxInfantsPerSection    uint64
	StatsFrequency          uint64
	File                    string
	Verbosity               int
	DisableColors           bool
}

// Quorum returns group_size/2 + 1 (spec.md's Quorum definition).
func (p Params) Quorum() uint64 {
	return p.GroupSize/2 + 1
}

// SplitLimit returns 2*group_size - quorum, the per-child adult-count
// threshold try_split compares against (spec.md §4.5).
func (p Params) SplitLimit() uint64 {
	return 2*p.GroupSize - p.Quorum()
}

// Default returns the CLI defaults from spec.md §6, with a freshly drawn
// random seed.
func Default() Params {
	return New(rng.RandomSeed())
}

// New builds a Params with the spec.md §6 defaults for everything except
// Seed, then applies opts in order.
func New(seed rng.Seed, opts ...Option) Params {
	p := Params{
		Seed:                  seed,
		NumIterations:         100000,
		GroupSize:             8,
		InitAge:               4,
		AdultAge:              5,
		MaxSectionSize:        60,
		MaxRelocationAttempts: 25,
		MaxInfantsPerSection:  1,
		StatsFrequency:        10,
		Verbosity:             1,
	}
	for _, opt := range opts {
		opt.apply(&p)
	}
	return p
}

// Option configures a Params at construction time.
type Option interface {
	apply(*Params)
}

type optionFunc func(*Params)

func (f optionFunc) apply(p *Params) { f(p) }

// WithSeed overrides the random seed.
func WithSeed(seed rng.Seed) Option {
	return optionFunc(func(p *Params) { p.Seed = seed })
}

// WithIterations overrides the tick count.
func WithIterations(n uint64) Option {
	return optionFunc(func(p *Params) { p.NumIterations = n })
}

// WithGroupSize overrides the target elder count per section.
func WithGroupSize(n uint64) Option {
	return optionFunc(func(p *Params) { p.GroupSize = n })
}

// WithInitAge overrides the age assigned to freshly joined nodes.
func WithInitAge(n uint64) Option {
	return optionFunc(func(p *Params) { p.InitAge = n })
}

// WithAdultAge overrides the adulthood threshold.
func WithAdultAge(n uint64) Option {
	return optionFunc(func(p *Params) { p.AdultAge = n })
}

// WithMaxSectionSize overrides the fatal section-size ceiling.
func WithMaxSectionSize(n uint64) Option {
	return optionFunc(func(p *Params) { p.MaxSectionSize = n })
}

// WithMaxRelocationAttempts overrides the relocation rehash budget.
func WithMaxRelocationAttempts(n uint64) Option {
	return optionFunc(func(p *Params) { p.MaxRelocationAttempts = n })
}

// WithMaxInfantsPerSection overrides the per-section infant cap.
func WithMaxInfantsPerSection(n uint64) Option {
	return optionFunc(func(p *Params) { p.MaxInfantsPerSection = n })
}

// WithStatsFrequency overrides the tick stride for stdout stats.
func WithStatsFrequency(n uint64) Option {
	return optionFunc(func(p *Params) { p.StatsFrequency = n })
}

// WithFile sets the optional statistics dump path.
func WithFile(path string) Option {
	return optionFunc(func(p *Params) { p.File = path })
}

// WithVerbosity overrides the log verbosity level.
func WithVerbosity(v int) Option {
	return optionFunc(func(p *Params) { p.Verbosity = v })
}

// WithDisableColors disables colored stdout/log output.
func WithDisableColors(disable bool) Option {
	return optionFunc(func(p *Params) { p.DisableColors = disable })
}
