package engine

import (
	"math/rand/v2"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// ISIMode decides how often the inter-stimulus interval is drawn.
type ISIMode string

const (
	ISIPerTrial ISIMode = "per-trial"
	ISIPerRun   ISIMode = "per-run"
)

func ParseISIMode(s string) (ISIMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per-trial", "trial":
		return ISIPerTrial, nil
	case "per-run", "run":
		return ISIPerRun, nil
	}
	return "", ErrConfig.GenWithStackByArgs("unknown isi mode: " + s)
}

// ISISampler draws intervals from a continuous uniform distribution on [min, max).
type ISISampler struct {
	mode    ISIMode
	dist    distuv.Uniform
	sampled bool
	value   time.Duration
}

func NewISISampler(mode ISIMode, min, max time.Duration, seed uint64) *ISISampler {
	return &ISISampler{
		mode: mode,
		dist: distuv.Uniform{
			Min: min.Seconds(),
			Max: max.Seconds(),
			Src: rand.NewPCG(seed, ^seed),
		},
	}
}

func (s *ISISampler) Mode() ISIMode { return s.mode }

// Next returns the interval for the coming trial. In per-run mode the first
// draw is reused for the whole run.
func (s *ISISampler) Next() time.Duration {
	if s.mode == ISIPerRun && s.sampled {
		return s.value
	}
	v := time.Duration(s.dist.Rand() * float64(time.Second))
	s.sampled = true
	s.value = v
	return v
}
