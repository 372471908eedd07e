package engine

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"
)

// SimConfig shapes the behaviour of a simulated participant.
type SimConfig struct {
	Seed uint64
	// KeyMap lets the participant know the correct answers.
	KeyMap KeyMap
	// Accuracy is the probability of pressing the correct key when KeyMap
	// knows the displayed colour.
	Accuracy float64
	// MissRate is the probability of not answering a timed response window.
	MissRate float64
	// MedianRT and Sigma parametrize a log-normal reaction time.
	MedianRT time.Duration
	Sigma    float64
	// RealTime makes the surface wait out every duration.
	RealTime bool
	// QuitAtTrial > 0 presses the quit key on that stimulus, counting from 1.
	QuitAtTrial int
}

func DefaultSimConfig(seed uint64) SimConfig {
	return SimConfig{
		Seed:     seed,
		Accuracy: 0.9,
		MissRate: 0.05,
		MedianRT: 650 * time.Millisecond,
		Sigma:    0.25,
	}
}

// SimSurface is a Surface without a display. It answers every response
// window the way a seeded participant would.
type SimSurface struct {
	cfg     SimConfig
	rng     *rand.Rand
	rt      distuv.LogNormal
	stimuli int
	closed  bool
}

func NewSimSurface(cfg SimConfig) *SimSurface {
	if cfg.MedianRT <= 0 {
		cfg.MedianRT = 650 * time.Millisecond
	}
	cfg.KeyMap = NewKeyMap(cfg.KeyMap)
	return &SimSurface{
		cfg: cfg,
		rng: NewRand(cfg.Seed),
		rt: distuv.LogNormal{
			Mu:    math.Log(cfg.MedianRT.Seconds()),
			Sigma: cfg.Sigma,
			Src:   rand.NewPCG(cfg.Seed, cfg.Seed+1),
		},
	}
}

// Stimuli is the number of stimulus screens presented so far.
func (s *SimSurface) Stimuli() int { return s.stimuli }

func isStimulus(sc Screen) bool {
	return sc.Kind == ScreenImage || sc.Kind == ScreenText && sc.Color != ""
}

func (s *SimSurface) enter(sc Screen) error {
	if s.closed {
		return ErrPresentation.GenWithStackByArgs("surface is closed")
	}
	if !isStimulus(sc) {
		return nil
	}
	s.stimuli++
	if s.cfg.QuitAtTrial > 0 && s.stimuli == s.cfg.QuitAtTrial {
		log.Info("simulated quit", zap.Int("stimulus", s.stimuli))
		return ErrQuit
	}
	return nil
}

func (s *SimSurface) Show(ctx context.Context, sc Screen, d time.Duration) error {
	if err := s.enter(sc); err != nil {
		return err
	}
	return s.wait(ctx, d)
}

func (s *SimSurface) Collect(ctx context.Context, sc Screen, keys []string, timeout time.Duration) (*Response, error) {
	if err := s.enter(sc); err != nil {
		return nil, err
	}
	if timeout > 0 && s.rng.Float64() < s.cfg.MissRate {
		return nil, s.wait(ctx, timeout)
	}
	rt := time.Duration(s.rt.Rand() * float64(time.Second))
	if timeout > 0 && rt >= timeout {
		return nil, s.wait(ctx, timeout)
	}
	if err := s.wait(ctx, rt); err != nil {
		return nil, err
	}
	held := 0.08 + 0.04*s.rng.Float64()
	return &Response{Key: s.choose(sc, keys), RT: rt.Seconds(), Duration: &held}, nil
}

func (s *SimSurface) choose(sc Screen, keys []string) string {
	if len(keys) == 0 {
		return "space"
	}
	correct, ok := s.cfg.KeyMap[normalizeName(sc.Color)]
	if !ok || sc.Color == "" {
		return keys[s.rng.IntN(len(keys))]
	}
	if s.rng.Float64() < s.cfg.Accuracy || len(keys) == 1 {
		return correct
	}
	var others []string
	for _, k := range keys {
		if normalizeName(k) != correct {
			others = append(others, k)
		}
	}
	if len(others) == 0 {
		return correct
	}
	return others[s.rng.IntN(len(others))]
}

func (s *SimSurface) wait(ctx context.Context, d time.Duration) error {
	if !s.cfg.RealTime || d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *SimSurface) Close() error {
	s.closed = true
	return nil
}
