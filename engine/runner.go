package engine

import (
	"context"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// RunnerConfig is the per-task shape of a trial.
type RunnerConfig struct {
	Kind StimKind
	// Keys are the accepted response keys.
	Keys    []string
	KeyMap  KeyMap
	Ratings map[string]int
	// Timeout bounds response collection; 0 waits until a key is pressed.
	Timeout  time.Duration
	Fixation time.Duration
	// Exposure > 0 shows the stimulus for a fixed time and collects the
	// response on a separate prompt screen.
	Exposure time.Duration
	Feedback time.Duration
	Prompt   string
	NoISI    bool
}

func (c RunnerConfig) plan() Plan {
	return Plan{
		Fixation: c.Fixation > 0,
		Response: c.Exposure > 0,
		Feedback: c.Feedback > 0,
		ISI:      !c.NoISI,
	}
}

// Runner drives trials through their phases on an injected surface.
type Runner struct {
	cfg      RunnerConfig
	plan     Plan
	surface  Surface
	isi      *ISISampler
	marker   Marker
	now      func() time.Time
	start    time.Time
	progress func(done, total int)
}

type RunnerOption func(*Runner)

// WithMarker raises trigger lines at every stimulus onset.
func WithMarker(m Marker) RunnerOption {
	return func(r *Runner) { r.marker = m }
}

// WithClock replaces time.Now and fixes the zero of event timestamps.
func WithClock(now func() time.Time, start time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
		r.start = start
	}
}

func WithProgress(fn func(done, total int)) RunnerOption {
	return func(r *Runner) { r.progress = fn }
}

func NewRunner(cfg RunnerConfig, surface Surface, isi *ISISampler, opts ...RunnerOption) *Runner {
	cfg.KeyMap = NewKeyMap(cfg.KeyMap)
	r := &Runner{
		cfg:     cfg,
		plan:    cfg.plan(),
		surface: surface,
		isi:     isi,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.start.IsZero() {
		r.start = r.now()
	}
	return r
}

func (r *Runner) Plan() Plan { return r.plan }

func (r *Runner) elapsed() float64 {
	return r.now().Sub(r.start).Seconds()
}

// Validate checks the trial list against the scoring table.
func (r *Runner) Validate(trials []Trial) error {
	return r.cfg.KeyMap.Validate(trials, r.cfg.Keys)
}

// Run presents trials in order and appends one record per completed trial.
// A quit ends the run at once: the interrupted trial is dropped, earlier
// records stay in the log, and ErrQuit is returned.
func (r *Runner) Run(ctx context.Context, trials []Trial, l *ExperimentLog) error {
	if err := r.Validate(trials); err != nil {
		return err
	}
	for i, t := range trials {
		if err := ctx.Err(); err != nil {
			return ErrQuit
		}
		rec, events, err := r.RunTrial(ctx, i, t)
		for _, ev := range events {
			l.Log(ev.Trial, ev.Name, ev.T)
		}
		if err != nil {
			if IsQuit(err) {
				log.Info("run quit", zap.Int("trial", i), zap.Int("completed", len(l.Records)))
				return ErrQuit
			}
			return err
		}
		l.Append(rec)
		if r.progress != nil {
			r.progress(i+1, len(trials))
		}
	}
	return nil
}

// RunTrial walks one trial through its phases and scores the response.
// The phase events are returned even when the trial is interrupted.
func (r *Runner) RunTrial(ctx context.Context, idx int, t Trial) (Record, []PhaseEvent, error) {
	rec := Record{Index: idx, Trial: t}
	var (
		events []PhaseEvent
		resp   *Response
	)
	for ph := r.plan.First(); ph != PhaseDone; ph = r.plan.Next(ph) {
		events = append(events, PhaseEvent{Trial: idx, Name: ph.String() + ".started", T: r.elapsed()})

		var err error
		switch ph {
		case PhaseFixation:
			err = r.surface.Show(ctx, Screen{Kind: ScreenFixation}, r.cfg.Fixation)
		case PhaseStimulus:
			resp, err = r.present(ctx, &rec)
		case PhaseResponse:
			resp, err = r.surface.Collect(ctx, r.promptScreen(), r.cfg.Keys, r.cfg.Timeout)
		case PhaseFeedback:
			err = r.surface.Show(ctx, Screen{Kind: ScreenText, Text: FeedbackText(rec.Correctness)}, r.cfg.Feedback)
		case PhaseISI:
			isi := r.isi.Next()
			rec.ISI = isi.Seconds()
			err = r.surface.Show(ctx, Screen{Kind: ScreenFixation}, isi)
		}

		events = append(events, PhaseEvent{Trial: idx, Name: ph.String() + ".stopped", T: r.elapsed()})
		if err != nil {
			if IsQuit(err) {
				return rec, events, ErrQuit
			}
			return rec, events, errors.Annotatef(err, "trial %d: %s phase", idx, ph)
		}
		if ph == PhaseStimulus && !r.plan.Response || ph == PhaseResponse {
			r.score(&rec, resp)
		}
	}

	log.Debug("trial done",
		zap.Int("trial", idx),
		zap.String("word", t.Word),
		zap.String("color", t.Color),
		zap.String("image", t.Image),
		zap.String("correctness", string(rec.Correctness)))
	return rec, events, nil
}

func (r *Runner) present(ctx context.Context, rec *Record) (*Response, error) {
	s := r.stimulusScreen(rec.Trial)
	lines := LineText
	if r.cfg.Kind == StimImage {
		lines = LineImage
	}
	r.mark(true, lines)
	defer r.mark(false, lines)

	rec.Onset = r.elapsed()
	if r.plan.Response {
		return nil, r.surface.Show(ctx, s, r.cfg.Exposure)
	}
	return r.surface.Collect(ctx, s, r.cfg.Keys, r.cfg.Timeout)
}

func (r *Runner) stimulusScreen(t Trial) Screen {
	if r.cfg.Kind == StimImage {
		return Screen{Kind: ScreenImage, Image: t.Image}
	}
	return Screen{Kind: ScreenText, Text: t.Word, Color: t.Color}
}

func (r *Runner) promptScreen() Screen {
	return Screen{Kind: ScreenText, Text: r.cfg.Prompt, Prompt: ratingLabels(r.cfg.Ratings)}
}

func (r *Runner) mark(on bool, lines string) {
	if r.marker == nil {
		return
	}
	var err error
	if on {
		err = r.marker.Set(lines)
	} else {
		err = r.marker.Unset(lines)
	}
	if err != nil {
		log.Warn("trigger marker write failed", zap.String("lines", lines), zap.Bool("set", on), zap.Error(err))
	}
}

func (r *Runner) score(rec *Record, resp *Response) {
	if resp == nil {
		return
	}
	key := normalizeName(resp.Key)
	rt := resp.RT
	rec.Key = &key
	rec.RT = &rt
	if resp.Duration != nil {
		d := *resp.Duration
		rec.KeyDuration = &d
	}
	rec.Correctness = r.cfg.KeyMap.Score(rec.Color, key)
	if v, ok := r.cfg.Ratings[key]; ok {
		rating := v
		rec.Rating = &rating
	}
}
