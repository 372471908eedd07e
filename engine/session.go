package engine

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// DateFormat names output files and fills the date column.
const DateFormat = "2006-01-02_15h04.05.000"

// OpenSurface opens the display once the session is known to be runnable.
// cfg carries the resolved participant and seed.
type OpenSurface func(cfg *Config, task *Task) (Surface, error)

// Result is what a finished or quit session leaves behind.
type Result struct {
	Log      *ExperimentLog
	Summary  Summary
	CSVPath  string
	JSONPath string
	LogPath  string
	Aborted  bool
}

// Session is one participant running one task.
type Session struct {
	Config *Config
	Task   *Task
	Open   OpenSurface
	// OpenMarker defaults to the DLP-IO8-G driver on Config.DLPDevice.
	OpenMarker func(device string) (Marker, error)
	// Out receives the progress line and the summary.
	Out io.Writer
	Now func() time.Time
}

// Run runs task with the default console output.
func Run(ctx context.Context, cfg *Config, task *Task, open OpenSurface) (*Result, error) {
	s := &Session{Config: cfg, Task: task, Open: open}
	return s.Run(ctx)
}

func openDLP(device string) (Marker, error) {
	return NewDLPIO8G(device, DefaultDLPBaud)
}

// plan is everything derived before the surface is opened.
type plan struct {
	participant string
	seed        uint64
	isiMode     ISIMode
	method      Method
	conditions  string
	columns     []string
	trials      []Trial
	runner      RunnerConfig
}

func (s *Session) prepare() (*plan, error) {
	cfg, task := s.Config, s.Task
	if task == nil {
		return nil, ErrConfig.GenWithStackByArgs("no task")
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	p := &plan{participant: cfg.Participant, seed: cfg.Seed}
	if p.participant == "" {
		p.participant = fmt.Sprintf("%06d", rand.IntN(1000000))
	}
	if p.seed == 0 {
		p.seed = uint64(s.Now().UnixNano())
	}

	var err error
	mode := task.Timing.ISIMode
	if cfg.ISIMode != "" {
		mode = cfg.ISIMode
	}
	if p.isiMode, err = ParseISIMode(mode); err != nil {
		return nil, err
	}
	if p.method, err = ParseMethod(task.Method); err != nil {
		return nil, err
	}

	p.conditions = cfg.ConditionsFile
	if p.conditions == "" {
		p.conditions = task.Conditions
	}
	exp, err := LoadConditions(p.conditions)
	if err != nil {
		return nil, err
	}
	kind, err := task.Kind()
	if err != nil {
		return nil, err
	}
	if err := exp.RequireColumns(kind); err != nil {
		return nil, err
	}
	p.columns = exp.AttrColumns()
	p.trials = Sequence(exp.Conditions, p.method, task.Reps, NewRand(p.seed))

	p.runner = task.RunnerConfig()
	if !cfg.UseFixation {
		p.runner.Fixation = 0
	}
	if err := NewKeyMap(p.runner.KeyMap).Validate(p.trials, p.runner.Keys); err != nil {
		return nil, err
	}
	return p, nil
}

// Run validates the setup, opens the surface and presents every trial.
// The log is written out even when the run is quit or a screen fails.
// Quitting is not an error.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Out == nil {
		s.Out = os.Stdout
	}
	if s.OpenMarker == nil {
		s.OpenMarker = openDLP
	}
	cfg, task := s.Config, s.Task

	p, err := s.prepare()
	if err != nil {
		return nil, err
	}

	started := s.Now()
	date := started.Format(DateFormat)
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, errors.Annotatef(err, "create data dir %s", cfg.DataDir)
	}
	stem := filepath.Join(cfg.DataDir, fmt.Sprintf("%s_%s_%s", p.participant, task.Name, date))
	stem = UniqueStem(stem, ".log", ".csv", ".json")
	res := &Result{LogPath: stem + ".log"}
	closeLog, err := InitLogger(res.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	meta := Meta{
		RunID:       uuid.NewString(),
		Participant: p.participant,
		Session:     cfg.Session,
		Task:        task.Name,
		Date:        date,
		Seed:        p.seed,
		ISIMode:     p.isiMode,
		StartedAt:   started,
		Extra: map[string]string{
			"conditions": p.conditions,
			"method":     string(p.method),
			"reps":       fmt.Sprint(task.Reps),
		},
	}
	res.Log = NewExperimentLog(meta, p.columns)
	log.Info("session starting",
		zap.String("run_id", meta.RunID),
		zap.String("participant", meta.Participant),
		zap.String("task", meta.Task),
		zap.String("conditions", p.conditions),
		zap.Int("trials", len(p.trials)),
		zap.Uint64("seed", p.seed),
		zap.String("isi_mode", string(p.isiMode)))

	resolved := *cfg
	resolved.Participant = p.participant
	resolved.Seed = p.seed
	surface, err := s.Open(&resolved, task)
	if err != nil {
		return nil, errors.Annotate(err, "open surface")
	}
	defer surface.Close()

	var marker Marker
	if cfg.DLPDevice != "" {
		if marker, err = s.OpenMarker(cfg.DLPDevice); err != nil {
			log.Warn("trigger box unavailable, running without triggers",
				zap.String("device", cfg.DLPDevice), zap.Error(err))
			marker = nil
		} else {
			defer marker.Close()
		}
	}

	runErr := s.present(ctx, surface, marker, p, res.Log)
	res.Aborted = IsQuit(runErr)
	if res.Aborted {
		runErr = nil
	}
	res.Log.Meta.Aborted = res.Aborted
	res.Log.Meta.EndedAt = s.Now()

	if err := s.flush(stem, res); err != nil {
		if runErr != nil {
			log.Error("results not saved", zap.Error(err))
			return res, runErr
		}
		return res, err
	}
	if runErr != nil {
		log.Error("session failed", zap.Error(runErr), zap.Int("completed", len(res.Log.Records)))
		return res, runErr
	}
	log.Info("session finished",
		zap.Bool("aborted", res.Aborted),
		zap.Int("records", len(res.Log.Records)),
		zap.String("csv", res.CSVPath))
	return res, nil
}

func (s *Session) present(ctx context.Context, surface Surface, marker Marker, p *plan, l *ExperimentLog) error {
	sc := s.Task.Screens
	if sc.Welcome != "" {
		welcome := Screen{Kind: ScreenText, Text: sc.Welcome}
		var err error
		if sc.WelcomeDuration > 0 {
			err = surface.Show(ctx, welcome, seconds(sc.WelcomeDuration))
		} else {
			_, err = WaitKeys(ctx, surface, welcome, nil)
		}
		if err != nil {
			return err
		}
	}
	if sc.Instructions != "" {
		if _, err := WaitKeys(ctx, surface, Screen{Kind: ScreenText, Text: sc.Instructions}, sc.ContinueKeys); err != nil {
			return err
		}
	}
	if sc.SyncKey != "" {
		text := sc.SyncText
		if text == "" {
			text = "Waiting for the scanner..."
		}
		if _, err := WaitKeys(ctx, surface, Screen{Kind: ScreenText, Text: text}, []string{sc.SyncKey}); err != nil {
			return err
		}
		log.Info("scanner sync received", zap.String("key", sc.SyncKey))
		if marker != nil {
			if err := Pulse(marker, LineSync, SyncPulse); err != nil {
				log.Warn("sync trigger failed", zap.Error(err))
			}
		}
	}

	t := s.Task.Timing
	isi := NewISISampler(p.isiMode, seconds(t.ISIMin), seconds(t.ISIMax), p.seed+1)
	opts := []RunnerOption{
		WithClock(s.Now, s.Now()),
		WithProgress(func(done, total int) {
			fmt.Fprintf(s.Out, "\rTrial: %d/%d ", done, total)
		}),
	}
	if marker != nil {
		opts = append(opts, WithMarker(marker))
	}
	runner := NewRunner(p.runner, surface, isi, opts...)
	err := runner.Run(ctx, p.trials, l)
	if len(p.trials) > 0 {
		fmt.Fprintln(s.Out)
	}
	if err != nil {
		return err
	}

	if sc.End != "" {
		if _, err := WaitKeys(ctx, surface, Screen{Kind: ScreenText, Text: sc.End}, nil); err != nil && !IsQuit(err) {
			return err
		}
	}
	return nil
}

func (s *Session) flush(stem string, res *Result) error {
	res.CSVPath = stem + ".csv"
	if err := res.Log.SaveCSV(res.CSVPath); err != nil {
		return errors.Annotate(err, "save csv")
	}
	res.JSONPath = stem + ".json"
	if err := res.Log.SaveJSON(res.JSONPath); err != nil {
		return errors.Annotate(err, "save json")
	}
	fmt.Fprintf(s.Out, "Results saved to %s\n", res.CSVPath)

	sum, err := Summarize(res.Log)
	if err != nil {
		return err
	}
	res.Summary = sum
	sum.Print(s.Out)
	return nil
}
