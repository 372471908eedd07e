package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/stretchr/testify/require"
)

const stroopConditions = "word,color,congruent\nred,red,1\nred,green,0\ngreen,green,1\ngreen,red,0\n"

type sessionFixture struct {
	cfg   *Config
	task  *Task
	out   *bytes.Buffer
	sim   *SimSurface
	fake  *fakeSurface
	opens int
	// seen is the config handed to Open.
	seen *Config
}

func newStroopFixture(t *testing.T, conditions string) *sessionFixture {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.ConditionsFile = writeFile(t, dir, "stims.csv", conditions)
	cfg.Participant = "p01"
	cfg.Seed = 5
	task, ok := Preset("stroop-builder")
	require.True(t, ok)
	return &sessionFixture{cfg: cfg, task: task, out: &bytes.Buffer{}}
}

func (f *sessionFixture) session(sim SimConfig) *Session {
	now, _ := fakeClock()
	return &Session{
		Config: f.cfg,
		Task:   f.task,
		Out:    f.out,
		Now:    now,
		Open: func(cfg *Config, task *Task) (Surface, error) {
			f.opens++
			f.seen = cfg
			if f.fake != nil {
				return f.fake, nil
			}
			sim.KeyMap = task.Response.Correct
			f.sim = NewSimSurface(sim)
			return f.sim, nil
		},
	}
}

func TestSessionPilotRun(t *testing.T) {
	f := newStroopFixture(t, stroopConditions)
	f.task.Reps = 3
	res, err := f.session(DefaultSimConfig(1)).Run(context.Background())
	require.NoError(t, err)
	require.False(t, res.Aborted)
	require.Len(t, res.Log.Records, 12)
	require.True(t, f.sim.closed)

	m := res.Log.Meta
	require.Equal(t, "p01", m.Participant)
	require.Equal(t, "stroop-builder", m.Task)
	require.Equal(t, ISIPerRun, m.ISIMode)
	require.NotEmpty(t, m.RunID)
	require.Equal(t, []string{"congruent"}, res.Log.Columns)

	isi := res.Log.Records[0].ISI
	for i, rec := range res.Log.Records {
		require.Equal(t, i, rec.Index)
		require.Equal(t, isi, rec.ISI)
		require.Equal(t, i/4, rec.Rep)
	}

	require.FileExists(t, res.LogPath)
	require.Equal(t, filepath.Dir(res.CSVPath), f.cfg.DataDir)
	fromCSV, err := LoadResults(res.CSVPath)
	require.NoError(t, err)
	require.Equal(t, res.Log.Records, fromCSV.Records)
	fromJSON, err := LoadResults(res.JSONPath)
	require.NoError(t, err)
	require.Equal(t, res.Log.Records, fromJSON.Records)
	require.Equal(t, m.RunID, fromJSON.Meta.RunID)

	out := f.out.String()
	require.Contains(t, out, "Trial: 12/12")
	require.Contains(t, out, "Results saved to "+res.CSVPath)
	require.Contains(t, out, "Accuracy:")
}

func TestSessionQuitFlushesCompletedTrials(t *testing.T) {
	f := newStroopFixture(t, stroopConditions)
	sim := DefaultSimConfig(2)
	sim.QuitAtTrial = 3
	res, err := f.session(sim).Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Aborted)
	require.Len(t, res.Log.Records, 2)

	snap, err := LoadSnapshot(res.JSONPath)
	require.NoError(t, err)
	require.True(t, snap.Meta.Aborted)
	require.Len(t, snap.Records, 2)
	fromCSV, err := ReadResultsCSV(res.CSVPath)
	require.NoError(t, err)
	require.Len(t, fromCSV.Records, 2)
}

func TestSessionConfigErrorOpensNothing(t *testing.T) {
	f := newStroopFixture(t, "word,color\nred,red\nblue,blue\n")
	_, err := f.session(DefaultSimConfig(1)).Run(context.Background())
	require.Error(t, err)
	require.True(t, ErrConfig.Equal(err))
	require.Zero(t, f.opens)
	require.NoDirExists(t, f.cfg.DataDir)
}

func TestSessionMissingColumns(t *testing.T) {
	f := newStroopFixture(t, "image\na.png\n")
	_, err := f.session(DefaultSimConfig(1)).Run(context.Background())
	require.True(t, ErrConfig.Equal(err))
	require.Zero(t, f.opens)
}

func TestSessionSurfaceFaultStillFlushes(t *testing.T) {
	f := newStroopFixture(t, stroopConditions)
	f.fake = &fakeSurface{fault: errors.New("window lost")}
	res, err := f.session(SimConfig{}).Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "window lost")
	require.NotNil(t, res)
	require.False(t, res.Aborted)
	require.FileExists(t, res.CSVPath)
	require.FileExists(t, res.JSONPath)
	require.True(t, f.fake.closed)
}

func TestSessionISIOverrideAndMarker(t *testing.T) {
	f := newStroopFixture(t, stroopConditions)
	f.task, _ = Preset("stroop")
	f.cfg.ISIMode = "per-run"
	f.cfg.UseFixation = false
	f.cfg.DLPDevice = "/dev/ttyUSB0"
	marker := &fakeMarker{}
	s := f.session(DefaultSimConfig(4))
	s.OpenMarker = func(device string) (Marker, error) {
		require.Equal(t, "/dev/ttyUSB0", device)
		return marker, nil
	}

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, ISIPerRun, res.Log.Meta.ISIMode)
	for _, rec := range res.Log.Records {
		require.Equal(t, res.Log.Records[0].ISI, rec.ISI)
	}
	for _, e := range res.Log.Events {
		require.NotEqual(t, "fixation.started", e.Name)
	}
	require.Len(t, marker.writes, 8)
	require.Equal(t, "set:3", marker.writes[0])
	require.True(t, marker.closed)
}

func TestSessionMarkerUnavailable(t *testing.T) {
	f := newStroopFixture(t, stroopConditions)
	f.cfg.DLPDevice = "/dev/missing"
	s := f.session(DefaultSimConfig(4))
	s.OpenMarker = func(string) (Marker, error) {
		return nil, errors.New("no such device")
	}
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Log.Records, 4)
}

func TestSessionSyncBeforeFirstTrial(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.ConditionsFile = writeFile(t, dir, "images.csv", "image,category\na.png,real\nb.png,ai\n")
	cfg.Participant = "p02"
	task, _ := Preset("image-fmri")

	fake := &fakeSurface{respond: alwaysKey("3", 1.5)}
	marker := &fakeMarker{}
	now, _ := fakeClock()
	s := &Session{
		Config:     cfg,
		Task:       task,
		Out:        &bytes.Buffer{},
		Now:        now,
		Open:       func(*Config, *Task) (Surface, error) { return fake, nil },
		OpenMarker: func(string) (Marker, error) { return marker, nil },
	}
	cfg.DLPDevice = "box"

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Log.Records, 2)
	require.Equal(t, "a.png", res.Log.Records[0].Image)
	require.Equal(t, "real", res.Log.Records[0].Attrs["category"])
	require.Equal(t, 3, *res.Log.Records[1].Rating)

	require.Equal(t, "collect", fake.calls[1].method)
	require.Equal(t, []string{"t"}, fake.calls[1].keys)
	require.Equal(t, ScreenFixation, fake.calls[2].screen.Kind)
	require.Equal(t, []string{"set:2", "unset:2", "set:1", "unset:1", "set:1", "unset:1"}, marker.writes)
}

func TestSessionTextTaskWithoutMappingOpensNothing(t *testing.T) {
	f := newStroopFixture(t, "word,color\nred,red\nblue,purple\n")
	f.task.Response.Correct = nil
	_, err := f.session(DefaultSimConfig(1)).Run(context.Background())
	require.Error(t, err)
	require.True(t, ErrConfig.Equal(err))
	require.Zero(t, f.opens)
	require.NoDirExists(t, f.cfg.DataDir)
}

func TestSessionSurfaceGetsResolvedSeed(t *testing.T) {
	f := newStroopFixture(t, stroopConditions)
	f.cfg.Seed = 0
	f.cfg.Participant = ""
	res, err := f.session(DefaultSimConfig(1)).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, f.seen)
	require.NotZero(t, f.seen.Seed)
	require.Equal(t, res.Log.Meta.Seed, f.seen.Seed)
	require.Equal(t, res.Log.Meta.Participant, f.seen.Participant)
	require.Zero(t, f.cfg.Seed)
	require.Empty(t, f.cfg.Participant)
}

func TestSessionOutputsShareOneStem(t *testing.T) {
	f := newStroopFixture(t, stroopConditions)
	first, err := f.session(DefaultSimConfig(1)).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.Remove(first.CSVPath))
	require.NoError(t, os.Remove(first.LogPath))

	second, err := f.session(DefaultSimConfig(1)).Run(context.Background())
	require.NoError(t, err)
	stem := strings.TrimSuffix(first.JSONPath, ".json") + "_1"
	require.Equal(t, stem+".log", second.LogPath)
	require.Equal(t, stem+".csv", second.CSVPath)
	require.Equal(t, stem+".json", second.JSONPath)
}

func TestSessionRestoresLogger(t *testing.T) {
	before := log.L()
	f := newStroopFixture(t, stroopConditions)
	_, err := f.session(DefaultSimConfig(1)).Run(context.Background())
	require.NoError(t, err)
	require.Same(t, before, log.L())
}
