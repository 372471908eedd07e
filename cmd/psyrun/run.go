package main

import (
	"fmt"

	"github.com/Zyko0/go-sdl3/bin/binimg"
	"github.com/Zyko0/go-sdl3/bin/binsdl"
	"github.com/Zyko0/go-sdl3/bin/binttf"
	"github.com/spf13/cobra"

	"psyrun/engine"
	"psyrun/present"
)

type runFlags struct {
	task        string
	conditions  string
	participant string
	session     string
	dataDir     string
	stimuliDir  string
	seed        uint64
	isiMode     string
	pilot       bool
	realtime    bool
	logLevel    string

	width         int
	height        int
	fullscreen    bool
	noVSync       bool
	noFixation    bool
	scale         float32
	font          string
	fontSize      int
	dlp           string
	bgColor       string
	textColor     string
	fixationColor string

	noCache bool
}

func newRunCmd() *cobra.Command {
	var fl runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a task for one participant",
		Long: `Run a task for one participant and save the results.

Settings come from the built-in defaults, then the last-run cache, then
PSYRUN_* environment variables (a .env file is read first), then flags.

Example: psyrun run --task stroop --conditions conditions.csv --participant 042`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, &fl)
			if err != nil {
				return err
			}
			return runSession(cmd, cfg, fl)
		},
	}

	bindRunFlags(cmd, &fl)
	return cmd
}

func bindRunFlags(cmd *cobra.Command, fl *runFlags) {
	f := cmd.Flags()
	f.StringVar(&fl.task, "task", "stroop", "Built-in task name or task file (.toml, .yaml)")
	f.StringVar(&fl.conditions, "conditions", "", "Conditions file (.csv, .xlsx); overrides the task's")
	f.StringVar(&fl.participant, "participant", "", "Participant id (random 6 digits when empty)")
	f.StringVar(&fl.session, "session", "", "Session label")
	f.StringVar(&fl.dataDir, "data-dir", "data", "Directory for results and logs")
	f.StringVar(&fl.stimuliDir, "stimuli-dir", "", "Directory containing image stimuli")
	f.Uint64Var(&fl.seed, "seed", 0, "Random seed (0 picks one from the clock)")
	f.StringVar(&fl.isiMode, "isi-mode", "", "Override the task's ISI policy: per-trial or per-run")
	f.BoolVar(&fl.pilot, "pilot", false, "Simulate the participant, no window is opened")
	f.BoolVar(&fl.realtime, "realtime", false, "With --pilot, wait out every duration")
	f.StringVar(&fl.logLevel, "log-level", "info", "Log level")

	f.IntVar(&fl.width, "width", 800, "Screen width")
	f.IntVar(&fl.height, "height", 600, "Screen height")
	f.BoolVar(&fl.fullscreen, "fullscreen", false, "Enable fullscreen")
	f.BoolVar(&fl.noVSync, "no-vsync", false, "Disable VSync")
	f.BoolVar(&fl.noFixation, "no-fixation", false, "Skip the fixation phase")
	f.Float32Var(&fl.scale, "scale", 1.0, "Scale factor for images")
	f.StringVar(&fl.font, "font", "", "TTF font file")
	f.IntVar(&fl.fontSize, "font-size", 32, "Font size")
	f.StringVar(&fl.dlp, "dlp", "", "DLP-IO8-G device for stimulus triggers")
	f.StringVar(&fl.bgColor, "bg-color", "128,128,128,255", "Background color (R,G,B,A)")
	f.StringVar(&fl.textColor, "text-color", "0,0,0,255", "Text color (R,G,B,A)")
	f.StringVar(&fl.fixationColor, "fixation-color", "0,0,0,255", "Fixation color (R,G,B,A)")

	f.BoolVar(&fl.noCache, "no-cache", false, "Neither read nor write the last-run cache")
}

// buildConfig layers defaults, cache, environment and explicitly set flags.
func buildConfig(cmd *cobra.Command, fl *runFlags) (*engine.Config, error) {
	cfg := engine.DefaultConfig()
	if !fl.noCache {
		if err := cfg.LoadCache(engine.CacheFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}

	set := cmd.Flags().Changed
	if set("task") {
		cfg.TaskRef = fl.task
	}
	if set("conditions") {
		cfg.ConditionsFile = fl.conditions
	}
	if set("participant") {
		cfg.Participant = fl.participant
	}
	if set("session") {
		cfg.Session = fl.session
	}
	if set("data-dir") {
		cfg.DataDir = fl.dataDir
	}
	if set("stimuli-dir") {
		cfg.StimuliDir = fl.stimuliDir
	}
	if set("seed") {
		cfg.Seed = fl.seed
	}
	if set("isi-mode") {
		cfg.ISIMode = fl.isiMode
	}
	if set("pilot") {
		cfg.Pilot = fl.pilot
	}
	if set("log-level") {
		cfg.LogLevel = fl.logLevel
	}
	if set("width") {
		cfg.ScreenWidth = fl.width
	}
	if set("height") {
		cfg.ScreenHeight = fl.height
	}
	if set("fullscreen") {
		cfg.Fullscreen = fl.fullscreen
	}
	if set("no-vsync") {
		cfg.VSync = !fl.noVSync
	}
	if set("no-fixation") {
		cfg.UseFixation = !fl.noFixation
	}
	if set("scale") {
		cfg.ScaleFactor = fl.scale
	}
	if set("font") {
		cfg.FontFile = fl.font
	}
	if set("font-size") {
		cfg.FontSize = fl.fontSize
	}
	if set("dlp") {
		cfg.DLPDevice = fl.dlp
	}
	if set("bg-color") {
		cfg.BGColor = engine.ParseColor(fl.bgColor)
	}
	if set("text-color") {
		cfg.TextColor = engine.ParseColor(fl.textColor)
	}
	if set("fixation-color") {
		cfg.FixationColor = engine.ParseColor(fl.fixationColor)
	}
	return cfg, nil
}

func pilotSurface(realtime bool) engine.OpenSurface {
	return func(cfg *engine.Config, task *engine.Task) (engine.Surface, error) {
		sim := engine.DefaultSimConfig(cfg.Seed)
		sim.KeyMap = task.Response.Correct
		sim.RealTime = realtime
		return engine.NewSimSurface(sim), nil
	}
}

func runSession(cmd *cobra.Command, cfg *engine.Config, fl runFlags) error {
	task, err := engine.ResolveTask(cfg.TaskRef)
	if err != nil {
		return err
	}

	open := present.Open
	if cfg.Pilot {
		open = pilotSurface(fl.realtime)
	} else {
		defer binsdl.Load().Unload()
		defer binimg.Load().Unload()
		defer binttf.Load().Unload()
	}

	s := &engine.Session{
		Config: cfg,
		Task:   task,
		Open:   open,
		Out:    cmd.OutOrStdout(),
	}
	res, err := s.Run(cmd.Context())
	if err != nil {
		return err
	}
	if res.Aborted {
		fmt.Fprintf(cmd.OutOrStdout(), "Run quit after %d trials\n", len(res.Log.Records))
	}

	if !fl.noCache {
		if err := cfg.SaveCache(engine.CacheFile); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "could not write %s: %v\n", engine.CacheFile, err)
		}
	}
	return nil
}
