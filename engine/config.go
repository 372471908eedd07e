package engine

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pingcap/errors"
)

// Color is an RGBA display colour.
type Color struct {
	R, G, B, A uint8
}

func (c Color) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", c.R, c.G, c.B, c.A)
}

// Config is the runtime setup of a session: where files live, how the
// display is opened and which trigger device to drive.
type Config struct {
	TaskRef        string `env:"PSYRUN_TASK"`
	ConditionsFile string `env:"PSYRUN_CONDITIONS"`
	DataDir        string `env:"PSYRUN_DATA_DIR"`
	StimuliDir     string `env:"PSYRUN_STIMULI_DIR"`
	Participant    string `env:"PSYRUN_PARTICIPANT"`
	Session        string `env:"PSYRUN_SESSION"`
	Seed           uint64 `env:"PSYRUN_SEED"`
	ISIMode        string `env:"PSYRUN_ISI_MODE"`
	Pilot          bool   `env:"PSYRUN_PILOT"`
	LogLevel       string `env:"PSYRUN_LOG_LEVEL"`

	FontFile      string  `env:"PSYRUN_FONT"`
	DLPDevice     string  `env:"PSYRUN_DLP"`
	FontSize      int     `env:"PSYRUN_FONT_SIZE"`
	ScreenWidth   int     `env:"PSYRUN_WIDTH"`
	ScreenHeight  int     `env:"PSYRUN_HEIGHT"`
	ScaleFactor   float32 `env:"PSYRUN_SCALE"`
	UseFixation   bool    `env:"PSYRUN_FIXATION"`
	Fullscreen    bool    `env:"PSYRUN_FULLSCREEN"`
	VSync         bool    `env:"PSYRUN_VSYNC"`
	BGColor       Color
	TextColor     Color
	FixationColor Color
}

func ParseColor(s string) Color {
	var r, g, b, a uint8
	n, _ := fmt.Sscanf(s, "%d,%d,%d,%d", &r, &g, &b, &a)
	if n == 3 {
		a = 255
	}
	return Color{R: r, G: g, B: b, A: a}
}

// DefaultConfig matches the original scripts' 800x600 grey window.
func DefaultConfig() *Config {
	return &Config{
		TaskRef:       "stroop",
		DataDir:       "data",
		LogLevel:      "info",
		FontSize:      32,
		ScreenWidth:   800,
		ScreenHeight:  600,
		ScaleFactor:   1.0,
		UseFixation:   true,
		VSync:         true,
		BGColor:       Color{R: 128, G: 128, B: 128, A: 255},
		TextColor:     Color{R: 0, G: 0, B: 0, A: 255},
		FixationColor: Color{R: 0, G: 0, B: 0, A: 255},
	}
}

// LoadEnv overrides cfg with PSYRUN_* environment variables. Colours are read
// from PSYRUN_BG_COLOR, PSYRUN_TEXT_COLOR and PSYRUN_FIXATION_COLOR.
func (cfg *Config) LoadEnv() error {
	if err := env.Parse(cfg); err != nil {
		return ErrConfig.GenWithStackByArgs(fmt.Sprintf("environment: %v", err))
	}
	for name, dst := range map[string]*Color{
		"PSYRUN_BG_COLOR":       &cfg.BGColor,
		"PSYRUN_TEXT_COLOR":     &cfg.TextColor,
		"PSYRUN_FIXATION_COLOR": &cfg.FixationColor,
	} {
		if v, ok := os.LookupEnv(name); ok {
			*dst = ParseColor(v)
		}
	}
	return nil
}

// CacheFile remembers the last session setup in the working directory.
const CacheFile = ".psyrun_lastrun"

func (cfg *Config) SaveCache(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()

	fmt.Fprintf(f, "task=%s\n", cfg.TaskRef)
	fmt.Fprintf(f, "conditions=%s\n", cfg.ConditionsFile)
	fmt.Fprintf(f, "data_dir=%s\n", cfg.DataDir)
	fmt.Fprintf(f, "stimuli_dir=%s\n", cfg.StimuliDir)
	fmt.Fprintf(f, "session=%s\n", cfg.Session)
	fmt.Fprintf(f, "screen_w=%d\n", cfg.ScreenWidth)
	fmt.Fprintf(f, "screen_h=%d\n", cfg.ScreenHeight)
	fmt.Fprintf(f, "use_fixation=%s\n", boolFlag(cfg.UseFixation))
	fmt.Fprintf(f, "fullscreen=%s\n", boolFlag(cfg.Fullscreen))
	fmt.Fprintf(f, "bg_color=%s\n", cfg.BGColor)
	fmt.Fprintf(f, "text_color=%s\n", cfg.TextColor)
	fmt.Fprintf(f, "fixation_color=%s\n", cfg.FixationColor)
	return errors.Trace(f.Sync())
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// LoadCache applies a cache file written by SaveCache. A missing file is not an error.
func (cfg *Config) LoadCache(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Trace(err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, val := parts[0], strings.TrimSpace(parts[1])

		switch key {
		case "task":
			if val != "" {
				cfg.TaskRef = val
			}
		case "conditions":
			cfg.ConditionsFile = val
		case "data_dir":
			if val != "" {
				cfg.DataDir = val
			}
		case "stimuli_dir":
			cfg.StimuliDir = val
		case "session":
			cfg.Session = val
		case "screen_w":
			fmt.Sscanf(val, "%d", &cfg.ScreenWidth)
		case "screen_h":
			fmt.Sscanf(val, "%d", &cfg.ScreenHeight)
		case "use_fixation":
			cfg.UseFixation = val != "0"
		case "fullscreen":
			cfg.Fullscreen = val != "0"
		case "bg_color":
			cfg.BGColor = ParseColor(val)
		case "text_color":
			cfg.TextColor = ParseColor(val)
		case "fixation_color":
			cfg.FixationColor = ParseColor(val)
		}
	}
	return nil
}
