package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Task describes one experiment. Durations are in seconds.
type Task struct {
	Name       string `toml:"name" yaml:"name"`
	Stimulus   string `toml:"stimulus" yaml:"stimulus"`
	Conditions string `toml:"conditions" yaml:"conditions"`
	Method     string `toml:"method" yaml:"method"`
	Reps       int    `toml:"reps" yaml:"reps"`

	Screens  Screens `toml:"screens" yaml:"screens"`
	Timing   Timing  `toml:"timing" yaml:"timing"`
	Response Keys    `toml:"response" yaml:"response"`
}

// Screens holds the text of the fixed screens around the trial loop.
type Screens struct {
	Welcome string `toml:"welcome" yaml:"welcome"`
	// WelcomeDuration > 0 shows the welcome screen for a fixed time instead
	// of waiting for a key.
	WelcomeDuration float64  `toml:"welcome_duration" yaml:"welcome_duration"`
	Instructions    string   `toml:"instructions" yaml:"instructions"`
	ContinueKeys    []string `toml:"continue_keys" yaml:"continue_keys"`
	SyncKey         string   `toml:"sync_key" yaml:"sync_key"`
	SyncText        string   `toml:"sync_text" yaml:"sync_text"`
	Prompt          string   `toml:"prompt" yaml:"prompt"`
	End             string   `toml:"end" yaml:"end"`
}

type Timing struct {
	Fixation float64 `toml:"fixation" yaml:"fixation"`
	Exposure float64 `toml:"exposure" yaml:"exposure"`
	Feedback float64 `toml:"feedback" yaml:"feedback"`
	Timeout  float64 `toml:"timeout" yaml:"timeout"`
	ISIMin   float64 `toml:"isi_min" yaml:"isi_min"`
	ISIMax   float64 `toml:"isi_max" yaml:"isi_max"`
	ISIMode  string  `toml:"isi_mode" yaml:"isi_mode"`
}

type Keys struct {
	Keys    []string          `toml:"keys" yaml:"keys"`
	QuitKey string            `toml:"quit_key" yaml:"quit_key"`
	Correct map[string]string `toml:"correct" yaml:"correct"`
	Ratings map[string]int    `toml:"ratings" yaml:"ratings"`
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// LoadTask decodes a .toml, .yaml or .yml task file. Unknown keys are rejected.
func LoadTask(path string) (*Task, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrConfig.GenWithStackByArgs("task path is empty")
	}
	var t Task
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, &t)
		if err != nil {
			return nil, ErrConfig.GenWithStackByArgs(fmt.Sprintf("decode task %s: %v", path, err))
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, ErrConfig.GenWithStackByArgs(fmt.Sprintf("unknown keys in task %s: %v", path, undecoded))
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ErrConfig.GenWithStackByArgs(fmt.Sprintf("read task %s: %v", path, err))
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil {
			return nil, ErrConfig.GenWithStackByArgs(fmt.Sprintf("decode task %s: %v", path, err))
		}
	default:
		return nil, ErrConfig.GenWithStackByArgs("task must be a .toml or .yaml file: " + path)
	}

	if t.Conditions != "" && !filepath.IsAbs(t.Conditions) {
		t.Conditions = filepath.Join(filepath.Dir(path), t.Conditions)
	}
	t.normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ResolveTask returns a copy of a built-in preset, or loads ref as a file.
func ResolveTask(ref string) (*Task, error) {
	if t, ok := Preset(ref); ok {
		return t, nil
	}
	return LoadTask(ref)
}

func (t *Task) normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Stimulus = strings.ToLower(strings.TrimSpace(t.Stimulus))
	if t.Reps == 0 {
		t.Reps = 1
	}
	for i, k := range t.Response.Keys {
		t.Response.Keys[i] = normalizeName(k)
	}
	for i, k := range t.Screens.ContinueKeys {
		t.Screens.ContinueKeys[i] = normalizeName(k)
	}
	t.Screens.SyncKey = normalizeName(t.Screens.SyncKey)
	t.Response.QuitKey = normalizeName(t.Response.QuitKey)
	if t.Response.QuitKey == "" {
		t.Response.QuitKey = "escape"
	}
	if len(t.Response.Correct) > 0 {
		t.Response.Correct = NewKeyMap(t.Response.Correct)
	}
	if len(t.Response.Ratings) > 0 {
		ratings := make(map[string]int, len(t.Response.Ratings))
		for k, v := range t.Response.Ratings {
			ratings[normalizeName(k)] = v
		}
		t.Response.Ratings = ratings
	}
}

// Validate checks the task on its own; conditions are checked separately.
func (t *Task) Validate() error {
	if t.Name == "" {
		return ErrConfig.GenWithStackByArgs("task has no name")
	}
	kind, err := t.Kind()
	if err != nil {
		return err
	}
	if _, err := ParseMethod(t.Method); err != nil {
		return err
	}
	if _, err := ParseISIMode(t.Timing.ISIMode); err != nil {
		return err
	}
	if t.Reps < 0 {
		return ErrConfig.GenWithStackByArgs(fmt.Sprintf("reps must not be negative, got %d", t.Reps))
	}
	if len(t.Response.Keys) == 0 {
		return ErrConfig.GenWithStackByArgs("task accepts no response keys")
	}
	tm := t.Timing
	for name, v := range map[string]float64{
		"fixation": tm.Fixation, "exposure": tm.Exposure, "feedback": tm.Feedback,
		"timeout": tm.Timeout, "isi_min": tm.ISIMin, "isi_max": tm.ISIMax,
	} {
		if v < 0 {
			return ErrConfig.GenWithStackByArgs(fmt.Sprintf("timing.%s must not be negative", name))
		}
	}
	if tm.ISIMax < tm.ISIMin {
		return ErrConfig.GenWithStackByArgs("timing.isi_max is below timing.isi_min")
	}
	for _, k := range t.Response.Keys {
		if k == t.Response.QuitKey {
			return ErrConfig.GenWithStackByArgs("quit key " + k + " is also a response key")
		}
	}
	accepted := make(map[string]bool, len(t.Response.Keys))
	for _, k := range t.Response.Keys {
		accepted[k] = true
	}
	for k := range t.Response.Ratings {
		if !accepted[k] {
			return ErrConfig.GenWithStackByArgs("rating key " + k + " is not a response key")
		}
	}
	if kind == StimText && len(t.Response.Correct) == 0 {
		return ErrConfig.GenWithStackByArgs("text task has no response.correct colour mapping")
	}
	return NewKeyMap(t.Response.Correct).Validate(nil, t.Response.Keys)
}

func (t *Task) Kind() (StimKind, error) {
	return ParseStimKind(t.Stimulus)
}

// RunnerConfig derives the trial shape from the task.
func (t *Task) RunnerConfig() RunnerConfig {
	kind, _ := t.Kind()
	return RunnerConfig{
		Kind:     kind,
		Keys:     t.Response.Keys,
		KeyMap:   t.Response.Correct,
		Ratings:  t.Response.Ratings,
		Timeout:  seconds(t.Timing.Timeout),
		Fixation: seconds(t.Timing.Fixation),
		Exposure: seconds(t.Timing.Exposure),
		Feedback: seconds(t.Timing.Feedback),
		Prompt:   t.Screens.Prompt,
		NoISI:    t.Timing.ISIMax == 0,
	}
}

func ratingLabels(ratings map[string]int) string {
	if len(ratings) == 0 {
		return ""
	}
	keys := make([]string, 0, len(ratings))
	for k := range ratings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return ratings[keys[i]] < ratings[keys[j]] })
	labels := make([]string, len(keys))
	for i, k := range keys {
		if v := fmt.Sprint(ratings[k]); v == k {
			labels[i] = v
		} else {
			labels[i] = fmt.Sprintf("%s=%s", k, v)
		}
	}
	return strings.Join(labels, "   ")
}

const (
	stroopInstructions = "You will see words displayed in different colors.\n\n" +
		"Press the LEFT arrow key if the color is RED.\n" +
		"Press the RIGHT arrow key if the color is %s.\n\n" +
		"Press Enter to start."
	imageWelcome = "Welcome to the experiment!\n\nYou will see a series of images.\n" +
		"Please rate each image after it is displayed.\nPress any key to start."
	thanks = "Thank you for participating!\n\nPress any key to exit."
)

func ratingScale(keys ...string) map[string]int {
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		m[k] = i + 1
	}
	return m
}

var presets = map[string]func() *Task{
	"stroop": func() *Task {
		return &Task{
			Name:       "stroop",
			Stimulus:   "text",
			Conditions: "conditions.csv",
			Method:     string(MethodRandom),
			Reps:       1,
			Screens: Screens{
				Welcome:      "Welcome to the Stroop task experiment!\n\nPress any key to begin.",
				Instructions: fmt.Sprintf(stroopInstructions, "BLUE"),
				ContinueKeys: []string{"return"},
				End:          thanks,
			},
			Timing: Timing{Fixation: 2, Feedback: 1, ISIMin: 0, ISIMax: 1, ISIMode: string(ISIPerTrial)},
			Response: Keys{
				Keys:    []string{"left", "right"},
				QuitKey: "escape",
				Correct: map[string]string{"red": "left", "blue": "right"},
			},
		}
	},
	"stroop-builder": func() *Task {
		return &Task{
			Name:       "stroop-builder",
			Stimulus:   "text",
			Conditions: "stims.csv",
			Method:     string(MethodRandom),
			Reps:       1,
			Screens: Screens{
				Welcome:         "Welcome to the Stroop task!",
				WelcomeDuration: 3,
				Instructions:    fmt.Sprintf(stroopInstructions, "GREEN"),
				ContinueKeys:    []string{"return"},
				End:             thanks,
			},
			Timing: Timing{Fixation: 2, Feedback: 2, ISIMin: 0, ISIMax: 1, ISIMode: string(ISIPerRun)},
			Response: Keys{
				Keys:    []string{"left", "right"},
				QuitKey: "escape",
				Correct: map[string]string{"red": "left", "green": "right"},
			},
		}
	},
	"image-rating": func() *Task {
		return &Task{
			Name:       "image-rating",
			Stimulus:   "image",
			Conditions: "images.csv",
			Method:     string(MethodSequential),
			Reps:       1,
			Screens: Screens{
				Welcome: imageWelcome,
				Prompt:  "How realistic do you think this image is?",
				End:     thanks,
			},
			Timing: Timing{Fixation: 1, Exposure: 5},
			Response: Keys{
				Keys:    []string{"1", "2", "3", "4", "5"},
				QuitKey: "escape",
				Ratings: ratingScale("1", "2", "3", "4", "5"),
			},
		}
	},
	"image-fmri": func() *Task {
		return &Task{
			Name:       "image-fmri",
			Stimulus:   "image",
			Conditions: "images.csv",
			Method:     string(MethodSequential),
			Reps:       1,
			Screens: Screens{
				Welcome:  imageWelcome,
				SyncKey:  "t",
				SyncText: "Waiting for the trigger",
				Prompt:   "How realistic do you think this image is?",
				End:      thanks,
			},
			Timing: Timing{Fixation: 1, Exposure: 5, Timeout: 10},
			Response: Keys{
				Keys:    []string{"1", "2", "3", "4", "5"},
				QuitKey: "escape",
				Ratings: ratingScale("1", "2", "3", "4", "5"),
			},
		}
	},
}

// Preset returns a fresh copy of a built-in task.
func Preset(name string) (*Task, bool) {
	mk, ok := presets[name]
	if !ok {
		return nil, false
	}
	t := mk()
	t.normalize()
	return t, true
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
