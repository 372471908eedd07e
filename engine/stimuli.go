package engine

import (
	"strings"

	"github.com/pingcap/errors"
)

// StimKind selects what the stimulus phase draws.
type StimKind int

const (
	StimText StimKind = iota
	StimImage
)

func (k StimKind) String() string {
	switch k {
	case StimText:
		return "text"
	case StimImage:
		return "image"
	}
	return "unknown"
}

func ParseStimKind(s string) (StimKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "word":
		return StimText, nil
	case "image":
		return StimImage, nil
	}
	return StimText, ErrConfig.GenWithStackByArgs("unknown stimulus kind: " + s)
}

// Trial is one row of a condition table together with its place in the run.
// Attrs holds every column that is not word, color or image.
type Trial struct {
	ConditionIndex int               `json:"condition_index"`
	Rep            int               `json:"rep"`
	Word           string            `json:"word,omitempty"`
	Color          string            `json:"color,omitempty"`
	Image          string            `json:"image,omitempty"`
	Attrs          map[string]string `json:"attrs,omitempty"`
}

// Congruent reports whether the word names its own ink colour.
func (t Trial) Congruent() bool {
	return t.Word != "" && strings.EqualFold(strings.TrimSpace(t.Word), strings.TrimSpace(t.Color))
}

// Experiment is a loaded condition table.
type Experiment struct {
	Columns    []string
	Conditions []Trial
}

func (e *Experiment) hasColumn(name string) bool {
	for _, c := range e.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AttrColumns returns the extra columns in file order.
func (e *Experiment) AttrColumns() []string {
	var out []string
	for _, c := range e.Columns {
		switch c {
		case colWord, colColor, colImage:
			continue
		}
		out = append(out, c)
	}
	return out
}

// RequireColumns checks that the table carries what the stimulus kind draws.
func (e *Experiment) RequireColumns(kind StimKind) error {
	var need []string
	switch kind {
	case StimText:
		need = []string{colWord, colColor}
	case StimImage:
		need = []string{colImage}
	}
	for _, c := range need {
		if !e.hasColumn(c) {
			return ErrConfig.GenWithStackByArgs("conditions file has no " + c + " column")
		}
	}
	return nil
}

var errEmptyColumn = errors.New("empty column name")
