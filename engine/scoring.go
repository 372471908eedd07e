package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Correctness is the label derived from comparing the pressed key with the
// key expected for the displayed colour. The zero value means unscored.
type Correctness string

const (
	Unscored Correctness = ""
	Correct  Correctness = "correct"
	Wrong    Correctness = "wrong"
)

// KeyMap maps a display colour to the single key that counts as correct for it.
type KeyMap map[string]string

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewKeyMap normalizes colour and key names.
func NewKeyMap(m map[string]string) KeyMap {
	if len(m) == 0 {
		return nil
	}
	km := make(KeyMap, len(m))
	for color, key := range m {
		km[normalizeName(color)] = normalizeName(key)
	}
	return km
}

// Enabled reports whether trials are scored at all.
func (m KeyMap) Enabled() bool { return len(m) > 0 }

// Score labels a response. Only the colour takes part; the word never does.
// An empty key yields Unscored.
func (m KeyMap) Score(color, key string) Correctness {
	if key == "" || !m.Enabled() {
		return Unscored
	}
	expected, ok := m[normalizeName(color)]
	if ok && expected == normalizeName(key) {
		return Correct
	}
	return Wrong
}

// Validate fails on the first trial colour without a mapping entry and on
// mapped keys the participant cannot press.
func (m KeyMap) Validate(trials []Trial, accepted []string) error {
	if !m.Enabled() {
		return nil
	}
	allowed := make(map[string]bool, len(accepted))
	for _, k := range accepted {
		allowed[normalizeName(k)] = true
	}
	colors := make([]string, 0, len(m))
	for c := range m {
		colors = append(colors, c)
	}
	sort.Strings(colors)
	for _, c := range colors {
		if !allowed[m[c]] {
			return ErrConfig.GenWithStackByArgs(
				fmt.Sprintf("correct key %q for colour %q is not an accepted key", m[c], c))
		}
	}
	for _, t := range trials {
		if _, ok := m[normalizeName(t.Color)]; !ok {
			return ErrConfig.GenWithStackByArgs(
				fmt.Sprintf("condition %d: colour %q has no correct key", t.ConditionIndex, t.Color))
		}
	}
	return nil
}

// FeedbackText is what the feedback phase shows for a label.
func FeedbackText(c Correctness) string {
	if c == Unscored {
		return "no response"
	}
	return string(c)
}
