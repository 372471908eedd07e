package engine

import "fmt"

// Phase is one step of a trial.
type Phase int

const (
	PhaseFixation Phase = iota
	PhaseStimulus
	PhaseResponse
	PhaseFeedback
	PhaseISI
	PhaseDone
)

var phaseNames = [...]string{"fixation", "stim", "response", "feedback", "isi", "done"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Plan fixes which optional phases a task uses. The stimulus phase always runs.
//
//	Fixation -> Stimulus -> (Response) -> (Feedback) -> (ISI) -> Done
type Plan struct {
	Fixation bool
	// Response is set when the stimulus has a fixed exposure and input is
	// collected on a separate prompt screen.
	Response bool
	Feedback bool
	ISI      bool
}

func (p Plan) enabled(ph Phase) bool {
	switch ph {
	case PhaseFixation:
		return p.Fixation
	case PhaseResponse:
		return p.Response
	case PhaseFeedback:
		return p.Feedback
	case PhaseISI:
		return p.ISI
	}
	return true
}

// First is the entry phase of every trial.
func (p Plan) First() Phase {
	if p.Fixation {
		return PhaseFixation
	}
	return PhaseStimulus
}

// Next returns the phase after cur, skipping the ones the plan leaves out.
func (p Plan) Next(cur Phase) Phase {
	if cur >= PhaseDone {
		panic(fmt.Sprintf("no phase after %s", cur))
	}
	for next := cur + 1; next < PhaseDone; next++ {
		if p.enabled(next) {
			return next
		}
	}
	return PhaseDone
}

// Phases lists the full path through a trial.
func (p Plan) Phases() []Phase {
	var out []Phase
	for ph := p.First(); ph != PhaseDone; ph = p.Next(ph) {
		out = append(out, ph)
	}
	return out
}
