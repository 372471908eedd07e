package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanPhases(t *testing.T) {
	t.Parallel()

	cases := []struct {
		plan Plan
		want []Phase
	}{
		{Plan{Fixation: true, Feedback: true, ISI: true}, []Phase{PhaseFixation, PhaseStimulus, PhaseFeedback, PhaseISI}},
		{Plan{Fixation: true, Response: true}, []Phase{PhaseFixation, PhaseStimulus, PhaseResponse}},
		{Plan{}, []Phase{PhaseStimulus}},
		{Plan{Response: true, Feedback: true, ISI: true}, []Phase{PhaseStimulus, PhaseResponse, PhaseFeedback, PhaseISI}},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.plan.Phases(), "%+v", c.plan)
	}
}

func TestPlanNextAfterDonePanics(t *testing.T) {
	t.Parallel()

	p := Plan{Fixation: true}
	require.Equal(t, PhaseDone, p.Next(PhaseStimulus))
	require.Panics(t, func() { p.Next(PhaseDone) })
}

func TestPhaseNames(t *testing.T) {
	t.Parallel()

	require.Equal(t, "fixation", PhaseFixation.String())
	require.Equal(t, "stim", PhaseStimulus.String())
	require.Equal(t, "isi", PhaseISI.String())
	require.Equal(t, "phase(9)", Phase(9).String())
}
