package engine

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Method is the trial ordering strategy of a loop.
type Method string

const (
	MethodSequential Method = "sequential"
	// MethodRandom shuffles each repetition independently.
	MethodRandom Method = "random"
	// MethodFullRandom shuffles all repetitions together.
	MethodFullRandom Method = "fullRandom"
)

func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random":
		return MethodRandom, nil
	case "sequential":
		return MethodSequential, nil
	case "fullrandom", "full-random":
		return MethodFullRandom, nil
	}
	return "", ErrConfig.GenWithStackByArgs("unknown trial method: " + s)
}

// NewRand returns the generator used for ordering and simulation.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sequence materializes the presentation order: every condition appears
// exactly once per repetition.
func Sequence(conds []Trial, method Method, nReps int, rng *rand.Rand) []Trial {
	if nReps <= 0 || len(conds) == 0 {
		return nil
	}
	out := make([]Trial, 0, len(conds)*nReps)
	for rep := 0; rep < nReps; rep++ {
		block := make([]Trial, len(conds))
		copy(block, conds)
		for i := range block {
			block[i].Rep = rep
		}
		if method == MethodRandom {
			rng.Shuffle(len(block), func(i, j int) { block[i], block[j] = block[j], block[i] })
		}
		out = append(out, block...)
	}
	if method == MethodFullRandom {
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}

// GenerateStroopConditions repeats every word and every colour reps times,
// shuffles the two lists independently and pairs them up.
func GenerateStroopConditions(words, colors []string, reps int, rng *rand.Rand) (*Experiment, error) {
	if len(words) == 0 || len(words) != len(colors) {
		return nil, ErrConfig.GenWithStackByArgs(
			fmt.Sprintf("need the same number of words and colours, got %d and %d", len(words), len(colors)))
	}
	if reps <= 0 {
		return nil, ErrConfig.GenWithStackByArgs(fmt.Sprintf("reps must be positive, got %d", reps))
	}

	ws := make([]string, 0, len(words)*reps)
	cs := make([]string, 0, len(colors)*reps)
	for i := range words {
		for r := 0; r < reps; r++ {
			ws = append(ws, words[i])
			cs = append(cs, colors[i])
		}
	}
	rng.Shuffle(len(ws), func(i, j int) { ws[i], ws[j] = ws[j], ws[i] })
	rng.Shuffle(len(cs), func(i, j int) { cs[i], cs[j] = cs[j], cs[i] })

	exp := &Experiment{Columns: []string{colWord, colColor}}
	for i := range ws {
		exp.Conditions = append(exp.Conditions, Trial{ConditionIndex: i, Word: ws[i], Color: cs[i]})
	}
	return exp, nil
}
