package engine

import (
	"fmt"
	"io"

	"github.com/montanaflynn/stats"
	"github.com/pingcap/errors"
)

// Summary holds descriptive statistics of one run.
type Summary struct {
	Trials    int
	Responded int
	Correct   int
	Wrong     int
	Accuracy  float64

	MeanRT   float64
	MedianRT float64
	SDRT     float64

	CongruentRT   float64
	IncongruentRT float64
	// StroopEffect is IncongruentRT - CongruentRT; zero when either group is empty.
	StroopEffect float64

	Rated      int
	MeanRating float64
}

// Summarize computes accuracy over scored trials and RT statistics over
// responded ones.
func Summarize(l *ExperimentLog) (Summary, error) {
	s := Summary{Trials: len(l.Records)}
	var rts, congruent, incongruent, ratings stats.Float64Data
	for _, r := range l.Records {
		switch r.Correctness {
		case Correct:
			s.Correct++
		case Wrong:
			s.Wrong++
		}
		if r.Rating != nil {
			ratings = append(ratings, float64(*r.Rating))
		}
		if r.RT == nil {
			continue
		}
		s.Responded++
		rts = append(rts, *r.RT)
		if r.Word == "" {
			continue
		}
		if r.Congruent() {
			congruent = append(congruent, *r.RT)
		} else {
			incongruent = append(incongruent, *r.RT)
		}
	}
	if scored := s.Correct + s.Wrong; scored > 0 {
		s.Accuracy = float64(s.Correct) / float64(scored)
	}
	s.Rated = len(ratings)

	var err error
	if len(rts) > 0 {
		if s.MeanRT, err = rts.Mean(); err != nil {
			return s, errors.Trace(err)
		}
		if s.MedianRT, err = rts.Median(); err != nil {
			return s, errors.Trace(err)
		}
	}
	if len(rts) > 1 {
		if s.SDRT, err = rts.StandardDeviationSample(); err != nil {
			return s, errors.Trace(err)
		}
	}
	if len(congruent) > 0 && len(incongruent) > 0 {
		if s.CongruentRT, err = stats.Mean(congruent); err != nil {
			return s, errors.Trace(err)
		}
		if s.IncongruentRT, err = stats.Mean(incongruent); err != nil {
			return s, errors.Trace(err)
		}
		s.StroopEffect = s.IncongruentRT - s.CongruentRT
	}
	if len(ratings) > 0 {
		if s.MeanRating, err = stats.Mean(ratings); err != nil {
			return s, errors.Trace(err)
		}
	}
	return s, nil
}

// Print writes the summary in a short human-readable form.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Trials: %d, responded: %d\n", s.Trials, s.Responded)
	if s.Correct+s.Wrong > 0 {
		fmt.Fprintf(w, "Accuracy: %.1f%% (%d correct, %d wrong)\n", s.Accuracy*100, s.Correct, s.Wrong)
	}
	if s.Responded > 0 {
		fmt.Fprintf(w, "RT mean %.3fs, median %.3fs, sd %.3fs\n", s.MeanRT, s.MedianRT, s.SDRT)
	}
	if s.CongruentRT > 0 && s.IncongruentRT > 0 {
		fmt.Fprintf(w, "Congruent %.3fs, incongruent %.3fs, Stroop effect %+.3fs\n",
			s.CongruentRT, s.IncongruentRT, s.StroopEffect)
	}
	if s.Rated > 0 {
		fmt.Fprintf(w, "Mean rating %.2f over %d images\n", s.MeanRating, s.Rated)
	}
}
