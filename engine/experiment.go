package engine

import (
	"time"
)

// Record is one scored trial as persisted.
type Record struct {
	Index int `json:"trial_index"`
	Trial
	Key         *string     `json:"key"`
	RT          *float64    `json:"rt"`
	KeyDuration *float64    `json:"key_duration"`
	Correctness Correctness `json:"correctness,omitempty"`
	Rating      *int        `json:"rating"`
	// Onset of the stimulus in seconds since the start of the run.
	Onset float64 `json:"stim_onset"`
	ISI   float64 `json:"isi"`
}

// Responded reports whether an accepted key was pressed.
func (r Record) Responded() bool { return r.Key != nil }

// PhaseEvent is a timestamped phase boundary, named like "fixation.started".
type PhaseEvent struct {
	Trial int     `json:"trial"`
	Name  string  `json:"name"`
	T     float64 `json:"t"`
}

// Meta is the run-level information stored next to the records.
type Meta struct {
	RunID       string            `json:"run_id"`
	Participant string            `json:"participant"`
	Session     string            `json:"session,omitempty"`
	Task        string            `json:"task"`
	Date        string            `json:"date"`
	Seed        uint64            `json:"seed"`
	ISIMode     ISIMode           `json:"isi_mode"`
	StartedAt   time.Time         `json:"started_at"`
	EndedAt     time.Time         `json:"ended_at"`
	Aborted     bool              `json:"aborted"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// ExperimentLog grows by appending while the run is in progress.
type ExperimentLog struct {
	Meta    Meta         `json:"meta"`
	Columns []string     `json:"columns,omitempty"`
	Records []Record     `json:"records"`
	Events  []PhaseEvent `json:"events,omitempty"`
}

// NewExperimentLog starts an empty log. columns are the extra condition
// columns carried into every record.
func NewExperimentLog(meta Meta, columns []string) *ExperimentLog {
	return &ExperimentLog{
		Meta:    meta,
		Columns: columns,
		Records: []Record{},
	}
}

func (l *ExperimentLog) Append(r Record) {
	l.Records = append(l.Records, r)
}

func (l *ExperimentLog) Log(trial int, name string, t float64) {
	l.Events = append(l.Events, PhaseEvent{Trial: trial, Name: name, T: t})
}
