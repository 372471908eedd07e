package engine

import (
	"context"

	"github.com/pingcap/errors"
)

var (
	// ErrConfig covers every problem detected before the first trial:
	// unreadable task or conditions files, unknown keys, unmapped colours.
	ErrConfig = errors.Normalize("invalid experiment configuration: %s",
		errors.RFCCodeText("PSYRUN:ErrConfig"))

	// ErrPresentation is a display or input device fault. It aborts the run.
	ErrPresentation = errors.Normalize("presentation failed: %s",
		errors.RFCCodeText("PSYRUN:ErrPresentation"))

	// ErrQuit is returned by surfaces when the participant or operator asks to stop.
	// It ends the run but is not a failure.
	ErrQuit = errors.New("experiment quit requested")
)

// IsQuit reports whether err is a quit request or a cancelled context.
func IsQuit(err error) bool {
	if err == nil {
		return false
	}
	cause := errors.Cause(err)
	return cause == ErrQuit || cause == context.Canceled || cause == context.DeadlineExceeded
}
