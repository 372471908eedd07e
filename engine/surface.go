package engine

import (
	"context"
	"time"
)

// ScreenKind is the content class of a screen.
type ScreenKind int

const (
	ScreenBlank ScreenKind = iota
	ScreenFixation
	ScreenText
	ScreenImage
)

// Screen is static content handed to a Surface. Text may span several lines.
type Screen struct {
	Kind   ScreenKind
	Text   string
	Color  string
	Image  string
	Prompt string
}

// Response is the first accepted key seen while a screen was up.
// RT is in seconds from the screen's onset.
type Response struct {
	Key      string
	RT       float64
	Duration *float64
}

// Surface is the display and input device the runner drives.
// Implementations return ErrQuit when the quit key is pressed or the window
// is closed, at any point.
type Surface interface {
	// Show presents s for d. d == 0 presents it once and returns.
	Show(ctx context.Context, s Screen, d time.Duration) error
	// Collect presents s and blocks until one of keys is pressed or timeout
	// elapses. Empty keys accept any key; timeout 0 waits forever. A nil
	// response with nil error means the timeout expired.
	Collect(ctx context.Context, s Screen, keys []string, timeout time.Duration) (*Response, error)
	Close() error
}

// Marker raises and lowers trigger lines, for instance on a DLP-IO8-G box.
type Marker interface {
	Set(lines string) error
	Unset(lines string) error
	Close() error
}

// SyncPulse is how long the scanner sync line stays raised.
const SyncPulse = 10 * time.Millisecond

// Pulse raises lines on m for d and lowers them again.
func Pulse(m Marker, lines string, d time.Duration) error {
	if err := m.Set(lines); err != nil {
		return err
	}
	time.Sleep(d)
	return m.Unset(lines)
}

// WaitKeys shows s until one of keys is pressed. Empty keys accept any key.
func WaitKeys(ctx context.Context, surface Surface, s Screen, keys []string) (string, error) {
	resp, err := surface.Collect(ctx, s, keys, 0)
	if err != nil || resp == nil {
		return "", err
	}
	return normalizeName(resp.Key), nil
}

// Trigger lines used for stimulus onsets.
const (
	LineImage = "1"
	LineSync  = "2"
	LineText  = "3"
)
