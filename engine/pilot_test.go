package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSimSurfaceAnswersWithinKeys(t *testing.T) {
	t.Parallel()

	cfg := DefaultSimConfig(3)
	cfg.KeyMap = KeyMap{"red": "left", "green": "right"}
	cfg.Accuracy = 1
	s := NewSimSurface(cfg)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		resp, err := s.Collect(ctx, Screen{Kind: ScreenText, Text: "red", Color: "green"}, []string{"left", "right"}, 0)
		require.NoError(t, err)
		require.NotNil(t, resp)
		require.Equal(t, "right", resp.Key)
		require.Greater(t, resp.RT, 0.0)
		require.NotNil(t, resp.Duration)
	}
	require.Equal(t, 50, s.Stimuli())
}

func TestSimSurfaceWrongAnswers(t *testing.T) {
	t.Parallel()

	cfg := DefaultSimConfig(3)
	cfg.KeyMap = KeyMap{"red": "left"}
	cfg.Accuracy = 0
	s := NewSimSurface(cfg)
	for i := 0; i < 20; i++ {
		resp, err := s.Collect(context.Background(), Screen{Kind: ScreenText, Color: "red"}, []string{"left", "right"}, 0)
		require.NoError(t, err)
		require.Equal(t, "right", resp.Key)
	}
}

func TestSimSurfaceTimeout(t *testing.T) {
	t.Parallel()

	cfg := DefaultSimConfig(9)
	cfg.MedianRT = 10 * time.Second
	cfg.Sigma = 0.01
	s := NewSimSurface(cfg)
	resp, err := s.Collect(context.Background(), Screen{Kind: ScreenImage, Image: "a.png"}, []string{"1"}, time.Second)
	require.NoError(t, err)
	require.Nil(t, resp)
}

func TestSimSurfaceQuit(t *testing.T) {
	t.Parallel()

	cfg := DefaultSimConfig(1)
	cfg.QuitAtTrial = 2
	s := NewSimSurface(cfg)
	ctx := context.Background()

	require.NoError(t, s.Show(ctx, Screen{Kind: ScreenText, Text: "Welcome"}, time.Second))
	require.NoError(t, s.Show(ctx, Screen{Kind: ScreenImage, Image: "a.png"}, time.Second))
	require.ErrorIs(t, s.Show(ctx, Screen{Kind: ScreenImage, Image: "b.png"}, time.Second), ErrQuit)
}

func TestSimSurfaceRealTimeHonoursContext(t *testing.T) {
	t.Parallel()

	cfg := DefaultSimConfig(1)
	cfg.RealTime = true
	s := NewSimSurface(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Show(ctx, Screen{Kind: ScreenFixation}, time.Minute)
	require.True(t, IsQuit(err))
}

func TestSimSurfaceClosed(t *testing.T) {
	t.Parallel()

	s := NewSimSurface(DefaultSimConfig(1))
	require.NoError(t, s.Close())
	err := s.Show(context.Background(), Screen{}, 0)
	require.True(t, ErrPresentation.Equal(err))
}
