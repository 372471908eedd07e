package present

import (
	"testing"

	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/stretchr/testify/require"
)

func TestColorByName(t *testing.T) {
	t.Parallel()

	fallback := sdl.Color{R: 1, G: 2, B: 3, A: 255}
	c, ok := colorByName(" Red ", fallback)
	require.True(t, ok)
	require.Equal(t, sdl.Color{R: 255, A: 255}, c)

	c, ok = colorByName("0,128,255", fallback)
	require.True(t, ok)
	require.Equal(t, sdl.Color{G: 128, B: 255, A: 255}, c)

	c, ok = colorByName("", fallback)
	require.True(t, ok)
	require.Equal(t, fallback, c)

	c, ok = colorByName("mauve", fallback)
	require.False(t, ok)
	require.Equal(t, fallback, c)
}

func TestCentered(t *testing.T) {
	t.Parallel()

	require.Equal(t, sdl.FRect{X: 300, Y: 200, W: 200, H: 200}, centered(800, 600, 100, 100, 2))
	require.Equal(t, sdl.FRect{X: 350, Y: 275, W: 100, H: 50}, centered(800, 600, 100, 50, 1))
}

func TestTextBlock(t *testing.T) {
	t.Parallel()

	rects := textBlock(800, 300, 40, [][2]float32{{200, 30}, {0, 0}, {100, 30}})
	require.Len(t, rects, 3)
	require.Equal(t, sdl.FRect{X: 300, Y: 245, W: 200, H: 30}, rects[0])
	require.Equal(t, sdl.FRect{X: 350, Y: 325, W: 100, H: 30}, rects[2])
}
