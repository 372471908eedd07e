package present

import (
	"strings"

	"github.com/Zyko0/go-sdl3/sdl"

	"psyrun/engine"
)

const CrossSize = 20

// lineSpacing is the baseline distance between text lines, in font sizes.
const lineSpacing = 1.3

var palette = map[string]sdl.Color{
	"red":    {R: 255, G: 0, B: 0, A: 255},
	"green":  {R: 0, G: 128, B: 0, A: 255},
	"blue":   {R: 0, G: 0, B: 255, A: 255},
	"yellow": {R: 255, G: 255, B: 0, A: 255},
	"orange": {R: 255, G: 165, B: 0, A: 255},
	"purple": {R: 128, G: 0, B: 128, A: 255},
	"black":  {R: 0, G: 0, B: 0, A: 255},
	"white":  {R: 255, G: 255, B: 255, A: 255},
	"gray":   {R: 128, G: 128, B: 128, A: 255},
	"grey":   {R: 128, G: 128, B: 128, A: 255},
}

func toSDL(c engine.Color) sdl.Color {
	return sdl.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// colorByName resolves a condition colour: a palette name, an "r,g,b[,a]"
// tuple, or fallback when empty or unknown.
func colorByName(name string, fallback sdl.Color) (sdl.Color, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fallback, true
	}
	if c, ok := palette[name]; ok {
		return c, true
	}
	if strings.Count(name, ",") >= 2 {
		return toSDL(engine.ParseColor(name)), true
	}
	return fallback, false
}

// centered places a w x h box scaled by scale at the centre of the screen.
func centered(screenW, screenH int, w, h, scale float32) sdl.FRect {
	return sdl.FRect{
		X: (float32(screenW) - w*scale) / 2.0,
		Y: (float32(screenH) - h*scale) / 2.0,
		W: w * scale,
		H: h * scale,
	}
}

// textBlock lays lines out top to bottom around centreY.
func textBlock(screenW int, centreY float32, lineH float32, sizes [][2]float32) []sdl.FRect {
	total := lineH * float32(len(sizes))
	y := centreY - total/2
	rects := make([]sdl.FRect, len(sizes))
	for i, sz := range sizes {
		rects[i] = sdl.FRect{
			X: (float32(screenW) - sz[0]) / 2.0,
			Y: y + float32(i)*lineH + (lineH-sz[1])/2,
			W: sz[0],
			H: sz[1],
		}
	}
	return rects
}

func drawFixationCross(renderer *sdl.Renderer, w, h int, color sdl.Color) {
	renderer.SetDrawColor(color.R, color.G, color.B, color.A)
	mx, my := float32(w)/2, float32(h)/2
	renderer.RenderLine(mx-CrossSize, my, mx+CrossSize, my)
	renderer.RenderLine(mx, my-CrossSize, mx, my+CrossSize)
}
