// Package present draws screens and reads the keyboard through SDL3.
// Library loading and runtime.LockOSThread are the caller's business.
package present

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"psyrun/engine"
)

// Surface is an SDL3 window implementing engine.Surface.
type Surface struct {
	cfg      *engine.Config
	quitKey  string
	window   *sdl.Window
	renderer *sdl.Renderer
	font     *ttf.Font
	cache    *textureCache

	bg, text, fixation sdl.Color
}

// Open creates the window, the renderer and the font. It has the
// signature of engine.OpenSurface.
func Open(cfg *engine.Config, task *engine.Task) (engine.Surface, error) {
	return NewSurface(cfg, task.Response.QuitKey)
}

func NewSurface(cfg *engine.Config, quitKey string) (*Surface, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, engine.ErrPresentation.GenWithStackByArgs(fmt.Sprintf("SDL_Init: %v", err))
	}
	if err := ttf.Init(); err != nil {
		sdl.Quit()
		return nil, engine.ErrPresentation.GenWithStackByArgs(fmt.Sprintf("TTF_Init: %v", err))
	}

	s := &Surface{
		cfg:      cfg,
		quitKey:  strings.ToLower(quitKey),
		bg:       toSDL(cfg.BGColor),
		text:     toSDL(cfg.TextColor),
		fixation: toSDL(cfg.FixationColor),
	}

	windowFlags := sdl.WINDOW_RESIZABLE
	if cfg.Fullscreen {
		windowFlags |= sdl.WINDOW_FULLSCREEN
	}
	window, renderer, err := sdl.CreateWindowAndRenderer("psyrun", cfg.ScreenWidth, cfg.ScreenHeight, windowFlags)
	if err != nil {
		s.Close()
		return nil, engine.ErrPresentation.GenWithStackByArgs(fmt.Sprintf("CreateWindowAndRenderer: %v", err))
	}
	s.window, s.renderer = window, renderer

	if cfg.VSync {
		renderer.SetVSync(1)
	} else {
		renderer.SetVSync(0)
	}

	fontPath := cfg.FontFile
	if fontPath == "" {
		fontPath = FindFont(cfg.StimuliDir)
	}
	if fontPath == "" {
		s.Close()
		return nil, engine.ErrPresentation.GenWithStackByArgs("no font found, pass --font")
	}
	s.font, err = ttf.OpenFont(fontPath, float32(cfg.FontSize))
	if err != nil {
		s.Close()
		return nil, engine.ErrPresentation.GenWithStackByArgs(fmt.Sprintf("load font %s: %v", fontPath, err))
	}

	s.cache = newTextureCache(renderer, s.font, cfg.StimuliDir)
	log.Info("display opened",
		zap.Int("width", cfg.ScreenWidth),
		zap.Int("height", cfg.ScreenHeight),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
		zap.String("font", fontPath))
	return s, nil
}

func (s *Surface) Close() error {
	if s.cache != nil {
		s.cache.Destroy()
		s.cache = nil
	}
	if s.font != nil {
		s.font.Close()
		s.font = nil
	}
	if s.renderer != nil {
		s.renderer.Destroy()
		s.renderer = nil
	}
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
	}
	ttf.Quit()
	sdl.Quit()
	return nil
}

func (s *Surface) Show(ctx context.Context, sc engine.Screen, d time.Duration) error {
	_, err := s.loop(ctx, sc, d, nil, false)
	return err
}

func (s *Surface) Collect(ctx context.Context, sc engine.Screen, keys []string, timeout time.Duration) (*engine.Response, error) {
	return s.loop(ctx, sc, timeout, keys, true)
}

// loop redraws sc every frame until d elapses or, when collecting, an
// accepted key goes down. Events queued before the first frame are dropped.
func (s *Surface) loop(ctx context.Context, sc engine.Screen, d time.Duration, keys []string, collect bool) (*engine.Response, error) {
	if s.renderer == nil {
		return nil, engine.ErrPresentation.GenWithStackByArgs("surface is closed")
	}
	draws, err := s.layout(sc)
	if err != nil {
		return nil, engine.ErrPresentation.GenWithStackByArgs(err.Error())
	}
	if err := s.drain(); err != nil {
		return nil, err
	}

	accepted := make(map[string]bool, len(keys))
	for _, k := range keys {
		accepted[strings.ToLower(k)] = true
	}
	limit := uint64(d.Milliseconds())

	var onset uint64
	for frame := 0; ; frame++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.render(sc.Kind, draws)
		now := sdl.Ticks()
		if frame == 0 {
			onset = now
		}

		for {
			var ev sdl.Event
			if !sdl.PollEvent(&ev) {
				break
			}
			switch ev.Type {
			case sdl.EVENT_QUIT:
				return nil, engine.ErrQuit
			case sdl.EVENT_KEY_DOWN:
				ke := ev.KeyboardEvent()
				name := strings.ToLower(ke.Key.KeyName())
				if ke.Key == sdl.K_ESCAPE || name == s.quitKey {
					return nil, engine.ErrQuit
				}
				if !collect || len(accepted) > 0 && !accepted[name] {
					continue
				}
				rt := float64(sdl.Ticks()-onset) / 1000
				log.Debug("key", zap.String("key", name), zap.Float64("rt", rt))
				return &engine.Response{Key: name, RT: rt}, nil
			}
		}

		elapsed := sdl.Ticks() - onset
		if !collect && (limit == 0 || elapsed >= limit) {
			return nil, nil
		}
		if collect && limit > 0 && elapsed >= limit {
			return nil, nil
		}
		if !s.cfg.VSync {
			sdl.Delay(1)
		}
	}
}

// drain empties the event queue, keeping only quit requests.
func (s *Surface) drain() error {
	for {
		var ev sdl.Event
		if !sdl.PollEvent(&ev) {
			return nil
		}
		if ev.Type == sdl.EVENT_QUIT {
			return engine.ErrQuit
		}
		if ev.Type == sdl.EVENT_KEY_DOWN {
			ke := ev.KeyboardEvent()
			if ke.Key == sdl.K_ESCAPE || strings.ToLower(ke.Key.KeyName()) == s.quitKey {
				return engine.ErrQuit
			}
		}
	}
}

type draw struct {
	tex *texture
	dst sdl.FRect
}

func (s *Surface) layout(sc engine.Screen) ([]draw, error) {
	w, h := s.cfg.ScreenWidth, s.cfg.ScreenHeight
	switch sc.Kind {
	case engine.ScreenBlank, engine.ScreenFixation:
		return nil, nil
	case engine.ScreenImage:
		t, err := s.cache.image(sc.Image)
		if err != nil {
			return nil, err
		}
		out := []draw{{tex: t, dst: centered(w, h, t.w, t.h, s.cfg.ScaleFactor)}}
		if sc.Prompt != "" {
			prompt, err := s.lines(sc.Prompt, s.text, float32(h)*0.9)
			if err != nil {
				return nil, err
			}
			out = append(out, prompt...)
		}
		return out, nil
	}

	color, ok := colorByName(sc.Color, s.text)
	if !ok {
		log.Warn("unknown colour, using text colour", zap.String("color", sc.Color))
	}
	out, err := s.lines(sc.Text, color, float32(h)/2)
	if err != nil {
		return nil, err
	}
	if sc.Prompt != "" {
		prompt, err := s.lines(sc.Prompt, s.text, float32(h)*0.8)
		if err != nil {
			return nil, err
		}
		out = append(out, prompt...)
	}
	return out, nil
}

func (s *Surface) lines(text string, color sdl.Color, centreY float32) ([]draw, error) {
	parts := strings.Split(text, "\n")
	texs := make([]*texture, len(parts))
	sizes := make([][2]float32, len(parts))
	for i, line := range parts {
		t, err := s.cache.text(line, color)
		if err != nil {
			return nil, err
		}
		texs[i] = t
		if t != nil {
			sizes[i] = [2]float32{t.w, t.h}
		}
	}
	lineH := float32(s.cfg.FontSize) * lineSpacing
	rects := textBlock(s.cfg.ScreenWidth, centreY, lineH, sizes)
	out := make([]draw, 0, len(parts))
	for i, t := range texs {
		if t != nil {
			out = append(out, draw{tex: t, dst: rects[i]})
		}
	}
	return out, nil
}

func (s *Surface) render(kind engine.ScreenKind, draws []draw) {
	bg := s.bg
	s.renderer.SetDrawColor(bg.R, bg.G, bg.B, bg.A)
	s.renderer.Clear()
	if kind == engine.ScreenFixation {
		drawFixationCross(s.renderer, s.cfg.ScreenWidth, s.cfg.ScreenHeight, s.fixation)
	}
	for i := range draws {
		s.renderer.RenderTexture(draws[i].tex.tex, nil, &draws[i].dst)
	}
	s.renderer.Present()
}
