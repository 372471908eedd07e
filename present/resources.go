package present

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Zyko0/go-sdl3/img"
	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// FindFont returns the first font in a fonts/ directory under one of dirs
// or the working directory, then a system font. It returns "" when none exists.
func FindFont(dirs ...string) string {
	for _, dir := range append(dirs, ".") {
		if dir == "" {
			continue
		}
		if p := fontIn(filepath.Join(dir, "fonts")); p != "" {
			return p
		}
	}

	var paths []string
	switch runtime.GOOS {
	case "windows":
		paths = []string{"C:\\Windows\\Fonts\\arial.ttf"}
	case "darwin":
		paths = []string{"/System/Library/Fonts/Helvetica.ttc"}
	default:
		paths = []string{
			"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

func fontIn(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".ttf" || ext == ".ttc" || ext == ".otf" {
			return filepath.Join(dir, entry.Name())
		}
	}
	return ""
}

type texture struct {
	tex  *sdl.Texture
	w, h float32
}

// textureCache keeps every image and text line drawn during a run, so a
// repeated condition costs no decoding.
type textureCache struct {
	renderer   *sdl.Renderer
	font       *ttf.Font
	stimuliDir string
	entries    map[string]*texture
}

func newTextureCache(renderer *sdl.Renderer, font *ttf.Font, stimuliDir string) *textureCache {
	return &textureCache{
		renderer:   renderer,
		font:       font,
		stimuliDir: stimuliDir,
		entries:    make(map[string]*texture),
	}
}

func (c *textureCache) imagePath(path string) string {
	if c.stimuliDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.stimuliDir, path)
}

func (c *textureCache) image(path string) (*texture, error) {
	key := "image:" + path
	if e, ok := c.entries[key]; ok {
		return e, nil
	}
	full := c.imagePath(path)
	tex, err := img.LoadTexture(c.renderer, full)
	if err != nil {
		return nil, errors.Annotatef(err, "load image %s", full)
	}
	w, h, _ := tex.Size()
	e := &texture{tex: tex, w: w, h: h}
	c.entries[key] = e
	log.Debug("image loaded", zap.String("path", full), zap.Float32("w", w), zap.Float32("h", h))
	return e, nil
}

// text renders one line. Empty lines yield nil.
func (c *textureCache) text(line string, color sdl.Color) (*texture, error) {
	if line == "" {
		return nil, nil
	}
	key := fmt.Sprintf("text:%d,%d,%d,%d:%s", color.R, color.G, color.B, color.A, line)
	if e, ok := c.entries[key]; ok {
		return e, nil
	}
	surf, err := c.font.RenderTextBlended(line, color)
	if err != nil {
		return nil, errors.Annotatef(err, "render text %q", line)
	}
	defer surf.Destroy()
	tex, err := c.renderer.CreateTextureFromSurface(surf)
	if err != nil {
		return nil, errors.Annotatef(err, "texture for %q", line)
	}
	e := &texture{tex: tex, w: float32(surf.W), h: float32(surf.H)}
	c.entries[key] = e
	return e, nil
}

func (c *textureCache) Destroy() {
	for _, e := range c.entries {
		if e.tex != nil {
			e.tex.Destroy()
		}
	}
	c.entries = make(map[string]*texture)
}
