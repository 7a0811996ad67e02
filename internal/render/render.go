// Package render draws subtitle and title text onto copies of a base frame.
package render

import (
	"image"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"github.com/ZacxDev/newsclip/internal/config"
	"github.com/ZacxDev/newsclip/internal/raster"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Renderer overlays text on frames. The base frame is never modified.
type Renderer struct {
	fonts *FontManager
	color color.RGBA

	// font.Face implementations are not safe for concurrent use.
	mu sync.Mutex
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor sets the text color from a "#rrggbb" string.
func WithColor(hex string) Option {
	return func(r *Renderer) {
		if c, err := ParseHexColor(hex); err == nil {
			r.color = c
		}
	}
}

// NewRenderer creates a renderer drawing white text with fonts from fm.
func NewRenderer(fm *FontManager, opts ...Option) *Renderer {
	r := &Renderer{fonts: fm, color: color.RGBA{255, 255, 255, 255}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SubtitleOrigin is the top-left corner of a subtitle line: left edge,
// two text heights above the bottom.
func SubtitleOrigin(height int, size float64) (x, y float64) {
	return 0, float64(height) - 2*size
}

// TitleSize is the title font size for an image width.
func TitleSize(width int) float64 {
	return float64(width) / config.TitleSizeDivisor
}

// Subtitle draws one chunk of narration near the bottom of a copy of base.
func (r *Renderer) Subtitle(base *raster.Frame, text string, size float64) (*raster.Frame, error) {
	x, y := SubtitleOrigin(base.Height(), size)
	return r.drawAt(base, text, x, y, size)
}

// TitleCard draws the title near the top of a copy of base. The font size
// and the vertical offset are both width/30.
func (r *Renderer) TitleCard(base *raster.Frame, title string) (*raster.Frame, error) {
	size := TitleSize(base.Width())
	return r.drawAt(base, title, 0, size, size)
}

// drawAt draws text whose top edge sits at y.
func (r *Renderer) drawAt(base *raster.Frame, text string, x, y, size float64) (*raster.Frame, error) {
	face, err := r.fonts.Face(size)
	if err != nil {
		return nil, err
	}

	out := base.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	ascent := face.Metrics().Ascent
	drawer := &font.Drawer{
		Dst:  out.RGBA(),
		Src:  image.NewUniform(r.color),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y*64) + ascent,
		},
	}
	drawer.DrawString(text)
	return out, nil
}

// ParseHexColor converts "#rrggbb" to an opaque color.
func ParseHexColor(hex string) (color.RGBA, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.RGBA{}, errors.Errorf("invalid color %q: expected 6-char hex", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "invalid color %q", hex)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
