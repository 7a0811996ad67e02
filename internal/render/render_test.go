package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/ZacxDev/newsclip/internal/raster"
	"github.com/rs/zerolog"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	fm, err := NewFontManager("", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFontManager() error = %v", err)
	}
	return NewRenderer(fm)
}

func redFrame(w, h int) *raster.Frame {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	return raster.FromImage(img)
}

// changedRows returns the min and max row index that differ between a and b,
// or -1, -1 when identical.
func changedRows(a, b *raster.Frame) (int, int) {
	lo, hi := -1, -1
	for y := 0; y < a.Height(); y++ {
		rowA := a.Pix()[y*a.Stride() : y*a.Stride()+a.Width()*4]
		rowB := b.Pix()[y*b.Stride() : y*b.Stride()+b.Width()*4]
		if !bytes.Equal(rowA, rowB) {
			if lo < 0 {
				lo = y
			}
			hi = y
		}
	}
	return lo, hi
}

func TestSubtitle_DrawsNearBottomWithoutMutatingBase(t *testing.T) {
	r := newTestRenderer(t)
	base := redFrame(300, 200)
	snapshot := base.Clone()

	out, err := r.Subtitle(base, "HELLO", 20)
	if err != nil {
		t.Fatalf("Subtitle() error = %v", err)
	}

	if lo, _ := changedRows(base, snapshot); lo != -1 {
		t.Fatal("Subtitle() mutated the base frame")
	}

	lo, hi := changedRows(base, out)
	if lo == -1 {
		t.Fatal("Subtitle() drew nothing")
	}
	if lo < 150 || hi >= 200 {
		t.Errorf("text rows = [%d, %d], want within [150, 200)", lo, hi)
	}
}

func TestTitleCard_DrawsNearTop(t *testing.T) {
	r := newTestRenderer(t)
	base := redFrame(600, 400)

	out, err := r.TitleCard(base, "BREAKING")
	if err != nil {
		t.Fatalf("TitleCard() error = %v", err)
	}

	lo, hi := changedRows(base, out)
	if lo == -1 {
		t.Fatal("TitleCard() drew nothing")
	}
	// size = 600/30 = 20, top of text at y = 20
	if lo < 15 || hi > 50 {
		t.Errorf("text rows = [%d, %d], want within [15, 50]", lo, hi)
	}
}

func TestSubtitle_FramesAreIndependent(t *testing.T) {
	r := newTestRenderer(t)
	base := redFrame(200, 100)

	first, err := r.Subtitle(base, "AAAA", 20)
	if err != nil {
		t.Fatal(err)
	}
	firstCopy := first.Clone()
	if _, err := r.Subtitle(base, "WWWW", 20); err != nil {
		t.Fatal(err)
	}
	if lo, _ := changedRows(first, firstCopy); lo != -1 {
		t.Error("rendering a second frame changed the first")
	}
}

func TestSubtitle_ChannelOrder(t *testing.T) {
	r := NewRenderer(newTestRenderer(t).fonts, WithColor("#00ff00"))
	base := redFrame(200, 100)

	out, err := r.Subtitle(base, "MMMM", 20)
	if err != nil {
		t.Fatal(err)
	}

	var sawGreen bool
	pix := out.Pix()
	for i := 0; i < len(pix); i += 4 {
		red, green, blue := pix[i], pix[i+1], pix[i+2]
		if blue != 0 {
			t.Fatalf("pixel %d has blue=%d, channels were reordered", i/4, blue)
		}
		if green == 255 && red == 0 {
			sawGreen = true
		}
	}
	if !sawGreen {
		t.Error("no fully green text pixel found")
	}
}

func TestTitleSize(t *testing.T) {
	if got := TitleSize(600); got != 20 {
		t.Errorf("TitleSize(600) = %v, want 20", got)
	}
	if got := TitleSize(1920); got != 64 {
		t.Errorf("TitleSize(1920) = %v, want 64", got)
	}
}

func TestSubtitleOrigin(t *testing.T) {
	x, y := SubtitleOrigin(720, 20)
	if x != 0 || y != 680 {
		t.Errorf("SubtitleOrigin(720, 20) = (%v, %v), want (0, 680)", x, y)
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#ff8000")
	if err != nil {
		t.Fatalf("ParseHexColor() error = %v", err)
	}
	if c != (color.RGBA{255, 128, 0, 255}) {
		t.Errorf("ParseHexColor() = %v", c)
	}
	for _, bad := range []string{"", "#fff", "#gggggg"} {
		if _, err := ParseHexColor(bad); err == nil {
			t.Errorf("ParseHexColor(%q) expected error", bad)
		}
	}
}

func TestFontManager_FallbackAndCache(t *testing.T) {
	fm, err := NewFontManager("/nonexistent/font.ttf", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFontManager() error = %v", err)
	}
	if fm.Name() != "goregular" {
		t.Errorf("Name() = %q, want goregular", fm.Name())
	}
	a, err := fm.Face(20)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := fm.Face(20)
	if a != b {
		t.Error("Face(20) not cached")
	}
	if _, err := fm.Face(0); err == nil {
		t.Error("Face(0) expected error")
	}
}
