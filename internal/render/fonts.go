package render

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontManager parses one font and hands out faces by size. Faces are cached
// because every subtitle frame of an item uses the same size.
type FontManager struct {
	parsed *opentype.Font
	name   string

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewFontManager loads the TTF/OTF at path. An empty or unreadable path
// falls back to the embedded Go Regular font, which has no CJK glyphs.
func NewFontManager(path string, logger zerolog.Logger) (*FontManager, error) {
	data := goregular.TTF
	name := "goregular"

	if path != "" {
		custom, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("font", path).Msg("could not load custom font, using default")
		} else {
			data = custom
			name = path
		}
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse font %s", name)
	}

	return &FontManager{parsed: parsed, name: name, faces: make(map[float64]font.Face)}, nil
}

// Name is the font path, or "goregular" for the embedded fallback.
func (fm *FontManager) Name() string { return fm.name }

// Face returns a face at size pixels (72 DPI, so points equal pixels).
func (fm *FontManager) Face(size float64) (font.Face, error) {
	if size <= 0 {
		return nil, errors.Errorf("invalid font size %v", size)
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()

	if face, ok := fm.faces[size]; ok {
		return face, nil
	}

	face, err := opentype.NewFace(fm.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create font face")
	}
	fm.faces[size] = face
	return face, nil
}
