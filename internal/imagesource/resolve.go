// Package imagesource finds and decodes the still image behind a news item.
package imagesource

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZacxDev/newsclip/internal/config"
	"github.com/pkg/errors"
)

// ErrMissingImage reports that no source image exists for an item.
var ErrMissingImage = errors.New("source image not found")

// Resolve returns the image for (category, keyword) under root, looking for
// <root>/<category>/<keyword>.<ext> with ext matched case-insensitively in
// config.ImageExtensions order. The keyword itself is matched exactly.
func Resolve(root, category, keyword string) (string, error) {
	if keyword == "" {
		return "", errors.Wrap(ErrMissingImage, "empty keyword")
	}

	dir := filepath.Join(root, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrMissingImage, "%s/%s.(png|jpg|jpeg): no image directory", dir, keyword)
		}
		return "", errors.Wrapf(err, "read image directory %s", dir)
	}

	byExt := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if strings.TrimSuffix(name, ext) != keyword {
			continue
		}
		lower := strings.ToLower(ext)
		// Keep the first spelling seen, os.ReadDir is sorted so this is stable.
		if _, ok := byExt[lower]; !ok {
			byExt[lower] = name
		}
	}

	for _, ext := range config.ImageExtensions {
		if name, ok := byExt[ext]; ok {
			return filepath.Join(dir, name), nil
		}
	}

	return "", errors.Wrapf(ErrMissingImage, "%s/%s.(png|jpg|jpeg)", dir, keyword)
}

// IsRemote reports whether src is an http(s) URL.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}
