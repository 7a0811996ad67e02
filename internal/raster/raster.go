// Package raster is the single in-memory image representation used between
// decode and encode: a width, a height and one contiguous RGBA buffer.
// Images enter through FromImage or Decode and leave through Encode or Save;
// everything in between works on Frames and never reorders channels.
package raster

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	// Registered decoders accepted at the load boundary.
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// JPEGQuality is used for every JPEG written by Save.
const JPEGQuality = 95

// Frame is an RGBA raster with its origin at (0, 0).
type Frame struct {
	img *image.RGBA
}

// New creates a blank (transparent black) frame.
func New(width, height int) *Frame {
	return &Frame{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// FromImage converts any decoded image into a Frame. The result never
// shares memory with src.
func FromImage(src image.Image) *Frame {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Frame{img: dst}
}

// Decode reads any registered image format into a Frame.
func Decode(r io.Reader) (*Frame, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "decode image")
	}
	return FromImage(img), format, nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (*Frame, string, error) {
	return Decode(bytes.NewReader(data))
}

// Width in pixels.
func (f *Frame) Width() int { return f.img.Rect.Dx() }

// Height in pixels.
func (f *Frame) Height() int { return f.img.Rect.Dy() }

// Pix exposes the RGBA buffer, four bytes per pixel, rows Stride apart.
func (f *Frame) Pix() []uint8 { return f.img.Pix }

// Stride is the byte distance between vertically adjacent pixels.
func (f *Frame) Stride() int { return f.img.Stride }

// RGBA exposes the frame as a draw target.
func (f *Frame) RGBA() *image.RGBA { return f.img }

// Clone returns an independent deep copy.
func (f *Frame) Clone() *Frame {
	pix := make([]uint8, len(f.img.Pix))
	copy(pix, f.img.Pix)
	return &Frame{img: &image.RGBA{Pix: pix, Stride: f.img.Stride, Rect: f.img.Rect}}
}

// Encode writes the frame as PNG or JPEG. Format names follow image.Decode.
func (f *Frame) Encode(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return errors.Wrap(png.Encode(w, f.img), "encode PNG")
	case "jpeg", "jpg":
		return errors.Wrap(jpeg.Encode(w, f.img, &jpeg.Options{Quality: JPEGQuality}), "encode JPEG")
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

// Save writes the frame to path, choosing the encoder from the extension.
// Parent directories are created as needed. The file is encoded next to
// path and renamed into place, so a failed save leaves any existing file
// untouched.
func (f *Frame) Save(path string) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}

	out, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer os.Remove(out.Name())

	if err := f.Encode(out, format); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	if err := os.Chmod(out.Name(), 0644); err != nil {
		return errors.Wrapf(err, "chmod %s", path)
	}
	if err := os.Rename(out.Name(), path); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// FormatForPath maps a file extension to an encoder name.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpeg", nil
	default:
		return "", errors.Errorf("unsupported image extension: %q", filepath.Ext(path))
	}
}
