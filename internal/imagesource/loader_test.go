package imagesource

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoader_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, pngBytes(t, 12, 7), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := NewLoader(nil).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Width() != 12 || f.Height() != 7 {
		t.Errorf("size = %dx%d, want 12x7", f.Width(), f.Height())
	}
}

func TestLoader_LocalUndecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoader(nil).Load(context.Background(), path); err == nil {
		t.Error("Load(garbage) expected error")
	}
}

func TestLoader_Remote(t *testing.T) {
	data := pngBytes(t, 20, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	l := NewLoader(srv.Client())
	f, err := l.Load(context.Background(), srv.URL+"/img.png")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Width() != 20 {
		t.Errorf("width = %d, want 20", f.Width())
	}

	if _, err := l.Load(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Error("Load(404) expected error")
	}
}

func TestLoader_RemoteTooLarge(t *testing.T) {
	data := pngBytes(t, 20, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	l := NewLoader(srv.Client())
	l.maxBytes = 10
	if _, err := l.Load(context.Background(), srv.URL); err == nil {
		t.Error("Load(oversized) expected error")
	}
}
