package imagesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ZacxDev/newsclip/internal/raster"
	"github.com/pkg/errors"
)

// DefaultMaxBytes caps remote downloads.
const DefaultMaxBytes = 32 << 20

// Loader decodes images from local paths or http(s) URLs.
type Loader struct {
	client   *http.Client
	maxBytes int64
}

// NewLoader creates a loader. A nil client gets a 30 second timeout client.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{client: client, maxBytes: DefaultMaxBytes}
}

// Load fetches and decodes src into a raster frame.
func (l *Loader) Load(ctx context.Context, src string) (*raster.Frame, error) {
	if IsRemote(src) {
		return l.loadRemote(ctx, src)
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, errors.Wrapf(err, "open image %s", src)
	}
	defer f.Close()

	frame, _, err := raster.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "image %s", src)
	}
	return frame, nil
}

func (l *Loader) loadRemote(ctx context.Context, url string) (*raster.Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", url)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch image %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, errors.Wrapf(err, "read image %s", url)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("fetch image %s: body exceeds %d bytes", url, l.maxBytes)
	}

	frame, _, err := raster.DecodeBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "image %s", url)
	}
	return frame, nil
}
