// Package assets turns one news item and its source image into a narrated,
// subtitled video plus a title card.
package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ZacxDev/newsclip/internal/config"
	"github.com/ZacxDev/newsclip/internal/ffmpeg"
	"github.com/ZacxDev/newsclip/internal/logging"
	"github.com/ZacxDev/newsclip/internal/narration"
	"github.com/ZacxDev/newsclip/internal/profile"
	"github.com/ZacxDev/newsclip/internal/raster"
	"github.com/ZacxDev/newsclip/internal/render"
	"github.com/ZacxDev/newsclip/internal/speech"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const audioFilename = "narration.wav"

// ImageLoader decodes a source image from a path or URL.
type ImageLoader interface {
	Load(ctx context.Context, src string) (*raster.Frame, error)
}

// Assembler muxes a frame sequence and narration into a video.
type Assembler interface {
	Assemble(ctx context.Context, req ffmpeg.AssembleRequest) error
}

// Request is one item to build.
type Request struct {
	Category  string
	Keyword   string
	Title     string
	Body      string
	ImageSrc  string
	VideoPath string
	CardPath  string
}

// MediaAsset is the durable output of a successful build.
type MediaAsset struct {
	Video     string
	TitleCard string
	Duration  float64 // narration length in seconds
	FPS       float64
	Frames    int
}

// Builder runs the per-item pipeline. A Builder is safe for concurrent use;
// every Build works in its own temporary directory.
type Builder struct {
	synth     speech.Synthesizer
	images    ImageLoader
	renderer  *render.Renderer
	assembler Assembler

	profile     profile.Profile
	textSize    float64
	maxAttempts int
	retryDelay  time.Duration
	tempRoot    string
	verify      bool
	logger      zerolog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithProfile selects the encoding profile. The default profile keeps the
// source size and has no duration limit.
func WithProfile(p profile.Profile) Option {
	return func(b *Builder) { b.profile = p }
}

// WithTextSize sets the subtitle font size in pixels, which also fixes how
// many characters fit on one frame.
func WithTextSize(size float64) Option {
	return func(b *Builder) { b.textSize = size }
}

// WithRetry bounds synthesis and encode attempts.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(b *Builder) {
		b.maxAttempts = maxAttempts
		b.retryDelay = delay
	}
}

// WithTempRoot sets where per-build temporary directories are created.
func WithTempRoot(dir string) Option {
	return func(b *Builder) { b.tempRoot = dir }
}

// WithVerify probes each encoded video and checks its duration.
func WithVerify(verify bool) Option {
	return func(b *Builder) { b.verify = verify }
}

// WithLogger sets the parent logger; builds log under category and keyword.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder wires the collaborators of the pipeline.
func NewBuilder(synth speech.Synthesizer, images ImageLoader, renderer *render.Renderer, assembler Assembler, opts ...Option) (*Builder, error) {
	if synth == nil || images == nil || renderer == nil || assembler == nil {
		return nil, errors.New("builder needs a synthesizer, image loader, renderer and assembler")
	}

	b := &Builder{
		images:      images,
		renderer:    renderer,
		assembler:   assembler,
		textSize:    config.DefaultTextSize,
		maxAttempts: config.DefaultMaxAttempts,
		retryDelay:  config.DefaultRetryDelay,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.profile == nil {
		p, err := profile.Get(config.DefaultProfile)
		if err != nil {
			return nil, err
		}
		b.profile = p
	}
	if b.textSize < 1 {
		return nil, errors.Errorf("text size must be at least 1, got %v", b.textSize)
	}
	if b.maxAttempts < 1 {
		b.maxAttempts = 1
	}
	b.synth = speech.WithRetry(synth, b.maxAttempts, b.retryDelay)

	return b, nil
}

// Build produces the video and title card for req. On failure the returned
// error is a *StepError and neither output path holds a file written by
// this call; files already at those paths are left alone.
func (b *Builder) Build(ctx context.Context, req Request) (asset *MediaAsset, err error) {
	logger := logging.WithItem(b.logger, req.Category, req.Keyword)
	fail := func(step Step, err error) error {
		return &StepError{Step: step, Category: req.Category, Keyword: req.Keyword, Err: err}
	}

	if req.Body == "" {
		return nil, fail(StepLayout, errors.New("empty body"))
	}
	if req.VideoPath == "" || req.CardPath == "" {
		return nil, fail(StepLayout, errors.New("output paths not set"))
	}

	tmp, err := os.MkdirTemp(b.tempRoot, config.TempDirPrefix)
	if err != nil {
		return nil, fail(StepSynthesize, errors.Wrap(err, "create temp dir"))
	}
	defer os.RemoveAll(tmp)

	// Remove anything this build wrote unless it completes.
	var written []string
	defer func() {
		if err != nil {
			for _, path := range written {
				os.Remove(path)
			}
		}
	}()

	// narration
	track, err := b.synth.Synthesize(ctx, req.Body)
	if err != nil {
		return nil, fail(StepSynthesize, err)
	}
	if len(track.Samples) == 0 || track.Duration() <= 0 {
		return nil, fail(StepSynthesize, errors.New("synthesizer returned no audio"))
	}
	duration := track.Duration()
	audioPath := filepath.Join(tmp, audioFilename)
	if err := speech.WriteWAV(audioPath, track); err != nil {
		return nil, fail(StepSynthesize, err)
	}
	logger.Debug().Float64("duration_sec", duration).Str("synth", b.synth.Name()).Msg("narration ready")

	// source image
	base, err := b.images.Load(ctx, req.ImageSrc)
	if err != nil {
		return nil, fail(StepDecodeImage, err)
	}

	// chunking and timing
	chunks := narration.Chunk(req.Body, base.Width(), int(b.textSize))
	fps := narration.FrameRate(len(chunks), duration)
	if len(chunks) == 0 || fps <= 0 {
		return nil, fail(StepLayout, errors.Errorf("%d chunks at %v fps", len(chunks), fps))
	}
	if limit := b.profile.GetMaxDuration(); limit > 0 && duration > float64(limit) {
		return nil, fail(StepLayout, errors.Errorf("narration %.1fs exceeds %s limit of %ds", duration, b.profile.GetName(), limit))
	}
	logger.Debug().Int("frames", len(chunks)).Float64("fps", fps).Msg("layout")

	// subtitle frames
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, fail(StepRender, err)
		}
		frame, err := b.renderer.Subtitle(base, chunk, b.textSize)
		if err != nil {
			return nil, fail(StepRender, err)
		}
		if err := frame.Save(filepath.Join(tmp, fmt.Sprintf(ffmpeg.FramePattern, i+1))); err != nil {
			return nil, fail(StepRender, err)
		}
	}

	// video, then title card
	assemble := ffmpeg.AssembleRequest{
		FramesDir:  tmp,
		FrameCount: len(chunks),
		FPS:        fps,
		AudioPath:  audioPath,
		OutputPath: req.VideoPath,
		Profile:    b.profile,
		Verify:     b.verify,
	}
	if err := b.assemble(ctx, logger, assemble); err != nil {
		return nil, fail(StepEncode, err)
	}
	written = append(written, req.VideoPath)

	card, err := b.renderer.TitleCard(base, req.Title)
	if err != nil {
		return nil, fail(StepTitleCard, err)
	}
	if err := card.Save(req.CardPath); err != nil {
		return nil, fail(StepTitleCard, err)
	}

	return &MediaAsset{
		Video:     req.VideoPath,
		TitleCard: req.CardPath,
		Duration:  duration,
		FPS:       fps,
		Frames:    len(chunks),
	}, nil
}

func (b *Builder) assemble(ctx context.Context, logger zerolog.Logger, req ffmpeg.AssembleRequest) error {
	var lastErr error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		if attempt > 1 {
			logger.Warn().Err(lastErr).Int("attempt", attempt).Msg("retrying encode")
			select {
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "gave up after %d attempts: %v", attempt-1, lastErr)
			case <-time.After(b.retryDelay):
			}
		}

		lastErr = b.assembler.Assemble(ctx, req)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Wrapf(lastErr, "max attempts (%d) exceeded", b.maxAttempts)
}
