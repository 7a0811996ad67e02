// Package batch runs the asset builder over every item of every catalog
// under a news directory and records the outcomes in a ledger.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ZacxDev/newsclip/internal/assets"
	"github.com/ZacxDev/newsclip/internal/catalog"
	"github.com/ZacxDev/newsclip/internal/config"
	"github.com/ZacxDev/newsclip/internal/history"
	"github.com/ZacxDev/newsclip/internal/imagesource"
	"github.com/ZacxDev/newsclip/internal/ledger"
	"github.com/ZacxDev/newsclip/internal/logging"
	"github.com/ZacxDev/newsclip/pkg/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ItemBuilder produces the media for one item.
type ItemBuilder interface {
	Build(ctx context.Context, req assets.Request) (*assets.MediaAsset, error)
}

// Recorder persists a finished run.
type Recorder interface {
	Record(ctx context.Context, run history.Run, summary ledger.Summary) error
}

// Runner builds every catalog item under a news directory with a bounded
// worker pool.
type Runner struct {
	opts    config.BatchOptions
	builder ItemBuilder
	history Recorder
	logger  zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithHistory records every run in rec after the ledger is written.
func WithHistory(rec Recorder) Option {
	return func(r *Runner) { r.history = rec }
}

// WithLogger sets the logger for run and item events.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a runner over opts. Fewer than one worker means one.
func NewRunner(opts config.BatchOptions, builder ItemBuilder, options ...Option) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	r := &Runner{opts: opts, builder: builder, logger: zerolog.Nop()}
	for _, o := range options {
		o(r)
	}
	return r
}

// SummaryPath is where Run writes the ledger.
func (r *Runner) SummaryPath() string {
	return filepath.Join(r.opts.VideosDir, config.SummaryFilename)
}

// VideoPath is the output video for an item.
func (r *Runner) VideoPath(category, keyword string) string {
	return filepath.Join(r.opts.VideosDir, category, keyword+config.VideoExtension)
}

// CardPath is the output title card for an item.
func (r *Runner) CardPath(category, keyword string) string {
	return filepath.Join(r.opts.CardsDir, category, keyword+config.CardSuffix)
}

// job is one claimed item waiting for a worker.
type job struct {
	pos     ledger.Position
	catalog *catalog.Catalog
	item    catalog.NewsItem
}

// Run processes every catalog and writes the ledger. Item failures are
// recorded, never returned; Run fails only when the news directory cannot be
// listed, the ledger cannot be written or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) (*ledger.Ledger, error) {
	started := time.Now()

	paths, err := catalog.List(r.opts.NewsDir)
	if err != nil {
		return nil, err
	}

	l := ledger.New()
	var processed int
	var progressMu sync.Mutex
	progress := func(e ledger.Entry) {
		progressMu.Lock()
		processed++
		n := processed
		progressMu.Unlock()

		ev := r.logger.Info()
		if !e.Status.Succeeded() {
			ev = r.logger.Warn().Str("error", e.Error)
		}
		ev.Int("n", n).
			Str("category", e.Category).
			Str("keyword", e.Keyword).
			Str("status", string(e.Status)).
			Msg("item done")
	}
	record := func(pos ledger.Position, e ledger.Entry) {
		l.Add(pos, e)
		progress(e)
	}

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)

	claimed := make(map[string]bool)

catalogs:
	for ci, path := range paths {
		cat, err := catalog.Load(path)
		if err != nil {
			record(ledger.Position{Catalog: ci, Item: -1}, ledger.Entry{
				Catalog:  path,
				Category: catalog.CategoryOf(path),
				Status:   types.ItemStateCatalogError,
				Error:    err.Error(),
			})
			continue
		}
		r.logger.Debug().Str("catalog", path).Int("items", len(cat.Items)).Msg("loaded catalog")

		for ii, item := range cat.Items {
			if ctx.Err() != nil {
				break catalogs
			}

			pos := ledger.Position{Catalog: ci, Item: ii}
			video := r.VideoPath(cat.Category, item.Keyword)
			if err := validKeyword(item.Keyword); err != nil {
				record(pos, r.failure(cat, item, types.ItemStateFailed, "", err))
				continue
			}
			if claimed[video] {
				record(pos, r.failure(cat, item, types.ItemStateFailed, "",
					errors.Errorf("duplicate keyword %q: %s already claimed", item.Keyword, video)))
				continue
			}
			claimed[video] = true

			j := job{pos: pos, catalog: cat, item: item}
			g.Go(func() error {
				pos, e := r.process(ctx, j)
				record(pos, e)
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := l.WriteJSON(r.SummaryPath()); err != nil {
		return l, err
	}

	successes, failures := l.Counts()
	r.logger.Info().
		Int("successes", successes).
		Int("failures", failures).
		Str("ledger", r.SummaryPath()).
		Dur("elapsed", time.Since(started)).
		Msg("batch finished")

	if r.history != nil {
		run := history.Run{
			ID:         uuid.New(),
			NewsDir:    r.opts.NewsDir,
			VideosDir:  r.opts.VideosDir,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
		if err := r.history.Record(context.WithoutCancel(ctx), run, l.Summary()); err != nil {
			r.logger.Warn().Err(err).Msg("failed to record run history")
		}
	}

	if err := ctx.Err(); err != nil {
		return l, errors.Wrap(err, "batch interrupted")
	}
	return l, nil
}

// process moves one item through image resolution, the existing-output check
// and the build.
func (r *Runner) process(ctx context.Context, j job) (ledger.Position, ledger.Entry) {
	cat, item := j.catalog, j.item
	logger := logging.WithItem(r.logger, cat.Category, item.Keyword)

	image, err := imagesource.Resolve(r.opts.ImagesDir, cat.Category, item.Keyword)
	if err != nil {
		return j.pos, r.failure(cat, item, types.ItemStateMissingImage, "", err)
	}
	logger.Debug().Str("image", image).Str("state", string(types.ItemStateImageResolved)).Send()

	video := r.VideoPath(cat.Category, item.Keyword)
	card := r.CardPath(cat.Category, item.Keyword)

	if _, err := os.Stat(video); err == nil {
		return j.pos, ledger.Entry{
			Catalog:   cat.Path,
			Category:  cat.Category,
			Keyword:   item.Keyword,
			Title:     item.Title,
			Status:    types.ItemStateSkippedExisting,
			Video:     video,
			TitleCard: card,
			Skipped:   true,
		}
	}

	logger.Debug().Str("state", string(types.ItemStateBuilding)).Send()

	itemCtx := ctx
	if r.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, r.opts.ItemTimeout)
		defer cancel()
	}

	asset, err := r.builder.Build(itemCtx, assets.Request{
		Category:  cat.Category,
		Keyword:   item.Keyword,
		Title:     item.Title,
		Body:      item.Body,
		ImageSrc:  image,
		VideoPath: video,
		CardPath:  card,
	})
	if err != nil {
		step := ""
		var se *assets.StepError
		if errors.As(err, &se) {
			step = string(se.Step)
		}
		if errors.Is(itemCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = errors.Wrapf(err, "timed out after %s", r.opts.ItemTimeout)
		}
		return j.pos, r.failure(cat, item, types.ItemStateFailed, step, err)
	}

	return j.pos, ledger.Entry{
		Catalog:     cat.Path,
		Category:    cat.Category,
		Keyword:     item.Keyword,
		Title:       item.Title,
		Status:      types.ItemStateSuccess,
		Video:       asset.Video,
		TitleCard:   asset.TitleCard,
		DurationSec: asset.Duration,
		FPS:         asset.FPS,
		Frames:      asset.Frames,
	}
}

func (r *Runner) failure(cat *catalog.Catalog, item catalog.NewsItem, status types.ItemState, step string, err error) ledger.Entry {
	return ledger.Entry{
		Catalog:  cat.Path,
		Category: cat.Category,
		Keyword:  item.Keyword,
		Title:    item.Title,
		Status:   status,
		Step:     step,
		Error:    err.Error(),
	}
}

// validKeyword rejects keywords that cannot be used as a file name stem.
func validKeyword(keyword string) error {
	if keyword == "." || keyword == ".." || strings.ContainsAny(keyword, `/\`) || strings.ContainsRune(keyword, 0) {
		return errors.Errorf("keyword %q is not a valid file name", keyword)
	}
	return nil
}
