package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// BuildOptions defines options for building a single news clip
type BuildOptions struct {
	Title      string
	Body       string
	ImageSrc   string // local path or http(s) URL
	OutputBase string // output path without extension; video is <base>.mp4
	CardPath   string // title card path; defaults to <base>_subtitle.jpg
	Profile    string
	Verbose    bool
}

// BatchOptions defines options for a batch run over a catalog tree
type BatchOptions struct {
	NewsDir     string
	ImagesDir   string
	VideosDir   string
	CardsDir    string
	Profile     string
	Workers     int
	ItemTimeout time.Duration
	HistoryDB   string // empty disables run history
	Verbose     bool
}

// RenderOptions defines text rendering settings shared by both modes
type RenderOptions struct {
	FontPath  string
	TextSize  float64
	TextColor string
}

// SynthOptions selects and configures the speech backend
type SynthOptions struct {
	Backend     string // "openai" or "command"
	Command     string // executable for the command backend
	CommandArgs []string
	Voice       string
	Model       string
	APIKey      string
	MaxAttempts int
	RetryDelay  time.Duration
}

const (
	// Directory layout
	DefaultNewsDir   = "generated_news"
	DefaultImagesDir = "generated_images"
	DefaultVideosDir = "generated_videos"
	DefaultCardsDir  = "images"

	SummaryFilename = "batch_summary.json"
	VideoExtension  = ".mp4"
	CardSuffix      = "_subtitle.jpg"

	// Text overlay settings
	DefaultTextSize  = 20        // Subtitle font size in pixels
	TitleSizeDivisor = 30        // Title font size is image width / 30
	TextColor        = "#ffffff" // Subtitle and title color

	// Temporary directory prefix
	TempDirPrefix = "newsclip_"

	// Retry and timeout defaults
	DefaultMaxAttempts = 2
	DefaultRetryDelay  = 2 * time.Second
	DefaultItemTimeout = 10 * time.Minute

	// Speech defaults
	DefaultSynthBackend = "openai"
	DefaultVoice        = "alloy"
	DefaultSpeechModel  = "tts-1"
	DefaultSynthCommand = "open_jtalk"

	DefaultProfile = "default"

	// Environment variable names
	EnvNewsDir     = "NEWSCLIP_NEWS_DIR"
	EnvImagesDir   = "NEWSCLIP_IMAGES_DIR"
	EnvVideosDir   = "NEWSCLIP_VIDEOS_DIR"
	EnvCardsDir    = "NEWSCLIP_CARDS_DIR"
	EnvFontPath    = "NEWSCLIP_FONT"
	EnvTextSize    = "NEWSCLIP_TEXT_SIZE"
	EnvWorkers     = "NEWSCLIP_WORKERS"
	EnvItemTimeout = "NEWSCLIP_ITEM_TIMEOUT"
	EnvHistoryDB   = "NEWSCLIP_HISTORY_DB"
	EnvSynth       = "NEWSCLIP_SYNTH"
	EnvSynthCmd    = "NEWSCLIP_SYNTH_CMD"
	EnvVoice       = "NEWSCLIP_VOICE"
	EnvProfile     = "NEWSCLIP_PROFILE"
	EnvOpenAIKey   = "OPENAI_API_KEY"
)

// ImageExtensions lists source image extensions in lookup order
var ImageExtensions = []string{".png", ".jpg", ".jpeg"}

// Defaults holds environment-derived defaults that CLI flags may override
type Defaults struct {
	Batch  BatchOptions
	Render RenderOptions
	Synth  SynthOptions
}

// FromEnv builds Defaults from built-in values and NEWSCLIP_* overrides
func FromEnv() (*Defaults, error) {
	d := &Defaults{
		Batch: BatchOptions{
			NewsDir:     envOr(EnvNewsDir, DefaultNewsDir),
			ImagesDir:   envOr(EnvImagesDir, DefaultImagesDir),
			VideosDir:   envOr(EnvVideosDir, DefaultVideosDir),
			CardsDir:    envOr(EnvCardsDir, DefaultCardsDir),
			Profile:     envOr(EnvProfile, DefaultProfile),
			Workers:     1,
			ItemTimeout: DefaultItemTimeout,
			HistoryDB:   os.Getenv(EnvHistoryDB),
		},
		Render: RenderOptions{
			FontPath:  os.Getenv(EnvFontPath),
			TextSize:  DefaultTextSize,
			TextColor: TextColor,
		},
		Synth: SynthOptions{
			Backend:     envOr(EnvSynth, DefaultSynthBackend),
			Command:     envOr(EnvSynthCmd, DefaultSynthCommand),
			Voice:       envOr(EnvVoice, DefaultVoice),
			Model:       DefaultSpeechModel,
			APIKey:      os.Getenv(EnvOpenAIKey),
			MaxAttempts: DefaultMaxAttempts,
			RetryDelay:  DefaultRetryDelay,
		},
	}

	if v := os.Getenv(EnvTextSize); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvTextSize)
		}
		if size <= 0 {
			return nil, errors.Errorf("invalid %s: text size must be positive", EnvTextSize)
		}
		d.Render.TextSize = size
	}

	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvWorkers)
		}
		if n < 1 {
			return nil, errors.Errorf("invalid %s: workers must be at least 1", EnvWorkers)
		}
		d.Batch.Workers = n
	}

	if v := os.Getenv(EnvItemTimeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvItemTimeout)
		}
		d.Batch.ItemTimeout = timeout
	}

	return d, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
