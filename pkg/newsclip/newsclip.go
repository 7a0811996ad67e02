// Package newsclip is the entry point used by the CLI: it wires speech,
// rendering, encoding and the batch runner from option structs.
package newsclip

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZacxDev/newsclip/internal/assets"
	"github.com/ZacxDev/newsclip/internal/batch"
	"github.com/ZacxDev/newsclip/internal/config"
	"github.com/ZacxDev/newsclip/internal/ffmpeg"
	"github.com/ZacxDev/newsclip/internal/history"
	"github.com/ZacxDev/newsclip/internal/imagesource"
	"github.com/ZacxDev/newsclip/internal/ledger"
	"github.com/ZacxDev/newsclip/internal/profile"
	"github.com/ZacxDev/newsclip/internal/render"
	"github.com/ZacxDev/newsclip/internal/speech"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// Settings are shared by single builds and batch runs.
type Settings struct {
	Render config.RenderOptions
	Synth  config.SynthOptions
	Verify bool // probe encoded videos with ffprobe
	Logger zerolog.Logger

	// Synthesizer and Assembler replace the configured backends when set.
	Synthesizer speech.Synthesizer
	Assembler   assets.Assembler
}

// NewSynthesizer creates the speech backend named by opts.Backend.
func NewSynthesizer(opts config.SynthOptions) (speech.Synthesizer, error) {
	switch opts.Backend {
	case "openai":
		if opts.APIKey == "" {
			return nil, errors.Errorf("openai speech backend needs %s", config.EnvOpenAIKey)
		}
		model := opts.Model
		if model == "" {
			model = config.DefaultSpeechModel
		}
		voice := opts.Voice
		if voice == "" {
			voice = config.DefaultVoice
		}
		return speech.NewOpenAISynthesizer(openai.NewClient(opts.APIKey), model, voice), nil
	case "command":
		if opts.Command == "" {
			return nil, errors.New("command speech backend needs a command")
		}
		return speech.NewCommandSynthesizer(opts.Command, opts.CommandArgs), nil
	default:
		return nil, errors.Errorf("unknown speech backend %q (want openai or command)", opts.Backend)
	}
}

// NewBuilder wires an asset builder for the named encoding profile.
func NewBuilder(profileName string, s Settings) (*assets.Builder, error) {
	p, err := profile.Get(profileName)
	if err != nil {
		return nil, err
	}

	synth := s.Synthesizer
	if synth == nil {
		if synth, err = NewSynthesizer(s.Synth); err != nil {
			return nil, err
		}
	}

	assembler := s.Assembler
	if assembler == nil {
		assembler = ffmpeg.NewProcessor(s.Logger)
	}

	fonts, err := render.NewFontManager(s.Render.FontPath, s.Logger)
	if err != nil {
		return nil, err
	}
	color := s.Render.TextColor
	if color == "" {
		color = config.TextColor
	}
	if _, err := render.ParseHexColor(color); err != nil {
		return nil, err
	}
	textSize := s.Render.TextSize
	if textSize == 0 {
		textSize = config.DefaultTextSize
	}

	s.Logger.Debug().
		Str("profile", p.GetName()).
		Str("synth", synth.Name()).
		Str("font", fonts.Name()).
		Float64("text_size", textSize).
		Msg("builder ready")

	return assets.NewBuilder(synth, imagesource.NewLoader(nil), render.NewRenderer(fonts, render.WithColor(color)), assembler,
		assets.WithProfile(p),
		assets.WithTextSize(textSize),
		assets.WithRetry(s.Synth.MaxAttempts, s.Synth.RetryDelay),
		assets.WithVerify(s.Verify),
		assets.WithLogger(s.Logger),
	)
}

// OutputPaths returns the video and title card paths for a single build.
func OutputPaths(opts *config.BuildOptions) (video, card string) {
	video = ffmpeg.EnsureExtension(opts.OutputBase, config.VideoExtension)
	card = opts.CardPath
	if card == "" {
		card = strings.TrimSuffix(video, config.VideoExtension) + config.CardSuffix
	}
	return video, card
}

// BuildItem renders one clip from a title, body and image.
func BuildItem(ctx context.Context, opts *config.BuildOptions, s Settings) (*assets.MediaAsset, error) {
	if opts.Body == "" {
		return nil, errors.New("body is required")
	}
	if opts.ImageSrc == "" || opts.OutputBase == "" {
		return nil, errors.New("image and output are required")
	}

	profileName := opts.Profile
	if profileName == "" {
		profileName = config.DefaultProfile
	}
	builder, err := NewBuilder(profileName, s)
	if err != nil {
		return nil, err
	}

	video, card := OutputPaths(opts)
	return builder.Build(ctx, assets.Request{
		Keyword:   filepath.Base(strings.TrimSuffix(video, config.VideoExtension)),
		Title:     opts.Title,
		Body:      opts.Body,
		ImageSrc:  opts.ImageSrc,
		VideoPath: video,
		CardPath:  card,
	})
}

// RunBatch processes every catalog under opts.NewsDir and writes the ledger.
func RunBatch(ctx context.Context, opts *config.BatchOptions, s Settings) (*ledger.Ledger, error) {
	profileName := opts.Profile
	if profileName == "" {
		profileName = config.DefaultProfile
	}
	builder, err := NewBuilder(profileName, s)
	if err != nil {
		return nil, err
	}

	runOpts := []batch.Option{batch.WithLogger(s.Logger)}
	if opts.HistoryDB != "" {
		store, err := history.Open(opts.HistoryDB, s.Logger)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		runOpts = append(runOpts, batch.WithHistory(store))
	}

	return batch.NewRunner(*opts, builder, runOpts...).Run(ctx)
}

// RecentRuns lists the latest batch runs stored in dbPath.
func RecentRuns(ctx context.Context, dbPath string, limit int, logger zerolog.Logger) ([]history.Run, error) {
	if dbPath == "" {
		return nil, errors.Errorf("no history database configured (set --history-db or %s)", config.EnvHistoryDB)
	}
	store, err := history.Open(dbPath, logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Recent(ctx, limit)
}

// GetSupportedProfiles returns the encoding profile names.
func GetSupportedProfiles() []string {
	return profile.GetSupportedProfiles()
}
