package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/ZacxDev/newsclip/internal/config"
	"github.com/ZacxDev/newsclip/internal/ffmpeg"
	"github.com/ZacxDev/newsclip/internal/logging"
	"github.com/ZacxDev/newsclip/pkg/newsclip"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	defaults *config.Defaults

	// global flags
	verbose   bool
	logLevel  string
	fontPath  string
	textSize  float64
	textColor string
	synthName string
	synthCmd  string
	synthArgs []string
	voice     string
	verify    bool

	rootCmd = &cobra.Command{
		Use:   "newsclip",
		Short: "Turn news items into narrated, subtitled video clips",
		Long: `newsclip synthesizes narration for short news items, splits the text into
subtitle frames timed to the narration, and encodes an MP4 plus a title card.

Examples:
  # Build every item under generated_news/
  newsclip batch

  # Build one clip from a title, body and image
  newsclip build --title "速報" --body-file body.txt --image photo.png -o out/clip`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build a single clip",
		Long: `Build one narrated clip and its title card.

The video is written to <output>.mp4 and the title card to
<output>_subtitle.jpg unless --card is given. --image accepts a local path
or an http(s) URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &config.BuildOptions{}

			opts.Title, _ = cmd.Flags().GetString("title")
			opts.Body, _ = cmd.Flags().GetString("body")
			opts.ImageSrc, _ = cmd.Flags().GetString("image")
			opts.OutputBase, _ = cmd.Flags().GetString("output")
			opts.CardPath, _ = cmd.Flags().GetString("card")
			opts.Profile, _ = cmd.Flags().GetString("profile")
			opts.Verbose = verbose

			if bodyFile, _ := cmd.Flags().GetString("body-file"); bodyFile != "" {
				data, err := os.ReadFile(bodyFile)
				if err != nil {
					return fmt.Errorf("read body file: %v", err)
				}
				opts.Body = strings.TrimSpace(string(data))
			}
			if opts.Body == "" {
				return fmt.Errorf("--body or --body-file is required")
			}

			logger := newLogger()
			asset, err := newsclip.BuildItem(cmd.Context(), opts, settings(logger))
			if err != nil {
				return err
			}

			logger.Info().
				Str("video", asset.Video).
				Str("title_card", asset.TitleCard).
				Float64("duration_sec", asset.Duration).
				Float64("fps", asset.FPS).
				Int("frames", asset.Frames).
				Msg("clip built")
			return nil
		},
	}

	batchCmd = &cobra.Command{
		Use:   "batch",
		Short: "Build clips for every catalog in the news directory",
		Long: fmt.Sprintf(`Process <news-dir>/*.json. Each catalog is a JSON list of
{"keyword", "title", "body"} objects; its file name is the category.

Images are read from <images-dir>/<category>/<keyword>.{png,jpg,jpeg}.
Videos go to <videos-dir>/<category>/<keyword>.mp4 and title cards to
<cards-dir>/<category>/<keyword>_subtitle.jpg. Items whose video already
exists are skipped. The outcome of every item is written to
<videos-dir>/%s.`, config.SummaryFilename),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := defaults.Batch

			opts.NewsDir, _ = cmd.Flags().GetString("news-dir")
			opts.ImagesDir, _ = cmd.Flags().GetString("images-dir")
			opts.VideosDir, _ = cmd.Flags().GetString("videos-dir")
			opts.CardsDir, _ = cmd.Flags().GetString("cards-dir")
			opts.Profile, _ = cmd.Flags().GetString("profile")
			opts.Workers, _ = cmd.Flags().GetInt("workers")
			opts.ItemTimeout, _ = cmd.Flags().GetDuration("item-timeout")
			opts.HistoryDB, _ = cmd.Flags().GetString("history-db")
			opts.Verbose = verbose

			if opts.Workers < 1 {
				return fmt.Errorf("--workers must be at least 1")
			}

			logger := newLogger()
			l, err := newsclip.RunBatch(cmd.Context(), &opts, settings(logger))
			if err != nil {
				return err
			}

			successes, failures := l.Counts()
			fmt.Printf("successes: %d, failures: %d\n", successes, failures)
			return nil
		},
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List recent batch runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("history-db")
			limit, _ := cmd.Flags().GetInt("limit")

			runs, err := newsclip.RecentRuns(cmd.Context(), dbPath, limit, newLogger())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tSTARTED\tDURATION\tSUCCESSES\tSKIPPED\tFAILURES\tNEWS DIR")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					r.ID.String()[:8],
					r.StartedAt.Local().Format(time.DateTime),
					r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
					r.Successes, r.Skipped, r.Failures, r.NewsDir)
			}
			return w.Flush()
		},
	}

	profilesCmd = &cobra.Command{
		Use:   "profiles",
		Short: "List encoding profiles",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(formatSupportedProfiles())
		},
	}
)

func formatSupportedProfiles() string {
	var sb strings.Builder
	for _, p := range newsclip.GetSupportedProfiles() {
		sb.WriteString(fmt.Sprintf("- %s\n", p))
	}
	return sb.String()
}

func newLogger() zerolog.Logger {
	return logging.New(logLevel, verbose)
}

func settings(logger zerolog.Logger) newsclip.Settings {
	synth := defaults.Synth
	synth.Backend = synthName
	synth.Command = synthCmd
	synth.CommandArgs = synthArgs
	synth.Voice = voice

	return newsclip.Settings{
		Render: config.RenderOptions{
			FontPath:  fontPath,
			TextSize:  textSize,
			TextColor: textColor,
		},
		Synth:  synth,
		Verify: verify,
		Logger: logger,
	}
}

func init() {
	// .env is optional
	_ = godotenv.Load()

	var err error
	defaults, err = config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	profiles := strings.Join(newsclip.GetSupportedProfiles(), ", ")

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&fontPath, "font", defaults.Render.FontPath, "TTF/OTF font for subtitles and titles (CJK text needs a CJK font)")
	pf.Float64Var(&textSize, "text-size", defaults.Render.TextSize, "Subtitle font size in pixels")
	pf.StringVar(&textColor, "text-color", defaults.Render.TextColor, "Text color as #rrggbb")
	pf.StringVar(&synthName, "synth", defaults.Synth.Backend, "Speech backend (openai or command)")
	pf.StringVar(&synthCmd, "synth-cmd", defaults.Synth.Command, "Executable for the command speech backend")
	pf.StringSliceVar(&synthArgs, "synth-arg", nil, "Argument for the speech command, repeatable; {out} is replaced by the WAV path")
	pf.StringVar(&voice, "voice", defaults.Synth.Voice, "Voice for the openai speech backend")
	pf.BoolVar(&verify, "verify", ffmpeg.VerifyAvailable(), "Check each encoded video's duration and audio track (default on when ffprobe is on PATH)")

	// Build command flags
	buildCmd.Flags().String("title", "", "Title drawn on the title card")
	buildCmd.Flags().String("body", "", "Narration and subtitle text")
	buildCmd.Flags().String("body-file", "", "Read the body from a file")
	buildCmd.Flags().StringP("image", "i", "", "Source image path or URL")
	buildCmd.Flags().StringP("output", "o", "", "Output path without extension")
	buildCmd.Flags().String("card", "", "Title card path (default <output>_subtitle.jpg)")
	buildCmd.Flags().StringP("profile", "p", defaults.Batch.Profile, fmt.Sprintf("Encoding profile (%s)", profiles))

	buildCmd.MarkFlagRequired("image")
	buildCmd.MarkFlagRequired("output")

	// Batch command flags
	batchCmd.Flags().String("news-dir", defaults.Batch.NewsDir, "Directory of catalog JSON files")
	batchCmd.Flags().String("images-dir", defaults.Batch.ImagesDir, "Root of <category>/<keyword>.<ext> source images")
	batchCmd.Flags().String("videos-dir", defaults.Batch.VideosDir, "Root for output videos and the batch summary")
	batchCmd.Flags().String("cards-dir", defaults.Batch.CardsDir, "Root for output title cards")
	batchCmd.Flags().StringP("profile", "p", defaults.Batch.Profile, fmt.Sprintf("Encoding profile (%s)", profiles))
	batchCmd.Flags().IntP("workers", "w", defaults.Batch.Workers, "Items built in parallel")
	batchCmd.Flags().Duration("item-timeout", defaults.Batch.ItemTimeout, "Give up on an item after this long (0 disables)")
	batchCmd.Flags().String("history-db", defaults.Batch.HistoryDB, "SQLite file recording every run (empty disables)")

	// History command flags
	historyCmd.Flags().String("history-db", defaults.Batch.HistoryDB, "SQLite file written by batch --history-db")
	historyCmd.Flags().IntP("limit", "n", 10, "Number of runs to list")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(profilesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
