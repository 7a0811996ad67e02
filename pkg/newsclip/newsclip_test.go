package newsclip

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZacxDev/newsclip/internal/config"
	"github.com/ZacxDev/newsclip/internal/ffmpeg"
	"github.com/ZacxDev/newsclip/internal/raster"
	"github.com/ZacxDev/newsclip/internal/speech"
	"github.com/rs/zerolog"
)

type stubSynth struct{}

func (stubSynth) Name() string { return "stub" }

func (stubSynth) Synthesize(ctx context.Context, text string) (*speech.AudioTrack, error) {
	return &speech.AudioTrack{Samples: make([]int16, 8000), SampleRate: 8000}, nil
}

type stubAssembler struct{ requests []ffmpeg.AssembleRequest }

func (s *stubAssembler) Assemble(ctx context.Context, req ffmpeg.AssembleRequest) error {
	s.requests = append(s.requests, req)
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(req.OutputPath, []byte("mp4"), 0644)
}

func settings(a *stubAssembler) Settings {
	return Settings{
		Render:      config.RenderOptions{TextSize: 20, TextColor: "#ffffff"},
		Synth:       config.SynthOptions{MaxAttempts: 1},
		Logger:      zerolog.Nop(),
		Synthesizer: stubSynth{},
		Assembler:   a,
	}
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := raster.New(w, h).Save(path); err != nil {
		t.Fatal(err)
	}
}

func TestNewSynthesizer(t *testing.T) {
	tests := []struct {
		name    string
		opts    config.SynthOptions
		want    string
		wantErr bool
	}{
		{"openai", config.SynthOptions{Backend: "openai", APIKey: "sk-test"}, "openai:tts-1:alloy", false},
		{"openai without key", config.SynthOptions{Backend: "openai"}, "", true},
		{"command", config.SynthOptions{Backend: "command", Command: "/usr/bin/open_jtalk"}, "command:open_jtalk", false},
		{"command without binary", config.SynthOptions{Backend: "command"}, "", true},
		{"unknown", config.SynthOptions{Backend: "espeak"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSynthesizer(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewSynthesizer() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSynthesizer() error = %v", err)
			}
			if s.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.want)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	video, card := OutputPaths(&config.BuildOptions{OutputBase: "out/嵐"})
	if video != "out/嵐.mp4" || card != "out/嵐_subtitle.jpg" {
		t.Errorf("OutputPaths() = %q, %q", video, card)
	}
	video, card = OutputPaths(&config.BuildOptions{OutputBase: "out/clip.mp4", CardPath: "cards/c.png"})
	if video != "out/clip.mp4" || card != "cards/c.png" {
		t.Errorf("OutputPaths() = %q, %q", video, card)
	}
}

func TestBuildItem(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "source.png")
	writeImage(t, img, 600, 400)

	a := &stubAssembler{}
	asset, err := BuildItem(context.Background(), &config.BuildOptions{
		Title:      "速報",
		Body:       "四十文字の本文がここに入ります。四十文字の本文がここに入ります。四十文字の本",
		ImageSrc:   img,
		OutputBase: filepath.Join(dir, "out", "嵐"),
	}, settings(a))
	if err != nil {
		t.Fatalf("BuildItem() error = %v", err)
	}
	if asset.Frames != 2 {
		t.Errorf("Frames = %d, want 2", asset.Frames)
	}
	if asset.FPS != 2 {
		t.Errorf("FPS = %v, want 2 (2 frames over 1s)", asset.FPS)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "嵐_subtitle.jpg")); err != nil {
		t.Errorf("title card missing: %v", err)
	}
	if len(a.requests) != 1 || a.requests[0].Profile.GetName() != "default" {
		t.Errorf("assembler requests = %+v", a.requests)
	}
}

func TestBuildItem_Validation(t *testing.T) {
	a := &stubAssembler{}
	if _, err := BuildItem(context.Background(), &config.BuildOptions{ImageSrc: "x.png", OutputBase: "o"}, settings(a)); err == nil {
		t.Error("BuildItem() without body should fail")
	}
	if _, err := BuildItem(context.Background(), &config.BuildOptions{Body: "b", OutputBase: "o"}, settings(a)); err == nil {
		t.Error("BuildItem() without image should fail")
	}
	opts := &config.BuildOptions{Body: "b", ImageSrc: "x.png", OutputBase: "o", Profile: "vhs"}
	if _, err := BuildItem(context.Background(), opts, settings(a)); err == nil {
		t.Error("BuildItem() with unknown profile should fail")
	}
}

func TestRunBatch_WithHistory(t *testing.T) {
	root := t.TempDir()
	opts := &config.BatchOptions{
		NewsDir:   filepath.Join(root, "generated_news"),
		ImagesDir: filepath.Join(root, "generated_images"),
		VideosDir: filepath.Join(root, "generated_videos"),
		CardsDir:  filepath.Join(root, "images"),
		Workers:   2,
		HistoryDB: filepath.Join(root, "state", "history.db"),
	}
	if err := os.MkdirAll(opts.NewsDir, 0755); err != nil {
		t.Fatal(err)
	}
	news := `[{"keyword": "a", "title": "A", "body": "alpha"}, {"keyword": "b", "title": "B", "body": "beta"}]`
	if err := os.WriteFile(filepath.Join(opts.NewsDir, "tech.json"), []byte(news), 0644); err != nil {
		t.Fatal(err)
	}
	writeImage(t, filepath.Join(opts.ImagesDir, "tech", "a.png"), 120, 80)

	l, err := RunBatch(context.Background(), opts, settings(&stubAssembler{}))
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if s, f := l.Counts(); s != 1 || f != 1 {
		t.Errorf("Counts() = %d, %d, want 1, 1", s, f)
	}

	runs, err := RecentRuns(context.Background(), opts.HistoryDB, 5, zerolog.Nop())
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].Successes != 1 || runs[0].Failures != 1 {
		t.Errorf("RecentRuns() = %+v", runs)
	}
}

func TestRecentRuns_NoDatabase(t *testing.T) {
	if _, err := RecentRuns(context.Background(), "", 5, zerolog.Nop()); err == nil {
		t.Error("RecentRuns() without a path should fail")
	}
}
