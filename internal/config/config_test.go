package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{EnvNewsDir, EnvVideosDir, EnvTextSize, EnvWorkers, EnvItemTimeout, EnvSynth} {
		t.Setenv(key, "")
	}

	d, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if d.Batch.NewsDir != DefaultNewsDir {
		t.Errorf("NewsDir = %q, want %q", d.Batch.NewsDir, DefaultNewsDir)
	}
	if d.Batch.VideosDir != DefaultVideosDir {
		t.Errorf("VideosDir = %q, want %q", d.Batch.VideosDir, DefaultVideosDir)
	}
	if d.Render.TextSize != DefaultTextSize {
		t.Errorf("TextSize = %v, want %v", d.Render.TextSize, DefaultTextSize)
	}
	if d.Batch.Workers != 1 {
		t.Errorf("Workers = %d, want 1", d.Batch.Workers)
	}
	if d.Batch.ItemTimeout != DefaultItemTimeout {
		t.Errorf("ItemTimeout = %v, want %v", d.Batch.ItemTimeout, DefaultItemTimeout)
	}
	if d.Synth.Backend != DefaultSynthBackend {
		t.Errorf("Backend = %q, want %q", d.Synth.Backend, DefaultSynthBackend)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvNewsDir, "/data/news")
	t.Setenv(EnvTextSize, "30")
	t.Setenv(EnvWorkers, "4")
	t.Setenv(EnvItemTimeout, "90s")
	t.Setenv(EnvSynth, "command")

	d, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if d.Batch.NewsDir != "/data/news" {
		t.Errorf("NewsDir = %q, want /data/news", d.Batch.NewsDir)
	}
	if d.Render.TextSize != 30 {
		t.Errorf("TextSize = %v, want 30", d.Render.TextSize)
	}
	if d.Batch.Workers != 4 {
		t.Errorf("Workers = %d, want 4", d.Batch.Workers)
	}
	if d.Batch.ItemTimeout != 90*time.Second {
		t.Errorf("ItemTimeout = %v, want 90s", d.Batch.ItemTimeout)
	}
	if d.Synth.Backend != "command" {
		t.Errorf("Backend = %q, want command", d.Synth.Backend)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"text size not a number", EnvTextSize, "big"},
		{"text size zero", EnvTextSize, "0"},
		{"workers zero", EnvWorkers, "0"},
		{"workers not a number", EnvWorkers, "many"},
		{"bad timeout", EnvItemTimeout, "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("FromEnv() with %s=%q: expected error", tt.key, tt.value)
			}
		})
	}
}
