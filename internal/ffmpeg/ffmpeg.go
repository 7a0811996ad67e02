package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/ZacxDev/newsclip/internal/narration"
	"github.com/ZacxDev/newsclip/internal/profile"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	// FramePattern names the numbered PNG frames handed to the encoder.
	FramePattern = "frame_%05d.png"

	maxStderrBytes = 8 * 1024
	probeTimeout   = 30 * time.Second
)

type CodecSettings struct {
	VideoCodec      string
	AudioCodec      string
	PixelFormat     string
	ContainerFormat string
	FileExtension   string
	EncoderPresets  map[string]ffmpeg.KwArgs
}

var codecPresets = map[string]CodecSettings{
	"mp4": {
		VideoCodec:      "libx264",
		AudioCodec:      "aac",
		PixelFormat:     "yuv420p",
		ContainerFormat: "mp4",
		FileExtension:   ".mp4",
		EncoderPresets: map[string]ffmpeg.KwArgs{
			"streaming": {
				"movflags":  "+faststart",
				"profile:v": "high",
				"tune":      "stillimage",
			},
		},
	},
}

// GetCodecSettings returns the settings for a container; only mp4 is
// produced, so anything else falls back to it.
func GetCodecSettings(outputFormat string) CodecSettings {
	if settings, ok := codecPresets[outputFormat]; ok {
		return settings
	}
	return codecPresets["mp4"]
}

// VideoMetadata contains metadata about a video file
type VideoMetadata struct {
	Duration   float64
	Width      int
	Height     int
	Codec      string
	AudioCodec string
	PixFmt     string
}

// AssembleRequest describes one frames-plus-narration encode.
type AssembleRequest struct {
	FramesDir  string // holds FramePattern files numbered from 1
	FrameCount int
	FPS        float64
	AudioPath  string // WAV narration
	OutputPath string // final .mp4 path
	Profile    profile.Profile
	Verify     bool // probe the result and check its duration
}

// ExpectedDuration is the playback time implied by the frame timing.
func (r AssembleRequest) ExpectedDuration() float64 {
	if r.FPS <= 0 {
		return 0
	}
	return float64(r.FrameCount) / r.FPS
}

// Processor wraps FFmpeg functionality
type Processor struct {
	binary string
	logger zerolog.Logger
}

// NewProcessor creates a new FFmpeg processor using ffmpeg from PATH
func NewProcessor(logger zerolog.Logger) *Processor {
	return &Processor{
		binary: "ffmpeg",
		logger: logger,
	}
}

// Assemble encodes the frame sequence and the narration into one MP4. The
// output only appears at req.OutputPath once the encode has fully
// succeeded; a failed encode leaves nothing behind.
func (p *Processor) Assemble(ctx context.Context, req AssembleRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	partial := PartialPath(req.OutputPath)
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	args := BuildAssembleArgs(req, partial)

	p.logger.Debug().
		Str("output", req.OutputPath).
		Int("frames", req.FrameCount).
		Float64("fps", req.FPS).
		Strs("args", args).
		Msg("running ffmpeg")

	start := time.Now()
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stderr = &limitedWriter{w: &stderr, limit: maxStderrBytes}

	if err := cmd.Run(); err != nil {
		os.Remove(partial)
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), "ffmpeg interrupted")
		}
		return errors.Wrapf(err, "failed to encode video: %s", lastLines(stderr.String(), 5))
	}

	if req.Verify {
		if err := p.verifyDuration(partial, req); err != nil {
			os.Remove(partial)
			return err
		}
	}

	if err := os.Rename(partial, req.OutputPath); err != nil {
		os.Remove(partial)
		return errors.Wrap(err, "move encoded video into place")
	}

	p.logger.Debug().
		Str("output", req.OutputPath).
		Dur("elapsed", time.Since(start)).
		Msg("ffmpeg finished")

	return nil
}

func validateRequest(req AssembleRequest) error {
	if req.FrameCount <= 0 {
		return errors.Errorf("no frames to encode")
	}
	if req.FPS <= 0 || math.IsInf(req.FPS, 0) || math.IsNaN(req.FPS) {
		return errors.Errorf("invalid frame rate %v", req.FPS)
	}
	if req.Profile == nil {
		return errors.New("no encoding profile")
	}
	info, err := os.Stat(req.AudioPath)
	if err != nil {
		return errors.Wrap(err, "narration audio")
	}
	if info.Size() == 0 {
		return errors.Errorf("narration audio %s is empty", req.AudioPath)
	}
	return nil
}

// BuildAssembleArgs returns the ffmpeg command line for req writing to out.
func BuildAssembleArgs(req AssembleRequest, out string) []string {
	codec := GetCodecSettings("mp4")
	rate := FormatRate(req.FPS)

	frames := ffmpeg.Input(filepath.Join(req.FramesDir, FramePattern), ffmpeg.KwArgs{
		"f":            "image2",
		"framerate":    rate,
		"start_number": 1,
	})
	narration := ffmpeg.Input(req.AudioPath)

	outputKwargs := ffmpeg.KwArgs{
		"c:v":     codec.VideoCodec,
		"c:a":     codec.AudioCodec,
		"b:a":     req.Profile.GetAudioBitrate(),
		"pix_fmt": codec.PixelFormat,
		"crf":     req.Profile.GetCRF(),
		"preset":  req.Profile.GetPreset(),
		"vf":      ScaleFilter(req.Profile),
		"threads": GetOptimalThreadCount(),
		"f":       codec.ContainerFormat,
	}
	for k, v := range codec.EncoderPresets["streaming"] {
		outputKwargs[k] = v
	}

	return ffmpeg.Output([]*ffmpeg.Stream{frames.Video(), narration.Audio()}, out, outputKwargs).
		OverWriteOutput().
		GlobalArgs("-hide_banner", "-loglevel", "error").
		GetArgs()
}

// ScaleFilter fits frames inside the profile's maximum size (never
// upscaling) and pads odd dimensions, which yuv420p cannot encode.
func ScaleFilter(p profile.Profile) string {
	pad := "pad=ceil(iw/2)*2:ceil(ih/2)*2"
	w, h := p.GetMaxDimensions()
	if w <= 0 || h <= 0 {
		return pad
	}
	return fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease,%s", w, h, pad)
}

// FormatRate renders a frame rate for the command line without losing
// precision on slow rates such as 0.37 fps.
func FormatRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', 6, 64)
}

// PartialPath is where an encode is written before it is moved into place.
func PartialPath(out string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + ".partial" + ext
}

// VerifyAvailable reports whether ffprobe, which the duration check needs, is on PATH.
func VerifyAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

func (p *Processor) verifyDuration(path string, req AssembleRequest) error {
	metadata, err := p.GetVideoMetadata(path)
	if err != nil {
		return errors.Wrap(err, "verify encoded video")
	}

	want := req.ExpectedDuration()
	tolerance := narration.FramePeriod(req.FPS) + 0.25
	if math.Abs(metadata.Duration-want) > tolerance {
		return errors.Errorf("encoded duration %.3fs does not match expected %.3fs", metadata.Duration, want)
	}
	if metadata.AudioCodec == "" {
		return errors.New("encoded video has no audio track")
	}
	return nil
}

// GetVideoMetadata retrieves metadata about a video file
func (p *Processor) GetVideoMetadata(inputPath string) (*VideoMetadata, error) {
	probe, err := ffmpeg.ProbeWithTimeout(inputPath, probeTimeout, ffmpeg.KwArgs{})
	if err != nil {
		return nil, fmt.Errorf("error probing video: %v", err)
	}
	return ParseProbe(probe)
}

// ParseProbe extracts VideoMetadata from ffprobe JSON output.
func ParseProbe(probe string) (*VideoMetadata, error) {
	var data struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			CodecName string `json:"codec_name"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
			PixFmt    string `json:"pix_fmt"`
			Duration  string `json:"duration"`
			NbFrames  string `json:"nb_frames"`
			RFrame    string `json:"r_frame_rate"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, errors.WithStack(err)
	}

	if len(data.Streams) == 0 {
		return nil, fmt.Errorf("no streams found in video")
	}

	metadata := &VideoMetadata{}
	foundVideo := false
	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			metadata.Width = s.Width
			metadata.Height = s.Height
			metadata.Codec = s.CodecName
			metadata.PixFmt = s.PixFmt

			// First try video stream duration
			if d, err := strconv.ParseFloat(strings.TrimSpace(s.Duration), 64); err == nil {
				metadata.Duration = d
			}

			// Then frame count over frame rate
			if metadata.Duration == 0 {
				frames, err := strconv.ParseFloat(s.NbFrames, 64)
				rate := parseRational(s.RFrame)
				if err == nil && rate > 0 {
					metadata.Duration = frames / rate
				}
			}
		case "audio":
			if metadata.AudioCodec == "" {
				metadata.AudioCodec = s.CodecName
			}
		}
	}

	if !foundVideo {
		return nil, fmt.Errorf("no video stream found")
	}

	// If stream duration is not available, try format duration
	if metadata.Duration == 0 {
		if d, err := strconv.ParseFloat(strings.TrimSpace(data.Format.Duration), 64); err == nil {
			metadata.Duration = d
		}
	}

	if metadata.Duration == 0 {
		return nil, fmt.Errorf("could not determine video duration")
	}

	return metadata, nil
}

func parseRational(s string) float64 {
	nums := strings.Split(s, "/")
	if len(nums) != 2 {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return v
	}
	num, err1 := strconv.ParseFloat(nums[0], 64)
	den, err2 := strconv.ParseFloat(nums[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	// Use 75% of available cores to prevent overload
	return int(math.Max(1, float64(cpuCount)*0.75))
}

// Helper function to ensure correct file extension
func EnsureExtension(filename, extension string) string {
	// Remove any existing video extension
	extensions := []string{".mp4", ".webm", ".mkv", ".avi", ".mov"}
	for _, ext := range extensions {
		filename = strings.TrimSuffix(filename, ext)
	}
	return filename + extension
}

// limitedWriter keeps only the last limit bytes written.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		tail := append([]byte(nil), lw.w.Bytes()[lw.w.Len()-lw.limit:]...)
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
