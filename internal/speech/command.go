package speech

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// OutputPlaceholder in CommandSynthesizer args is replaced by the WAV path.
const OutputPlaceholder = "{out}"

// CommandSynthesizer runs a local TTS executable (open_jtalk and friends)
// that reads text on stdin and writes a WAV file.
type CommandSynthesizer struct {
	command string
	args    []string
}

// NewCommandSynthesizer builds a synthesizer for command. When args do not
// contain OutputPlaceholder, "-ow {out}" is appended, matching open_jtalk.
func NewCommandSynthesizer(command string, args []string) *CommandSynthesizer {
	hasOut := false
	for _, a := range args {
		if strings.Contains(a, OutputPlaceholder) {
			hasOut = true
			break
		}
	}
	if !hasOut {
		args = append(append([]string{}, args...), "-ow", OutputPlaceholder)
	}
	return &CommandSynthesizer{command: command, args: args}
}

func (s *CommandSynthesizer) Name() string { return "command:" + filepath.Base(s.command) }

func (s *CommandSynthesizer) Synthesize(ctx context.Context, text string) (*AudioTrack, error) {
	dir, err := os.MkdirTemp("", "newsclip_tts_")
	if err != nil {
		return nil, errors.Wrap(err, "create tts temp dir")
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "speech.wav")
	args := make([]string, len(s.args))
	for i, a := range s.args {
		args[i] = strings.ReplaceAll(a, OutputPlaceholder, out)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.command, args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "%s failed: %s", s.command, strings.TrimSpace(stderr.String()))
	}

	return ReadWAV(out)
}
