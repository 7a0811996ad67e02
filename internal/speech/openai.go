package speech

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// OpenAIPCMSampleRate is the fixed rate of the API's raw "pcm" format.
const OpenAIPCMSampleRate = 24000

// OpenAISynthesizer calls the OpenAI speech endpoint and requests raw
// 24 kHz signed 16-bit little-endian mono PCM.
type OpenAISynthesizer struct {
	client *openai.Client
	model  string
	voice  string
}

// NewOpenAISynthesizer wraps an explicitly constructed client.
func NewOpenAISynthesizer(client *openai.Client, model, voice string) *OpenAISynthesizer {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &OpenAISynthesizer{client: client, model: model, voice: voice}
}

func (s *OpenAISynthesizer) Name() string { return "openai:" + s.model + ":" + s.voice }

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) (*AudioTrack, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormat("pcm"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to synthesize speech")
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, errors.Wrap(err, "read speech response")
	}
	return decodePCM16LE(data, OpenAIPCMSampleRate), nil
}

// decodePCM16LE interprets raw little-endian 16-bit mono samples. A trailing
// odd byte is dropped.
func decodePCM16LE(data []byte, sampleRate int) *AudioTrack {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return &AudioTrack{Samples: samples, SampleRate: sampleRate}
}
