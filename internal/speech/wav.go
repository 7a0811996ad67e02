package speech

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

const pcmFormat = 1

// WriteWAV persists the track as a 16-bit mono PCM WAV file.
func WriteWAV(path string, track *AudioTrack) error {
	if track == nil || track.SampleRate <= 0 {
		return errors.New("write wav: track has no sample rate")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}

	data := make([]int, len(track.Samples))
	for i, s := range track.Samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, track.SampleRate, 16, 1, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: track.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Wrapf(err, "encode %s", path)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Wrapf(err, "finalize %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "close %s", path)
	}
	return nil
}

// ReadWAV loads a PCM WAV file of any bit depth and channel count and
// returns it downmixed to mono 16-bit.
func ReadWAV(path string) (*AudioTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	track, err := DecodeWAV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "wav %s", path)
	}
	return track, nil
}

// DecodeWAV is ReadWAV over an open stream.
func DecodeWAV(r io.ReadSeeker) (*AudioTrack, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "read pcm")
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}
	shift := int(dec.BitDepth) - 16
	// 8-bit WAV samples are unsigned.
	offset := 0
	if dec.BitDepth == 8 {
		offset = 128
	}

	frames := len(buf.Data) / channels
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c] - offset
		}
		samples[i] = toInt16(sum/channels, shift)
	}

	return &AudioTrack{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

// toInt16 rescales a sample from its source bit depth (expressed as the
// difference to 16) and clamps it.
func toInt16(v, shift int) int16 {
	switch {
	case shift > 0:
		v >>= shift
	case shift < 0:
		v <<= -shift
	}
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}
