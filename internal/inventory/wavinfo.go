package inventory

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned by ReadWAVInfo for files without a usable RIFF/WAVE
// header.
var ErrInvalidWAV = errors.New("not a valid wav file")

// AudioInfo is header-level information read from a WAV file.
type AudioInfo struct {
	Duration   time.Duration
	SampleRate int
	Channels   int
	BitDepth   int
}

// ReadWAVInfo reads the header of a WAV file without decoding samples.
func ReadWAVInfo(path string) (AudioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return AudioInfo{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return AudioInfo{}, ErrInvalidWAV
	}
	duration, err := dec.Duration()
	if err != nil {
		return AudioInfo{}, fmt.Errorf("read wav duration: %w", err)
	}
	return AudioInfo{
		Duration:   duration,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}, nil
}
