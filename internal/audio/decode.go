package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// ErrUnsupportedFormat is returned for clip files beep cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported audio file format")

// resampleQuality is the beep resampler quality (1-64); 4 is beep's
// recommended default for offline work.
const resampleQuality = 4

// streamChunk is the number of frames pulled from a streamer per call.
const streamChunk = 4096

// SupportedExtensions lists the clip file extensions Decode understands.
var SupportedExtensions = []string{".mp3", ".wav", ".flac"}

// IsSupported reports whether path has a decodable extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// DecodeFile decodes an audio clip from disk into the target format.
func DecodeFile(path string, target Format) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	buf, err := Decode(f, filepath.Ext(path), target)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return buf, nil
}

// Decode reads an encoded clip of the given extension and converts it into
// the target format, resampling when the source rate differs.
func Decode(r io.ReadCloser, ext string, target Format) (*Buffer, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch strings.ToLower(ext) {
	case ".mp3":
		streamer, format, err = mp3.Decode(r)
	case ".wav":
		streamer, format, err = wav.Decode(r)
	case ".flac":
		streamer, format, err = flac.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	defer streamer.Close() //nolint:errcheck

	var s beep.Streamer = streamer
	if int(format.SampleRate) != target.SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(target.SampleRate), streamer)
	}

	out := NewBuffer(target)
	if n := streamer.Len(); n > 0 {
		frames := n
		if int(format.SampleRate) != target.SampleRate {
			frames = int(int64(n) * int64(target.SampleRate) / int64(format.SampleRate))
		}
		out.Samples = make([]int16, 0, frames*target.Channels)
	}

	chunk := make([][2]float64, streamChunk)
	for {
		n, ok := s.Stream(chunk)
		for _, frame := range chunk[:n] {
			if target.Channels == 1 {
				out.Samples = append(out.Samples, toInt16((frame[0]+frame[1])/2))
				continue
			}
			out.Samples = append(out.Samples, toInt16(frame[0]), toInt16(frame[1]))
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func toInt16(v float64) int16 {
	return clip(v * 32767)
}
