package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

// wavBitDepth is the bit depth of exported files.
const wavBitDepth = 16

// wavPCMFormat is the WAVE_FORMAT_PCM audio format tag.
const wavPCMFormat = 1

// EncodeWAV writes buf as a 16-bit PCM WAV stream.
func EncodeWAV(w io.WriteSeeker, buf *Buffer) error {
	enc := gowav.NewEncoder(w, buf.Format.SampleRate, wavBitDepth, buf.Format.Channels, wavPCMFormat)

	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		data[i] = int(s)
	}
	ib := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: buf.Format.Channels,
			SampleRate:  buf.Format.SampleRate,
		},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}

	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}
	return nil
}

// WriteWAVFile exports buf to path, replacing any existing file.
func WriteWAVFile(path string, buf *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := EncodeWAV(f, buf); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
