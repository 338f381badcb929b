package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// PlayerState represents the current state of a player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sink plays raw little-endian PCM.
type Sink interface {
	Play(pcm []byte) error
	IsPlaying() bool
	Stop() error
	Close() error
}

// pollInterval is how often PlayBuffer checks for the end of playback.
const pollInterval = 50 * time.Millisecond

// Player plays finished samples on the default output device using oto.
type Player struct {
	context *oto.Context
	player  *oto.Player

	// data is kept alive while oto reads from it.
	data []byte

	state atomic.Int32
	mu    sync.Mutex

	format Format
}

// NewPlayer opens the audio device for the given format. oto allows a single
// context per process, so callers should create one player and reuse it.
func NewPlayer(format Format) (*Player, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	p := &Player{context: ctx, format: format}
	p.state.Store(int32(StateStopped))
	return p, nil
}

// Play starts playback of pcm, stopping anything already playing.
func (p *Player) Play(pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if PlayerState(p.state.Load()) == StateClosed {
		return errors.New("player is closed")
	}
	p.stopLocked()

	p.data = make([]byte, len(pcm))
	copy(p.data, pcm)
	p.player = p.context.NewPlayer(bytes.NewReader(p.data))
	p.player.Play()
	p.state.Store(int32(StatePlaying))
	return nil
}

// IsPlaying reports whether the device is still consuming audio.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return false
	}
	if !p.player.IsPlaying() {
		p.stopLocked()
		return false
	}
	return true
}

// Stop halts playback.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if p.player != nil {
		p.player.Pause()
		_ = p.player.Close()
		p.player = nil
	}
	p.data = nil
	if PlayerState(p.state.Load()) != StateClosed {
		p.state.Store(int32(StateStopped))
	}
}

// Close stops playback and marks the player unusable.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.context = nil
	p.state.Store(int32(StateClosed))
	return nil
}

// State returns the current player state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// PlayBuffer plays buf on sink and blocks until playback ends or ctx is
// cancelled.
func PlayBuffer(ctx context.Context, sink Sink, buf *Buffer) error {
	if buf.Empty() {
		return errors.New("nothing to play")
	}
	if err := sink.Play(buf.Bytes()); err != nil {
		return err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = sink.Stop()
			return ctx.Err()
		case <-ticker.C:
			if !sink.IsPlaying() {
				return nil
			}
		}
	}
}
