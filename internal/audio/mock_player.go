package audio

import (
	"errors"
	"sync"
	"sync/atomic"
)

// MockPlayer implements Sink without producing sound. Playback finishes after
// PlayPolls calls to IsPlaying.
type MockPlayer struct {
	mu     sync.Mutex
	played [][]byte
	polls  int

	// PlayPolls is the number of IsPlaying calls that report true after Play.
	PlayPolls int
	// PlayErr is returned from Play when set.
	PlayErr error

	state     atomic.Int32
	stopCount atomic.Int64
}

// NewMockPlayer creates a mock player that finishes on the first poll.
func NewMockPlayer() *MockPlayer {
	mp := &MockPlayer{}
	mp.state.Store(int32(StateStopped))
	return mp
}

// Play records pcm.
func (mp *MockPlayer) Play(pcm []byte) error {
	if mp.PlayErr != nil {
		return mp.PlayErr
	}
	if PlayerState(mp.state.Load()) == StateClosed {
		return errors.New("player is closed")
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()
	data := make([]byte, len(pcm))
	copy(data, pcm)
	mp.played = append(mp.played, data)
	mp.polls = 0
	mp.state.Store(int32(StatePlaying))
	return nil
}

// IsPlaying reports true for PlayPolls calls after Play.
func (mp *MockPlayer) IsPlaying() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if PlayerState(mp.state.Load()) != StatePlaying {
		return false
	}
	if mp.polls >= mp.PlayPolls {
		mp.state.Store(int32(StateStopped))
		return false
	}
	mp.polls++
	return true
}

// Stop halts simulated playback.
func (mp *MockPlayer) Stop() error {
	mp.stopCount.Add(1)
	if PlayerState(mp.state.Load()) == StatePlaying {
		mp.state.Store(int32(StateStopped))
	}
	return nil
}

// Close marks the player closed.
func (mp *MockPlayer) Close() error {
	mp.state.Store(int32(StateClosed))
	return nil
}

// Played returns a copy of every buffer passed to Play.
func (mp *MockPlayer) Played() [][]byte {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	out := make([][]byte, len(mp.played))
	copy(out, mp.played)
	return out
}

// StopCount returns how many times Stop was called.
func (mp *MockPlayer) StopCount() int64 {
	return mp.stopCount.Load()
}
