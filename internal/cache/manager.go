package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager looks entries up in memory first and on disk second, promoting
// disk hits into memory. It is safe for concurrent use by the clip loaders.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates both tiers.
type ManagerStats struct {
	Memory Stats
	Disk   Stats

	MemoryHits int64
	DiskHits   int64
	Misses     int64
	Promotions int64
}

// NewManager opens the cache. Without a DiskPath only the memory tier is
// used.
func NewManager(cfg Config) (*Manager, error) {
	m := &Manager{memory: NewMemoryCache(cfg.MemoryCapacity)}
	if cfg.DiskPath == "" {
		return m, nil
	}

	disk, err := NewDiskCache(cfg.DiskPath, cfg.DiskCapacity, cfg.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}
	if cfg.TTL > 0 {
		if n := disk.RemoveOlderThan(time.Now().Add(-cfg.TTL)); n > 0 {
			log.Debug("expired cached clips", "count", n)
		}
	}
	m.disk = disk
	return m, nil
}

// Get returns the cached value and the tier it came from.
func (m *Manager) Get(key string) ([]byte, Level, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.count(func(s *ManagerStats) { s.MemoryHits++ })
		return data, LevelMemory, true
	}
	if m.disk != nil {
		if data, ok := m.disk.Get(key); ok {
			_ = m.memory.Put(key, data)
			m.count(func(s *ManagerStats) {
				s.DiskHits++
				s.Promotions++
			})
			return data, LevelDisk, true
		}
	}
	m.count(func(s *ManagerStats) { s.Misses++ })
	return nil, LevelMemory, false
}

// Put stores value in both tiers. A value too large for one tier is still
// kept by the other.
func (m *Manager) Put(key string, value []byte) error {
	memErr := m.memory.Put(key, value)
	if memErr != nil && !errors.Is(memErr, ErrItemTooLarge) {
		return fmt.Errorf("memory cache: %w", memErr)
	}
	if m.disk == nil {
		return memErr
	}
	if err := m.disk.Put(key, value); err != nil {
		if errors.Is(err, ErrItemTooLarge) && memErr == nil {
			return nil
		}
		return fmt.Errorf("disk cache: %w", err)
	}
	return nil
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) error {
	_ = m.memory.Delete(key)
	if m.disk != nil {
		return m.disk.Delete(key)
	}
	return nil
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	_ = m.memory.Clear()
	if m.disk != nil {
		return m.disk.Clear()
	}
	return nil
}

// Stats returns a snapshot of both tiers.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()

	stats.Memory = m.memory.Stats()
	if m.disk != nil {
		stats.Disk = m.disk.Stats()
	}
	return stats
}

// Close persists the disk index.
func (m *Manager) Close() error {
	if m.disk == nil {
		return nil
	}
	if err := m.disk.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}

func (m *Manager) count(fn func(*ManagerStats)) {
	m.mu.Lock()
	fn(&m.stats)
	m.mu.Unlock()
}
