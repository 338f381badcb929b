package cache

import (
	"errors"
	"time"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when a stored entry cannot be decoded.
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level is the tier an entry was served from.
type Level int

const (
	LevelMemory Level = iota
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds counters for one cache tier.
type Stats struct {
	Capacity  int64
	Size      int64
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Config sizes the two tiers.
type Config struct {
	MemoryCapacity int64 // bytes
	DiskCapacity   int64 // bytes
	DiskPath       string

	// CompressionLevel is the zstd level (1-22). 0 stores entries raw.
	CompressionLevel int

	// TTL drops disk entries not written for this long when the cache is
	// opened. 0 keeps everything.
	TTL time.Duration
}

// DefaultConfig returns the settings used when the tool config is silent.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   256 * 1024 * 1024,
		DiskCapacity:     1024 * 1024 * 1024,
		CompressionLevel: 3,
		TTL:              30 * 24 * time.Hour,
	}
}

// Store is a byte cache keyed by string.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Size() int64
	Contains(key string) bool
	Stats() Stats
}
