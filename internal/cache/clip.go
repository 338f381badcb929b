package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/murmur/internal/audio"
)

// ClipKey identifies a decoded clip. Editing the file or changing the target
// format yields a new key.
func ClipKey(path string, size int64, modUnixNano int64, format audio.Format) string {
	data := fmt.Sprintf("%s|%d|%d|%d|%d", path, size, modUnixNano, format.SampleRate, format.Channels)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// LoadClip decodes path into format, serving it from the cache when the file
// is unchanged. A nil Manager decodes every time.
func (m *Manager) LoadClip(path string, format audio.Format) (*audio.Buffer, error) {
	if m == nil {
		return audio.DecodeFile(path, format)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	key := ClipKey(abs, info.Size(), info.ModTime().UnixNano(), format)

	if data, level, ok := m.Get(key); ok {
		log.Debug("clip cache hit", "path", path, "level", level)
		return audio.FromBytes(format, data), nil
	}

	buf, err := audio.DecodeFile(abs, format)
	if err != nil {
		return nil, err
	}
	if err := m.Put(key, buf.Bytes()); err != nil {
		log.Debug("clip not cached", "path", path, "err", err)
	}
	return buf, nil
}
