package cache

import "sync"

// MemoryCache is the L1 tier: decoded clips kept in process, bounded by
// their total byte size and evicted least recently used first.
type MemoryCache struct {
	mu sync.Mutex

	capacity int64
	size     int64
	clips    map[string]*clipNode

	// head is the most recently used clip, tail the next to evict.
	head, tail *clipNode

	stats Stats
}

type clipNode struct {
	key        string
	pcm        []byte
	prev, next *clipNode
}

// NewMemoryCache creates a memory cache holding at most capacity bytes.
func NewMemoryCache(capacity int64) *MemoryCache {
	return &MemoryCache{
		capacity: capacity,
		clips:    make(map[string]*clipNode),
		stats:    Stats{Capacity: capacity},
	}
}

// Get returns the clip for key and marks it most recently used.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.clips[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.unlink(n)
	c.pushFront(n)
	c.stats.Hits++
	return n.pcm, true
}

// Put stores pcm under key, evicting the least recently used clips until it
// fits. A clip larger than the whole cache is refused.
func (c *MemoryCache) Put(key string, pcm []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	need := int64(len(pcm))
	if need > c.capacity {
		return ErrItemTooLarge
	}
	if old, ok := c.clips[key]; ok {
		c.drop(old)
	}
	for c.tail != nil && c.size+need > c.capacity {
		c.drop(c.tail)
		c.stats.Evictions++
	}

	n := &clipNode{key: key, pcm: pcm}
	c.clips[key] = n
	c.pushFront(n)
	c.size += need
	return nil
}

// Delete removes key if present.
func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.clips[key]; ok {
		c.drop(n)
	}
	return nil
}

// Clear removes every clip. Counters are kept.
func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clips = make(map[string]*clipNode)
	c.head, c.tail = nil, nil
	c.size = 0
	return nil
}

// Size returns the stored bytes.
func (c *MemoryCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Contains checks for key without touching the recency order.
func (c *MemoryCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.clips[key]
	return ok
}

// Keys lists the cached keys, most recently used first.
func (c *MemoryCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.clips))
	for n := c.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Stats returns a snapshot of the counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = c.size
	stats.ItemCount = int64(len(c.clips))
	return stats
}

// The helpers below expect c.mu to be held.

func (c *MemoryCache) drop(n *clipNode) {
	c.unlink(n)
	delete(c.clips, n.key)
	c.size -= int64(len(n.pcm))
}

func (c *MemoryCache) pushFront(n *clipNode) {
	n.prev, n.next = nil, c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *MemoryCache) unlink(n *clipNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
