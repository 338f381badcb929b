// Package cache keeps decoded clip PCM between runs. An in-memory LRU (L1)
// sits in front of a zstd compressed disk store (L2) so that regenerating a
// sample from the same audio directory skips decoding and resampling.
package cache
