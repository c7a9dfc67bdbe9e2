// Package cache provides the two local fallback stores: session start
// timestamps and alert thresholds, each persisted as a single JSON file.
//
// The files are a resilience aid, not a source of truth. Every I/O failure
// is absorbed: a failed read behaves like an empty cache and a failed write
// is skipped with a log line. Callers never see an error.
package cache

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pos-floor-backend/internal/model"
)

// jsonFile is one full-load/full-save JSON document on disk. The mutex
// guarantees no two load-modify-save sequences interleave.
type jsonFile struct {
	path string
	mu   sync.Mutex
}

func (f *jsonFile) load(v any) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("cache: read %s failed: %v (treating as empty)", f.path, err)
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("cache: decode %s failed: %v (treating as empty)", f.path, err)
	}
}

func (f *jsonFile) save(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: encode %s failed: %v (write skipped)", f.path, err)
		return
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("cache: mkdir %s failed: %v (write skipped)", dir, err)
			return
		}
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		log.Printf("cache: write %s failed: %v (write skipped)", f.path, err)
	}
}

// TimerCache persists table label -> session start timestamp.
type TimerCache struct {
	f jsonFile
}

// NewTimerCache creates a timer cache backed by the given file path.
func NewTimerCache(path string) *TimerCache {
	return &TimerCache{f: jsonFile{path: path}}
}

// Load returns the full map, keyed by normalized label. Never fails.
func (c *TimerCache) Load() map[string]time.Time {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	return c.loadLocked()
}

func (c *TimerCache) loadLocked() map[string]time.Time {
	m := make(map[string]time.Time)
	c.f.load(&m)
	return m
}

// Save replaces the file with the given map.
func (c *TimerCache) Save(m map[string]time.Time) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	c.f.save(m)
}

// Set records the start timestamp for a label.
func (c *TimerCache) Set(label string, start time.Time) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	m := c.loadLocked()
	m[model.LabelKey(label)] = start
	c.f.save(m)
}

// Remove drops the entry for a label, if present.
func (c *TimerCache) Remove(label string) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	m := c.loadLocked()
	delete(m, model.LabelKey(label))
	c.f.save(m)
}

// ThresholdCache persists table label -> alert threshold in minutes.
// Thresholds are local-only configuration and survive session lifecycles.
type ThresholdCache struct {
	f jsonFile
}

// NewThresholdCache creates a threshold cache backed by the given file path.
func NewThresholdCache(path string) *ThresholdCache {
	return &ThresholdCache{f: jsonFile{path: path}}
}

// Load returns the full map, keyed by normalized label. Never fails.
func (c *ThresholdCache) Load() map[string]int {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	return c.loadLocked()
}

func (c *ThresholdCache) loadLocked() map[string]int {
	m := make(map[string]int)
	c.f.load(&m)
	return m
}

// Save replaces the file with the given map.
func (c *ThresholdCache) Save(m map[string]int) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	c.f.save(m)
}

// Set records the threshold for a label.
func (c *ThresholdCache) Set(label string, minutes int) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	m := c.loadLocked()
	m[model.LabelKey(label)] = minutes
	c.f.save(m)
}

// Remove clears the threshold for a label, if present.
func (c *ThresholdCache) Remove(label string) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	m := c.loadLocked()
	delete(m, model.LabelKey(label))
	c.f.save(m)
}
