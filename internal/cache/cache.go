// Copyright 2026 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache provides the run-scoped resource cache shared by export
// workers. Entries live for the lifetime of the process; nothing is
// persisted across runs.
//
// The cache is safe for concurrent use. Concurrent misses on the same URL
// are deduplicated: exactly one caller runs the loader while the others
// wait for its result, so an asset referenced by many tickets is fetched
// once per run.
package cache

import (
	"context"
	"sync"
)

// Entry holds a fetched resource payload and its content type.
type Entry struct {
	Data        []byte
	ContentType string
}

// LoaderFunc fetches the resource for a cache miss.
type LoaderFunc func(ctx context.Context) (Entry, error)

// Cache is a lock-protected mapping from normalized resource URL to Entry.
// Failed loads are not cached, so a later ticket may retry the asset.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]Entry
	inflight map[string]chan struct{}
	hits     int
	misses   int
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries:  make(map[string]Entry),
		inflight: make(map[string]chan struct{}),
	}
}

// GetOrFetch returns the cached entry for url, running load on a miss.
// The returned bool reports whether the entry was served from cache
// (including entries populated by a concurrent loader while we waited).
func (c *Cache) GetOrFetch(ctx context.Context, url string, load LoaderFunc) (Entry, bool, error) {
	for {
		c.mu.Lock()
		if entry, ok := c.entries[url]; ok {
			c.hits++
			c.mu.Unlock()
			return entry, true, nil
		}

		if done, ok := c.inflight[url]; ok {
			c.mu.Unlock()
			select {
			case <-done:
				// Loser of the race re-checks: the loader either populated
				// the entry (hit) or failed (loop again and become the
				// loader ourselves).
				c.mu.Lock()
				entry, ok := c.entries[url]
				if ok {
					c.hits++
					c.mu.Unlock()
					return entry, true, nil
				}
				c.mu.Unlock()
				continue
			case <-ctx.Done():
				return Entry{}, false, ctx.Err()
			}
		}

		done := make(chan struct{})
		c.inflight[url] = done
		c.misses++
		c.mu.Unlock()

		entry, err := load(ctx)

		c.mu.Lock()
		if err == nil {
			c.entries[url] = entry
		}
		delete(c.inflight, url)
		close(done)
		c.mu.Unlock()

		return entry, false, err
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts observed so far.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
