// Copyright 2025 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scan

import (
	"context"
	"sync"
)

// FileParseCache memoizes Parser.ExtractInclusions per artifact. It is
// externally owned and shared across scanner instances (spec.md §3): many
// translation units from many scanner invocations may include the same
// header, and it only needs to be parsed once for as long as the cache
// lives.
type FileParseCache struct {
	mu      sync.Mutex
	entries map[string]*future[[]Inclusion]
}

// NewFileParseCache creates an empty, ready-to-share cache.
func NewFileParseCache() *FileParseCache {
	return &FileParseCache{entries: make(map[string]*future[[]Inclusion])}
}

// getOrParse returns the memoized inclusions for file, parsing it via parse
// if this is the first request. Exactly one caller (per key) ever invokes
// parse; everyone else observes the in-flight or completed future.
//
// If parse fails, the entry is evicted before returning (spec.md §4.6, §5):
// a failed parse future must be reentrant so a retry (e.g. the future-chaining
// strategy rewinding after a transient error) can re-populate it.
func (c *FileParseCache) getOrParse(ctx context.Context, file Artifact, parse func() ([]Inclusion, error)) ([]Inclusion, error) {
	key := file.ExecPath()

	c.mu.Lock()
	f, exists := c.entries[key]
	if !exists {
		f = newFuture[[]Inclusion]()
		c.entries[key] = f
	}
	c.mu.Unlock()

	if exists {
		return f.await(ctx)
	}

	inclusions, err := parse()
	f.set(inclusions, err)
	if err != nil {
		c.mu.Lock()
		if c.entries[key] == f {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}
	return inclusions, err
}

// hasEntry reports whether file already has a memoized or in-flight parse,
// used by the traversal engine to decide whether recursing into it is cheap
// enough to run inline (fork/join strategy, spec.md §4.6).
func (c *FileParseCache) hasEntry(execPath string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[execPath]
	return ok
}

// Len reports the number of cache entries, including in-flight ones; mainly
// useful for tests and diagnostics.
func (c *FileParseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns the resolved (non-error, non-in-flight) entries as a
// plain map, for a caller (internal/cachefile) to persist across process
// invocations. Entries that are still in flight or that failed are omitted.
func (c *FileParseCache) Snapshot() map[string][]Inclusion {
	c.mu.Lock()
	futures := make(map[string]*future[[]Inclusion], len(c.entries))
	for k, f := range c.entries {
		futures[k] = f
	}
	c.mu.Unlock()

	out := make(map[string][]Inclusion, len(futures))
	for k, f := range futures {
		select {
		case <-f.done:
			if f.err == nil {
				out[k] = f.val
			}
		default:
		}
	}
	return out
}

// Restore seeds the cache with already-resolved entries, e.g. loaded from a
// warm-start cache file (internal/cachefile). It never overwrites an entry
// already present: a live in-flight parse always wins.
func (c *FileParseCache) Restore(entries map[string][]Inclusion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range entries {
		if _, exists := c.entries[k]; exists {
			continue
		}
		c.entries[k] = resolved(v, nil)
	}
}
