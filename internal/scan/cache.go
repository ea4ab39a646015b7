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

import "sync"

// resolutionCache maps an InclusionWithContext to the LocateResult the
// path-search resolver produced for it (spec.md §4.4). It is owned by a
// single Scanner instance, unlike the file-parse cache.
//
// The two-phase lookup below is the crux of invariant 5 (cache soundness):
// a miss that was only a miss because resolution stepped past an illegal
// output must never be memoized, because a later action sharing this
// scanner might legally produce that very file.
type resolutionCache struct {
	mu      sync.Mutex
	entries map[InclusionWithContext]LocateResult
}

func newResolutionCache() *resolutionCache {
	return &resolutionCache{entries: make(map[InclusionWithContext]LocateResult)}
}

// lookup resolves key, consulting and (when safe) populating the cache.
func (c *resolutionCache) lookup(s *Scanner, key InclusionWithContext, legal LegalOutputs) LocateResult {
	c.mu.Lock()
	if cached, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	result := s.locateOnPaths(key, legal, false)
	if result.Found() || !result.ViewedIllegal {
		c.store(key, result)
		return result
	}

	// The first pass's miss was tainted by an illegal output somewhere along
	// the path. Re-run restricted to declared outputs only: if that still
	// finds nothing, or finds something, it was real-artifact-only
	// information and is safe to cache either way. If it's still a tainted
	// miss, give up on caching this key for this invocation.
	retry := s.locateOnPaths(key, legal, true)
	if retry.Found() || !retry.ViewedIllegal {
		c.store(key, retry)
		return retry
	}
	return retry
}

func (c *resolutionCache) store(key InclusionWithContext, result LocateResult) {
	c.mu.Lock()
	c.entries[key] = result
	c.mu.Unlock()
}

// Len reports the number of memoized entries.
func (c *resolutionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Has reports whether key has a memoized entry.
func (c *resolutionCache) Has(key InclusionWithContext) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}
