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

// Package pathexists is the reference scan.PathExistenceCache: a thread-safe,
// memoizing wrapper over os.Stat rooted at an exec root, so the path-search
// resolver can afford to probe deep, rarely-hit search-path entries (spec.md
// §4.5).
package pathexists

import (
	"os"
	"path/filepath"
	"sync"
)

// Cache memoizes file and directory existence checks below execRoot.
// Results are append-only for the lifetime of the cache (spec.md §5): a
// path's existence is never expected to change mid-scan.
type Cache struct {
	execRoot string

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool
}

// New builds a Cache rooted at execRoot; root-relative paths passed to
// FileExists/DirectoryExists are joined onto it before stat'ing.
func New(execRoot string) *Cache {
	return &Cache{execRoot: execRoot, files: make(map[string]bool), dirs: make(map[string]bool)}
}

// FileExists reports whether path names a regular file. isSource is
// accepted to match scan.PathExistenceCache's interface; this reference
// implementation treats source and generated paths identically since both
// are just files on disk relative to execRoot by the time this is called.
func (c *Cache) FileExists(path string, isSource bool) bool {
	_ = isSource
	c.mu.Lock()
	if v, ok := c.files[path]; ok {
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	info, err := os.Stat(c.abs(path))
	exists := err == nil && !info.IsDir()

	c.mu.Lock()
	c.files[path] = exists
	c.mu.Unlock()
	return exists
}

// DirectoryExists reports whether path names a directory. The path-search
// resolver consults this to prune stats for deep include paths sharing a
// prefix whose own directory is already known missing (spec.md §4.5).
func (c *Cache) DirectoryExists(path string) bool {
	c.mu.Lock()
	if v, ok := c.dirs[path]; ok {
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	info, err := os.Stat(c.abs(path))
	exists := err == nil && info.IsDir()

	c.mu.Lock()
	c.dirs[path] = exists
	c.mu.Unlock()
	return exists
}

func (c *Cache) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.execRoot, filepath.FromSlash(p))
}
