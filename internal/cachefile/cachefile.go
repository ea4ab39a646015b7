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

// Package cachefile persists a FileParseCache snapshot across process
// invocations of the reference CLI as xz-compressed JSON. The file-parse
// cache itself is externally owned and process-scoped (spec.md §3, §6);
// this package is purely an opt-in warm-start convenience layered on top,
// grounded on the teacher's use of xz to unpack Bazel Central Registry
// archives (index/internal/bcr/registry.go).
package cachefile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/EngFlow/ccscan/internal/scan"
)

// Save writes cache's resolved entries to path as xz-compressed JSON.
func Save(path string, cache *scan.FileParseCache) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file %s: %w", path, err)
	}
	defer f.Close()

	w, err := xz.NewWriter(f)
	if err != nil {
		return fmt.Errorf("initializing xz writer for %s: %w", path, err)
	}
	defer w.Close()

	enc := json.NewEncoder(w)
	if err := enc.Encode(cache.Snapshot()); err != nil {
		return fmt.Errorf("encoding cache file %s: %w", path, err)
	}
	return nil
}

// Load reads an xz-compressed JSON snapshot written by Save and restores it
// into cache. A missing file is not an error: a cache file is always an
// optional warm start.
func Load(path string, cache *scan.FileParseCache) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file %s: %w", path, err)
	}
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return fmt.Errorf("initializing xz reader for %s: %w", path, err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading cache file %s: %w", path, err)
	}

	var entries map[string][]scan.Inclusion
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing cache file %s: %w", path, err)
	}
	cache.Restore(entries)
	return nil
}
