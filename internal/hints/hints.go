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

// Package hints is the reference scan.Hints implementation: a small JSON
// index, in the spirit of the teacher's own .ccidx header index, giving
// path-level hints (by glob pattern over quote search-path directories) and
// file-level hints (by exec-path) their external annotations.
package hints

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/EngFlow/ccscan/internal/artifact"
	"github.com/EngFlow/ccscan/internal/scan"
)

// Index is the on-disk representation of a hint database.
type Index struct {
	// PathHints maps a doublestar glob pattern, matched against each quote
	// search-path directory, to the exec-paths it implicitly includes.
	PathHints map[string][]string `json:"path_hints,omitempty"`
	// FileHints maps an exec-path to the exec-paths implicitly included
	// whenever that artifact is visited.
	FileHints map[string][]string `json:"file_hints,omitempty"`
}

// Hints wraps a loaded Index as a scan.Hints, resolving hinted exec-paths
// into artifacts via an artifact.Factory.
type Hints struct {
	idx     Index
	factory *artifact.Factory
}

// Load reads and parses a hint index file.
func Load(path string, factory *artifact.Factory) (*Hints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hint index %s: %w", path, err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing hint index %s: %w", path, err)
	}
	return &Hints{idx: idx, factory: factory}, nil
}

// New wraps an already-parsed Index, e.g. one assembled by tests.
func New(idx Index, factory *artifact.Factory) *Hints {
	return &Hints{idx: idx, factory: factory}
}

// GetPathLevelHintedInclusions implements scan.Hints: for every quote
// search-path directory, every pattern whose glob matches it contributes its
// hinted exec-paths.
func (h *Hints) GetPathLevelHintedInclusions(quotePaths []string, env scan.ActionEnv) []scan.Artifact {
	if env != nil && env.ValuesMissing() {
		return nil
	}
	var out []scan.Artifact
	seen := map[string]struct{}{}
	for pattern, execPaths := range h.idx.PathHints {
		if !doublestar.ValidatePattern(pattern) {
			continue
		}
		for _, qp := range quotePaths {
			matched, err := doublestar.Match(pattern, qp)
			if err != nil || !matched {
				continue
			}
			for _, ep := range execPaths {
				if _, ok := seen[ep]; ok {
					continue
				}
				seen[ep] = struct{}{}
				if art, ok := h.factory.ResolveSourceArtifact(ep, ""); ok {
					out = append(out, art)
				}
			}
			break
		}
	}
	return out
}

// GetFileLevelHintedInclusionsLegacy implements scan.Hints: returns the
// artifacts hinted whenever artifact is visited.
func (h *Hints) GetFileLevelHintedInclusionsLegacy(a scan.Artifact) []scan.Artifact {
	execPaths, ok := h.idx.FileHints[a.ExecPath()]
	if !ok {
		return nil
	}
	out := make([]scan.Artifact, 0, len(execPaths))
	for _, ep := range execPaths {
		if art, ok := h.factory.ResolveSourceArtifact(ep, ""); ok {
			out = append(out, art)
		}
	}
	return out
}
