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

	"github.com/EngFlow/ccscan/internal/collections"
)

// runHintFrontier implements spec.md §4.6 step 4 and invariant 10: having
// already bulk-processed the path-level hints, follow file-level hints from
// every original source, then iterate the frontier to a fixed point.
//
// The frontier loop is plain sequential logic, not dispatched through the
// traversal engine: it only decides *which* artifacts to feed back into
// bulkProcess next, which is comparatively cheap map/set bookkeeping next to
// the parse-and-resolve work bulkProcess itself performs.
func (inv *invocation) runHintFrontier(ctx context.Context, originalSources []Artifact) error {
	seedHints := inv.collectFileLevelHints(originalSources)
	if err := inv.bulkProcess(ctx, seedHints); err != nil {
		return err
	}

	// Initial frontier = current includes (spec.md §4.6, "Frontier loop for
	// file-level hints"): everything visited so far, not just what the seed
	// pass above added, since ordinary traversal may already have reached
	// headers whose own file-level hints haven't been followed yet.
	frontier := inv.visited.snapshot()
	for len(frontier) > 0 {
		adjacent := map[string]Artifact{}
		for _, a := range frontier {
			for _, hinted := range inv.s.hints.GetFileLevelHintedInclusionsLegacy(a) {
				adjacent[hinted.ExecPath()] = hinted
			}
		}

		novel := collections.ToSet(mapKeys(adjacent)).Diff(inv.visitedExecPaths())
		if len(novel) == 0 {
			break
		}
		next := make([]Artifact, 0, len(novel))
		for execPath := range novel {
			next = append(next, adjacent[execPath])
		}
		if err := inv.bulkProcess(ctx, next); err != nil {
			return err
		}
		frontier = next
	}
	return nil
}

func mapKeys(m map[string]Artifact) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// visitedExecPaths is a collections.Set view of everything visited so far,
// for diffing against a freshly computed hint frontier.
func (inv *invocation) visitedExecPaths() collections.Set[string] {
	snap := inv.visited.snapshot()
	out := make(collections.Set[string], len(snap))
	for _, a := range snap {
		out.Add(a.ExecPath())
	}
	return out
}

// collectFileLevelHints returns the file-level hints for every original
// source, the seed of the frontier loop.
func (inv *invocation) collectFileLevelHints(originalSources []Artifact) []Artifact {
	seen := map[string]struct{}{}
	var out []Artifact
	for _, src := range originalSources {
		for _, hinted := range inv.s.hints.GetFileLevelHintedInclusionsLegacy(src) {
			key := hinted.ExecPath()
			if _, ok := seen[key]; ok {
				continue
			}
			if inv.visited.contains(key) {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, hinted)
		}
	}
	return out
}
