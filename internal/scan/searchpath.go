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
	"path"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/pathtools"
)

// locateOnPaths is the path-search resolver, spec.md §4.3. It walks the
// search path appropriate for the inclusion's context (quote or angle),
// starting after the including file's own search-path index for
// #include_next (invariant 7), and returns the first hit.
func (s *Scanner) locateOnPaths(iwc InclusionWithContext, legal LegalOutputs, onlyCheckGenerated bool) LocateResult {
	// #include_next doesn't get its own independent quote/angle meaning: the
	// compiler ignores the bracket style it was written with and continues
	// the search in whichever list the *including* file itself was found in
	// (invariant 7). A fresh #include / #include "..." uses its own bracket
	// style, since at top level there is no context to inherit from.
	var paths []string
	start := 0
	if iwc.Inclusion.Kind.IsNext() {
		start = iwc.ContextPathPos
		paths = s.searchPath.PathsFor(iwc.ContextKind)
	} else if iwc.Inclusion.Kind.IsQuote() {
		paths = s.searchPath.QuoteList
	} else {
		paths = s.searchPath.AngleList
	}

	var viewedIllegal bool
	for i := start; i < len(paths); i++ {
		candidate := path.Join(paths[i], iwc.Inclusion.Path)

		if hasUplevelRef(candidate) {
			normalized, ok := s.absorbUplevel(candidate)
			if !ok {
				// Defensive: preserved even though spec.md §9(b) notes it may be
				// unreachable on a POSIX filesystem (could arise from
				// Windows-style separators surviving into a candidate path).
				continue
			}
			candidate = normalized
		}

		if onlyCheckGenerated && !s.layout.IsRealOutputFile(candidate) {
			continue
		}

		viewedIllegal = viewedIllegal || s.layout.IsIllegalOutputFile(candidate, legal)

		isSource := !s.layout.IsRealOutputFile(candidate)
		if !s.pathExists.FileExists(candidate, isSource) {
			continue
		}

		art, ok := s.selectArtifact(candidate, legal)
		if !ok {
			if s.layout.IsRealOutputFile(candidate) {
				// An inc-library output directory contains a file that was
				// never declared as a legal output: stop searching this
				// inclusion entirely rather than trying later path entries.
				return LocateResult{ViewedIllegal: viewedIllegal}
			}
			continue
		}
		return LocateResult{Artifact: art, IncludePosition: i + 1, ViewedIllegal: viewedIllegal}
	}
	return LocateResult{ViewedIllegal: viewedIllegal}
}

// absorbUplevel tries to normalize a candidate path containing ".." segments
// against the exec root (spec.md §4.3 step 2b). It reports ok=false if
// uplevel references remain after the attempt, meaning this path entry
// should be skipped.
func (s *Scanner) absorbUplevel(candidate string) (string, bool) {
	abs := path.Join(s.layout.ExecRoot, candidate)
	if hasPathPrefix(abs, s.layout.ExecRoot) {
		rel := pathtools.TrimPrefix(abs, s.layout.ExecRoot)
		rel = strings.TrimPrefix(rel, "/")
		if !hasUplevelRef(rel) {
			return rel, true
		}
		return "", false
	}
	// Falls outside the exec root entirely: candidate becomes its absolute form.
	if !hasUplevelRef(abs) {
		return abs, true
	}
	return "", false
}

// selectArtifact picks the concrete artifact a found candidate path should
// resolve to (spec.md §4.3 step 2f): a declared legal output, a source
// artifact under the main repo, or a source artifact under an absolute root.
func (s *Scanner) selectArtifact(candidate string, legal LegalOutputs) (Artifact, bool) {
	if s.layout.IsRealOutputFile(candidate) {
		art, ok := legal[candidate]
		return art, ok
	}
	if !path.IsAbs(candidate) {
		return s.artifacts.ResolveSourceArtifact(candidate, "")
	}
	// Absolute candidate: still returned so its own inclusions can be
	// scanned; whether an absolute include is ultimately legal is a policy
	// decision left to the caller (spec.md §9(c)).
	return s.artifacts.GetSourceArtifact(candidate, path.Dir(candidate))
}
