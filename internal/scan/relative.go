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

import "path"

// resolveRelative implements spec.md §4.2: a QUOTE / NEXT_QUOTE inclusion is
// first tried relative to the including file's own directory, before the
// search path is ever consulted (invariant 8, "relative-first"). The result
// is intentionally not cached: it depends on the includer, not just the
// inclusion text (spec.md §4.2).
func (s *Scanner) resolveRelative(including Artifact, inc Inclusion, legal LegalOutputs) (Artifact, bool) {
	if !inc.Kind.IsQuote() {
		return nil, false
	}

	parentExec := path.Dir(including.ExecPath())
	candidateExec := path.Join(parentExec, inc.Path)

	if !s.pathExists.FileExists(candidateExec, including.IsSource()) {
		return nil, false
	}

	parentRootRel := path.Dir(including.RootRelativePath())
	candidateRootRel := path.Join(parentRootRel, inc.Path)
	if hasUplevelRef(candidateRootRel) {
		// Escaping the package root through a relative include is refused
		// outright (invariant 9): there is no artifact that could represent it.
		return nil, false
	}

	if art, ok := legal[candidateExec]; ok {
		return art, true
	}

	repo := ""
	if r, ok := including.(interface{ Repo() string }); ok {
		repo = r.Repo()
	}
	// root is passed empty: FileExists and the hasUplevelRef check above
	// already establish candidateExec is a real, in-bounds exec-path, so
	// there is no separate filesystem root boundary left for the artifact
	// factory to enforce (root compares against exec-relative paths, never
	// the absolute ExecRoot).
	if art, ok := s.artifacts.ResolveSourceArtifactWithAncestor(inc.Path, parentExec, "", repo); ok {
		return art, true
	}

	// The only way ResolveSourceArtifactWithAncestor can fail here, given
	// FileExists and hasUplevelRef(candidateRootRel) above already passed,
	// is that inc.Path itself carries an uplevel ref the factory rejects.
	return nil, false
}
