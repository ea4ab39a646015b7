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

import "strings"

// hasPathPrefix reports whether p is prefix or a path under it, component-wise
// (so "bazel-out2/x" is not considered under prefix "bazel-out").
func hasPathPrefix(p, prefix string) bool {
	if prefix == "" {
		return false
	}
	if !strings.HasPrefix(p, prefix) {
		return false
	}
	if len(p) == len(prefix) {
		return true
	}
	return p[len(prefix)] == '/'
}

// IsIncPath reports whether p is an entry of the inc-symlink tree. The tree
// root itself doesn't count: inc.Root is not an "inc path", only files under
// it are (spec.md §4.1).
func (l Layout) IsIncPath(p string) bool {
	if l.IncRoot == "" {
		return false
	}
	return hasPathPrefix(p, l.IncRoot) && p != l.IncRoot
}

// IsRealOutputFile reports whether p lives under the output prefix and isn't
// an inc-symlink tree entry; inc-symlink entries are treated as source-like
// even though physically they may be nested under the output prefix.
func (l Layout) IsRealOutputFile(p string) bool {
	return hasPathPrefix(p, l.OutputPrefix) && !l.IsIncPath(p)
}

// IsIllegalOutputFile reports whether p is a real output file that this
// scanner invocation wasn't told about: an inc-library output directory can
// contain files that were never declared as outputs. Observing one is not an
// error (spec.md §7); it only disables caching of the resolution that
// observed it (spec.md §4.4).
func (l Layout) IsIllegalOutputFile(p string, legal LegalOutputs) bool {
	if !l.IsRealOutputFile(p) {
		return false
	}
	_, ok := legal[p]
	return !ok
}

// hasUplevelRef reports whether a slash-separated path has any ".." path
// component, which would let a relative include escape its root.
func hasUplevelRef(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
