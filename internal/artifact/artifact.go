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

// Package artifact is the reference, filesystem-backed implementation of
// scan.ArtifactFactory: it models exec-root-relative paths the way a Bazel
// action sees its inputs (source tree, one or more output trees, an
// inc-symlink tree), without depending on a live Bazel invocation.
package artifact

import (
	"path"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/pathtools"

	"github.com/EngFlow/ccscan/internal/scan"
)

// File is the concrete scan.Artifact this package hands out.
type File struct {
	execPath         string
	rootRelativePath string
	isSource         bool
	repo             string
}

func (f *File) ExecPath() string         { return f.execPath }
func (f *File) RootRelativePath() string { return f.rootRelativePath }
func (f *File) IsSource() bool           { return f.isSource }

// Repo satisfies the optional `interface{ Repo() string }` the scanner's
// relative resolver type-asserts for (internal/scan/relative.go).
func (f *File) Repo() string { return f.repo }

// New constructs a source artifact directly; used by callers (tests,
// cmd/ccscan) building the initial set of translation units.
func New(execPath, rootRelativePath, repo string, isSource bool) *File {
	return &File{execPath: execPath, rootRelativePath: rootRelativePath, repo: repo, isSource: isSource}
}

// Factory is the reference scan.ArtifactFactory implementation.
type Factory struct {
	execRoot string
	mainRepo string
}

// NewFactory builds a Factory rooted at execRoot, treating mainRepo as the
// repository name resolved fragments belong to absent an explicit repo.
func NewFactory(execRoot, mainRepo string) *Factory {
	return &Factory{execRoot: execRoot, mainRepo: mainRepo}
}

// ResolveSourceArtifact resolves a root-relative fragment under repo's main
// source tree (scan.ArtifactFactory).
func (f *Factory) ResolveSourceArtifact(fragment string, repo string) (scan.Artifact, bool) {
	if hasUplevelRef(fragment) {
		return nil, false
	}
	if repo == "" {
		repo = f.mainRepo
	}
	return &File{execPath: fragment, rootRelativePath: fragment, isSource: true, repo: repo}, true
}

// ResolveSourceArtifactWithAncestor resolves name relative to parentDir,
// both already known to be under root (scan.ArtifactFactory): the relative
// resolver (spec.md §4.2) uses this so it can fail purely on path math
// without a second full resolution.
func (f *Factory) ResolveSourceArtifactWithAncestor(name, parentDir, root, repo string) (scan.Artifact, bool) {
	candidate := path.Join(parentDir, name)
	if hasUplevelRef(candidate) {
		return nil, false
	}
	if root != "" && !pathtools.HasPrefix(candidate, root) {
		return nil, false
	}
	if repo == "" {
		repo = f.mainRepo
	}
	return &File{execPath: candidate, rootRelativePath: candidate, isSource: true, repo: repo}, true
}

// GetSourceArtifact resolves an absolute fragment under an absolute root the
// caller has already identified (scan.ArtifactFactory), e.g. a builtin
// system include directory outside the exec root.
func (f *Factory) GetSourceArtifact(fragment string, absoluteRoot string) (scan.Artifact, bool) {
	rel := fragment
	if absoluteRoot != "" {
		rel = strings.TrimPrefix(pathtools.TrimPrefix(fragment, absoluteRoot), "/")
	}
	return &File{execPath: fragment, rootRelativePath: rel, isSource: true, repo: f.mainRepo}, true
}

func hasUplevelRef(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
