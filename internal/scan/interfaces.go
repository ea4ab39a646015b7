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

import "context"

// Parser extracts #include / #include_next directives from a single file.
// It never evaluates preprocessor conditionals or expands macros (spec.md
// §1 non-goals): the returned Inclusions are whatever textually looks like
// a directive, whether or not it would survive preprocessing.
//
// grepHandle is opaque to this package: it is whatever ProcessRequest.GrepHandle
// was, forwarded unexamined (spec.md §6) for a Parser implementation that
// wants a pre-warmed grep-style index of the file instead of reading it raw.
//
// The spawnScanner parameter lazily yields a remote/subprocess scanner the
// parser may use for generated files it cannot read locally (spec.md §6);
// treatAsGenerated tells it whether to expect that.
type Parser interface {
	ExtractInclusions(ctx context.Context, file Artifact, treatAsGenerated bool, grepHandle any, spawnScanner SpawnScannerSupplier) ([]Inclusion, error)
}

// SpawnScannerSupplier lazily yields a remote/subprocess scanner used by the
// Parser for generated files (spec.md §6). Implementations may return the
// same value every time; the supplier exists so constructing the remote
// connection can be deferred until actually needed.
type SpawnScannerSupplier func() (RemoteScanner, error)

// RemoteScanner is the minimal surface a Parser needs from a remote/subprocess
// scanner: run it against a generated file and get back text whose
// #include / #include_next directives the Parser then extracts.
type RemoteScanner interface {
	Scan(ctx context.Context, file Artifact) ([]byte, error)
}

// ArtifactFactory resolves logical paths to Artifact handles (spec.md §6).
type ArtifactFactory interface {
	// ResolveSourceArtifact resolves a root-relative fragment to a source
	// artifact under the named repo's main source tree.
	ResolveSourceArtifact(fragment string, repo string) (Artifact, bool)
	// ResolveSourceArtifactWithAncestor resolves name relative to parentDir,
	// both already known to be under root, in repo. Used by the relative
	// resolver (spec.md §4.2) so it can fail purely on path math without a
	// second full resolution.
	ResolveSourceArtifactWithAncestor(name, parentDir, root, repo string) (Artifact, bool)
	// GetSourceArtifact resolves an absolute fragment under an absolute root
	// the caller has already identified (e.g. a builtin system include dir).
	GetSourceArtifact(fragment string, absoluteRoot string) (Artifact, bool)
}

// PathExistenceCache is a thread-safe, memoizing existence check (spec.md §6).
type PathExistenceCache interface {
	FileExists(path string, isSource bool) bool
	DirectoryExists(path string) bool
}

// Hints is the hint database collaborator (spec.md §6). Path-level hints add
// implicit headers for an entire quote search-path directory; file-level
// hints add implicit headers whenever a given artifact is visited.
type Hints interface {
	// GetPathLevelHintedInclusions returns extra implicit inclusions for the
	// given quote search path. env lets the implementation signal that an
	// upstream value it needs hasn't been computed yet.
	GetPathLevelHintedInclusions(quotePaths []string, env ActionEnv) []Artifact
	// GetFileLevelHintedInclusionsLegacy returns the implicit inclusions
	// hinted whenever artifact is visited.
	GetFileLevelHintedInclusionsLegacy(artifact Artifact) []Artifact
}

// ActionEnv exposes whether upstream dependency values the current operation
// needs have not been computed yet (spec.md §6); the scanner translates a
// positive signal into a MissingDep error.
type ActionEnv interface {
	ValuesMissing() bool
}

// staticActionEnv is the trivial ActionEnv for callers with no missing-value
// signal to report (e.g. tests, or a caller outside Bazel's action graph).
type staticActionEnv struct{ missing bool }

func (e staticActionEnv) ValuesMissing() bool { return e.missing }

// NoMissingDeps is an ActionEnv that never reports a missing dependency.
var NoMissingDeps ActionEnv = staticActionEnv{missing: false}

// Pool is the bounded thread pool collaborator (spec.md §6): the resource
// both traversal strategies draw workers from. Its shape mirrors
// golang.org/x/sync/semaphore.Weighted with the weight fixed at 1; a
// *semaphore.Weighted does not satisfy it as is (its methods take a weight),
// which is what internal/poolrun's adapter is for.
type Pool interface {
	Acquire(ctx context.Context) error
	Release()
}
