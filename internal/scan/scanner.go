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

// Strategy selects which of the two interchangeable traversal scheduling
// strategies a Scanner uses (spec.md §4.6, "Dual scheduling strategies").
// Both share every resolution, caching and deduplication rule; they only
// differ in how the DAG walk is pipelined.
type Strategy int

const (
	// ForkJoin dispatches recursion on not-yet-parsed files to goroutines
	// and blocks (sync()) until all dispatched work for a file quiesces;
	// the bounded pool gates only each file's own leaf parse, not the fan-out.
	ForkJoin Strategy = iota
	// FutureChaining wraps every child task, parsed or not, in a future on
	// its own goroutine and awaits their conjunction.
	FutureChaining
)

// Config holds a Scanner's immutable, scanner-lifetime configuration
// (spec.md §3, "Ownership"). Everything here is fixed for the scanner's
// lifetime; per-invocation state (visited sets, legal outputs, modular
// headers) is passed to ProcessAsync instead.
type Config struct {
	Layout     Layout
	SearchPath SearchPath

	Artifacts  ArtifactFactory
	PathExists PathExistenceCache
	Parser     Parser
	Hints      Hints // nil disables hint-driven expansion entirely

	// ParseCache is externally owned and may be shared by multiple Scanner
	// instances (spec.md §3); if nil, a private cache is created.
	ParseCache *FileParseCache

	Pool     Pool
	Strategy Strategy
}

// Scanner computes, for a set of translation units, the closed set of
// header files that participate in their compilation (spec.md §1). Beyond
// its Config, a Scanner keeps only its resolution cache, which persists
// across ProcessAsync calls; every ProcessAsync call owns its own visited
// bookkeeping and completes independently.
type Scanner struct {
	layout     Layout
	searchPath SearchPath

	artifacts  ArtifactFactory
	pathExists PathExistenceCache
	parser     Parser
	hints      Hints

	parseCache *FileParseCache
	resCache   *resolutionCache

	pool     Pool
	strategy Strategy
}

// NewScanner constructs a Scanner from cfg. The returned Scanner's
// resolution cache starts empty and is private to it; cfg.ParseCache, if
// provided, may already be warm from other scanners sharing it.
func NewScanner(cfg Config) *Scanner {
	parseCache := cfg.ParseCache
	if parseCache == nil {
		parseCache = NewFileParseCache()
	}
	return &Scanner{
		layout:     cfg.Layout,
		searchPath: cfg.SearchPath,
		artifacts:  cfg.Artifacts,
		pathExists: cfg.PathExists,
		parser:     cfg.Parser,
		hints:      cfg.Hints,
		parseCache: parseCache,
		resCache:   newResolutionCache(),
		pool:       cfg.Pool,
		strategy:   cfg.Strategy,
	}
}

// ProcessRequest bundles one ProcessAsync call's inputs (spec.md §6, Scanner
// public operation).
type ProcessRequest struct {
	MainSource       Artifact // the primary translation unit, if any
	Sources          []Artifact
	HeaderData       HeaderData
	CmdlineIncludes  []string // "-include foo.h" style forced includes, relative to MainSource
	ActionMeta       ActionEnv
	GrepHandle       any // opaque handle forwarded to the Parser, never inspected here
}

// ProcessResult is the transitive closure ProcessAsync computed: exclusive
// of modular headers' transitive tails, exclusive of illegal outputs
// (spec.md §6).
type ProcessResult struct {
	Includes []Artifact
}
