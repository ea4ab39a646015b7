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
	"sync"
)

// childTask is one recursive findAndProcess call queued by process. parsed
// reports whether the child's own inclusions are already sitting in the
// parse cache: the fork/join strategy uses this to run such work inline
// instead of spawning a goroutine for it (spec.md §4.6, "Dual scheduling
// strategies").
type childTask struct {
	parsed bool
	run    func(ctx context.Context) error
}

// engine is the part of the traversal that differs between the fork/join
// and future-chaining strategies; everything else (resolution, caching,
// dedup) is identical and lives directly on *invocation.
type engine interface {
	// runAll dispatches tasks and blocks until all of them (and anything
	// they themselves dispatched) have quiesced, returning the first error
	// observed, if any (fail-fast, but never abandoning in-flight work —
	// spec.md §4.6 "Failure semantics").
	runAll(ctx context.Context, tasks []childTask) error
}

// invocation is the per-ProcessAsync-call state (spec.md §3, "visited and
// visitedInclusions sets are per invocation"). A Scanner has none of this;
// it is constructed fresh for every ProcessAsync call and discarded after.
type invocation struct {
	s *Scanner

	legal          LegalOutputs
	modularHeaders map[string]struct{}
	env            ActionEnv
	grepHandle     any

	visited           *visitedArtifacts
	visitedInclusions *concurrentSet[ArtifactWithInclusionContext]

	engine engine
}

// visitedArtifacts accumulates the distinct artifacts that make up
// includesOut, guarding against the same exec-path being added twice while
// preserving first-seen order (spec.md §5, "add returns whether the element
// was novel").
type visitedArtifacts struct {
	mu      sync.Mutex
	byPath  map[string]struct{}
	ordered []Artifact
}

func newVisitedArtifacts() *visitedArtifacts {
	return &visitedArtifacts{byPath: make(map[string]struct{})}
}

func (v *visitedArtifacts) addIfAbsent(a Artifact) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := a.ExecPath()
	if _, ok := v.byPath[key]; ok {
		return false
	}
	v.byPath[key] = struct{}{}
	v.ordered = append(v.ordered, a)
	return true
}

func (v *visitedArtifacts) contains(execPath string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.byPath[execPath]
	return ok
}

func (v *visitedArtifacts) snapshot() []Artifact {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Artifact, len(v.ordered))
	copy(out, v.ordered)
	return out
}

// ProcessAsync is the scanner's public operation (spec.md §6). On success,
// the returned ProcessResult.Includes is the transitive closure of
// discovered headers: exclusive of modular headers' transitive tails,
// exclusive of illegal outputs.
func (s *Scanner) ProcessAsync(ctx context.Context, req ProcessRequest) (ProcessResult, error) {
	env := req.ActionMeta
	if env == nil {
		env = NoMissingDeps
	}

	inv := &invocation{
		s:                 s,
		legal:             req.HeaderData.PathToLegalOutputArtifact,
		modularHeaders:    req.HeaderData.ModularHeaders,
		env:               env,
		grepHandle:        req.GrepHandle,
		visited:           newVisitedArtifacts(),
		visitedInclusions: newConcurrentSet[ArtifactWithInclusionContext](),
	}
	switch s.strategy {
	case FutureChaining:
		inv.engine = &futureChainEngine{}
	default:
		inv.engine = &forkJoinEngine{}
	}

	if inv.legal == nil {
		inv.legal = LegalOutputs{}
	}
	if inv.modularHeaders == nil {
		inv.modularHeaders = map[string]struct{}{}
	}

	// Step 1: path-level hints are computed up front because a MissingDep
	// signal here must fail the whole invocation before anything else is
	// populated (spec.md §4.6 step 1, scenario S6).
	var pathHints []Artifact
	if s.hints != nil {
		pathHints = s.hints.GetPathLevelHintedInclusions(s.searchPath.QuoteList, env)
		if env.ValuesMissing() {
			return ProcessResult{}, NewMissingDepError("getPathLevelHintedInclusions")
		}
	}

	// Step 2: -include-style forced includes against the main source.
	if req.MainSource != nil && len(req.CmdlineIncludes) > 0 {
		tasks := make([]childTask, 0, len(req.CmdlineIncludes))
		for _, cmdInc := range req.CmdlineIncludes {
			inc := Inclusion{Kind: Quote, Path: cmdInc}
			iwc := InclusionWithContext{Inclusion: inc, ContextKind: ContextNone, ContextPathPos: -1}
			tasks = append(tasks, inv.newFindAndProcessTask(iwc, req.MainSource))
		}
		if err := inv.engine.runAll(ctx, tasks); err != nil {
			return ProcessResult{}, err
		}
	}

	// Step 3: bulk-process the top-level sources.
	if err := inv.bulkProcess(ctx, req.Sources); err != nil {
		return ProcessResult{}, err
	}

	// Step 4: hint-driven expansion, only if a Hints collaborator is wired.
	if s.hints != nil {
		if err := inv.bulkProcess(ctx, pathHints); err != nil {
			return ProcessResult{}, err
		}
		if err := inv.runHintFrontier(ctx, req.Sources); err != nil {
			return ProcessResult{}, err
		}
	}

	return ProcessResult{Includes: inv.visited.snapshot()}, nil
}

// bulkProcess processes a list of top-level artifacts (contextPathPos = -1,
// contextKind = none, spec.md §4.6 step 3) and awaits their quiescence.
func (inv *invocation) bulkProcess(ctx context.Context, sources []Artifact) error {
	if len(sources) == 0 {
		return nil
	}
	tasks := make([]childTask, 0, len(sources))
	for _, src := range sources {
		src := src
		// See spec.md §9(a): bulk processing adds the source to `visited`
		// before its inclusion-context triple is checked against
		// visitedInclusions. This can over-prune when the same file shows
		// up both as a top-level source and as an included header; the
		// behavior is preserved deliberately (see DESIGN.md).
		inv.visited.addIfAbsent(src)
		parsed := inv.s.parseCache.hasEntry(src.ExecPath())
		tasks = append(tasks, childTask{
			parsed: parsed,
			run: func(ctx context.Context) error {
				return inv.process(ctx, src, -1, ContextNone)
			},
		})
	}
	return inv.engine.runAll(ctx, tasks)
}

// process is the per-file processing step (spec.md §4.6, "Per-file
// processing"): parse (or reuse the memoized parse), shuffle the resulting
// inclusions for fan-out decorrelation, and recurse on each one.
func (inv *invocation) process(ctx context.Context, source Artifact, ctxPos int, ctxKind ContextKind) error {
	if err := ctx.Err(); err != nil {
		return NewInterruptedError("process", source.ExecPath())
	}

	generated := inv.s.layout.IsRealOutputFile(source.ExecPath())
	inclusions, err := inv.s.parseCache.getOrParse(ctx, source, func() ([]Inclusion, error) {
		// The bounded pool gates only this leaf parse, never the recursive
		// fan-out below: a slot held across runAll's quiescence join would
		// deadlock any include chain deeper than half the pool size, since
		// semaphore.Weighted.Acquire (unlike ForkJoinPool.join) does not
		// participate in executing other queued work while it blocks.
		if inv.s.pool != nil {
			if err := inv.s.pool.Acquire(ctx); err != nil {
				return nil, NewInterruptedError("pool-acquire", source.ExecPath())
			}
			defer inv.s.pool.Release()
		}
		return inv.s.parser.ExtractInclusions(ctx, source, generated, inv.grepHandle, inv.noRemoteScanner)
	})
	if err != nil {
		return err
	}

	order := shuffledIndices(len(inclusions))
	tasks := make([]childTask, 0, len(inclusions))
	for _, idx := range order {
		inc := inclusions[idx]
		iwc := InclusionWithContext{Inclusion: inc, ContextKind: ctxKind, ContextPathPos: ctxPos}
		tasks = append(tasks, inv.newFindAndProcessTask(iwc, source))
	}
	return inv.engine.runAll(ctx, tasks)
}

// noRemoteScanner is the SpawnScannerSupplier used when no remote scanner is
// configured; Parser implementations that don't need one for a given file
// never call it.
func (inv *invocation) noRemoteScanner() (RemoteScanner, error) {
	return nil, NewMissingDepError("spawnScanner")
}

// newFindAndProcessTask builds the recursive task findAndProcess dispatches
// for a single inclusion. It is always marked not parsed, since the target
// is unknown until resolution runs, so the fork/join engine always gives it
// its own goroutine.
func (inv *invocation) newFindAndProcessTask(iwc InclusionWithContext, source Artifact) childTask {
	return childTask{
		parsed: false, // resolution hasn't happened yet; conservatively dispatch
		run: func(ctx context.Context) error {
			return inv.findAndProcess(ctx, iwc, source)
		},
	}
}

// findAndProcess resolves a single inclusion and, if it names a novel file,
// recurses into it (spec.md §4.6, "findAndProcess").
func (inv *invocation) findAndProcess(ctx context.Context, iwc InclusionWithContext, source Artifact) error {
	if err := ctx.Err(); err != nil {
		return NewInterruptedError("findAndProcess", source.ExecPath())
	}

	s := inv.s

	var file Artifact
	ctxPos := 0
	ctxKind := ContextNone
	if art, ok := s.resolveRelative(source, iwc.Inclusion, inv.legal); ok {
		file = art
	} else {
		result := s.resCache.lookup(s, iwc, inv.legal)
		file = result.Artifact
		ctxPos = result.IncludePosition
		// The new context a found file is assigned mirrors which list
		// locateOnPaths actually searched (it must, or that file's own
		// #include_next could never continue the right list): a "next"
		// inclusion continues the including file's own context unchanged,
		// while a fresh inclusion's context is its own bracket style — never
		// inherited, since top-level sources carry no meaningful bracket
		// style of their own to propagate (searchpath.go applies this same
		// fresh-vs-next distinction when picking which list to search).
		if iwc.Inclusion.Kind.IsNext() {
			ctxKind = iwc.ContextKind
		} else if iwc.Inclusion.Kind.IsQuote() {
			ctxKind = ContextQuote
		} else {
			ctxKind = ContextAngle
		}
	}

	if file == nil || s.layout.IsIllegalOutputFile(file.ExecPath(), inv.legal) {
		return nil
	}

	key := ArtifactWithInclusionContext{ExecPath: file.ExecPath(), ContextKind: ctxKind, ContextPathPos: ctxPos}
	if !inv.visitedInclusions.AddIfAbsent(key) {
		return nil
	}

	inv.visited.addIfAbsent(file)

	if _, ok := inv.modularHeaders[file.ExecPath()]; ok {
		return nil
	}

	parsed := s.parseCache.hasEntry(file.ExecPath())
	task := childTask{
		parsed: parsed,
		run: func(ctx context.Context) error {
			return inv.process(ctx, file, ctxPos, ctxKind)
		},
	}
	return inv.engine.runAll(ctx, []childTask{task})
}
