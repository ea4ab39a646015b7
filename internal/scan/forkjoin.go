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

	"golang.org/x/sync/errgroup"
)

// forkJoinEngine is the blocking traversal strategy (spec.md §4.6): work on
// a not-yet-parsed file is dispatched to its own goroutine; work on an
// already-parsed file runs inline, since the scheduling overhead would
// exceed the latency it saves. runAll is the sync() quiescence barrier:
// it blocks until every dispatched task (and anything those tasks
// themselves dispatched, transitively) has completed.
//
// Dispatch here never touches the bounded pool: a slot held by a goroutine
// that is itself blocked in a recursive runAll would deadlock any include
// chain deeper than about half the pool size, since semaphore.Weighted has
// no work-participating join the way ForkJoinPool.join() does. The pool
// instead gates only the leaf parse (traversal.go's process), which is the
// actual CPU/IO work being bounded; fan-out itself is cheap, unbounded
// goroutines.
//
// A plain errgroup.Group (not errgroup.WithContext) is deliberate: its Wait
// reports the first error but never cancels a derived context, so sibling
// tasks already in flight run to completion instead of being abandoned
// (spec.md §5, "Failure semantics").
type forkJoinEngine struct{}

func (e *forkJoinEngine) runAll(ctx context.Context, tasks []childTask) error {
	var group errgroup.Group
	var inlineErr error
	for _, t := range tasks {
		t := t
		if t.parsed {
			// Run inline, on the calling goroutine, rather than paying
			// goroutine-spawn overhead for work that's already memoized.
			// Still runs to completion alongside every dispatched task
			// below before runAll reports an error.
			if err := t.run(ctx); err != nil && inlineErr == nil {
				inlineErr = err
			}
			continue
		}
		group.Go(func() error { return t.run(ctx) })
	}
	if err := group.Wait(); err != nil {
		return err
	}
	return inlineErr
}
