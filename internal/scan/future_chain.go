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

// futureChainEngine is the future-chaining traversal strategy (spec.md
// §4.6): every task, parsed or not, is wrapped in a future dispatched onto
// its own goroutine, and runAll is the point where those futures are
// composed (the "transformAsync"-style conjunction). It shares every
// resolution and caching rule with forkJoinEngine; the only difference is
// representation.
//
// Dispatch never acquires the bounded pool itself, for the same reason
// forkJoinEngine's doesn't (see its doc comment): a slot held by a future
// whose own runAll recurses would deadlock on any include chain deeper
// than about half the pool size. The pool instead gates only the leaf
// parse in traversal.go's process.
type futureChainEngine struct{}

func (e *futureChainEngine) runAll(ctx context.Context, tasks []childTask) error {
	futures := make([]*future[struct{}], len(tasks))
	for i, t := range tasks {
		t := t
		f := newFuture[struct{}]()
		futures[i] = f

		go func() {
			err := t.run(ctx)
			f.set(struct{}{}, err)
		}()
	}

	// Conjunction: await every future so no worker outlives this call
	// (spec.md §4.6 "Failure semantics"), and surface the first error.
	var firstErr error
	// Waits on done directly rather than await(ctx): on cancellation the
	// workers notice ctx themselves and finish, and are still waited for.
	for _, f := range futures {
		<-f.done
		if f.err != nil && firstErr == nil {
			firstErr = f.err
		}
	}
	return firstErr
}
