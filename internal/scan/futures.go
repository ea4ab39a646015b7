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

// future is a one-shot, write-once promise. It exists because the
// future-chaining traversal strategy (spec.md §4.6) needs every stage to
// return something composable with transformAsync-style continuations, and
// the file-parse cache needs a single in-flight computation that many
// goroutines can await without re-running it.
//
// Unlike a map keyed by exception-aware insert-if-absent (the source this
// scanner is modeled on used that, see spec.md §9), a failed future here is
// just a *future[T] whose err field is set; there is nothing to unwrap at a
// quiescence barrier.
type future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *future[T] {
	return &future[T]{done: make(chan struct{})}
}

// resolved returns an already-completed future, useful for wrapping a
// synchronously available value in the same type the async path returns.
func resolved[T any](val T, err error) *future[T] {
	f := newFuture[T]()
	f.set(val, err)
	return f
}

// set completes the future. Calling it twice is a programming error.
func (f *future[T]) set(val T, err error) {
	f.val, f.err = val, err
	close(f.done)
}

// await blocks until the future is resolved, or ctx is cancelled first.
func (f *future[T]) await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}
