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
	"sync"

	"github.com/EngFlow/ccscan/internal/collections"
)

// concurrentSet is collections.Set guarded by a mutex. AddIfAbsent's return value is
// the sole gate against double-traversal (spec.md §5): callers must treat a
// false return as "someone else already owns this element".
type concurrentSet[T comparable] struct {
	mu  sync.Mutex
	set collections.Set[T]
}

func newConcurrentSet[T comparable]() *concurrentSet[T] {
	return &concurrentSet[T]{set: make(collections.Set[T])}
}

// AddIfAbsent inserts elem and reports whether it was novel.
func (s *concurrentSet[T]) AddIfAbsent(elem T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set.Contains(elem) {
		return false
	}
	s.set.Add(elem)
	return true
}

func (s *concurrentSet[T]) Contains(elem T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Contains(elem)
}

// Snapshot returns a (non-aliased) copy of the current contents.
func (s *concurrentSet[T]) Snapshot() collections.Set[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(collections.Set[T], len(s.set))
	out.Join(s.set)
	return out
}

func (s *concurrentSet[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.set)
}
