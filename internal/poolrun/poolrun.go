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

// Package poolrun is the reference scan.Pool implementation: a bounded
// worker-slot pool both traversal strategies draw from (spec.md §5,
// "Parallel threads drawn from a shared, externally provided bounded
// pool").
package poolrun

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool is a fixed-size worker-slot pool backed by semaphore.Weighted.
type Pool struct {
	sem *semaphore.Weighted
}

// New builds a Pool with size concurrent slots.
func New(size int64) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(size)}
}

// Acquire blocks until a slot is free or ctx is done (scan.Pool).
func (p *Pool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// Release returns a slot to the pool (scan.Pool).
func (p *Pool) Release() {
	p.sem.Release(1)
}
