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

import "math/rand"

// shuffleSeed is part of the contract, not an implementation detail: the
// shuffle only exists to decorrelate fan-out hotspots across siblings, never
// to hide ordering information a caller should rely on (invariant 4,
// determinism of the result set is independent of thread interleaving; only
// fan-out order varies, and it varies identically every run).
const shuffleSeed = 0x5ca1ab1e

// shuffledIndices returns a deterministically shuffled permutation of
// [0, n), seeded the same way on every call so fan-out order is reproducible
// across runs without needing to be meaningful.
func shuffledIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rand.New(rand.NewSource(shuffleSeed)).Shuffle(n, func(i, j int) {
		idx[i], idx[j] = idx[j], idx[i]
	})
	return idx
}
