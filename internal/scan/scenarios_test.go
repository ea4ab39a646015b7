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

package scan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EngFlow/ccscan/internal/artifact"
	"github.com/EngFlow/ccscan/internal/hints"
	"github.com/EngFlow/ccscan/internal/parser"
	"github.com/EngFlow/ccscan/internal/pathexists"
	"github.com/EngFlow/ccscan/internal/poolrun"
	"github.com/EngFlow/ccscan/internal/scan"
)

// newTestScanner wires the real reference components (artifact.Factory,
// pathexists.Cache, parser.Textual) against a temp exec root, matching the
// repository's t.TempDir()-based fixture convention for filesystem-backed
// components.
func newTestScanner(t *testing.T, execRoot string, quotePaths, anglePaths []string, strategy scan.Strategy, h scan.Hints) *scan.Scanner {
	t.Helper()
	return scan.NewScanner(scan.Config{
		Layout:     scan.Layout{ExecRoot: execRoot, OutputPrefix: "bazel-out", IncRoot: "bazel-out/inc"},
		SearchPath: scan.SearchPath{QuoteList: quotePaths, AngleList: anglePaths},
		Artifacts:  artifact.NewFactory(execRoot, ""),
		PathExists: pathexists.New(execRoot),
		Parser:     parser.Textual{ExecRoot: execRoot},
		Hints:      h,
		ParseCache: scan.NewFileParseCache(),
		Pool:       poolrun.New(4),
		Strategy:   strategy,
	})
}

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func execPaths(arts []scan.Artifact) []string {
	out := make([]string, len(arts))
	for i, a := range arts {
		out[i] = a.ExecPath()
	}
	return out
}

func forEachStrategy(t *testing.T, run func(t *testing.T, strategy scan.Strategy)) {
	t.Run("ForkJoin", func(t *testing.T) { run(t, scan.ForkJoin) })
	t.Run("FutureChaining", func(t *testing.T) { run(t, scan.FutureChaining) })
}

// TestScenario_S1_QuoteHitOnFirstPath: a.cc lives where relative resolution
// cannot find lib/x.h, forcing the path-search resolver to find it on the
// first quote-list entry (the exec root itself).
func TestScenario_S1_QuoteHitOnFirstPath(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, strategy scan.Strategy) {
		root := t.TempDir()
		writeFile(t, root, "sub/a.cc", `#include "lib/x.h"`+"\n")
		writeFile(t, root, "lib/x.h", "// header\n")

		s := newTestScanner(t, root, []string{"", "gen"}, []string{"gen"}, strategy, nil)
		a := artifact.New("sub/a.cc", "sub/a.cc", "", true)

		result, err := s.ProcessAsync(context.Background(), scan.ProcessRequest{
			Sources: []scan.Artifact{a},
		})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"sub/a.cc", "lib/x.h"}, execPaths(result.Includes))
	})
}

// TestScenario_S2_IncludeNextSkipsEarlierPath: a.cc includes <v.h>, found in
// inc1; inc1/v.h's own #include_next <v.h> must skip inc1 and resolve in
// inc2.
func TestScenario_S2_IncludeNextSkipsEarlierPath(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, strategy scan.Strategy) {
		root := t.TempDir()
		writeFile(t, root, "a.cc", "#include <v.h>\n")
		writeFile(t, root, "inc1/v.h", "#include_next <v.h>\n")
		writeFile(t, root, "inc2/v.h", "// second v.h\n")

		s := newTestScanner(t, root, []string{"inc1", "inc2"}, []string{"inc1", "inc2"}, strategy, nil)
		a := artifact.New("a.cc", "a.cc", "", true)

		result, err := s.ProcessAsync(context.Background(), scan.ProcessRequest{
			Sources: []scan.Artifact{a},
		})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"a.cc", "inc1/v.h", "inc2/v.h"}, execPaths(result.Includes))
	})
}

// TestScenario_S3_IllegalOutputTainting: h.h exists under the output
// prefix but is not declared legal; it must not be returned. The
// resolution cache is unexported, so invariant 5 is not asserted here.
func TestScenario_S3_IllegalOutputTainting(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, strategy scan.Strategy) {
		root := t.TempDir()
		writeFile(t, root, "a.cc", `#include "h.h"`+"\n")
		writeFile(t, root, "bazel-out/gen/h.h", "// illegal output\n")

		s := newTestScanner(t, root, []string{"", "bazel-out/gen"}, []string{"bazel-out/gen"}, strategy, nil)
		a := artifact.New("a.cc", "a.cc", "", true)

		result, err := s.ProcessAsync(context.Background(), scan.ProcessRequest{
			Sources: []scan.Artifact{a},
		})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"a.cc"}, execPaths(result.Includes))
	})
}

// TestScenario_S7_RelativeFirstBeatsSearchPath: sub/a.cc includes "x.h", which
// sits right next to it (sub/x.h) but NOT on any configured search-path
// directory. Only relative-first resolution (invariant 8) can find it; a
// scanner that resolved purely via search path would miss it entirely.
func TestScenario_S7_RelativeFirstBeatsSearchPath(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, strategy scan.Strategy) {
		root := t.TempDir()
		writeFile(t, root, "sub/a.cc", `#include "x.h"`+"\n")
		writeFile(t, root, "sub/x.h", "// sibling header\n")
		writeFile(t, root, "other/x.h", "// decoy on the search path\n")

		s := newTestScanner(t, root, []string{"other"}, nil, strategy, nil)
		a := artifact.New("sub/a.cc", "sub/a.cc", "", true)

		result, err := s.ProcessAsync(context.Background(), scan.ProcessRequest{
			Sources: []scan.Artifact{a},
		})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"sub/a.cc", "sub/x.h"}, execPaths(result.Includes))
	})
}

// TestScenario_S4_ModularCutoff: a.cc includes mod.h (a modular header),
// which includes deep.h; deep.h must not appear in the result.
func TestScenario_S4_ModularCutoff(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.cc", `#include "mod.h"`+"\n")
	writeFile(t, root, "mod.h", `#include "deep.h"`+"\n")
	writeFile(t, root, "deep.h", "// deep\n")

	s := newTestScanner(t, root, []string{""}, []string{""}, scan.ForkJoin, nil)
	a := artifact.New("a.cc", "a.cc", "", true)

	result, err := s.ProcessAsync(context.Background(), scan.ProcessRequest{
		Sources:    []scan.Artifact{a},
		HeaderData: scan.HeaderData{ModularHeaders: map[string]struct{}{"mod.h": {}}},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.cc", "mod.h"}, execPaths(result.Includes))
}

// TestScenario_S5_HintFrontier: file-level hints x.h -> {y.h}, y.h -> {z.h}
// must expand to a fixed point.
func TestScenario_S5_HintFrontier(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.cc", `#include "x.h"`+"\n")
	writeFile(t, root, "x.h", "// x\n")
	writeFile(t, root, "y.h", "// y\n")
	writeFile(t, root, "z.h", "// z\n")

	idx := hints.Index{FileHints: map[string][]string{
		"x.h": {"y.h"},
		"y.h": {"z.h"},
	}}
	factory := artifact.NewFactory(root, "")
	h := hints.New(idx, factory)

	s := newTestScanner(t, root, []string{""}, []string{""}, scan.ForkJoin, h)
	a := artifact.New("a.cc", "a.cc", "", true)

	result, err := s.ProcessAsync(context.Background(), scan.ProcessRequest{
		Sources: []scan.Artifact{a},
	})
	require.NoError(t, err)
	got := execPaths(result.Includes)
	require.Contains(t, got, "a.cc")
	require.Contains(t, got, "x.h")
	require.Contains(t, got, "y.h")
	require.Contains(t, got, "z.h")
}

// missingDepHints is a scan.Hints with no hints of its own; scenario S6
// pairs it with alwaysMissingEnv, which supplies the missing-dependency
// signal the scanner checks after the path-level hint call.
type missingDepHints struct{}

func (missingDepHints) GetPathLevelHintedInclusions(quotePaths []string, env scan.ActionEnv) []scan.Artifact {
	return nil
}
func (missingDepHints) GetFileLevelHintedInclusionsLegacy(a scan.Artifact) []scan.Artifact {
	return nil
}

type alwaysMissingEnv struct{}

func (alwaysMissingEnv) ValuesMissing() bool { return true }

// TestScenario_S6_MissingDep: a MissingDep signal from the path-level hint
// call fails the whole invocation.
func TestScenario_S6_MissingDep(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.cc", "\n")

	s := newTestScanner(t, root, []string{""}, []string{""}, scan.ForkJoin, missingDepHints{})
	a := artifact.New("a.cc", "a.cc", "", true)

	_, err := s.ProcessAsync(context.Background(), scan.ProcessRequest{
		Sources:    []scan.Artifact{a},
		ActionMeta: alwaysMissingEnv{},
	})
	require.Error(t, err)
	var scanErr *scan.Error
	require.ErrorAs(t, err, &scanErr)
	require.Equal(t, scan.MissingDep, scanErr.Kind)
}
