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

// Command ccscan is a standalone CLI front-end for the transitive C/C++
// include scanner implemented by internal/scan: given a set of translation
// units and a search path, it prints the closed set of headers that
// participate in their compilation.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/label"

	"github.com/EngFlow/ccscan/internal/artifact"
	"github.com/EngFlow/ccscan/internal/cachefile"
	"github.com/EngFlow/ccscan/internal/hints"
	"github.com/EngFlow/ccscan/internal/parser"
	"github.com/EngFlow/ccscan/internal/pathexists"
	"github.com/EngFlow/ccscan/internal/poolrun"
	"github.com/EngFlow/ccscan/internal/scan"
)

// repeatedFlag accumulates every occurrence of a flag.Value-based flag, for
// -iquote/-I/-isystem/-cmdline_include which can each be repeated.
type repeatedFlag []string

func (f *repeatedFlag) String() string { return strings.Join(*f, ",") }
func (f *repeatedFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var (
		execRoot       = flag.String("exec_root", ".", "Root directory all exec-paths are relative to")
		outputPrefix   = flag.String("output_prefix", "bazel-out", "Prefix under which generated outputs live")
		incRoot        = flag.String("inc_root", "", "Prefix of the inc-symlink tree, if any")
		strategy       = flag.String("strategy", "forkjoin", "Traversal strategy: forkjoin or future")
		poolSize       = flag.Int64("pool_size", 8, "Bounded pool size shared by the traversal")
		legalOutputs   = flag.String("legal_outputs", "", "Path to a JSON manifest of exec-path -> producing label")
		hintsPath      = flag.String("hints", "", "Path to a JSON hint index (internal/hints.Index)")
		cacheFile      = flag.String("cache_file", "", "Path to an xz-compressed parse-cache snapshot to warm-start from and save back to")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
		compareWithCxx = flag.String("compare_with_cxx_m", "", "If set, also run this compiler binary with -M and log any header the own parser missed")
	)
	var iquote, iDirs, isystem, cmdlineIncludes repeatedFlag
	flag.Var(&iquote, "iquote", "Quote-only (-iquote) search directory; repeatable")
	flag.Var(&iDirs, "I", "Search directory, quote and angle; repeatable")
	flag.Var(&isystem, "isystem", "System search directory, angle only; repeatable")
	flag.Var(&cmdlineIncludes, "cmdline_include", "Forced -include style header, relative to the main source; repeatable")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		log.Fatalf("ccscan requires at least one source file argument")
	}

	searchPath := scan.SearchPath{
		QuoteList: append(append([]string{}, iquote...), append(append([]string{}, iDirs...), isystem...)...),
		AngleList: append(append([]string{}, iDirs...), isystem...),
	}

	factory := artifact.NewFactory(*execRoot, "")
	pathExists := pathexists.New(*execRoot)
	pool := poolrun.New(*poolSize)

	parseCache := scan.NewFileParseCache()
	if *cacheFile != "" {
		if err := cachefile.Load(*cacheFile, parseCache); err != nil {
			log.Printf("ccscan: warm-start cache load failed, continuing cold: %v", err)
		}
	}

	var hintsImpl scan.Hints
	if *hintsPath != "" {
		h, err := hints.Load(*hintsPath, factory)
		if err != nil {
			log.Fatalf("ccscan: %v", err)
		}
		hintsImpl = h
	}

	legal, err := loadLegalOutputs(*legalOutputs)
	if err != nil {
		log.Fatalf("ccscan: %v", err)
	}

	strategyKind := scan.ForkJoin
	if *strategy == "future" {
		strategyKind = scan.FutureChaining
	}

	s := scan.NewScanner(scan.Config{
		Layout:     scan.Layout{ExecRoot: *execRoot, OutputPrefix: *outputPrefix, IncRoot: *incRoot},
		SearchPath: searchPath,
		Artifacts:  factory,
		PathExists: pathExists,
		Parser:     parser.Textual{ExecRoot: *execRoot},
		Hints:      hintsImpl,
		ParseCache: parseCache,
		Pool:       pool,
		Strategy:   strategyKind,
	})

	var sources []scan.Artifact
	for _, arg := range flag.Args() {
		sources = append(sources, artifact.New(arg, arg, "", true))
	}
	var mainSource scan.Artifact
	if len(sources) > 0 {
		mainSource = sources[0]
	}

	result, err := s.ProcessAsync(context.Background(), scan.ProcessRequest{
		MainSource:      mainSource,
		Sources:         sources,
		HeaderData:      scan.HeaderData{PathToLegalOutputArtifact: legal},
		CmdlineIncludes: cmdlineIncludes,
		ActionMeta:      scan.NoMissingDeps,
	})
	if err != nil {
		log.Fatalf("ccscan: scan failed: %v", err)
	}

	if *verbose {
		log.Printf("ccscan: found %d headers across %d sources", len(result.Includes), len(sources))
	}

	for _, a := range result.Includes {
		fmt.Println(a.ExecPath())
	}

	if *compareWithCxx != "" && len(sources) > 0 {
		compareWithCxxM(*compareWithCxx, sources[0], searchPath, result.Includes)
	}

	if *cacheFile != "" {
		if err := cachefile.Save(*cacheFile, parseCache); err != nil {
			log.Printf("ccscan: failed to save warm-start cache: %v", err)
		}
	}
}

// loadLegalOutputs parses a JSON manifest of exec-path -> producing label
// (each value validated with label.Parse, per the reference corpus's own
// practice of keying header indexes by label.Label) into a scan.LegalOutputs
// map of artifacts.
func loadLegalOutputs(path string) (scan.LegalOutputs, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading legal outputs manifest %s: %w", path, err)
	}
	var manifest map[string]string
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing legal outputs manifest %s: %w", path, err)
	}
	out := make(scan.LegalOutputs, len(manifest))
	for execPath, lbl := range manifest {
		if _, err := label.Parse(lbl); err != nil {
			return nil, fmt.Errorf("legal outputs manifest %s: entry %q has invalid label %q: %w", path, execPath, lbl, err)
		}
		out[execPath] = artifact.New(execPath, execPath, "", false)
	}
	return out, nil
}

// compareWithCxxM runs compiler -M against mainSource and logs (never fails
// the scan on) any header the own parser missed, a developer-facing
// diagnostic grounded on the reference corpus's CompareOwnIncludesParserAndCxxM.
func compareWithCxxM(compiler string, mainSource scan.Artifact, sp scan.SearchPath, found []scan.Artifact) {
	args := []string{"-M", mainSource.ExecPath()}
	for _, d := range sp.QuoteList {
		args = append(args, "-iquote", d)
	}
	for _, d := range sp.AngleList {
		args = append(args, "-I", d)
	}

	var out bytes.Buffer
	cmd := exec.Command(compiler, args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		log.Printf("ccscan: -compare_with_cxx_m: running %s failed: %v", compiler, err)
		return
	}

	seen := make(map[string]struct{}, len(found))
	for _, a := range found {
		seen[a.ExecPath()] = struct{}{}
	}
	for _, tok := range strings.Fields(strings.ReplaceAll(out.String(), "\\\n", " ")) {
		if tok == mainSource.ExecPath()+":" || strings.HasSuffix(tok, ".o:") {
			continue
		}
		if _, ok := seen[tok]; !ok {
			log.Printf("ccscan: -compare_with_cxx_m: own parser missed %s", tok)
		}
	}
}
