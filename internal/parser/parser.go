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

// Package parser is the reference scan.Parser: a textual, non-preprocessing
// extractor of #include / #include_next directives. It never evaluates
// conditionals or expands macros by default (spec.md §1 non-goals); an
// opt-in CollectReachable mode approximates conditional evaluation for
// callers that explicitly ask for it, but Scanner.ProcessAsync never invokes
// it implicitly.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/EngFlow/ccscan/internal/scan"
)

// Textual is the default, flat Parser: every #include / #include_next
// directive it finds textually is reported, whether or not a real
// preprocessor would have reached it.
//
// ExecRoot is joined onto an artifact's exec-path before reading it from
// disk, since Artifact.ExecPath is relative to the exec root, not the
// process's working directory; leave it empty when the two coincide.
type Textual struct {
	ExecRoot string
}

// ExtractInclusions implements scan.Parser. grepHandle is unused: Textual
// always reads the file itself rather than consulting a pre-built index.
func (t Textual) ExtractInclusions(ctx context.Context, file scan.Artifact, treatAsGenerated bool, grepHandle any, spawnScanner scan.SpawnScannerSupplier) ([]scan.Inclusion, error) {
	if err := ctx.Err(); err != nil {
		return nil, scan.NewInterruptedError("parse", file.ExecPath())
	}

	if treatAsGenerated {
		scanner, err := spawnScanner()
		if err != nil {
			return nil, err
		}
		if scanner == nil {
			return nil, fmt.Errorf("ccscan: no remote scanner available for generated file %s", file.ExecPath())
		}
		out, err := scanner.Scan(ctx, file)
		if err != nil {
			return nil, &scan.Error{Kind: scan.ExecError, Operation: "spawn-scan", Source: file.ExecPath(), Err: err}
		}
		return CollectIncludeDirectives(out), nil
	}

	data, err := os.ReadFile(t.abs(file.ExecPath()))
	if err != nil {
		return nil, &scan.Error{Kind: scan.IOError, Operation: "parse", Source: file.ExecPath(), Err: err}
	}
	return CollectIncludeDirectives(data), nil
}

func (t Textual) abs(p string) string {
	if t.ExecRoot == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(t.ExecRoot, filepath.FromSlash(p))
}

// CollectIncludeDirectives finds every #include / #include_next directive in
// buffer, in order of appearance. C and C++ style comments are respected: a
// directive spelled out inside one is not reported. Adapted from the
// comment-aware bracket-scanning state machine the reference corpus's own
// includes parser uses (see DESIGN.md).
func CollectIncludeDirectives(buffer []byte) []scan.Inclusion {
	const (
		stateNone = iota
		stateAfterHash
		stateAfterInclude
		stateInsideQuote
		stateInsideAngle
	)

	var out []scan.Inclusion
	state := stateNone
	isNext := false
	start := 0
	size := len(buffer)

	for offset := 0; offset < size; offset++ {
		b := buffer[offset]

		switch state {
		case stateNone:
			switch b {
			case '/':
				if offset+1 >= size {
					continue
				}
				switch buffer[offset+1] {
				case '/':
					nl := bytes.IndexByte(buffer[offset:size], '\n')
					if nl == -1 {
						offset = size
					} else {
						offset += nl
					}
				case '*':
					end := bytes.Index(buffer[offset+2:size], []byte("*/"))
					if end == -1 {
						offset = size
					} else {
						offset += 2 + end + 1
					}
				}
			case '#':
				state = stateAfterHash
			}

		case stateAfterHash:
			switch {
			case b == ' ' || b == '\t':
				// keep skipping whitespace between '#' and the directive name
			case hasPrefixAt(buffer, offset, "include_next"):
				isNext = true
				offset += len("include_next") - 1
				state = stateAfterInclude
			case hasPrefixAt(buffer, offset, "include"):
				isNext = false
				offset += len("include") - 1
				state = stateAfterInclude
			default:
				state = stateNone
			}

		case stateAfterInclude:
			switch {
			case b == ' ' || b == '\t':
			case b == '<':
				start = offset + 1
				state = stateInsideAngle
			case b == '"':
				start = offset + 1
				state = stateInsideQuote
			default:
				state = stateNone
			}

		case stateInsideAngle:
			switch b {
			case '\n':
				state = stateNone
			case '>':
				out = append(out, newInclusion(buffer[start:offset], false, isNext))
				state = stateNone
			}

		case stateInsideQuote:
			switch b {
			case '\n':
				state = stateNone
			case '"':
				out = append(out, newInclusion(buffer[start:offset], true, isNext))
				state = stateNone
			}
		}
	}
	return out
}

func newInclusion(raw []byte, isQuote, isNext bool) scan.Inclusion {
	kind := scan.Angle
	switch {
	case isQuote && isNext:
		kind = scan.NextQuote
	case isQuote:
		kind = scan.Quote
	case isNext:
		kind = scan.NextAngle
	}
	return scan.Inclusion{Kind: kind, Path: string(raw)}
}

func hasPrefixAt(buffer []byte, offset int, word string) bool {
	end := offset + len(word)
	if end > len(buffer) {
		return false
	}
	if string(buffer[offset:end]) != word {
		return false
	}
	// require the directive name not to be a prefix of a longer identifier
	// (e.g. "includeFoo" is not "include").
	if end < len(buffer) {
		c := buffer[end]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			return false
		}
	}
	return true
}
