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

package parser

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/EngFlow/ccscan/internal/scan"
)

// CollectReachable is an optional, macro-aware extraction mode: given an
// initial set of defined macro names, it tracks #define / #undef / #ifdef /
// #ifndef / #if defined(X) / #else / #endif nesting and only reports
// #include directives inside a branch it judges reachable.
//
// It is never called by Scanner.ProcessAsync: the scanner's default mode is
// the flat, condition-blind CollectIncludeDirectives (spec.md §1 non-goals).
// CollectReachable exists for callers that explicitly want a closer
// approximation of preprocessor conditionals and accept that it cannot
// evaluate arbitrary expressions (only defined(X)/!defined(X) and bare
// macro names).
func CollectReachable(buffer []byte, initialMacros map[string]bool) []scan.Inclusion {
	macros := make(map[string]bool, len(initialMacros))
	for k, v := range initialMacros {
		macros[k] = v
	}

	var out []scan.Inclusion
	var stack []branchState

	scanner := bufio.NewScanner(bytes.NewReader(buffer))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			if reachable(stack) {
				out = append(out, CollectIncludeDirectives([]byte(line))...)
			}
			continue
		}
		body := strings.TrimSpace(line[1:])

		switch {
		case strings.HasPrefix(body, "ifdef"):
			cond := macros[strings.TrimSpace(body[len("ifdef"):])]
			stack = append(stack, branchState{taken: cond, everTaken: cond})
		case strings.HasPrefix(body, "ifndef"):
			cond := !macros[strings.TrimSpace(body[len("ifndef"):])]
			stack = append(stack, branchState{taken: cond, everTaken: cond})
		case strings.HasPrefix(body, "if "):
			cond := evalCondition(strings.TrimSpace(body[3:]), macros)
			stack = append(stack, branchState{taken: cond, everTaken: cond})
		case strings.HasPrefix(body, "elif"):
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				cond := !top.everTaken && evalCondition(strings.TrimSpace(body[len("elif"):]), macros)
				top.taken = cond
				top.everTaken = top.everTaken || cond
			}
		case strings.HasPrefix(body, "else"):
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				top.taken = !top.everTaken
				top.everTaken = true
			}
		case strings.HasPrefix(body, "endif"):
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case strings.HasPrefix(body, "define"):
			if reachable(stack) {
				name := strings.Fields(strings.TrimSpace(body[len("define"):]))
				if len(name) > 0 {
					macros[strings.SplitN(name[0], "(", 2)[0]] = true
				}
			}
		case strings.HasPrefix(body, "undef"):
			if reachable(stack) {
				macros[strings.TrimSpace(body[len("undef"):])] = false
			}
		default:
			if reachable(stack) {
				out = append(out, CollectIncludeDirectives([]byte(line))...)
			}
		}
	}
	return out
}

type branchState struct {
	taken     bool
	everTaken bool
}

// reachable reports whether the innermost open branch (and all its
// ancestors) are currently taken.
func reachable(stack []branchState) bool {
	for _, b := range stack {
		if !b.taken {
			return false
		}
	}
	return true
}

// evalCondition handles only `defined(X)`, `!defined(X)` and bare macro
// names/negations — not arbitrary C preprocessor expressions.
func evalCondition(expr string, macros map[string]bool) bool {
	expr = strings.TrimSpace(expr)
	negate := false
	if strings.HasPrefix(expr, "!") {
		negate = true
		expr = strings.TrimSpace(expr[1:])
	}
	var name string
	if strings.HasPrefix(expr, "defined(") && strings.HasSuffix(expr, ")") {
		name = strings.TrimSpace(expr[len("defined(") : len(expr)-1])
	} else if strings.HasPrefix(expr, "defined ") {
		name = strings.TrimSpace(expr[len("defined "):])
	} else {
		name = expr
	}
	val := macros[name]
	if negate {
		return !val
	}
	return val
}
