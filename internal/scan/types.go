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

// Package scan implements a transitive C/C++ include scanner: given a set of
// translation units it computes, without running a real preprocessor, the
// closed set of header files that participate in their compilation.
//
// The scanner never reads bytes itself and never decides what a header
// means; it only resolves #include / #include_next directives supplied by a
// Parser against a configured search path and recurses. Parser, ArtifactFactory,
// PathExistenceCache, Hints, Pool and ActionEnv are all external collaborators:
// this package only depends on their interfaces, never a concrete
// implementation (see the internal/parser, internal/artifact,
// internal/pathexists, internal/hints and internal/poolrun packages for the
// reference implementations this repository ships).
package scan

import "fmt"

// Artifact is an opaque build-system handle for a file: a source file, a
// generated output, or an entry of an inc-symlink tree. Two artifacts are
// the same file iff their ExecPath is equal; callers must not compare
// Artifact values with ==.
type Artifact interface {
	// ExecPath is the slash-separated path relative to the exec root under
	// which all action inputs are laid out.
	ExecPath() string
	// RootRelativePath is the path relative to whichever root (source tree,
	// specific output tree) produced this artifact.
	RootRelativePath() string
	// IsSource is true for artifacts that are not the output of a build
	// action (source files and inc-symlink tree entries are both "source"
	// for this purpose: see Layout.IsIncPath).
	IsSource() bool
}

// InclusionKind is the flavor of a single #include / #include_next directive.
type InclusionKind int

const (
	Quote     InclusionKind = iota // #include "name"
	Angle                          // #include <name>
	NextQuote                      // #include_next "name"
	NextAngle                      // #include_next <name>
)

func (k InclusionKind) String() string {
	switch k {
	case Quote:
		return "QUOTE"
	case Angle:
		return "ANGLE"
	case NextQuote:
		return "NEXT_QUOTE"
	case NextAngle:
		return "NEXT_ANGLE"
	default:
		return fmt.Sprintf("InclusionKind(%d)", int(k))
	}
}

// IsNext is true for #include_next directives.
func (k InclusionKind) IsNext() bool { return k == NextQuote || k == NextAngle }

// IsQuote is true for the quote form, #include_next included.
func (k InclusionKind) IsQuote() bool { return k == Quote || k == NextQuote }

// ContextKind records the flavor under which the *including* file was
// itself resolved; it is narrower than InclusionKind because a context is
// never "next" — only the inclusion being resolved can be.
type ContextKind int

const (
	// ContextNone marks a top-level translation unit: it wasn't reached via
	// any #include, so there is no search-path flavor to inherit.
	ContextNone ContextKind = iota
	ContextQuote
	ContextAngle
)

// Inclusion is a single directive as extracted by a Parser, before resolution.
type Inclusion struct {
	Kind InclusionKind
	Path string // the raw fragment between quotes/brackets, forward-slash separated
}

func (inc Inclusion) String() string {
	switch inc.Kind {
	case Quote:
		return fmt.Sprintf("#include %q", inc.Path)
	case Angle:
		return fmt.Sprintf("#include <%s>", inc.Path)
	case NextQuote:
		return fmt.Sprintf("#include_next %q", inc.Path)
	case NextAngle:
		return fmt.Sprintf("#include_next <%s>", inc.Path)
	default:
		return fmt.Sprintf("#include(?) %q", inc.Path)
	}
}

// InclusionWithContext is the cache key for resolution and the dedup key
// ingredient for traversal, paired with the artifact it resolves to.
type InclusionWithContext struct {
	Inclusion      Inclusion
	ContextKind    ContextKind
	ContextPathPos int // search-path index the including file was found at; 0/-1 for top-level
}

// LocateResult is the outcome of resolving one InclusionWithContext.
type LocateResult struct {
	Artifact        Artifact // nil if not found
	IncludePosition int      // 1-based index of the matching search-path entry; 0 means "resolved relatively"
	ViewedIllegal   bool     // true if resolution stepped past a path under the output prefix that isn't a legal output
}

// Found reports whether resolution produced an artifact.
func (r LocateResult) Found() bool { return r.Artifact != nil }

// ArtifactWithInclusionContext is the traversal dedup key: the same physical
// file may need revisiting under a different context, because its own
// #include_next will then search differently (spec.md §9).
type ArtifactWithInclusionContext struct {
	ExecPath       string
	ContextKind    ContextKind
	ContextPathPos int
}

// SearchPath is the ordered, immutable set of directories a scanner
// searches; quoteList is a superset of angleList, prefixed with
// quote-only (-iquote) entries.
type SearchPath struct {
	QuoteList []string
	AngleList []string
}

// PathsFor returns the ordered directory list to search for a given context
// flavor: the quote list for ContextQuote (and ContextNone, which behaves
// like quote for top-level "-include" synthetic inclusions), the angle list
// otherwise.
func (sp SearchPath) PathsFor(ctx ContextKind) []string {
	if ctx == ContextAngle {
		return sp.AngleList
	}
	return sp.QuoteList
}

// LegalOutputs maps an exec-path to the artifact an upstream action within
// this scanner's dependency scope declared as produced there.
type LegalOutputs map[string]Artifact

// Layout captures the directory conventions the path classifier and
// path-search resolver reason about: the exec root all exec-paths are
// relative to, the prefix under which generated outputs live, and the
// prefix of the inc-symlink tree (treated as source-like, spec.md §4.1).
type Layout struct {
	ExecRoot     string
	OutputPrefix string
	IncRoot      string
}

// HeaderData bundles the per-invocation inputs that aren't part of the
// translation units themselves (spec.md §6, Scanner public operation).
type HeaderData struct {
	ModularHeaders        map[string]struct{} // exec-path set; traversal stops at these (no descent)
	PathToLegalOutputArtifact LegalOutputs
}
