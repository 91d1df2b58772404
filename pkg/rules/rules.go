// Copyright 2025 walteh LLC
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

// Package rules evaluates the four policy axes (folder-process, file-process,
// folder-blur, file-blur) against a loaded config. Every predicate is pure and
// takes a basename, never a path.
package rules

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/assetrc/pkg/config"
)

// GlobPrefix marks a rule entry as a doublestar pattern. Entries without it match by equality only.
const GlobPrefix = "glob:"

// 📋 set is one include or exclude list.
type set struct {
	literal  map[string]struct{}
	patterns []string
}

func newSet(entries []string) set {
	s := set{literal: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		if e == "" {
			continue
		}
		if p, ok := strings.CutPrefix(e, GlobPrefix); ok && p != "" && doublestar.ValidatePattern(p) {
			s.patterns = append(s.patterns, p)
			continue
		}
		s.literal[e] = struct{}{}
	}
	return s
}

func (s set) empty() bool {
	return len(s.literal) == 0 && len(s.patterns) == 0
}

func (s set) contains(name string) bool {
	if _, ok := s.literal[name]; ok {
		return true
	}
	for _, p := range s.patterns {
		// validated in newSet
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// 🎯 policy is one include/exclude pair
type policy struct {
	include set
	exclude set
}

func newPolicy(p config.NamePolicy) policy {
	return policy{include: newSet(p.Include), exclude: newSet(p.Exclude)}
}

// allows applies "a non-empty include is authoritative, otherwise exclude is a deny-list"
func (p policy) allows(name string) bool {
	if !p.include.empty() {
		return p.include.contains(name)
	}
	return !p.exclude.contains(name)
}

// 🔧 Resolver answers the four policy questions for one config.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	folders     policy
	files       policy
	excludedExt map[string]struct{}
	blurFolders policy
	blurFiles   policy
}

// 🏭 New compiles the policy lists of cfg
func New(cfg *config.Config) *Resolver {
	r := &Resolver{
		folders:     newPolicy(cfg.Folders),
		files:       newPolicy(cfg.Files.NamePolicy),
		excludedExt: make(map[string]struct{}, len(cfg.Files.ExcludedExtensions)),
		blurFolders: newPolicy(cfg.BlurFolders),
		blurFiles:   newPolicy(cfg.BlurFiles),
	}
	for _, ext := range cfg.Files.ExcludedExtensions {
		r.excludedExt[config.NormalizeExtension(ext)] = struct{}{}
	}
	return r
}

// FolderIsProcessable reports whether the folder named name is walked with transforms.
// A folder that is not processable is still mirrored, as a raw copy.
func (r *Resolver) FolderIsProcessable(name string) bool {
	return r.folders.allows(name)
}

// FileIsProcessable reports whether a file makes it into the output at all.
// Name and extension exclusion are checked before the include allow-list, so exclusion always wins.
func (r *Resolver) FileIsProcessable(name, ext string) bool {
	if r.files.exclude.contains(name) {
		return false
	}
	if _, ok := r.excludedExt[config.NormalizeExtension(ext)]; ok {
		return false
	}
	if !r.files.include.empty() {
		return r.files.include.contains(name)
	}
	return true
}

// FolderAllowsBlur reports whether the folder's own blur rule permits blur.
func (r *Resolver) FolderAllowsBlur(name string) bool {
	return r.blurFolders.allows(name)
}

// FileAllowsBlur reports whether the file's own blur rule permits blur.
func (r *Resolver) FileAllowsBlur(name string) bool {
	return r.blurFiles.allows(name)
}
