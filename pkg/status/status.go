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

package status

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/walteh/assetrc/pkg/classify"
	"github.com/walteh/assetrc/pkg/log"
)

// 📊 Outcome is the terminal state of one source file
type Outcome int

const (
	OutcomeUnknown   Outcome = iota
	Optimized                // image re-encoded
	Transcoded               // video re-encoded
	CopiedAsFallback         // transform failed or timed out, original copied
	CopiedUnmodified         // raw copy by classification, setting or excluded folder
	Skipped                  // not processable, nothing written
	Failed                   // nothing written because of an error
)

// Outcomes lists every terminal outcome in display order.
var Outcomes = []Outcome{Optimized, Transcoded, CopiedAsFallback, CopiedUnmodified, Skipped, Failed}

// String returns a string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case Optimized:
		return "optimized"
	case Transcoded:
		return "transcoded"
	case CopiedAsFallback:
		return "copied as fallback"
	case CopiedUnmodified:
		return "copied"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Wrote reports whether the outcome leaves a file in the output tree.
func (o Outcome) Wrote() bool {
	switch o {
	case Optimized, Transcoded, CopiedAsFallback, CopiedUnmodified:
		return true
	}
	return false
}

// 📄 Result is the record the walker produces for every file it visits
type Result struct {
	Source  string // absolute or root-joined source path
	Target  string // output path actually written (may differ in extension)
	Class   classify.Class
	Outcome Outcome
	Blurred bool
	Resized bool
	Dir     bool   // result describes a directory that could not be read or created
	Reason  string // short explanation for skips and fallbacks
	Err     error
}

// 📈 Report collects results from concurrent workers
type Report struct {
	root   string
	logger *log.Logger

	mu      sync.Mutex
	results []Result
}

// 🏭 NewReport creates a report. Paths are displayed relative to root.
// A nil logger records silently.
func NewReport(root string, logger *log.Logger) *Report {
	return &Report{
		root:   filepath.Clean(root),
		logger: logger,
	}
}

// Record stores r and logs it.
func (r *Report) Record(ctx context.Context, res Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.LogFileOperation(ctx, ToFileOperation(r.rel(res.Source), res))
	}
}

// Results returns a copy of every result sorted by source path.
func (r *Report) Results() []Result {
	r.mu.Lock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Source < out[j].Source
	})
	return out
}

// Lookup returns the result recorded for a source path.
func (r *Report) Lookup(source string) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.Source == source {
			return res, true
		}
	}
	return Result{}, false
}

// Counts tallies results per outcome.
func (r *Report) Counts() map[Outcome]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[Outcome]int, len(Outcomes))
	for _, res := range r.results {
		counts[res.Outcome]++
	}
	return counts
}

// Written counts the files that ended up in the output tree.
func (r *Report) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.results {
		if !res.Dir && res.Outcome.Wrote() {
			n++
		}
	}
	return n
}

// Failures returns the failed results sorted by source path.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results() {
		if res.Outcome == Failed {
			out = append(out, res)
		}
	}
	return out
}

// Len returns the number of recorded results.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *Report) rel(path string) string {
	if r.root == "" || r.root == "." {
		return path
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return path
	}
	return rel
}
