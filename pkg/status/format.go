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
	"fmt"
	"strconv"
)

// FileFormatter defines how results and summaries are rendered as text
type FileFormatter interface {
	// FormatResult formats a single result
	FormatResult(path string, r Result) string

	// FormatSummary formats the one-line run summary
	FormatSummary(counts map[Outcome]int) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatResult formats a result with an emoji per outcome
func (f *DefaultFileFormatter) FormatResult(path string, r Result) string {
	switch r.Outcome {
	case Optimized:
		return fmt.Sprintf("✨ Optimized %s", path)
	case Transcoded:
		return fmt.Sprintf("🎬 Transcoded %s", path)
	case CopiedAsFallback:
		return fmt.Sprintf("⚠️  Copied %s as fallback", path)
	case CopiedUnmodified:
		return fmt.Sprintf("📋 Copied %s", path)
	case Skipped:
		return fmt.Sprintf("⏭️  Skipped %s", path)
	case Failed:
		return fmt.Sprintf("❌ Failed %s", path)
	default:
		return fmt.Sprintf("❔ %s", path)
	}
}

// FormatSummary formats counts as "N files: a optimized, b transcoded, ..."
func (f *DefaultFileFormatter) FormatSummary(counts map[Outcome]int) string {
	total := 0
	for _, n := range counts {
		total += n
	}
	s := fmt.Sprintf("%d files", total)
	sep := ": "
	for _, o := range Outcomes {
		if counts[o] == 0 {
			continue
		}
		s += fmt.Sprintf("%s%d %s", sep, counts[o], o)
		sep = ", "
	}
	return s
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}

// 📊 SummaryRows builds the outcome table, header first
func SummaryRows(counts map[Outcome]int) [][]string {
	rows := [][]string{{"Outcome", "Files"}}
	for _, o := range Outcomes {
		rows = append(rows, []string{o.String(), strconv.Itoa(counts[o])})
	}
	return rows
}
