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
	"github.com/walteh/assetrc/pkg/log"
)

// 🎯 ToFileOperation converts a result into the console logger's line model
func ToFileOperation(path string, r Result) log.FileOperation {
	class := r.Class.String()
	if r.Dir {
		class = "dir"
	}
	outcome := r.Outcome.String()
	if r.Reason != "" {
		outcome += ": " + r.Reason
	}
	return log.FileOperation{
		Path:       path,
		Class:      class,
		Outcome:    outcome,
		Blurred:    r.Blurred,
		Resized:    r.Resized,
		IsFallback: r.Outcome == CopiedAsFallback,
		IsFailed:   r.Outcome == Failed,
		IsSkipped:  r.Outcome == Skipped,
		Err:        r.Err,
	}
}
