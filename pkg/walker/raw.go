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

package walker

import (
	"context"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetrc/pkg/classify"
	"github.com/walteh/assetrc/pkg/fsx"
	"github.com/walteh/assetrc/pkg/status"
)

const excludedFolder = "excluded folder"

// 📋 copyTree mirrors an excluded folder byte for byte.
// No policy, classification or transform applies below it. dst already exists.
func (w *Walker) copyTree(ctx context.Context, r *run, src, dst string) {
	entries, err := os.ReadDir(src)
	if err != nil {
		r.report.Record(ctx, status.Result{
			Source:  src,
			Target:  dst,
			Dir:     true,
			Outcome: status.Failed,
			Reason:  excludedFolder,
			Err:     errors.Errorf("reading directory: %w", err),
		})
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}

		name := entry.Name()
		if fsx.IsHidden(name) {
			continue
		}

		childSrc := filepath.Join(src, name)
		childDst := filepath.Join(dst, name)

		if symlinkedDir(entry, childSrc) {
			w.skipSymlinkedDir(ctx, r, childSrc)
			continue
		}

		if entry.IsDir() {
			if w.mkdir(ctx, r, childSrc, childDst) {
				w.copyTree(ctx, r, childSrc, childDst)
			}
			continue
		}

		job := fileJob{source: childSrc, target: childDst, class: classify.Other}
		r.group.Go(func() error {
			r.report.Record(ctx, w.rawCopy(job, excludedFolder))
			return nil
		})
	}
}
