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

// Package walker mirrors a source asset tree into an output tree, applying
// the processing and blur policies at every node.
package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/assetrc/pkg/classify"
	"github.com/walteh/assetrc/pkg/config"
	"github.com/walteh/assetrc/pkg/fsx"
	"github.com/walteh/assetrc/pkg/log"
	"github.com/walteh/assetrc/pkg/media"
	"github.com/walteh/assetrc/pkg/rules"
	"github.com/walteh/assetrc/pkg/status"
)

// Options tunes a Walker.
type Options struct {
	// Workers bounds concurrent file tasks. Values below 1 mean 1.
	Workers int
	// Timeout bounds each media call. Zero means no limit.
	Timeout time.Duration
	// Video registers the transcoding path. Without it video files are copied raw.
	Video bool
	// Report collects results. A new one is created per walk when nil.
	Report *status.Report
}

// 🚶 Walker holds everything a walk reads. None of it is mutated during a walk.
type Walker struct {
	cfg        *config.Config
	svc        media.Service
	rules      *rules.Resolver
	classifier *classify.Classifier
	opts       Options
}

// node is one directory of the descent. blurAllowed already folds in every ancestor.
type node struct {
	source      string
	target      string
	blurAllowed bool
}

// run is the state of one Walk call.
type run struct {
	group  *errgroup.Group
	report *status.Report
	blur   bool
}

// 🏭 New builds a walker for cfg
func New(cfg *config.Config, svc media.Service, opts Options) *Walker {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Walker{
		cfg:        cfg,
		svc:        svc,
		rules:      rules.New(cfg),
		classifier: classify.New(cfg.Extensions, opts.Video),
		opts:       opts,
	}
}

// 🌳 Walk mirrors source into target.
//
// Per-file failures are recorded in the report and never returned. The error is
// non-nil only when source is unusable or ctx was cancelled; the report is still
// returned in the latter case and covers every file that was dispatched.
func (w *Walker) Walk(ctx context.Context, source, target string, blurRequested bool) (*status.Report, error) {
	report := w.opts.Report
	if report == nil {
		report = status.NewReport(source, log.FromContext(ctx))
	}

	info, err := os.Stat(source)
	if err != nil {
		return report, errors.Errorf("reading source root: %w", err)
	}
	if !info.IsDir() {
		return report, errors.Errorf("source root %s is not a directory", source)
	}
	if err := fsx.MkdirAll(target); err != nil {
		return report, errors.Errorf("creating target root: %w", err)
	}

	g := &errgroup.Group{}
	g.SetLimit(w.opts.Workers)

	r := &run{group: g, report: report, blur: blurRequested}
	w.walkDir(ctx, r, node{source: source, target: target, blurAllowed: true})

	// tasks never return errors
	_ = g.Wait()

	zerolog.Ctx(ctx).Debug().
		Str("source", source).
		Int("results", report.Len()).
		Msg("walk finished")

	if err := ctx.Err(); err != nil {
		return report, errors.Errorf("walk cancelled: %w", err)
	}
	return report, nil
}

func (w *Walker) walkDir(ctx context.Context, r *run, n node) {
	entries, err := os.ReadDir(n.source)
	if err != nil {
		r.report.Record(ctx, status.Result{
			Source:  n.source,
			Target:  n.target,
			Dir:     true,
			Outcome: status.Failed,
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

		src := filepath.Join(n.source, name)
		dst := filepath.Join(n.target, name)

		if symlinkedDir(entry, src) {
			w.skipSymlinkedDir(ctx, r, src)
			continue
		}

		if !entry.IsDir() {
			w.dispatchFile(ctx, r, n, name, src, dst)
			continue
		}

		if !w.mkdir(ctx, r, src, dst) {
			continue
		}

		if !w.rules.FolderIsProcessable(name) {
			w.copyTree(ctx, r, src, dst)
			continue
		}

		w.walkDir(ctx, r, node{
			source:      src,
			target:      dst,
			blurAllowed: r.blur && n.blurAllowed && w.rules.FolderAllowsBlur(name),
		})
	}
}

// mkdir creates a mirrored directory, recording a failure when it cannot.
// symlinkedDir reports whether entry is a symlink resolving to a directory.
// Such links are not followed, so a link cycle cannot recurse forever.
func symlinkedDir(entry fs.DirEntry, path string) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (w *Walker) skipSymlinkedDir(ctx context.Context, r *run, src string) {
	r.report.Record(ctx, status.Result{
		Source:  src,
		Dir:     true,
		Outcome: status.Skipped,
		Reason:  "symlinked directory",
	})
}

func (w *Walker) mkdir(ctx context.Context, r *run, src, dst string) bool {
	if err := fsx.MkdirAll(dst); err != nil {
		r.report.Record(ctx, status.Result{
			Source:  src,
			Target:  dst,
			Dir:     true,
			Outcome: status.Failed,
			Err:     err,
		})
		return false
	}
	return true
}

func (w *Walker) dispatchFile(ctx context.Context, r *run, n node, name, src, dst string) {
	ext := filepath.Ext(name)
	class := w.classifier.Classify(ext)

	if !w.rules.FileIsProcessable(name, ext) {
		r.report.Record(ctx, status.Result{
			Source:  src,
			Class:   class,
			Outcome: status.Skipped,
			Reason:  "excluded",
		})
		return
	}

	job := fileJob{
		source: src,
		target: dst,
		class:  class,
		blur:   r.blur && n.blurAllowed && w.rules.FileAllowsBlur(name),
	}

	r.group.Go(func() error {
		r.report.Record(ctx, w.processFile(ctx, job))
		return nil
	})
}

// fileContext applies the per-file timeout.
func (w *Walker) fileContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, w.opts.Timeout)
}
