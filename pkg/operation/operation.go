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

package operation

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetrc/pkg/config"
	"github.com/walteh/assetrc/pkg/log"
	"github.com/walteh/assetrc/pkg/media"
	"github.com/walteh/assetrc/pkg/status"
	"github.com/walteh/assetrc/pkg/walker"
)

// 📁 Fixed layout below the working tree
const (
	SourceDir = "assets"
	TargetDir = "dist/assets"
)

// 🎯 Operation is a unit of work the runner executes
type Operation interface {
	Execute(ctx context.Context) error
}

// 🔧 Options contains configuration for a build
type Options struct {
	// Config is the loaded policy configuration
	Config *config.Config
	// Service performs image and video transforms
	Service media.Service
	// Root is the working tree holding assets/ and dist/
	Root string
	// Blur enables blur for the run
	Blur bool
	// Workers bounds concurrent file tasks
	Workers int
	// Timeout bounds each media call, zero means none
	Timeout time.Duration
	// Video registers the transcoding path
	Video bool
	// Logger renders console output. Defaults to the logger in ctx.
	Logger *log.Logger
}

// 🏗️ BuildOperation mirrors <root>/assets into <root>/dist/assets
type BuildOperation struct {
	opts   Options
	source string
	target string
	report *status.Report
}

var _ Operation = (*BuildOperation)(nil)

// 🏭 NewBuildOperation validates opts and resolves the roots
func NewBuildOperation(opts Options) (*BuildOperation, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	if opts.Service == nil {
		return nil, errors.Errorf("media service is required")
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &BuildOperation{
		opts:   opts,
		source: filepath.Join(opts.Root, SourceDir),
		target: filepath.Join(opts.Root, filepath.FromSlash(TargetDir)),
	}, nil
}

// Source returns the resolved source root.
func (b *BuildOperation) Source() string { return b.source }

// Target returns the resolved output root.
func (b *BuildOperation) Target() string { return b.target }

// Report returns the results of the last Execute, or nil before it ran.
func (b *BuildOperation) Report() *status.Report { return b.report }

// 🚀 Execute walks the tree and prints the summary.
// Per-file failures only show up in the report; the error covers an unusable
// source root or a cancelled run.
func (b *BuildOperation) Execute(ctx context.Context) error {
	logger := b.opts.Logger
	if logger == nil {
		logger = log.FromContext(ctx)
	}

	zerolog.Ctx(ctx).Debug().
		Str("source", b.source).
		Str("target", b.target).
		Str("config", b.opts.Config.String()).
		Msg("starting build operation")

	logger.Header(fmt.Sprintf("building assets with %s", b.opts.Config))
	logger.StartBuild(ctx, log.BuildOperation{
		Source:  b.source,
		Target:  b.target,
		Blur:    b.opts.Blur,
		Workers: b.opts.Workers,
	})

	b.report = status.NewReport(b.source, logger)
	w := walker.New(b.opts.Config, b.opts.Service, walker.Options{
		Workers: b.opts.Workers,
		Timeout: b.opts.Timeout,
		Video:   b.opts.Video,
		Report:  b.report,
	})

	_, walkErr := w.Walk(ctx, b.source, b.target, b.opts.Blur)
	logger.EndBuild(ctx)

	b.summarize(logger, walkErr)

	if walkErr != nil {
		return errors.Errorf("building assets: %w", walkErr)
	}
	return nil
}

// 📊 summarize prints the outcome table and a closing line
func (b *BuildOperation) summarize(logger *log.Logger, walkErr error) {
	counts := b.report.Counts()

	logger.LogNewline()
	if err := logger.Table(status.SummaryRows(counts)); err != nil {
		logger.Warningf("rendering summary: %v", err)
	}

	formatter := status.NewDefaultFileFormatter()
	failures := b.report.Failures()
	if len(failures) == 0 && walkErr == nil {
		logger.Success(formatter.FormatSummary(counts))
	} else {
		logger.Warningf("%s (%d failed)", formatter.FormatSummary(counts), len(failures))
	}
	logger.Infof("%d files written to %s", b.report.Written(), b.target)

	for _, f := range failures {
		line := formatter.FormatResult(b.relative(f.Source), f)
		if f.Err != nil {
			line += ": " + f.Err.Error()
		}
		logger.Failure(line)
	}
	if walkErr != nil {
		logger.Failure(formatter.FormatError(walkErr))
	}
}

func (b *BuildOperation) relative(path string) string {
	rel, err := filepath.Rel(b.source, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
