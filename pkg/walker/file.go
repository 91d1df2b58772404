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
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetrc/pkg/classify"
	"github.com/walteh/assetrc/pkg/fsx"
	"github.com/walteh/assetrc/pkg/media"
	"github.com/walteh/assetrc/pkg/status"
)

type fileJob struct {
	source string
	target string
	class  classify.Class
	blur   bool
}

func (j fileJob) result(outcome status.Outcome) status.Result {
	return status.Result{
		Source:  j.source,
		Target:  j.target,
		Class:   j.class,
		Outcome: outcome,
	}
}

// 🎯 processFile runs one file to a terminal outcome
func (w *Walker) processFile(ctx context.Context, job fileJob) status.Result {
	if job.class.IsRawCopy() {
		return w.rawCopy(job, "")
	}
	switch job.class {
	case classify.OptimizableImage:
		return w.optimizeImage(ctx, job)
	case classify.TranscodableVideo:
		return w.transcodeVideo(ctx, job)
	default:
		return w.rawCopy(job, "")
	}
}

func (w *Walker) rawCopy(job fileJob, reason string) status.Result {
	res := job.result(status.CopiedUnmodified)
	res.Reason = reason
	if err := fsx.CopyFile(job.source, job.target); err != nil {
		res.Outcome = status.Failed
		res.Err = err
	}
	return res
}

// fallbackCopy copies the original after a failed transform. err is kept on the result.
func (w *Walker) fallbackCopy(job fileJob, reason string, cause error) status.Result {
	res := job.result(status.CopiedAsFallback)
	res.Reason = reason
	res.Err = cause
	if err := fsx.CopyFile(job.source, job.target); err != nil {
		res.Outcome = status.Failed
		res.Err = errors.Errorf("fallback copy after %s: %w", reason, err)
	}
	return res
}

// timedOut reports whether err came from the per-file deadline rather than the run being cancelled.
func timedOut(parent context.Context, err error) bool {
	return parent.Err() == nil && errors.Is(err, context.DeadlineExceeded)
}

// 🖼️ optimizeImage probes, optionally resizes and blurs, then re-encodes in the same format
func (w *Walker) optimizeImage(ctx context.Context, job fileJob) status.Result {
	fctx, cancel := w.fileContext(ctx)
	defer cancel()

	settings := w.cfg.Image

	md, err := w.svc.Probe(fctx, job.source)
	if err != nil {
		if timedOut(ctx, err) {
			return w.fallbackCopy(job, "timed out", err)
		}
		res := job.result(status.Failed)
		res.Err = err
		return res
	}

	opts := media.ImageOptions{
		Encode: media.EncodeOptions{
			JPEG: media.IntPtr(settings.Quality.JPEG),
			PNG:  media.IntPtr(settings.Quality.PNG),
			WebP: media.IntPtr(settings.Quality.WebP),
		},
	}
	if settings.EnableResize && md.Width >= settings.MaxWidth {
		opts.ResizeToWidth = settings.MaxWidth
	}
	if job.blur {
		opts.Blur = w.cfg.BlurStrength
	}

	staged, err := fsx.Stage(job.target)
	if err != nil {
		res := job.result(status.Failed)
		res.Err = err
		return res
	}
	defer staged.Discard()

	if err := w.svc.TransformImage(fctx, job.source, staged.Path, opts); err != nil {
		if timedOut(ctx, err) {
			return w.fallbackCopy(job, "timed out", err)
		}
		res := job.result(status.Failed)
		res.Err = err
		return res
	}

	if err := staged.CommitAs(job.source); err != nil {
		res := job.result(status.Failed)
		res.Err = err
		return res
	}

	res := job.result(status.Optimized)
	res.Resized = opts.ResizeToWidth > 0
	res.Blurred = opts.Blur > 0
	return res
}

// 🎬 transcodeVideo re-encodes a video. Any failure degrades to copying the original.
func (w *Walker) transcodeVideo(ctx context.Context, job fileJob) status.Result {
	settings := w.cfg.Video
	if !settings.EnableProcessing {
		return w.rawCopy(job, "video processing disabled")
	}

	fctx, cancel := w.fileContext(ctx)
	defer cancel()

	md, err := w.svc.Probe(fctx, job.source)
	if err != nil {
		return w.fallbackCopy(job, "probe failed", err)
	}
	if !md.HasVideoStream {
		return w.fallbackCopy(job, "no video stream", &media.ProbeError{Path: job.source, Err: media.ErrNoVideoStream})
	}

	target, opts := w.videoPlan(job, md)

	staged, err := fsx.Stage(target)
	if err != nil {
		return w.fallbackCopy(job, "staging failed", err)
	}
	defer staged.Discard()

	if err := w.svc.TranscodeVideo(fctx, job.source, staged.Path, opts); err != nil {
		reason := "transcode failed"
		if timedOut(ctx, err) {
			reason = "timed out"
		}
		return w.fallbackCopy(job, reason, err)
	}

	if err := staged.CommitAs(job.source); err != nil {
		return w.fallbackCopy(job, "commit failed", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("file", job.source).
		Str("codec", opts.Codec).
		Str("target", target).
		Msg("transcoded video")

	res := job.result(status.Transcoded)
	res.Target = staged.Target()
	res.Resized = opts.ResizeTo != nil
	return res
}

// videoPlan picks the output path and encoder settings for a probed video.
func (w *Walker) videoPlan(job fileJob, md media.Metadata) (string, media.VideoOptions) {
	settings := w.cfg.Video
	target := job.target

	var codec string
	if settings.PreserveFormat {
		codec = media.CodecForExtension(filepath.Ext(job.source), settings.Formats.Codec)
	} else {
		codec = settings.Formats.Codec
		target = strings.TrimSuffix(target, filepath.Ext(target)) + "." + settings.Formats.OutputFormat
	}

	opts := media.VideoOptions{
		Codec:  codec,
		CRF:    settings.Quality.CRF,
		Preset: settings.Quality.Preset,
	}
	if media.IsVP9(codec) {
		opts.RowMultithread = true
	} else if settings.Quality.Bitrate != "" {
		opts.Bitrate = settings.Quality.Bitrate
	}

	if settings.EnableResize && (md.Width > settings.MaxWidth || md.Height > settings.MaxHeight) {
		opts.ResizeTo = &media.Size{Width: settings.MaxWidth, Height: settings.MaxHeight}
	}

	return target, opts
}
