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

package media

import (
	"context"
	"path/filepath"
	"strings"
)

// 🧩 Composite routes images to the native transformer and video to ffmpeg
type Composite struct {
	Images *ImageTransformer
	Video  *FFmpeg
}

var _ Service = (*Composite)(nil)

// Options configures NewComposite.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	Runner      CommandRunner
}

// 🏭 NewComposite wires the image transformer to ffmpeg for WebP output
func NewComposite(opts Options) *Composite {
	ff := &FFmpeg{
		FFmpegPath:  opts.FFmpegPath,
		FFprobePath: opts.FFprobePath,
		Runner:      opts.Runner,
	}
	return &Composite{
		Images: &ImageTransformer{WebP: ff},
		Video:  ff,
	}
}

// Probe reads image headers natively and asks ffprobe about everything else.
func (c *Composite) Probe(ctx context.Context, path string) (Metadata, error) {
	if isNativeImage(path) {
		return ProbeImage(path)
	}
	return c.Video.Probe(ctx, path)
}

func (c *Composite) TransformImage(ctx context.Context, src, dst string, opts ImageOptions) error {
	return c.Images.Transform(ctx, src, dst, opts)
}

func (c *Composite) TranscodeVideo(ctx context.Context, src, dst string, opts VideoOptions) error {
	return c.Video.Transcode(ctx, src, dst, opts)
}

func isNativeImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
