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

// Package media performs the pixel and codec work of the pipeline: probing,
// image resize/blur/re-encode and video transcoding.
//
// Images are handled natively. Video (and WebP encoding) shell out to ffmpeg.
package media

import (
	"context"
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Service is the capability the walker calls for every transformable file.
// Implementations write to dst and never touch src.
type Service interface {
	Probe(ctx context.Context, path string) (Metadata, error)
	TransformImage(ctx context.Context, src, dst string, opts ImageOptions) error
	TranscodeVideo(ctx context.Context, src, dst string, opts VideoOptions) error
}

// 📏 Metadata is what Probe learns about a file
type Metadata struct {
	Width          int
	Height         int
	HasVideoStream bool
}

// Size is a bounding box in pixels.
type Size struct {
	Width  int
	Height int
}

// 🖼️ ImageOptions controls TransformImage. Zero values disable the step.
type ImageOptions struct {
	ResizeToWidth int
	Blur          float64
	Encode        EncodeOptions
}

// EncodeOptions carries a quality setting per encoder.
// All of them may be set; the encoder matching the output format picks its own.
type EncodeOptions struct {
	JPEG *int
	PNG  *int
	WebP *int
}

// 🎬 VideoOptions controls TranscodeVideo
type VideoOptions struct {
	Codec          string
	CRF            int
	Preset         string
	Bitrate        string // ignored for VP9
	ResizeTo       *Size
	RowMultithread bool
}

const (
	CodecVP9  = "libvpx-vp9"
	CodecH264 = "libx264"
)

var (
	ErrNoVideoStream     = errors.Base("no video stream")
	ErrUnsupportedFormat = errors.Base("unsupported format")
)

// 🎯 CodecForExtension picks the encoder used when a video keeps its container
func CodecForExtension(ext, fallback string) string {
	switch strings.ToLower(ext) {
	case ".webm":
		return CodecVP9
	case ".mp4":
		return CodecH264
	default:
		return fallback
	}
}

// IsVP9 reports whether codec is the VP9 encoder, which runs in constant quality mode.
func IsVP9(codec string) bool {
	switch strings.ToLower(codec) {
	case CodecVP9, "vp9":
		return true
	}
	return false
}

// ProbeError means the metadata of a file could not be read.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probing %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// TransformError means an image could not be decoded, transformed or encoded.
type TransformError struct {
	Path string
	Op   string
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transforming image %s (%s): %v", e.Path, e.Op, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// TranscodeError means ffmpeg failed on a video, possibly mid-stream.
type TranscodeError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("transcoding %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("transcoding %s: %v: %s", e.Path, e.Err, e.Stderr)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
