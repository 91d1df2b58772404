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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// CommandRunner executes an external tool and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. The process is killed when ctx ends.
type ExecRunner struct{}

// CommandError carries the stderr of a failed command.
type CommandError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("running %s: %v", e.Name, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zerolog.Ctx(ctx).Debug().Str("cmd", name).Strs("args", args).Msg("running command")

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return stdout.Bytes(), &CommandError{Name: name, Stderr: tail(stderr.String(), 512), Err: err}
	}
	return stdout.Bytes(), nil
}

// 🎬 FFmpeg probes with ffprobe and transcodes with ffmpeg
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	Runner      CommandRunner
}

func (f *FFmpeg) ffmpeg() string {
	if f.FFmpegPath == "" {
		return "ffmpeg"
	}
	return f.FFmpegPath
}

func (f *FFmpeg) ffprobe() string {
	if f.FFprobePath == "" {
		return "ffprobe"
	}
	return f.FFprobePath
}

func (f *FFmpeg) runner() CommandRunner {
	if f.Runner == nil {
		return ExecRunner{}
	}
	return f.Runner
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// 🔍 Probe reports the dimensions of the first video stream
func (f *FFmpeg) Probe(ctx context.Context, path string) (Metadata, error) {
	out, err := f.runner().Run(ctx, f.ffprobe(), ProbeArgs(path)...)
	if err != nil {
		return Metadata{}, &ProbeError{Path: path, Err: err}
	}
	md, err := ParseProbeOutput(out)
	if err != nil {
		return Metadata{}, &ProbeError{Path: path, Err: err}
	}
	return md, nil
}

// ProbeArgs builds the ffprobe argument list for path.
func ProbeArgs(path string) []string {
	return []string{"-v", "error", "-print_format", "json", "-show_streams", path}
}

// ParseProbeOutput decodes ffprobe JSON. A file without a video stream is not an error.
func ParseProbeOutput(out []byte) (Metadata, error) {
	var po probeOutput
	if err := json.Unmarshal(out, &po); err != nil {
		return Metadata{}, errors.Errorf("decoding ffprobe output: %w", err)
	}
	for _, s := range po.Streams {
		if s.CodecType == "video" {
			return Metadata{Width: s.Width, Height: s.Height, HasVideoStream: true}, nil
		}
	}
	return Metadata{}, nil
}

// 🎞️ Transcode writes src re-encoded with opts to dst
func (f *FFmpeg) Transcode(ctx context.Context, src, dst string, opts VideoOptions) error {
	if _, err := f.runner().Run(ctx, f.ffmpeg(), TranscodeArgs(src, dst, opts)...); err != nil {
		terr := &TranscodeError{Path: src, Err: err}
		var cerr *CommandError
		if errors.As(err, &cerr) {
			terr.Stderr = cerr.Stderr
		}
		return terr
	}
	return nil
}

// 📝 TranscodeArgs builds the ffmpeg argument list. The output container follows dst's extension.
func TranscodeArgs(src, dst string, opts VideoOptions) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", src, "-c:v", opts.Codec}

	args = append(args, "-crf", strconv.Itoa(opts.CRF))
	if opts.Preset != "" {
		args = append(args, "-preset", opts.Preset)
	}

	if IsVP9(opts.Codec) {
		// constant quality mode needs a zero target bitrate
		args = append(args, "-b:v", "0")
		if opts.RowMultithread {
			args = append(args, "-row-mt", "1")
		}
	} else if opts.Bitrate != "" {
		args = append(args, "-b:v", opts.Bitrate)
	}

	if opts.ResizeTo != nil {
		args = append(args, "-vf", ScaleFilter(*opts.ResizeTo))
	}

	switch strings.ToLower(filepath.Ext(dst)) {
	case ".webm":
		args = append(args, "-c:a", "libopus")
	case ".mp4", ".mov", ".m4v":
		args = append(args, "-c:a", "aac", "-movflags", "+faststart")
	}

	return append(args, dst)
}

// ScaleFilter fits a video inside size, keeping its aspect ratio and even dimensions.
func ScaleFilter(size Size) string {
	return fmt.Sprintf("scale=w=%d:h=%d:force_original_aspect_ratio=decrease:force_divisible_by=2", size.Width, size.Height)
}

// 🌐 EncodeWebP converts a PNG into WebP through libwebp
func (f *FFmpeg) EncodeWebP(ctx context.Context, srcPNG, dst string, quality int) error {
	if _, err := f.runner().Run(ctx, f.ffmpeg(), WebPArgs(srcPNG, dst, quality)...); err != nil {
		return errors.Errorf("encoding webp: %w", err)
	}
	return nil
}

// WebPArgs builds the ffmpeg argument list for a still WebP encode.
func WebPArgs(src, dst string, quality int) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", src,
		"-c:v", "libwebp",
		"-quality", strconv.Itoa(quality),
		"-frames:v", "1",
		dst,
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
