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
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetrc/pkg/classify"
	"github.com/walteh/assetrc/pkg/config"
	"github.com/walteh/assetrc/pkg/media"
	"github.com/walteh/assetrc/pkg/status"
	"github.com/walteh/assetrc/pkg/testutils"
)

type fixture struct {
	source string
	target string
	cfg    *config.Config
	svc    *fakeMedia
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		source: filepath.Join(dir, "assets"),
		target: filepath.Join(dir, "dist", "assets"),
		cfg:    config.Default(),
		svc:    newFakeMedia(),
	}
	require.NoError(t, os.MkdirAll(f.source, 0755))
	testutils.WriteTree(t, f.source, files)
	return f
}

func (f *fixture) walk(t *testing.T, blur bool, opts Options) *status.Report {
	t.Helper()
	opts.Video = true
	return f.walkWith(t, blur, opts)
}

func (f *fixture) walkWith(t *testing.T, blur bool, opts Options) *status.Report {
	t.Helper()
	report, err := New(f.cfg, f.svc, opts).Walk(testutils.Context(t), f.source, f.target, blur)
	require.NoError(t, err)
	return report
}

func (f *fixture) src(rel string) string {
	return filepath.Join(f.source, filepath.FromSlash(rel))
}

func outcome(t *testing.T, report *status.Report, path string) status.Result {
	t.Helper()
	res, ok := report.Lookup(path)
	require.True(t, ok, "no result recorded for %s", path)
	return res
}

// Scenario: an excluded folder is copied byte for byte while its sibling is resized.
func TestExcludedFolderCopiedRaw(t *testing.T) {
	f := newFixture(t, map[string]string{
		"raw/photo.jpg": "raw-jpeg-bytes",
		"web/photo.jpg": "web-jpeg-bytes",
	})
	f.cfg.Folders.Exclude = []string{"raw"}
	f.cfg.Image.EnableResize = true
	f.cfg.Image.MaxWidth = 800
	f.svc.meta["photo.jpg"] = media.Metadata{Width: 4000, Height: 3000}

	report := f.walk(t, false, Options{})

	out := testutils.ReadTree(t, f.target)
	assert.Equal(t, "raw-jpeg-bytes", out["raw/photo.jpg"], "excluded folder should be byte identical")
	assert.Equal(t, "image width=800 blur=0", out["web/photo.jpg"], "processed folder should be resized")

	assert.Empty(t, f.svc.touchedUnder(f.src("raw")), "nothing under raw should reach the media service")
	assert.Equal(t, status.CopiedUnmodified, outcome(t, report, f.src("raw/photo.jpg")).Outcome)

	web := outcome(t, report, f.src("web/photo.jpg"))
	assert.Equal(t, status.Optimized, web.Outcome)
	assert.True(t, web.Resized)
}

// Scenario: blur is suppressed in a blur-excluded folder.
func TestBlurFolderExclude(t *testing.T) {
	f := newFixture(t, map[string]string{
		"team/ceo.jpg":    "ceo",
		"gallery/art.jpg": "art",
	})
	f.cfg.BlurFolders.Exclude = []string{"team"}
	f.cfg.BlurStrength = 12

	report := f.walk(t, true, Options{})

	assert.Equal(t, float64(0), f.svc.images[f.src("team/ceo.jpg")].Blur)
	assert.Equal(t, float64(12), f.svc.images[f.src("gallery/art.jpg")].Blur)
	assert.False(t, outcome(t, report, f.src("team/ceo.jpg")).Blurred)
	assert.True(t, outcome(t, report, f.src("gallery/art.jpg")).Blurred)
}

// Scenario: a corrupt video is copied unchanged and the walk still succeeds.
func TestVideoProbeFailureFallsBack(t *testing.T) {
	f := newFixture(t, map[string]string{
		"clip.webm": "corrupt-webm",
	})
	f.cfg.Video.PreserveFormat = true
	f.svc.probeErr["clip.webm"] = errCorrupt

	report := f.walk(t, false, Options{})

	out := testutils.ReadTree(t, f.target)
	assert.Equal(t, "corrupt-webm", out["clip.webm"])

	res := outcome(t, report, f.src("clip.webm"))
	assert.Equal(t, status.CopiedAsFallback, res.Outcome)
	var perr *media.ProbeError
	assert.True(t, errors.As(res.Err, &perr), "probe error should be kept on the result")
	assert.Empty(t, f.svc.videos, "transcode should not run after a failed probe")
}

// Scenario: a non-empty blur file include limits blur to the listed files.
func TestBlurFileInclude(t *testing.T) {
	f := newFixture(t, map[string]string{
		"hero.jpg":  "hero",
		"other.jpg": "other",
	})
	f.cfg.BlurFiles.Include = []string{"hero.jpg"}
	f.cfg.BlurFolders.Include = []string{}

	f.walk(t, true, Options{})

	assert.Greater(t, f.svc.images[f.src("hero.jpg")].Blur, float64(0))
	assert.Equal(t, float64(0), f.svc.images[f.src("other.jpg")].Blur)
}

// Scenario: an excluded extension never reaches the output tree.
func TestExcludedExtensionSkipped(t *testing.T) {
	f := newFixture(t, map[string]string{
		"cache.tmp": "tmp",
		"keep.txt":  "txt",
	})
	f.cfg.Files.ExcludedExtensions = []string{".tmp"}

	report := f.walk(t, false, Options{})

	out := testutils.ReadTree(t, f.target)
	assert.NotContains(t, out, "cache.tmp")
	assert.Equal(t, "txt", out["keep.txt"])
	assert.Equal(t, status.Skipped, outcome(t, report, f.src("cache.tmp")).Outcome)
	assert.Equal(t, status.CopiedUnmodified, outcome(t, report, f.src("keep.txt")).Outcome)
}

func TestBlurPropagation(t *testing.T) {
	files := map[string]string{
		"private/a.jpg":             "a",
		"private/public/b.jpg":      "b",
		"private/public/deep/c.jpg": "c",
		"open/d.jpg":                "d",
		"open/nested/e.jpg":         "e",
	}

	t.Run("disallowed_ancestor_wins", func(t *testing.T) {
		f := newFixture(t, files)
		f.cfg.BlurFolders.Exclude = []string{"private"}
		f.cfg.BlurFiles.Include = []string{"b.jpg", "c.jpg", "d.jpg", "e.jpg", "a.jpg"}

		f.walk(t, true, Options{})

		for _, rel := range []string{"private/a.jpg", "private/public/b.jpg", "private/public/deep/c.jpg"} {
			assert.Zero(t, f.svc.images[f.src(rel)].Blur, "%s should not be blurred", rel)
		}
		for _, rel := range []string{"open/d.jpg", "open/nested/e.jpg"} {
			assert.NotZero(t, f.svc.images[f.src(rel)].Blur, "%s should be blurred", rel)
		}
	})

	t.Run("no_flag_no_blur", func(t *testing.T) {
		f := newFixture(t, files)

		f.walk(t, false, Options{})

		for rel := range files {
			assert.Zero(t, f.svc.images[f.src(rel)].Blur, "%s should not be blurred without the flag", rel)
		}
	})

	t.Run("blur_include_on_folders", func(t *testing.T) {
		f := newFixture(t, files)
		f.cfg.BlurFolders.Include = []string{"open"}

		f.walk(t, true, Options{})

		assert.NotZero(t, f.svc.images[f.src("open/d.jpg")].Blur)
		assert.Zero(t, f.svc.images[f.src("open/nested/e.jpg")].Blur, "nested is not in the include list")
		assert.Zero(t, f.svc.images[f.src("private/a.jpg")].Blur)
	})
}

func TestExcludedSubtreeNeverTransformed(t *testing.T) {
	f := newFixture(t, map[string]string{
		"raw/big.jpg":             "jpeg",
		"raw/nested/clip.webm":    "webm",
		"raw/nested/cache.tmp":    "tmp",
		"raw/nested/deeper/x.png": "png",
		"raw/.hidden":             "hidden",
	})
	f.cfg.Folders.Exclude = []string{"raw"}
	f.cfg.Files.ExcludedExtensions = []string{".tmp"}
	f.cfg.Files.Exclude = []string{"big.jpg"}
	f.cfg.BlurFiles.Include = []string{"big.jpg", "x.png"}

	report := f.walk(t, true, Options{})

	out := testutils.ReadTree(t, f.target)
	assert.Equal(t, map[string]string{
		"raw/big.jpg":             "jpeg",
		"raw/nested/clip.webm":    "webm",
		"raw/nested/cache.tmp":    "tmp",
		"raw/nested/deeper/x.png": "png",
	}, out, "excluded subtree should be mirrored without policy or transforms")
	assert.Empty(t, f.svc.touchedUnder(f.src("raw")))

	for _, res := range report.Results() {
		assert.Equal(t, status.CopiedUnmodified, res.Outcome, "%s", res.Source)
		assert.False(t, res.Blurred)
	}
}

func TestHiddenEntriesSkipped(t *testing.T) {
	f := newFixture(t, map[string]string{
		".git/config":      "git",
		".DS_Store":        "ds",
		"web/.cache/a.jpg": "a",
		"web/b.svg":        "svg",
	})

	report := f.walk(t, false, Options{})

	out := testutils.ReadTree(t, f.target)
	assert.Equal(t, map[string]string{"web/b.svg": "svg"}, out)
	assert.Equal(t, 1, report.Len(), "hidden entries should produce no results")
	assert.Equal(t, classify.CopyOnly, outcome(t, report, f.src("web/b.svg")).Class)
}

func TestImageHandling(t *testing.T) {
	t.Run("resize_threshold_is_inclusive", func(t *testing.T) {
		f := newFixture(t, map[string]string{"equal.jpg": "x", "smaller.jpg": "y", "bigger.png": "z"})
		f.cfg.Image.MaxWidth = 1000
		f.svc.meta["equal.jpg"] = media.Metadata{Width: 1000, Height: 10}
		f.svc.meta["smaller.jpg"] = media.Metadata{Width: 999, Height: 10}
		f.svc.meta["bigger.png"] = media.Metadata{Width: 5000, Height: 10}

		f.walk(t, false, Options{})

		assert.Equal(t, 1000, f.svc.images[f.src("equal.jpg")].ResizeToWidth)
		assert.Equal(t, 0, f.svc.images[f.src("smaller.jpg")].ResizeToWidth)
		assert.Equal(t, 1000, f.svc.images[f.src("bigger.png")].ResizeToWidth)
	})

	t.Run("resize_disabled", func(t *testing.T) {
		f := newFixture(t, map[string]string{"a.jpg": "x"})
		f.cfg.Image.EnableResize = false
		f.svc.meta["a.jpg"] = media.Metadata{Width: 9000, Height: 10}

		f.walk(t, false, Options{})

		assert.Equal(t, 0, f.svc.images[f.src("a.jpg")].ResizeToWidth)
	})

	t.Run("all_qualities_passed", func(t *testing.T) {
		f := newFixture(t, map[string]string{"a.png": "x"})
		f.cfg.Image.Quality = config.ImageQuality{JPEG: 70, PNG: 6, WebP: 60}

		f.walk(t, false, Options{})

		enc := f.svc.images[f.src("a.png")].Encode
		require.NotNil(t, enc.JPEG)
		require.NotNil(t, enc.PNG)
		require.NotNil(t, enc.WebP)
		assert.Equal(t, 70, *enc.JPEG)
		assert.Equal(t, 6, *enc.PNG)
		assert.Equal(t, 60, *enc.WebP)
	})

	t.Run("transform_failure_skips_file", func(t *testing.T) {
		f := newFixture(t, map[string]string{"bad.jpg": "x", "good.jpg": "y"})
		f.svc.transformErr["bad.jpg"] = errCorrupt

		report := f.walk(t, false, Options{})

		out := testutils.ReadTree(t, f.target)
		assert.NotContains(t, out, "bad.jpg", "failed images are not copied")
		assert.Contains(t, out, "good.jpg")

		res := outcome(t, report, f.src("bad.jpg"))
		assert.Equal(t, status.Failed, res.Outcome)
		var terr *media.TransformError
		assert.True(t, errors.As(res.Err, &terr))
	})

	t.Run("timeout_falls_back_to_copy", func(t *testing.T) {
		f := newFixture(t, map[string]string{"slow.jpg": "original"})
		f.svc.blockImages = true

		report := f.walk(t, false, Options{Timeout: 20 * time.Millisecond})

		out := testutils.ReadTree(t, f.target)
		assert.Equal(t, "original", out["slow.jpg"])
		res := outcome(t, report, f.src("slow.jpg"))
		assert.Equal(t, status.CopiedAsFallback, res.Outcome)
		assert.True(t, errors.Is(res.Err, context.DeadlineExceeded))
	})
}

func TestVideoHandling(t *testing.T) {
	t.Run("preserve_format_codecs", func(t *testing.T) {
		f := newFixture(t, map[string]string{"a.webm": "w", "b.mp4": "m", "c.mov": "q"})
		f.cfg.Video.PreserveFormat = true
		f.cfg.Video.Formats.Codec = "libx265"
		f.cfg.Video.Quality = config.VideoQuality{CRF: 30, Preset: "slow", Bitrate: "3M"}

		report := f.walk(t, false, Options{})

		webm := f.svc.videos[f.src("a.webm")]
		assert.Equal(t, media.CodecVP9, webm.Codec)
		assert.True(t, webm.RowMultithread)
		assert.Empty(t, webm.Bitrate, "vp9 never gets a bitrate")
		assert.Equal(t, 30, webm.CRF)
		assert.Equal(t, "slow", webm.Preset)

		mp4 := f.svc.videos[f.src("b.mp4")]
		assert.Equal(t, media.CodecH264, mp4.Codec)
		assert.Equal(t, "3M", mp4.Bitrate)
		assert.False(t, mp4.RowMultithread)

		assert.Equal(t, "libx265", f.svc.videos[f.src("c.mov")].Codec)

		out := testutils.ReadTree(t, f.target)
		assert.Equal(t, "video codec=libvpx-vp9", out["a.webm"])
		assert.Equal(t, "video codec=libx264", out["b.mp4"])
		assert.Equal(t, "video codec=libx265", out["c.mov"])
		assert.Equal(t, status.Transcoded, outcome(t, report, f.src("a.webm")).Outcome)
	})

	t.Run("convert_renames_extension", func(t *testing.T) {
		f := newFixture(t, map[string]string{"clip.mov": "q"})
		f.cfg.Video.PreserveFormat = false
		f.cfg.Video.Formats = config.VideoFormats{OutputFormat: "webm", Codec: media.CodecVP9}

		report := f.walk(t, false, Options{})

		out := testutils.ReadTree(t, f.target)
		assert.Equal(t, map[string]string{"clip.webm": "video codec=libvpx-vp9"}, out)
		res := outcome(t, report, f.src("clip.mov"))
		assert.Equal(t, filepath.Join(f.target, "clip.webm"), res.Target)
		assert.Equal(t, ".webm", filepath.Ext(f.svc.videoPaths[f.src("clip.mov")]), "staged file keeps the output extension")
	})

	t.Run("resize_when_either_dimension_exceeds", func(t *testing.T) {
		f := newFixture(t, map[string]string{"tall.mp4": "t", "fits.mp4": "f", "wide.mp4": "w"})
		f.cfg.Video.MaxWidth = 1920
		f.cfg.Video.MaxHeight = 1080
		f.svc.meta["tall.mp4"] = media.Metadata{Width: 1080, Height: 1920, HasVideoStream: true}
		f.svc.meta["fits.mp4"] = media.Metadata{Width: 1920, Height: 1080, HasVideoStream: true}
		f.svc.meta["wide.mp4"] = media.Metadata{Width: 3840, Height: 1000, HasVideoStream: true}

		f.walk(t, false, Options{})

		assert.Equal(t, &media.Size{Width: 1920, Height: 1080}, f.svc.videos[f.src("tall.mp4")].ResizeTo)
		assert.Nil(t, f.svc.videos[f.src("fits.mp4")].ResizeTo)
		assert.NotNil(t, f.svc.videos[f.src("wide.mp4")].ResizeTo)
	})

	t.Run("processing_disabled_copies", func(t *testing.T) {
		f := newFixture(t, map[string]string{"clip.mp4": "raw"})
		f.cfg.Video.EnableProcessing = false

		report := f.walk(t, false, Options{})

		assert.Equal(t, "raw", testutils.ReadTree(t, f.target)["clip.mp4"])
		assert.False(t, f.svc.wasProbed(f.src("clip.mp4")))
		assert.Equal(t, status.CopiedUnmodified, outcome(t, report, f.src("clip.mp4")).Outcome)
	})

	t.Run("no_video_stream_falls_back", func(t *testing.T) {
		f := newFixture(t, map[string]string{"audio.mp4": "aac"})
		f.svc.meta["audio.mp4"] = media.Metadata{}

		report := f.walk(t, false, Options{})

		assert.Equal(t, "aac", testutils.ReadTree(t, f.target)["audio.mp4"])
		res := outcome(t, report, f.src("audio.mp4"))
		assert.Equal(t, status.CopiedAsFallback, res.Outcome)
		assert.True(t, errors.Is(res.Err, media.ErrNoVideoStream))
	})

	t.Run("transcode_failure_copies_to_nominal_path", func(t *testing.T) {
		f := newFixture(t, map[string]string{"clip.mov": "original"})
		f.cfg.Video.PreserveFormat = false
		f.cfg.Video.Formats = config.VideoFormats{OutputFormat: "mp4", Codec: media.CodecH264}
		f.svc.transcodeErr["clip.mov"] = errCorrupt

		report := f.walk(t, false, Options{})

		out := testutils.ReadTree(t, f.target)
		assert.Equal(t, map[string]string{"clip.mov": "original"}, out, "no partial output should remain")
		assert.Empty(t, testutils.HiddenFiles(t, f.target))
		res := outcome(t, report, f.src("clip.mov"))
		assert.Equal(t, status.CopiedAsFallback, res.Outcome)
		var terr *media.TranscodeError
		assert.True(t, errors.As(res.Err, &terr))
	})

	t.Run("video_capability_not_registered", func(t *testing.T) {
		f := newFixture(t, map[string]string{"clip.webm": "w"})

		report := f.walkWith(t, false, Options{Video: false})

		assert.Equal(t, "w", testutils.ReadTree(t, f.target)["clip.webm"])
		assert.Empty(t, f.svc.videos)
		assert.False(t, f.svc.wasProbed(f.src("clip.webm")))
		res := outcome(t, report, f.src("clip.webm"))
		assert.Equal(t, status.CopiedUnmodified, res.Outcome)
		assert.Equal(t, classify.Other, res.Class)
	})
}

func TestWorkersCoverEveryFile(t *testing.T) {
	files := map[string]string{}
	for d := 0; d < 5; d++ {
		for i := 0; i < 10; i++ {
			files[fmt.Sprintf("dir%d/img%02d.jpg", d, i)] = "i"
			files[fmt.Sprintf("dir%d/doc%02d.txt", d, i)] = "t"
		}
	}
	f := newFixture(t, files)

	report := f.walk(t, true, Options{Workers: 8})

	assert.Equal(t, len(files), report.Len(), "every file should have a terminal outcome")
	out := testutils.ReadTree(t, f.target)
	assert.Len(t, out, len(files))
	assert.Empty(t, testutils.HiddenFiles(t, f.target), "no temp files should be left behind")
	for rel := range files {
		assert.Contains(t, out, rel)
	}
	assert.Empty(t, report.Failures())
}

func TestWalkIsIdempotent(t *testing.T) {
	f := newFixture(t, map[string]string{
		"raw/a.jpg":    "raw",
		"web/b.jpg":    "b",
		"web/c.webm":   "c",
		"web/d.svg":    "d",
		"web/skip.tmp": "tmp",
	})
	f.cfg.Folders.Exclude = []string{"raw"}
	f.cfg.Files.ExcludedExtensions = []string{".tmp"}

	f.walk(t, true, Options{Workers: 3})
	first := testutils.ReadTree(t, f.target)

	f.walk(t, true, Options{Workers: 3})
	second := testutils.ReadTree(t, f.target)

	assert.Equal(t, first, second)
}

func TestWalkCancelled(t *testing.T) {
	f := newFixture(t, map[string]string{"a.jpg": "a", "b/c.jpg": "c"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(f.cfg, f.svc, Options{Video: true}).Walk(ctx, f.source, f.target, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, report.Len())
	assert.Empty(t, testutils.ReadTree(t, f.target))
}

func TestWalkSourceErrors(t *testing.T) {
	dir := t.TempDir()
	w := New(config.Default(), newFakeMedia(), Options{})

	_, err := w.Walk(context.Background(), filepath.Join(dir, "missing"), filepath.Join(dir, "out"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading source root")

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = w.Walk(context.Background(), file, filepath.Join(dir, "out"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestCopyErrorIsRecorded(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	f := newFixture(t, map[string]string{"locked.txt": "secret", "open.txt": "ok"})
	require.NoError(t, os.Chmod(f.src("locked.txt"), 0000))
	defer os.Chmod(f.src("locked.txt"), 0644)

	report := f.walk(t, false, Options{})

	res := outcome(t, report, f.src("locked.txt"))
	assert.Equal(t, status.Failed, res.Outcome)
	assert.Equal(t, "ok", testutils.ReadTree(t, f.target)["open.txt"], "siblings are still copied")
}
