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
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	_ "golang.org/x/image/webp"
)

// WebPEncoder turns an intermediate PNG into a WebP file at the given quality.
type WebPEncoder interface {
	EncodeWebP(ctx context.Context, srcPNG, dst string, quality int) error
}

// 🖼️ ImageTransformer decodes, resizes, blurs and re-encodes images in process.
// The output format always follows the extension of dst.
type ImageTransformer struct {
	WebP WebPEncoder
}

// 📏 ProbeImage reads only the image header
func ProbeImage(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, &ProbeError{Path: path, Err: err}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Metadata{}, &ProbeError{Path: path, Err: errors.Errorf("decoding image header: %w", err)}
	}
	return Metadata{Width: cfg.Width, Height: cfg.Height}, nil
}

// 🔄 Transform applies opts to src and writes the result to dst
func (t *ImageTransformer) Transform(ctx context.Context, src, dst string, opts ImageOptions) error {
	logger := zerolog.Ctx(ctx)

	img, err := decodeImage(src)
	if err != nil {
		return &TransformError{Path: src, Op: "decode", Err: err}
	}

	if opts.ResizeToWidth > 0 {
		if err := ctx.Err(); err != nil {
			return &TransformError{Path: src, Op: "resize", Err: err}
		}
		// height 0 keeps the aspect ratio
		img = resize.Resize(uint(opts.ResizeToWidth), 0, img, resize.Lanczos3)
		logger.Debug().Str("file", src).Int("width", opts.ResizeToWidth).Msg("resized image")
	}

	if opts.Blur > 0 {
		if err := ctx.Err(); err != nil {
			return &TransformError{Path: src, Op: "blur", Err: err}
		}
		img = imaging.Blur(img, opts.Blur)
		logger.Debug().Str("file", src).Float64("sigma", opts.Blur).Msg("blurred image")
	}

	if err := ctx.Err(); err != nil {
		return &TransformError{Path: src, Op: "encode", Err: err}
	}
	if err := t.encode(ctx, img, dst, opts.Encode); err != nil {
		return &TransformError{Path: src, Op: "encode", Err: err}
	}
	return nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func (t *ImageTransformer) encode(ctx context.Context, img image.Image, dst string, enc EncodeOptions) error {
	ext := strings.ToLower(filepath.Ext(dst))
	switch ext {
	case ".jpg", ".jpeg":
		q := jpeg.DefaultQuality
		if enc.JPEG != nil {
			q = clamp(*enc.JPEG, 1, 100)
		}
		return writeImage(dst, func(f *os.File) error {
			return jpeg.Encode(f, img, &jpeg.Options{Quality: q})
		})
	case ".png":
		level := png.DefaultCompression
		if enc.PNG != nil {
			level = PNGCompression(*enc.PNG)
		}
		return writePNG(dst, img, level)
	case ".gif":
		return writeImage(dst, func(f *os.File) error {
			return gif.Encode(f, img, nil)
		})
	case ".webp":
		if t.WebP == nil {
			return errors.Errorf("no webp encoder available: %w", ErrUnsupportedFormat)
		}
		q := 80
		if enc.WebP != nil {
			q = clamp(*enc.WebP, 0, 100)
		}
		return t.encodeWebP(ctx, img, dst, q)
	default:
		return errors.Errorf("encoding %q: %w", ext, ErrUnsupportedFormat)
	}
}

// WebP goes through a lossless PNG intermediate beside dst.
func (t *ImageTransformer) encodeWebP(ctx context.Context, img image.Image, dst string, quality int) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".assetrc-*-intermediate.png")
	if err != nil {
		return errors.Errorf("creating intermediate file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := writePNG(tmpPath, img, png.BestSpeed); err != nil {
		return err
	}
	return t.WebP.EncodeWebP(ctx, tmpPath, dst, quality)
}

func writePNG(dst string, img image.Image, level png.CompressionLevel) error {
	encoder := &png.Encoder{CompressionLevel: level}
	return writeImage(dst, func(f *os.File) error {
		return encoder.Encode(f, img)
	})
}

func writeImage(dst string, encode func(*os.File) error) error {
	f, err := os.Create(dst)
	if err != nil {
		return errors.Errorf("creating output file: %w", err)
	}
	if err := encode(f); err != nil {
		f.Close()
		return errors.Errorf("encoding image: %w", err)
	}
	if err := f.Close(); err != nil {
		return errors.Errorf("closing output file: %w", err)
	}
	return nil
}

// 🗜️ PNGCompression maps a 0-9 zlib-style level onto the encoder's presets
func PNGCompression(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
