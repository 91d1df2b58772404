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

package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📋 NamePolicy is an include/exclude pair of basenames.
// A non-empty Include is an allow-list and Exclude is ignored.
type NamePolicy struct {
	Include []string
	Exclude []string
}

// 📄 FilePolicy adds an extension deny-list to a NamePolicy.
type FilePolicy struct {
	NamePolicy
	ExcludedExtensions []string
}

// 🗂️ ExtensionClasses maps lowercased, dot-prefixed extensions to a handling strategy.
type ExtensionClasses struct {
	Optimizable  []string
	Transcodable []string
	CopyOnly     []string
}

// 🖼️ ImageQuality holds per-encoder quality settings
type ImageQuality struct {
	JPEG int // 0-100
	PNG  int // compression level 0-9
	WebP int // 0-100
}

// 🖼️ ImageSettings controls image optimization
type ImageSettings struct {
	EnableResize bool
	MaxWidth     int
	Quality      ImageQuality
}

// 🎬 VideoQuality controls the encoder rate settings
type VideoQuality struct {
	CRF     int
	Preset  string
	Bitrate string // empty means unset
}

// 🎬 VideoFormats is the target container/codec used when the source format is not preserved
type VideoFormats struct {
	OutputFormat string
	Codec        string
}

// 🎬 VideoSettings controls video transcoding
type VideoSettings struct {
	EnableProcessing bool
	EnableResize     bool
	PreserveFormat   bool
	MaxWidth         int
	MaxHeight        int
	Quality          VideoQuality
	Formats          VideoFormats
}

// 📚 Config is the fully resolved policy configuration for one run.
// It is built once by Load and must be treated as read-only afterwards.
type Config struct {
	Folders      NamePolicy
	Files        FilePolicy
	BlurFolders  NamePolicy
	BlurFiles    NamePolicy
	Extensions   ExtensionClasses
	Image        ImageSettings
	Video        VideoSettings
	BlurStrength float64

	location string
}

// 🏭 Default returns the configuration used for every key a config file leaves out
func Default() *Config {
	return &Config{
		Extensions: ExtensionClasses{
			Optimizable:  []string{".jpg", ".jpeg", ".png", ".webp"},
			Transcodable: []string{".mp4", ".webm", ".mov"},
			CopyOnly:     []string{".svg", ".gif", ".ico"},
		},
		Image: ImageSettings{
			EnableResize: true,
			MaxWidth:     1920,
			Quality: ImageQuality{
				JPEG: 80,
				PNG:  8,
				WebP: 80,
			},
		},
		Video: VideoSettings{
			EnableProcessing: true,
			EnableResize:     true,
			PreserveFormat:   true,
			MaxWidth:         1920,
			MaxHeight:        1080,
			Quality: VideoQuality{
				CRF:    28,
				Preset: "medium",
			},
			Formats: VideoFormats{
				OutputFormat: "mp4",
				Codec:        "libx264",
			},
		},
		BlurStrength: 10,
	}
}

// LoadError is returned by Load for any failure to read, parse or validate a config file.
// It is the only error class that aborts a run.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: errors.Errorf("reading config file: %w", err)}
	}

	p := GetParser(path)
	if p == nil {
		return nil, &LoadError{Path: path, Err: errors.Errorf("no parser found for file: %s", path)}
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: errors.Errorf("parsing config: %w", err)}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Path: path, Err: errors.Errorf("validating config: %w", err)}
	}

	for _, ext := range cfg.overlappingExtensions() {
		logger.Warn().Str("extension", ext).Msg("extension listed in more than one class, first match wins")
	}

	cfg.location = path
	return cfg, nil
}

// 🔍 Validate checks value ranges and normalizes extension lists in place
func (cfg *Config) Validate() error {
	if cfg.Image.MaxWidth <= 0 {
		return errors.Errorf("image.maxWidth must be greater than 0, got %d", cfg.Image.MaxWidth)
	}
	if err := checkRange("image.quality.jpeg", cfg.Image.Quality.JPEG, 0, 100); err != nil {
		return err
	}
	if err := checkRange("image.quality.png", cfg.Image.Quality.PNG, 0, 9); err != nil {
		return err
	}
	if err := checkRange("image.quality.webp", cfg.Image.Quality.WebP, 0, 100); err != nil {
		return err
	}
	if cfg.Video.MaxWidth <= 0 {
		return errors.Errorf("video.maxWidth must be greater than 0, got %d", cfg.Video.MaxWidth)
	}
	if cfg.Video.MaxHeight <= 0 {
		return errors.Errorf("video.maxHeight must be greater than 0, got %d", cfg.Video.MaxHeight)
	}
	if err := checkRange("video.quality.crf", cfg.Video.Quality.CRF, 0, 63); err != nil {
		return err
	}
	if cfg.Video.Quality.Preset == "" {
		return errors.Errorf("video.quality.preset is required")
	}
	if !cfg.Video.PreserveFormat {
		if cfg.Video.Formats.OutputFormat == "" {
			return errors.Errorf("video.formats.outputFormat is required when preserveFormat is false")
		}
		if cfg.Video.Formats.Codec == "" {
			return errors.Errorf("video.formats.codec is required when preserveFormat is false")
		}
	}
	if cfg.BlurStrength <= 0 {
		return errors.Errorf("blur.strength must be greater than 0, got %v", cfg.BlurStrength)
	}

	cfg.Video.Formats.OutputFormat = strings.TrimPrefix(strings.ToLower(cfg.Video.Formats.OutputFormat), ".")
	cfg.Extensions.Optimizable = NormalizeExtensions(cfg.Extensions.Optimizable)
	cfg.Extensions.Transcodable = NormalizeExtensions(cfg.Extensions.Transcodable)
	cfg.Extensions.CopyOnly = NormalizeExtensions(cfg.Extensions.CopyOnly)
	cfg.Files.ExcludedExtensions = NormalizeExtensions(cfg.Files.ExcludedExtensions)

	return nil
}

// 📍 Location returns the path the config was loaded from, if any
func (cfg *Config) Location() string {
	return cfg.location
}

// 📝 String returns a short description of the config
func (cfg *Config) String() string {
	loc := cfg.Location()
	if loc == "" {
		loc = "<defaults>"
	}
	return fmt.Sprintf("%s (images: %d, videos: %d, copy-only: %d extensions)",
		loc, len(cfg.Extensions.Optimizable), len(cfg.Extensions.Transcodable), len(cfg.Extensions.CopyOnly))
}

// NormalizeExtension lowercases ext and ensures it has a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// NormalizeExtensions applies NormalizeExtension to every entry, dropping blanks.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		if n := NormalizeExtension(ext); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (cfg *Config) overlappingExtensions() []string {
	seen := map[string]int{}
	var dup []string
	for _, class := range [][]string{cfg.Extensions.Optimizable, cfg.Extensions.Transcodable, cfg.Extensions.CopyOnly} {
		local := map[string]bool{}
		for _, ext := range class {
			if local[ext] {
				continue
			}
			local[ext] = true
			seen[ext]++
			if seen[ext] == 2 {
				dup = append(dup, ext)
			}
		}
	}
	return dup
}

func checkRange(key string, v, lo, hi int) error {
	if v < lo || v > hi {
		return errors.Errorf("%s must be between %d and %d, got %d", key, lo, hi, v)
	}
	return nil
}
