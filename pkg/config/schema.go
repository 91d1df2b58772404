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

// 📄 document is the on-disk schema shared by the YAML and JSON parsers.
// Pointer fields distinguish "absent" (keep the default) from an explicit zero value.
type document struct {
	Folders    *namesDoc      `json:"folders,omitempty" yaml:"folders,omitempty"`
	Files      *namesDoc      `json:"files,omitempty" yaml:"files,omitempty"`
	Extensions *extensionsDoc `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Image      *imageDoc      `json:"image,omitempty" yaml:"image,omitempty"`
	Video      *videoDoc      `json:"video,omitempty" yaml:"video,omitempty"`
	Blur       *blurDoc       `json:"blur,omitempty" yaml:"blur,omitempty"`
}

type namesDoc struct {
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

type extensionsDoc struct {
	Processable      []string `json:"processable,omitempty" yaml:"processable,omitempty"`
	VideoProcessable []string `json:"videoProcessable,omitempty" yaml:"videoProcessable,omitempty"`
	CopyOnly         []string `json:"copyOnly,omitempty" yaml:"copyOnly,omitempty"`
	Exclude          []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

type imageDoc struct {
	EnableResize *bool            `json:"enableResize,omitempty" yaml:"enableResize,omitempty"`
	MaxWidth     *int             `json:"maxWidth,omitempty" yaml:"maxWidth,omitempty"`
	Quality      *imageQualityDoc `json:"quality,omitempty" yaml:"quality,omitempty"`
}

type imageQualityDoc struct {
	JPEG *int `json:"jpeg,omitempty" yaml:"jpeg,omitempty"`
	PNG  *int `json:"png,omitempty" yaml:"png,omitempty"`
	WebP *int `json:"webp,omitempty" yaml:"webp,omitempty"`
}

type videoDoc struct {
	EnableProcessing *bool            `json:"enableProcessing,omitempty" yaml:"enableProcessing,omitempty"`
	EnableResize     *bool            `json:"enableResize,omitempty" yaml:"enableResize,omitempty"`
	PreserveFormat   *bool            `json:"preserveFormat,omitempty" yaml:"preserveFormat,omitempty"`
	MaxWidth         *int             `json:"maxWidth,omitempty" yaml:"maxWidth,omitempty"`
	MaxHeight        *int             `json:"maxHeight,omitempty" yaml:"maxHeight,omitempty"`
	Quality          *videoQualityDoc `json:"quality,omitempty" yaml:"quality,omitempty"`
	Formats          *videoFormatsDoc `json:"formats,omitempty" yaml:"formats,omitempty"`
}

type videoQualityDoc struct {
	CRF     *int    `json:"crf,omitempty" yaml:"crf,omitempty"`
	Preset  *string `json:"preset,omitempty" yaml:"preset,omitempty"`
	Bitrate *string `json:"bitrate,omitempty" yaml:"bitrate,omitempty"`
}

type videoFormatsDoc struct {
	OutputFormat *string `json:"outputFormat,omitempty" yaml:"outputFormat,omitempty"`
	Codec        *string `json:"codec,omitempty" yaml:"codec,omitempty"`
}

type blurDoc struct {
	Strength *float64  `json:"strength,omitempty" yaml:"strength,omitempty"`
	Folders  *namesDoc `json:"folders,omitempty" yaml:"folders,omitempty"`
	Files    *namesDoc `json:"files,omitempty" yaml:"files,omitempty"`
}

// 🔄 resolve overlays the document on top of Default
func (d *document) resolve() *Config {
	cfg := Default()

	if d.Folders != nil {
		cfg.Folders = d.Folders.policy()
	}
	if d.Files != nil {
		cfg.Files.NamePolicy = d.Files.policy()
	}

	if e := d.Extensions; e != nil {
		setList(&cfg.Extensions.Optimizable, e.Processable)
		setList(&cfg.Extensions.Transcodable, e.VideoProcessable)
		setList(&cfg.Extensions.CopyOnly, e.CopyOnly)
		setList(&cfg.Files.ExcludedExtensions, e.Exclude)
	}

	if im := d.Image; im != nil {
		setBool(&cfg.Image.EnableResize, im.EnableResize)
		setInt(&cfg.Image.MaxWidth, im.MaxWidth)
		if q := im.Quality; q != nil {
			setInt(&cfg.Image.Quality.JPEG, q.JPEG)
			setInt(&cfg.Image.Quality.PNG, q.PNG)
			setInt(&cfg.Image.Quality.WebP, q.WebP)
		}
	}

	if v := d.Video; v != nil {
		setBool(&cfg.Video.EnableProcessing, v.EnableProcessing)
		setBool(&cfg.Video.EnableResize, v.EnableResize)
		setBool(&cfg.Video.PreserveFormat, v.PreserveFormat)
		setInt(&cfg.Video.MaxWidth, v.MaxWidth)
		setInt(&cfg.Video.MaxHeight, v.MaxHeight)
		if q := v.Quality; q != nil {
			setInt(&cfg.Video.Quality.CRF, q.CRF)
			setString(&cfg.Video.Quality.Preset, q.Preset)
			setString(&cfg.Video.Quality.Bitrate, q.Bitrate)
		}
		if f := v.Formats; f != nil {
			setString(&cfg.Video.Formats.OutputFormat, f.OutputFormat)
			setString(&cfg.Video.Formats.Codec, f.Codec)
		}
	}

	if b := d.Blur; b != nil {
		if b.Strength != nil {
			cfg.BlurStrength = *b.Strength
		}
		if b.Folders != nil {
			cfg.BlurFolders = b.Folders.policy()
		}
		if b.Files != nil {
			cfg.BlurFiles = b.Files.policy()
		}
	}

	return cfg
}

func (n *namesDoc) policy() NamePolicy {
	return NamePolicy{Include: n.Include, Exclude: n.Exclude}
}

// a nil list means the key was absent; an explicit empty list clears the default
func setList(dst *[]string, src []string) {
	if src != nil {
		*dst = src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
