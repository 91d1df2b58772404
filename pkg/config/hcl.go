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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

type hclNames struct {
	Include []string `hcl:"include,optional"`
	Exclude []string `hcl:"exclude,optional"`
}

type hclImageQuality struct {
	JPEG *int `hcl:"jpeg,optional"`
	PNG  *int `hcl:"png,optional"`
	WebP *int `hcl:"webp,optional"`
}

type hclVideoQuality struct {
	CRF     *int    `hcl:"crf,optional"`
	Preset  *string `hcl:"preset,optional"`
	Bitrate *string `hcl:"bitrate,optional"`
}

type hclVideoFormats struct {
	OutputFormat *string `hcl:"outputFormat,optional"`
	Codec        *string `hcl:"codec,optional"`
}

// 📄 hclDocument is the block schema for HCL configs
type hclDocument struct {
	Folders    *hclNames `hcl:"folders,block"`
	Files      *hclNames `hcl:"files,block"`
	Extensions *struct {
		Processable      []string `hcl:"processable,optional"`
		VideoProcessable []string `hcl:"videoProcessable,optional"`
		CopyOnly         []string `hcl:"copyOnly,optional"`
		Exclude          []string `hcl:"exclude,optional"`
	} `hcl:"extensions,block"`
	Image *struct {
		EnableResize *bool            `hcl:"enableResize,optional"`
		MaxWidth     *int             `hcl:"maxWidth,optional"`
		Quality      *hclImageQuality `hcl:"quality,block"`
	} `hcl:"image,block"`
	Video *struct {
		EnableProcessing *bool            `hcl:"enableProcessing,optional"`
		EnableResize     *bool            `hcl:"enableResize,optional"`
		PreserveFormat   *bool            `hcl:"preserveFormat,optional"`
		MaxWidth         *int             `hcl:"maxWidth,optional"`
		MaxHeight        *int             `hcl:"maxHeight,optional"`
		Quality          *hclVideoQuality `hcl:"quality,block"`
		Formats          *hclVideoFormats `hcl:"formats,block"`
	} `hcl:"video,block"`
	Blur *struct {
		Strength *float64  `hcl:"strength,optional"`
		Folders  *hclNames `hcl:"folders,block"`
		Files    *hclNames `hcl:"files,block"`
	} `hcl:"blur,block"`
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var hclDoc hclDocument
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclDoc)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return hclDoc.toDocument().resolve(), nil
}

// 🔄 toDocument converts the HCL schema into the shared document schema
func (h *hclDocument) toDocument() *document {
	doc := &document{
		Folders: h.Folders.toNames(),
		Files:   h.Files.toNames(),
	}

	if e := h.Extensions; e != nil {
		doc.Extensions = &extensionsDoc{
			Processable:      e.Processable,
			VideoProcessable: e.VideoProcessable,
			CopyOnly:         e.CopyOnly,
			Exclude:          e.Exclude,
		}
	}

	if im := h.Image; im != nil {
		doc.Image = &imageDoc{
			EnableResize: im.EnableResize,
			MaxWidth:     im.MaxWidth,
		}
		if q := im.Quality; q != nil {
			doc.Image.Quality = &imageQualityDoc{JPEG: q.JPEG, PNG: q.PNG, WebP: q.WebP}
		}
	}

	if v := h.Video; v != nil {
		doc.Video = &videoDoc{
			EnableProcessing: v.EnableProcessing,
			EnableResize:     v.EnableResize,
			PreserveFormat:   v.PreserveFormat,
			MaxWidth:         v.MaxWidth,
			MaxHeight:        v.MaxHeight,
		}
		if q := v.Quality; q != nil {
			doc.Video.Quality = &videoQualityDoc{CRF: q.CRF, Preset: q.Preset, Bitrate: q.Bitrate}
		}
		if f := v.Formats; f != nil {
			doc.Video.Formats = &videoFormatsDoc{OutputFormat: f.OutputFormat, Codec: f.Codec}
		}
	}

	if b := h.Blur; b != nil {
		doc.Blur = &blurDoc{
			Strength: b.Strength,
			Folders:  b.Folders.toNames(),
			Files:    b.Files.toNames(),
		}
	}

	return doc
}

func (n *hclNames) toNames() *namesDoc {
	if n == nil {
		return nil
	}
	return &namesDoc{Include: n.Include, Exclude: n.Exclude}
}
