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

// Package classify maps a file extension to the strategy used to handle it.
package classify

import (
	"github.com/walteh/assetrc/pkg/config"
)

// 🏷️ Class is the handling strategy for a file
type Class int

const (
	Other             Class = iota // not configured; copied unmodified
	OptimizableImage               // resized / blurred / re-encoded
	TranscodableVideo              // probed and transcoded
	CopyOnly                       // explicitly configured raw copy
)

// String returns a string representation of Class
func (c Class) String() string {
	switch c {
	case OptimizableImage:
		return "image"
	case TranscodableVideo:
		return "video"
	case CopyOnly:
		return "copy-only"
	default:
		return "other"
	}
}

// IsRawCopy reports whether files of this class are copied without inspection.
func (c Class) IsRawCopy() bool {
	return c == CopyOnly || c == Other
}

// 🔧 Classifier holds the configured extension sets
type Classifier struct {
	optimizable  map[string]struct{}
	transcodable map[string]struct{}
	copyOnly     map[string]struct{}
}

// 🏭 New builds a classifier. When video is false the transcodable set is not
// consulted, so video files fall through to copy-only or other.
func New(ext config.ExtensionClasses, video bool) *Classifier {
	c := &Classifier{
		optimizable: toSet(ext.Optimizable),
		copyOnly:    toSet(ext.CopyOnly),
	}
	if video {
		c.transcodable = toSet(ext.Transcodable)
	}
	return c
}

// 🎯 Classify checks optimizable, then transcodable, then copy-only
func (c *Classifier) Classify(ext string) Class {
	ext = config.NormalizeExtension(ext)
	if _, ok := c.optimizable[ext]; ok {
		return OptimizableImage
	}
	if _, ok := c.transcodable[ext]; ok {
		return TranscodableVideo
	}
	if _, ok := c.copyOnly[ext]; ok {
		return CopyOnly
	}
	return Other
}

func toSet(exts []string) map[string]struct{} {
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		m[config.NormalizeExtension(e)] = struct{}{}
	}
	return m
}
