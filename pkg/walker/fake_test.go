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
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetrc/pkg/media"
)

// fakeMedia writes a description of the requested transform instead of real pixels.
type fakeMedia struct {
	mu sync.Mutex

	meta         map[string]media.Metadata // by basename
	probeErr     map[string]error
	transformErr map[string]error
	transcodeErr map[string]error
	blockImages  bool

	probed     []string
	images     map[string]media.ImageOptions // by source path
	videos     map[string]media.VideoOptions // by source path
	videoPaths map[string]string             // source -> dst handed to TranscodeVideo
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{
		meta:         map[string]media.Metadata{},
		probeErr:     map[string]error{},
		transformErr: map[string]error{},
		transcodeErr: map[string]error{},
		images:       map[string]media.ImageOptions{},
		videos:       map[string]media.VideoOptions{},
		videoPaths:   map[string]string{},
	}
}

var _ media.Service = (*fakeMedia)(nil)

func (f *fakeMedia) Probe(ctx context.Context, path string) (media.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, path)
	name := filepath.Base(path)
	if err, ok := f.probeErr[name]; ok {
		return media.Metadata{}, &media.ProbeError{Path: path, Err: err}
	}
	if md, ok := f.meta[name]; ok {
		return md, nil
	}
	return media.Metadata{Width: 100, Height: 100, HasVideoStream: true}, nil
}

func (f *fakeMedia) TransformImage(ctx context.Context, src, dst string, opts media.ImageOptions) error {
	f.mu.Lock()
	f.images[src] = opts
	err, failing := f.transformErr[filepath.Base(src)]
	block := f.blockImages
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return &media.TransformError{Path: src, Op: "encode", Err: ctx.Err()}
	}
	if failing {
		return &media.TransformError{Path: src, Op: "decode", Err: err}
	}
	return os.WriteFile(dst, []byte(fmt.Sprintf("image width=%d blur=%g", opts.ResizeToWidth, opts.Blur)), 0644)
}

func (f *fakeMedia) TranscodeVideo(ctx context.Context, src, dst string, opts media.VideoOptions) error {
	f.mu.Lock()
	f.videos[src] = opts
	f.videoPaths[src] = dst
	err, failing := f.transcodeErr[filepath.Base(src)]
	f.mu.Unlock()

	if failing {
		// a partial write before failing must never reach the output tree
		_ = os.WriteFile(dst, []byte("partial"), 0644)
		return &media.TranscodeError{Path: src, Err: err}
	}
	return os.WriteFile(dst, []byte("video codec="+opts.Codec), 0644)
}

func (f *fakeMedia) wasProbed(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.probed {
		if p == path {
			return true
		}
	}
	return false
}

func (f *fakeMedia) touchedUnder(dir string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	prefix := dir + string(filepath.Separator)
	for _, p := range f.probed {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	for p := range f.images {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	for p := range f.videos {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

var errCorrupt = errors.Base("corrupt file")
