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

// Package fsx holds the filesystem primitives the walker builds on: directory
// creation, atomic copies, and staged writes that only become visible on Commit.
package fsx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🙈 IsHidden reports whether a directory entry name is hidden (dot-prefixed)
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// CopyError reports a failed raw copy of one file.
type CopyError struct {
	Src string
	Dst string
	Err error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copying %s -> %s: %v", e.Src, e.Dst, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// 📁 MkdirAll creates dir and any missing parents
func MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// 📦 Staged is a hidden temp file beside its final target.
// Writers fill Path, then Commit renames it over the target or Discard removes it.
type Staged struct {
	Path   string
	target string
	done   bool
}

// 🏗️ Stage reserves a temp file in the target's directory.
// The temp name keeps the target's extension so tools that infer the format from it still work.
func Stage(target string) (*Staged, error) {
	dir, base := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ".assetrc-*-"+base)
	if err != nil {
		return nil, errors.Errorf("creating temp file for %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, errors.Errorf("closing temp file: %w", err)
	}
	return &Staged{Path: tmp.Name(), target: target}, nil
}

// Target returns the final path the staged file is committed to.
func (s *Staged) Target() string {
	return s.target
}

// 🔐 CommitAs sets the staged file's permission bits to those of src, then commits.
// Encoders that write into the staged file keep its private temp mode otherwise.
func (s *Staged) CommitAs(src string) error {
	info, err := os.Stat(src)
	if err != nil {
		s.Discard()
		return errors.Errorf("stating source file: %w", err)
	}
	if err := os.Chmod(s.Path, info.Mode().Perm()); err != nil && runtime.GOOS != "windows" {
		s.Discard()
		return errors.Errorf("setting file mode: %w", err)
	}
	return s.Commit()
}

// ✅ Commit atomically moves the staged file onto its target
func (s *Staged) Commit() error {
	if s.done {
		return errors.Errorf("staged file %s already finalized", s.Path)
	}
	s.done = true
	if err := os.Rename(s.Path, s.target); err != nil {
		_ = os.Remove(s.Path)
		return errors.Errorf("renaming temp file: %w", err)
	}
	_ = syncDirBestEffort(filepath.Dir(s.target))
	return nil
}

// 🗑️ Discard removes the staged file. It is a no-op after Commit.
func (s *Staged) Discard() {
	if s.done {
		return
	}
	s.done = true
	_ = os.Remove(s.Path)
}

// 📋 CopyFile copies src to dst byte for byte, preserving the permission bits.
// The copy is staged and renamed so dst never holds a partial file.
func CopyFile(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}
	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return errors.Errorf("stating source file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return errors.Errorf("source is not a regular file: %s", info.Mode().Type())
	}

	staged, err := Stage(dst)
	if err != nil {
		return err
	}
	defer staged.Discard()

	dstFile, err := os.OpenFile(staged.Path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return errors.Errorf("opening temp file: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return errors.Errorf("copying file content: %w", err)
	}
	if err := dstFile.Chmod(info.Mode().Perm()); err != nil && runtime.GOOS != "windows" {
		dstFile.Close()
		return errors.Errorf("setting file mode: %w", err)
	}
	if err := dstFile.Sync(); err != nil {
		dstFile.Close()
		return errors.Errorf("syncing temp file: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return errors.Errorf("closing temp file: %w", err)
	}

	return staged.Commit()
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
