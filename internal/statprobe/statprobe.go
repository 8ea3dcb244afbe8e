// Copyright 2024 Google Inc. All Rights Reserved.
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

// Package statprobe projects a filesystem stat into the fixed fingerprint
// the reconciliation engine compares: inode, creation time (where the
// platform exposes one), modification time, and the directory/symlink
// flags.
package statprobe

import (
	"errors"
	"os"
)

// Stat is the fingerprint LocalIndex reconciliation compares records
// against. Crtime is nil on platforms without birthtime support.
type Stat struct {
	Ino       uint64
	Crtime    *int64 // nanoseconds since epoch
	MtimeNs   int64
	IsDir     bool
	IsSymlink bool
}

// Probe lstats path (so a symlink is reported as such, never followed
// implicitly) and projects the result into a Stat. A nonexistent path
// returns (nil, nil): the caller's "path missing" case, not an error.
func Probe(path string) (*Stat, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return &Stat{IsSymlink: true}, nil
	}

	return project(info), nil
}

// ProbeFollow stats the real target of path, following symlinks. Used by
// LocalIndex.index to probe "the real path" once a symlink has been
// resolved.
func ProbeFollow(path string) (*Stat, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return project(info), nil
}
