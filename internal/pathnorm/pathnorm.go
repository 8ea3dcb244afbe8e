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

// Package pathnorm converts between API paths (relative to root_dir,
// forward-slash delimited, as clients see them) and persistable paths (the
// form a Store actually holds, which differs by backend).
package pathnorm

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutOfRoot is returned when a persisted path does not denote a
// descendant of root_dir.
var ErrOutOfRoot = errors.New("pathnorm: path is not under root_dir")

// ErrPathInvalid is returned when root_dir or the input path fails a
// backend's structural requirements (e.g. a relative root_dir for the
// local backend).
var ErrPathInvalid = errors.New("pathnorm: path is invalid")

// Normalizer converts between API paths and a backend's persistable form.
type Normalizer interface {
	// ToPersisted converts an API (or already-persisted) path into the
	// canonical persistable form.
	ToPersisted(apiPath string) (string, error)
	// FromPersisted converts a persisted path back to API form. Returns
	// ErrOutOfRoot if persisted is not a descendant of root_dir.
	FromPersisted(persisted string) (string, error)
}

// LocalNormalizer persists absolute, lexically-normalized OS paths rooted
// at an absolute root_dir.
type LocalNormalizer struct {
	RootDir string
}

// NewLocalNormalizer validates that rootDir is absolute.
func NewLocalNormalizer(rootDir string) (*LocalNormalizer, error) {
	if !filepath.IsAbs(rootDir) {
		return nil, fmt.Errorf("%w: root_dir %q must be absolute for the local backend", ErrPathInvalid, rootDir)
	}
	return &LocalNormalizer{RootDir: filepath.Clean(rootDir)}, nil
}

func (n *LocalNormalizer) ToPersisted(apiPath string) (string, error) {
	if filepath.IsAbs(apiPath) {
		return filepath.Clean(apiPath), nil
	}
	return filepath.Clean(filepath.Join(n.RootDir, filepath.FromSlash(apiPath))), nil
}

func (n *LocalNormalizer) FromPersisted(persisted string) (string, error) {
	rel, err := filepath.Rel(n.RootDir, persisted)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutOfRoot, persisted)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutOfRoot, persisted)
	}
	if rel == "." {
		rel = ""
	}
	return filepath.ToSlash(rel), nil
}

// ArbitraryNormalizer treats paths as opaque strings rooted at an
// arbitrary prefix (e.g. an object-storage URI); the filesystem is never
// consulted.
type ArbitraryNormalizer struct {
	RootDir string
}

// NewArbitraryNormalizer accepts any root_dir, including the empty string.
func NewArbitraryNormalizer(rootDir string) *ArbitraryNormalizer {
	return &ArbitraryNormalizer{RootDir: strings.Trim(rootDir, "/")}
}

// collapseBackslashes strips leading/trailing backslashes and rewrites the
// remaining ones as forward slashes, per spec: the arbitrary backend never
// touches a real filesystem, so backslashes only ever arrive as literal
// path-separator characters a caller used on Windows-flavored input.
func collapseBackslashes(s string) string {
	s = strings.Trim(s, `\`)
	parts := strings.Split(s, `\`)
	return strings.Join(parts, "/")
}

func (n *ArbitraryNormalizer) ToPersisted(apiPath string) (string, error) {
	p := collapseBackslashes(apiPath)
	p = strings.Trim(p, "/")

	if n.RootDir == "" {
		return p, nil
	}
	if p == n.RootDir || strings.HasPrefix(p, n.RootDir+"/") {
		return p, nil
	}
	return n.RootDir + "/" + p, nil
}

func (n *ArbitraryNormalizer) FromPersisted(persisted string) (string, error) {
	if n.RootDir == "" {
		return persisted, nil
	}
	if persisted == n.RootDir {
		return "", nil
	}
	prefix := n.RootDir + "/"
	if !strings.HasPrefix(persisted, prefix) {
		return "", fmt.Errorf("%w: %s", ErrOutOfRoot, persisted)
	}
	return strings.TrimPrefix(persisted, prefix), nil
}
