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

// Package fileid implements the two index variants — LocalIndex, which
// reconciles the id<->path mapping against filesystem stat, and
// ArbitraryIndex, which trusts only its own API — behind a single Index
// capability set.
package fileid

import "context"

// EventHandler applies one contents-service event to an Index. path is
// always present; srcPath is populated for rename/copy events.
type EventHandler func(ctx context.Context, path string, srcPath string) error

// Index is the sealed capability set shared by LocalIndex and
// ArbitraryIndex: a tagged pair of implementations behind one interface,
// not an inheritance hierarchy open to further extension.
type Index interface {
	// Index returns the id for path, creating a record if none exists yet.
	// Returns ("", nil) if path does not exist.
	Index(ctx context.Context, path string) (string, error)

	// GetID returns the id currently associated with path without
	// creating a new record. Returns ("", nil) if unknown.
	GetID(ctx context.Context, path string) (string, error)

	// GetPath returns the current API path for id. Returns ("", nil) if
	// id is unknown or no longer resolves under root_dir.
	GetPath(ctx context.Context, id string) (string, error)

	// Move records that path oldPath became newPath.
	Move(ctx context.Context, oldPath, newPath string) (string, error)

	// Copy records that a copy of fromPath now also exists at toPath.
	Copy(ctx context.Context, fromPath, toPath string) (string, error)

	// Delete removes path (and, if it is a directory, every descendant)
	// from the index.
	Delete(ctx context.Context, path string) error

	// Save refreshes the stored fingerprint for path, a no-op for the
	// arbitrary backend.
	Save(ctx context.Context, path string) error

	// HandlersByAction returns the contents-service action dispatch table
	// this Index implementation supports.
	HandlersByAction() map[string]EventHandler
}
