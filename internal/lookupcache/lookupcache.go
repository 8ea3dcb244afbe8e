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

// Package lookupcache holds the LookupAPI's short-TTL read cache, shared
// between internal/api (which reads it) and internal/events (which
// invalidates it once a mutating event has been applied to the Index).
package lookupcache

import (
	"time"

	"github.com/fileid-go/fileid/ttlcache"
)

// TTL bounds how stale a cached lookup may be absent an invalidating
// event — short enough to absorb a hot path's repeat-lookup traffic
// without masking a missed invalidation for long.
const TTL = 2 * time.Second

// Cache holds the two independent lookup directions the LookupAPI serves.
type Cache struct {
	byPath *ttlcache.Cache[string, string]
	byID   *ttlcache.Cache[string, string]
}

// New builds an empty Cache.
func New() *Cache {
	return &Cache{
		byPath: ttlcache.New[string, string](TTL, TTL),
		byID:   ttlcache.New[string, string](TTL, TTL),
	}
}

// GetID returns the cached id for path.
func (c *Cache) GetID(path string) (string, bool) { return c.byPath.Get(path) }

// SetID caches id for path.
func (c *Cache) SetID(path, id string) { c.byPath.Set(path, id) }

// GetPath returns the cached path for id.
func (c *Cache) GetPath(id string) (string, bool) { return c.byID.Get(id) }

// SetPath caches path for id.
func (c *Cache) SetPath(id, path string) { c.byID.Set(id, path) }

// Invalidate drops every cached lookup. Called after save/rename/copy/
// delete: a single directory rename propagates to an unbounded number of
// descendant path<->id mappings, so a full clear is simpler and safer
// than trying to address the individual keys a mutation touched.
func (c *Cache) Invalidate() {
	c.byPath.Clear()
	c.byID.Clear()
}
