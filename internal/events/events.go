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

// Package events dispatches contents-service events onto an Index's
// action handler table.
package events

import (
	"context"
	"fmt"

	"github.com/fileid-go/fileid/cfg"
	"github.com/fileid-go/fileid/internal/fileid"
	"github.com/fileid-go/fileid/internal/logger"
	"github.com/fileid-go/fileid/internal/lookupcache"
)

// SchemaID is the event schema this sink consumes, exported for callers
// that register the subscription with a host event bus.
const SchemaID = cfg.EventSchemaID

// Event is one contents-service notification: {action, path, source_path?}.
type Event struct {
	Action     string `json:"action"`
	Path       string `json:"path"`
	SourcePath string `json:"source_path,omitempty"`
}

// EventLogger records every event a Sink processes; a nil EventLogger is
// tolerated, matching the original's "missing event_logger collaborator"
// behavior.
type EventLogger interface {
	LogEvent(ctx context.Context, schemaID string, event Event)
}

// Sink dispatches events at SchemaID onto an Index's action handlers.
type Sink struct {
	index       fileid.Index
	eventLogger EventLogger
	cache       *lookupcache.Cache
}

// NewSink builds a Sink over index. eventLogger and cache may both be
// nil; when cache is set, Handle invalidates it after every mutating
// event so the LookupAPI's read cache never outlives the mutation that
// made it stale.
func NewSink(index fileid.Index, eventLogger EventLogger, cache *lookupcache.Cache) *Sink {
	return &Sink{index: index, eventLogger: eventLogger, cache: cache}
}

// Handle applies event to the underlying Index, logging the event first
// (if an EventLogger is configured) so a crash mid-handler still leaves a
// record of what was attempted.
func (s *Sink) Handle(ctx context.Context, event Event) error {
	logger.Tracef("events.Sink.Handle(action=%s, path=%s, source_path=%s)", event.Action, event.Path, event.SourcePath)

	if s.eventLogger != nil {
		s.eventLogger.LogEvent(ctx, SchemaID, event)
	}

	handler, ok := s.index.HandlersByAction()[event.Action]
	if !ok {
		logger.Warnf("events.Sink: no handler registered for action %q, ignoring", event.Action)
		return nil
	}

	if err := handler(ctx, event.Path, event.SourcePath); err != nil {
		return fmt.Errorf("events.Sink: handling %q for %q: %w", event.Action, event.Path, err)
	}

	// "get" never mutates the index, so the cache needs no invalidation.
	if event.Action != "get" && s.cache != nil {
		s.cache.Invalidate()
	}
	return nil
}
