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

package events_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/fileid-go/fileid/internal/events"
	"github.com/fileid-go/fileid/internal/fileid/fileidtest"
	"github.com/fileid-go/fileid/internal/lookupcache"
)

type recordingLogger struct {
	events []events.Event
}

func (r *recordingLogger) LogEvent(ctx context.Context, schemaID string, event events.Event) {
	r.events = append(r.events, event)
}

type EventsTest struct {
	suite.Suite
	ctx context.Context
}

func TestEventsSuite(t *testing.T) {
	suite.Run(t, new(EventsTest))
}

func (t *EventsTest) SetupTest() {
	t.ctx = context.Background()
}

func (t *EventsTest) TestHandleGetReturnsNoError() {
	idx := fileidtest.NewArbitraryIndex(t.T(), "")
	sink := events.NewSink(idx, nil, nil)

	err := sink.Handle(t.ctx, events.Event{Action: "get", Path: "a/b.txt"})
	t.Require().NoError(err)
}

func (t *EventsTest) TestHandleRenameDelegatesToMove() {
	idx := fileidtest.NewArbitraryIndex(t.T(), "")
	id, err := idx.Index(t.ctx, "a/b.txt")
	t.Require().NoError(err)

	sink := events.NewSink(idx, nil, nil)
	err = sink.Handle(t.ctx, events.Event{Action: "rename", Path: "a/c.txt", SourcePath: "a/b.txt"})
	t.Require().NoError(err)

	path, err := idx.GetPath(t.ctx, id)
	t.Require().NoError(err)
	t.Equal("a/c.txt", path)
}

func (t *EventsTest) TestHandleUnknownActionIsIgnored() {
	idx := fileidtest.NewArbitraryIndex(t.T(), "")
	sink := events.NewSink(idx, nil, nil)

	err := sink.Handle(t.ctx, events.Event{Action: "unknown-action", Path: "a/b.txt"})
	t.Require().NoError(err)
}

func (t *EventsTest) TestHandleRecordsToEventLogger() {
	idx := fileidtest.NewArbitraryIndex(t.T(), "")
	rl := &recordingLogger{}
	sink := events.NewSink(idx, rl, nil)

	require.NoError(t.T(), sink.Handle(t.ctx, events.Event{Action: "get", Path: "a/b.txt"}))
	t.Require().Len(rl.events, 1)
	t.Equal("a/b.txt", rl.events[0].Path)
}

func (t *EventsTest) TestHandleRenameInvalidatesCache() {
	idx := fileidtest.NewArbitraryIndex(t.T(), "")
	id, err := idx.Index(t.ctx, "a/b.txt")
	t.Require().NoError(err)

	cache := lookupcache.New()
	cache.SetID("a/b.txt", id)
	cache.SetPath(id, "a/b.txt")

	sink := events.NewSink(idx, nil, cache)
	err = sink.Handle(t.ctx, events.Event{Action: "rename", Path: "a/c.txt", SourcePath: "a/b.txt"})
	t.Require().NoError(err)

	_, ok := cache.GetID("a/b.txt")
	t.False(ok)
	_, ok = cache.GetPath(id)
	t.False(ok)
}

func (t *EventsTest) TestHandleGetDoesNotInvalidateCache() {
	idx := fileidtest.NewArbitraryIndex(t.T(), "")
	cache := lookupcache.New()
	cache.SetID("a/b.txt", "some-id")

	sink := events.NewSink(idx, nil, cache)
	err := sink.Handle(t.ctx, events.Event{Action: "get", Path: "a/b.txt"})
	t.Require().NoError(err)

	id, ok := cache.GetID("a/b.txt")
	t.True(ok)
	t.Equal("some-id", id)
}
