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

package bootstrap_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fileid-go/fileid/cfg"
	"github.com/fileid-go/fileid/internal/bootstrap"
	"github.com/fileid-go/fileid/internal/events"
)

type BootstrapTest struct {
	suite.Suite
	ctx context.Context
}

func TestBootstrapSuite(t *testing.T) {
	suite.Run(t, new(BootstrapTest))
}

func (t *BootstrapTest) SetupTest() {
	t.ctx = context.Background()
}

func (t *BootstrapTest) TestNewWiresArbitraryIndex() {
	config := cfg.Config{
		Store:        cfg.StoreConfig{DBPath: cfg.MemorySentinel},
		IndexBackend: cfg.ArbitraryIndexBackend,
		ListenAddr:   "127.0.0.1:0",
	}

	b, err := bootstrap.New(t.ctx, config)
	t.Require().NoError(err)
	t.Require().NotNil(b.Index())

	id, err := b.Index().Index(t.ctx, "a/b.txt")
	t.Require().NoError(err)
	t.NotEmpty(id)
}

func (t *BootstrapTest) TestNewWiresLocalIndex() {
	root := t.T().TempDir()
	config := cfg.Config{
		RootDir:      cfg.ResolvedPath(root),
		Store:        cfg.StoreConfig{DBPath: cfg.MemorySentinel, JournalMode: cfg.JournalMemory},
		IndexBackend: cfg.LocalIndexBackend,
		ListenAddr:   "127.0.0.1:0",
	}

	b, err := bootstrap.New(t.ctx, config)
	t.Require().NoError(err)
	t.Require().NotNil(b.Index())
}

func (t *BootstrapTest) TestHandleEventDelegatesToSink() {
	config := cfg.Config{
		Store:        cfg.StoreConfig{DBPath: cfg.MemorySentinel},
		IndexBackend: cfg.ArbitraryIndexBackend,
		ListenAddr:   "127.0.0.1:0",
	}
	b, err := bootstrap.New(t.ctx, config)
	t.Require().NoError(err)

	err = b.HandleEvent(t.ctx, events.Event{Action: "get", Path: "a/b.txt"})
	t.Require().NoError(err)
}
