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

// Package fileidtest builds Index instances against an in-memory store
// for use in other packages' tests, so each package doesn't reinvent the
// wiring between cfg, store, and fileid.
package fileidtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fileid-go/fileid/cfg"
	"github.com/fileid-go/fileid/internal/fileid"
	"github.com/fileid-go/fileid/internal/store"
)

// NewLocalIndex opens an in-memory Store for the local backend rooted at
// rootDir (which must already exist on disk) and returns a ready
// LocalIndex, registering store cleanup with t.
func NewLocalIndex(t *testing.T, rootDir string) *fileid.LocalIndex {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, cfg.StoreConfig{DBPath: cfg.MemorySentinel, JournalMode: cfg.JournalMemory}, cfg.LocalIndexBackend)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx, err := fileid.NewLocalIndex(ctx, st, rootDir, 0)
	require.NoError(t, err)
	return idx
}

// NewArbitraryIndex opens an in-memory Store for the arbitrary backend
// rooted at rootDir ("" for no fixed prefix).
func NewArbitraryIndex(t *testing.T, rootDir string) *fileid.ArbitraryIndex {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, cfg.StoreConfig{DBPath: cfg.MemorySentinel}, cfg.ArbitraryIndexBackend)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return fileid.NewArbitraryIndex(st, rootDir)
}
