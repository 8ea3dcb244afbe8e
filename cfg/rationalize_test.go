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

package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRationalizeDefaultsToArbitraryBackend(t *testing.T) {
	c := &Config{}

	assert.NoError(t, Rationalize(c))

	assert.Equal(t, ArbitraryIndexBackend, c.IndexBackend)
	assert.Equal(t, JournalDelete, c.Store.JournalMode)
}

func TestRationalizeDefaultsLocalBackendToWAL(t *testing.T) {
	c := &Config{IndexBackend: LocalIndexBackend}

	assert.NoError(t, Rationalize(c))

	assert.Equal(t, JournalWAL, c.Store.JournalMode)
}

func TestRationalizeLeavesExplicitJournalModeAlone(t *testing.T) {
	c := &Config{IndexBackend: LocalIndexBackend, Store: StoreConfig{JournalMode: JournalOff}}

	assert.NoError(t, Rationalize(c))

	assert.Equal(t, JournalOff, c.Store.JournalMode)
}

func TestRationalizeDefaultsEmptyDBPathToMemorySentinel(t *testing.T) {
	c := &Config{}

	assert.NoError(t, Rationalize(c))

	assert.Equal(t, ResolvedPath(MemorySentinel), c.Store.DBPath)
}
