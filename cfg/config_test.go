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
	"github.com/stretchr/testify/suite"
)

type ConfigTest struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTest))
}

func (t *ConfigTest) TestLogSeverityUnmarshalAcceptsKnownValuesCaseInsensitively() {
	var l LogSeverity
	assert.NoError(t.T(), l.UnmarshalText([]byte("debug")))
	assert.Equal(t.T(), DebugLogSeverity, l)
}

func (t *ConfigTest) TestLogSeverityUnmarshalRejectsUnknownValue() {
	var l LogSeverity
	assert.Error(t.T(), l.UnmarshalText([]byte("verbose")))
}

func (t *ConfigTest) TestJournalModeUnmarshalAcceptsEnumeratedSet() {
	for _, raw := range []string{"delete", "TRUNCATE", "Persist", "memory", "wal", "OFF"} {
		var j JournalMode
		assert.NoError(t.T(), j.UnmarshalText([]byte(raw)))
	}
}

func (t *ConfigTest) TestJournalModeUnmarshalRejectsUnknownValue() {
	var j JournalMode
	assert.Error(t.T(), j.UnmarshalText([]byte("ROLLBACK")))
}

func (t *ConfigTest) TestIndexBackendUnmarshal() {
	var b IndexBackend
	assert.NoError(t.T(), b.UnmarshalText([]byte("Local")))
	assert.Equal(t.T(), LocalIndexBackend, b)

	assert.Error(t.T(), b.UnmarshalText([]byte("s3")))
}

func (t *ConfigTest) TestResolvedPathPreservesMemorySentinel() {
	var p ResolvedPath
	assert.NoError(t.T(), p.UnmarshalText([]byte(":memory:")))
	assert.Equal(t.T(), ResolvedPath(":memory:"), p)
}

func (t *ConfigTest) TestResolvedPathResolvesRelativePath() {
	var p ResolvedPath
	assert.NoError(t.T(), p.UnmarshalText([]byte("store.db")))
	assert.True(t.T(), len(p) > len("store.db"))
}
