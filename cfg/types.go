// Copyright 2024 Google LLC
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
	"fmt"
	"slices"
	"strings"

	"github.com/fileid-go/fileid/internal/util"
)

// LogSeverity represents the logging severity and can accept the following
// values: "TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF".
type LogSeverity string

// Constants for all supported log severities.
const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
	OffLogSeverity     LogSeverity = "OFF"
)

func (l *LogSeverity) UnmarshalText(text []byte) error {
	level := LogSeverity(strings.ToUpper(string(text)))
	v := []LogSeverity{TraceLogSeverity, DebugLogSeverity, InfoLogSeverity, WarningLogSeverity, ErrorLogSeverity, OffLogSeverity}
	if !slices.Contains(v, level) {
		return fmt.Errorf("invalid log severity value: %s. It can only assume values in the list: %v", text, v)
	}
	*l = level
	return nil
}

// JournalMode is the SQLite journaling mode for the Store's connection.
// See https://www.sqlite.org/pragma.html#pragma_journal_mode.
type JournalMode string

const (
	JournalDelete   JournalMode = "DELETE"
	JournalTruncate JournalMode = "TRUNCATE"
	JournalPersist  JournalMode = "PERSIST"
	JournalMemory   JournalMode = "MEMORY"
	JournalWAL      JournalMode = "WAL"
	JournalOff      JournalMode = "OFF"
)

func (j *JournalMode) UnmarshalText(text []byte) error {
	mode := JournalMode(strings.ToUpper(string(text)))
	v := []JournalMode{JournalDelete, JournalTruncate, JournalPersist, JournalMemory, JournalWAL, JournalOff}
	if !slices.Contains(v, mode) {
		return fmt.Errorf("invalid db-journal-mode value: %s. It can only assume values in the list: %v", text, v)
	}
	*j = mode
	return nil
}

// IndexBackend selects which Index implementation backs a running service.
type IndexBackend string

const (
	LocalIndexBackend     IndexBackend = "local"
	ArbitraryIndexBackend IndexBackend = "arbitrary"
)

func (b *IndexBackend) UnmarshalText(text []byte) error {
	backend := IndexBackend(strings.ToLower(string(text)))
	if backend != LocalIndexBackend && backend != ArbitraryIndexBackend {
		return fmt.Errorf("invalid file-id-manager-class value: %s. It can only be %q or %q", text, LocalIndexBackend, ArbitraryIndexBackend)
	}
	*b = backend
	return nil
}

// ResolvedPath is an absolute filesystem path, or the in-memory store
// sentinel ":memory:", resolved at unmarshal time.
type ResolvedPath string

// MemorySentinel is the special db-path value that opens an in-memory store.
const MemorySentinel = ":memory:"

func (p *ResolvedPath) UnmarshalText(text []byte) error {
	s := string(text)
	if s == MemorySentinel || s == "" {
		*p = ResolvedPath(s)
		return nil
	}
	resolved, err := util.GetResolvedPath(s)
	if err != nil {
		return err
	}
	*p = ResolvedPath(resolved)
	return nil
}
