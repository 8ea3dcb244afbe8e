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

// DefaultJournalMode returns the journal mode a freshly-constructed store
// should use absent an explicit override: WAL for the local backend, whose
// reconciliation sweeps read concurrently with writes, DELETE for the
// arbitrary backend, which is write-light.
func DefaultJournalMode(backend IndexBackend) JournalMode {
	if backend == LocalIndexBackend {
		return JournalWAL
	}
	return JournalDelete
}

// GetDefaultLoggingConfig returns the logging configuration used before any
// flags or config file have been parsed.
func GetDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity:        InfoLogSeverity,
		Format:          "text",
		LogRotateConfig: DefaultLogRotateConfig(),
	}
}
