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

// Rationalize updates Config fields based on the values of other fields,
// filling in defaults that depend on a choice made elsewhere in the config.
func Rationalize(c *Config) error {
	if c.IndexBackend == "" {
		c.IndexBackend = ArbitraryIndexBackend
	}

	if c.Store.JournalMode == "" {
		c.Store.JournalMode = DefaultJournalMode(c.IndexBackend)
	}

	if c.Store.DBPath == "" {
		c.Store.DBPath = MemorySentinel
	}

	if c.Logging.Severity == "" {
		c.Logging.Severity = InfoLogSeverity
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Logging.FilePath != "" && c.Logging.LogRotateConfig.MaxFileSizeMB == 0 {
		c.Logging.LogRotateConfig = DefaultLogRotateConfig()
	}

	return nil
}
