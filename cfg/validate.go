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
	"fmt"
	"path/filepath"
)

const (
	RootDirRequiredForLocalBackendError = "root-dir is required when file-id-manager-class is \"local\""
	RootDirMustBeAbsoluteError          = "root-dir must be an absolute path"
	DBPathInvalidError                  = "db-path must be an absolute path or \":memory:\""
)

// ValidateConfig returns a non-nil error if the config is invalid.
func ValidateConfig(config *Config) error {
	if config.IndexBackend == LocalIndexBackend {
		if config.RootDir == "" {
			return fmt.Errorf(RootDirRequiredForLocalBackendError)
		}
		if !filepath.IsAbs(string(config.RootDir)) {
			return fmt.Errorf(RootDirMustBeAbsoluteError)
		}
	}

	dbPath := string(config.Store.DBPath)
	if dbPath != MemorySentinel && dbPath != "" && !filepath.IsAbs(dbPath) {
		return fmt.Errorf(DBPathInvalidError)
	}

	return nil
}
