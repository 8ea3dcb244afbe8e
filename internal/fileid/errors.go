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

package fileid

import "errors"

var (
	// ErrPathMissing names the case where a stat finds no file at a path.
	// The Index methods do not return it: statprobe reports a missing path
	// as (nil, nil), and the methods turn that into a ("", nil) result.
	ErrPathMissing = errors.New("fileid: path does not exist")

	// ErrOutOfRoot means a persisted path is not a descendant of root_dir.
	ErrOutOfRoot = errors.New("fileid: path is outside root_dir")

	// ErrPathInvalid means root_dir or an input path failed a backend's
	// structural requirements.
	ErrPathInvalid = errors.New("fileid: path is invalid")

	// ErrNotFound means a lookup by id found no record.
	ErrNotFound = errors.New("fileid: id not found")
)
