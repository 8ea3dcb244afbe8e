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

package main

import (
	"os"
	"runtime/debug"

	"github.com/fileid-go/fileid/cmd"
)

func main() {
	if crashLog := os.Getenv("FILEID_CRASH_LOG"); crashLog != "" {
		writer := &cmd.CrashWriter{FileName: crashLog}
		defer func() {
			if r := recover(); r != nil {
				writer.Write(debug.Stack())
				panic(r)
			}
		}()
	}

	cmd.Execute()
}
