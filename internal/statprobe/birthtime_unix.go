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

//go:build linux

package statprobe

import (
	"os"

	"golang.org/x/sys/unix"
)

// project extracts the fingerprint on Linux, where the plain stat(2)
// syscall exposes no birthtime: Crtime is always nil here.
func project(info os.FileInfo) *Stat {
	st, ok := info.Sys().(*unix.Stat_t)
	if !ok {
		return &Stat{MtimeNs: info.ModTime().UnixNano(), IsDir: info.IsDir()}
	}
	return &Stat{
		Ino:     st.Ino,
		MtimeNs: st.Mtim.Sec*1e9 + st.Mtim.Nsec,
		IsDir:   info.IsDir(),
	}
}
