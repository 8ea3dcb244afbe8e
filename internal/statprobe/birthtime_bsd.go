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

//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package statprobe

import (
	"os"

	"golang.org/x/sys/unix"
)

// project extracts the fingerprint on BSD-family kernels (including
// Darwin), which expose a true filesystem birthtime via Stat_t.
func project(info os.FileInfo) *Stat {
	st, ok := info.Sys().(*unix.Stat_t)
	if !ok {
		return &Stat{MtimeNs: info.ModTime().UnixNano(), IsDir: info.IsDir()}
	}
	crtime := st.Birthtimespec.Sec*1e9 + st.Birthtimespec.Nsec
	return &Stat{
		Ino:     st.Ino,
		Crtime:  &crtime,
		MtimeNs: st.Mtimespec.Sec*1e9 + st.Mtimespec.Nsec,
		IsDir:   info.IsDir(),
	}
}
