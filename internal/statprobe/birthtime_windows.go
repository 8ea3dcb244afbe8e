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

//go:build windows

package statprobe

import (
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

// toWindowsFiletime reinterprets a stdlib syscall.Filetime (what
// os.FileInfo.Sys() actually yields on this platform) as its
// golang.org/x/sys/windows twin, whose Nanoseconds() performs the
// FILETIME-epoch-to-Unix-epoch conversion.
func toWindowsFiletime(ft syscall.Filetime) windows.Filetime {
	return windows.Filetime{LowDateTime: ft.LowDateTime, HighDateTime: ft.HighDateTime}
}

// project extracts the fingerprint on Windows. CreationTime is exposed
// directly by the Win32 attribute data (spec's "crtime := st_ctime_ns on
// Windows"); Windows has no portable inode number, so Ino is left zero and
// reconciliation on this platform falls back entirely to path tracking.
func project(info os.FileInfo) *Stat {
	d, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return &Stat{MtimeNs: info.ModTime().UnixNano(), IsDir: info.IsDir()}
	}
	crtime := toWindowsFiletime(d.CreationTime).Nanoseconds()
	return &Stat{
		Crtime:  &crtime,
		MtimeNs: toWindowsFiletime(d.LastWriteTime).Nanoseconds(),
		IsDir:   info.IsDir(),
	}
}
