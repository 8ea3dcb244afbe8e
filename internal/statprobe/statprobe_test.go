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

package statprobe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeReturnsNilForMissingPath(t *testing.T) {
	st, err := Probe(filepath.Join(t.TempDir(), "does-not-exist"))

	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestProbeReportsDirectory(t *testing.T) {
	dir := t.TempDir()

	st, err := Probe(dir)

	require.NoError(t, err)
	require.NotNil(t, st)
	assert.True(t, st.IsDir)
	assert.False(t, st.IsSymlink)
	assert.NotZero(t, st.Ino)
}

func TestProbeReportsSymlinkWithoutFollowing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("hi"), 0644))
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	st, err := Probe(link)

	require.NoError(t, err)
	require.NotNil(t, st)
	assert.True(t, st.IsSymlink)
}

func TestProbeFollowResolvesSymlinkToRealTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("hi"), 0644))
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	direct, err := ProbeFollow(target)
	require.NoError(t, err)
	viaLink, err := ProbeFollow(link)
	require.NoError(t, err)

	require.NotNil(t, direct)
	require.NotNil(t, viaLink)
	assert.Equal(t, direct.Ino, viaLink.Ino)
	assert.False(t, viaLink.IsSymlink)
}

func TestTwoFilesHaveDistinctInodes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0644))

	sa, err := Probe(a)
	require.NoError(t, err)
	sb, err := Probe(b)
	require.NoError(t, err)

	assert.NotEqual(t, sa.Ino, sb.Ino)
}
