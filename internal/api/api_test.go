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

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/fileid-go/fileid/internal/api"
	"github.com/fileid-go/fileid/internal/fileid/fileidtest"
	"github.com/fileid-go/fileid/internal/lookupcache"
)

type APITest struct {
	suite.Suite
	ctx     context.Context
	server  *httptest.Server
	indexID string
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITest))
}

func (t *APITest) SetupTest() {
	t.ctx = context.Background()
	idx := fileidtest.NewArbitraryIndex(t.T(), "")
	id, err := idx.Index(t.ctx, "a/b.txt")
	t.Require().NoError(err)
	t.indexID = id

	t.server = httptest.NewServer(api.NewHandler(idx, lookupcache.New()))
	t.T().Cleanup(t.server.Close)
}

func (t *APITest) TestGetIDReturnsIDForKnownPath() {
	resp, err := http.Get(t.server.URL + "/api/fileid/id?path=a/b.txt")
	t.Require().NoError(err)
	defer resp.Body.Close()
	t.Equal(http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t.T(), json.NewDecoder(resp.Body).Decode(&body))
	t.Equal(t.indexID, body["id"])
	t.Equal("a/b.txt", body["path"])
}

func (t *APITest) TestGetIDMissingParamIsBadRequest() {
	resp, err := http.Get(t.server.URL + "/api/fileid/id")
	t.Require().NoError(err)
	defer resp.Body.Close()
	t.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (t *APITest) TestGetIDUnknownPathIsNotFound() {
	resp, err := http.Get(t.server.URL + "/api/fileid/id?path=never/indexed.txt")
	t.Require().NoError(err)
	defer resp.Body.Close()
	t.Equal(http.StatusNotFound, resp.StatusCode)
}

func (t *APITest) TestGetPathReturnsPathForKnownID() {
	resp, err := http.Get(t.server.URL + "/api/fileid/path?id=" + t.indexID)
	t.Require().NoError(err)
	defer resp.Body.Close()
	t.Equal(http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t.T(), json.NewDecoder(resp.Body).Decode(&body))
	t.Equal("a/b.txt", body["path"])
}

func (t *APITest) TestGetPathMissingParamIsBadRequest() {
	resp, err := http.Get(t.server.URL + "/api/fileid/path")
	t.Require().NoError(err)
	defer resp.Body.Close()
	t.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (t *APITest) TestGetPathUnknownIDIsNotFound() {
	resp, err := http.Get(t.server.URL + "/api/fileid/path?id=does-not-exist")
	t.Require().NoError(err)
	defer resp.Body.Close()
	t.Equal(http.StatusNotFound, resp.StatusCode)
}
