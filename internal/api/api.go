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

// Package api exposes the LookupAPI HTTP surface: GET /api/fileid/id and
// GET /api/fileid/path. Built on net/http rather than a routing library —
// two GET endpoints need nothing a mux can't already do, and no example
// repo in this corpus runs a JSON HTTP server of its own to imitate.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/fileid-go/fileid/internal/fileid"
	"github.com/fileid-go/fileid/internal/logger"
	"github.com/fileid-go/fileid/internal/lookupcache"
)

// lookupResponse is the body returned by both endpoints on success.
type lookupResponse struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// NewHandler builds the LookupAPI's http.Handler over index, reading
// through cache. cache is shared with the events.Sink that invalidates it
// on every mutating event, so a stale entry never outlives the mutation
// that made it stale.
func NewHandler(index fileid.Index, cache *lookupcache.Cache) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/fileid/id", handleGetID(index, cache))
	mux.HandleFunc("/api/fileid/path", handleGetPath(index, cache))
	return mux
}

func handleGetID(index fileid.Index, cache *lookupcache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			writeError(w, http.StatusBadRequest, "missing required query parameter: path")
			return
		}

		id, ok := cache.GetID(path)
		if !ok {
			var err error
			id, err = index.GetID(r.Context(), path)
			if err != nil {
				logger.Errorf("api: GetID(%q): %v", path, err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if id != "" {
				cache.SetID(path, id)
			}
		}
		if id == "" {
			writeError(w, http.StatusNotFound, "unknown path")
			return
		}

		writeJSON(w, http.StatusOK, lookupResponse{ID: id, Path: path})
	}
}

func handleGetPath(index fileid.Index, cache *lookupcache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing required query parameter: id")
			return
		}

		path, ok := cache.GetPath(id)
		if !ok {
			var err error
			path, err = index.GetPath(r.Context(), id)
			if err != nil {
				logger.Errorf("api: GetPath(%q): %v", id, err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if path != "" {
				cache.SetPath(id, path)
			}
		}
		if path == "" {
			writeError(w, http.StatusNotFound, "unknown id")
			return
		}

		writeJSON(w, http.StatusOK, lookupResponse{ID: id, Path: path})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
