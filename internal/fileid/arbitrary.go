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

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fileid-go/fileid/internal/logger"
	"github.com/fileid-go/fileid/internal/pathnorm"
	"github.com/fileid-go/fileid/internal/store"
)

// arbitrarySep is the persisted-path separator for the arbitrary backend:
// paths are always forward-slash, regardless of host OS.
const arbitrarySep = "/"

// ArbitraryIndex is the stat-free Index: it trusts only the events it is
// told about (no filesystem reconciliation), minting a fresh google/uuid
// id for every record it creates.
type ArbitraryIndex struct {
	store *store.Store
	norm  *pathnorm.ArbitraryNormalizer

	mu sync.Mutex
}

// NewArbitraryIndex wraps st for the arbitrary backend, translating API
// paths against rootDir.
func NewArbitraryIndex(st *store.Store, rootDir string) *ArbitraryIndex {
	return &ArbitraryIndex{store: st, norm: pathnorm.NewArbitraryNormalizer(rootDir)}
}

// Index implements fileid.Index: returns the existing id at path, minting
// a new one if path is not yet on record.
func (ai *ArbitraryIndex) Index(ctx context.Context, apiPath string) (string, error) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	logger.Tracef("fileid.ArbitraryIndex.Index(%q)", apiPath)

	persisted, err := ai.norm.ToPersisted(apiPath)
	if err != nil {
		return "", err
	}

	var id string
	err = ai.store.WithTx(ctx, func(tx *store.Tx) error {
		rec, err := tx.FindByPath(ctx, persisted)
		if err != nil {
			return err
		}
		if rec != nil {
			id = rec.ID
			return nil
		}
		id, err = tx.Insert(ctx, store.Record{ID: uuid.NewString(), Path: persisted})
		return err
	})
	return id, err
}

// GetID implements fileid.Index: looks up path without creating a record.
func (ai *ArbitraryIndex) GetID(ctx context.Context, apiPath string) (string, error) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	logger.Tracef("fileid.ArbitraryIndex.GetID(%q)", apiPath)

	persisted, err := ai.norm.ToPersisted(apiPath)
	if err != nil {
		return "", err
	}

	var id string
	err = ai.store.WithTx(ctx, func(tx *store.Tx) error {
		rec, err := tx.FindByPath(ctx, persisted)
		if err != nil || rec == nil {
			return err
		}
		id = rec.ID
		return nil
	})
	return id, err
}

// GetPath implements fileid.Index: exact lookup, translated back to API
// form; returns ("", nil) if id is unknown or its stored path no longer
// falls under root_dir.
func (ai *ArbitraryIndex) GetPath(ctx context.Context, id string) (string, error) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	logger.Tracef("fileid.ArbitraryIndex.GetPath(%q)", id)

	var persisted string
	err := ai.store.WithTx(ctx, func(tx *store.Tx) error {
		rec, err := tx.FindByID(ctx, id)
		if err != nil || rec == nil {
			return err
		}
		persisted = rec.Path
		return nil
	})
	if err != nil || persisted == "" {
		return "", err
	}

	apiPath, err := ai.norm.FromPersisted(persisted)
	if err != nil {
		if errors.Is(err, pathnorm.ErrOutOfRoot) {
			return "", nil
		}
		return "", err
	}
	return apiPath, nil
}

// Move implements fileid.Index. If oldPath has no record — the open
// question spec.md leaves to implementer discretion — a fresh record is
// minted at newPath rather than the move being rejected.
func (ai *ArbitraryIndex) Move(ctx context.Context, oldAPIPath, newAPIPath string) (string, error) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	logger.Tracef("fileid.ArbitraryIndex.Move(%q, %q)", oldAPIPath, newAPIPath)

	oldPersisted, err := ai.norm.ToPersisted(oldAPIPath)
	if err != nil {
		return "", err
	}
	newPersisted, err := ai.norm.ToPersisted(newAPIPath)
	if err != nil {
		return "", err
	}

	var id string
	err = ai.store.WithTx(ctx, func(tx *store.Tx) error {
		rec, err := tx.FindByPath(ctx, oldPersisted)
		if err != nil {
			return err
		}
		if rec == nil {
			logger.Debugf("fileid.ArbitraryIndex.Move: unknown source %q, minting new record", oldAPIPath)
			id, err = replaceAtPath(ctx, tx, newPersisted)
			return err
		}

		existing, err := tx.FindByPath(ctx, newPersisted)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != rec.ID {
			if err := tx.DeleteByID(ctx, existing.ID); err != nil {
				return err
			}
		}
		if err := tx.UpdateByID(ctx, rec.ID, store.Record{Path: newPersisted}); err != nil {
			return err
		}
		if err := moveDescendants(ctx, tx, oldPersisted, newPersisted); err != nil {
			return err
		}
		id = rec.ID
		return nil
	})
	return id, err
}

// Copy implements fileid.Index: every created record, including
// descendants of a copied directory, gets a fresh id.
func (ai *ArbitraryIndex) Copy(ctx context.Context, fromAPIPath, toAPIPath string) (string, error) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	logger.Tracef("fileid.ArbitraryIndex.Copy(%q, %q)", fromAPIPath, toAPIPath)

	fromPersisted, err := ai.norm.ToPersisted(fromAPIPath)
	if err != nil {
		return "", err
	}
	toPersisted, err := ai.norm.ToPersisted(toAPIPath)
	if err != nil {
		return "", err
	}

	var id string
	err = ai.store.WithTx(ctx, func(tx *store.Tx) error {
		newID, err := replaceAtPath(ctx, tx, toPersisted)
		if err != nil {
			return err
		}
		id = newID

		descendants, err := tx.FindByPathPrefix(ctx, fromPersisted, arbitrarySep)
		if err != nil {
			return err
		}
		for _, d := range descendants {
			rel := strings.TrimPrefix(d.Path, fromPersisted)
			if _, err := replaceAtPath(ctx, tx, toPersisted+rel); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

// replaceAtPath deletes any existing record at path (the arbitrary
// backend enforces path uniqueness) and inserts a fresh one with a new id.
func replaceAtPath(ctx context.Context, tx *store.Tx, path string) (string, error) {
	existing, err := tx.FindByPath(ctx, path)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if err := tx.DeleteByID(ctx, existing.ID); err != nil {
			return "", err
		}
	}
	return tx.Insert(ctx, store.Record{ID: uuid.NewString(), Path: path})
}

func moveDescendants(ctx context.Context, tx *store.Tx, oldDir, newDir string) error {
	descendants, err := tx.FindByPathPrefix(ctx, oldDir, arbitrarySep)
	if err != nil {
		return err
	}
	for _, d := range descendants {
		rel := strings.TrimPrefix(d.Path, oldDir)
		if err := tx.UpdatePathByID(ctx, d.ID, newDir+rel); err != nil {
			return err
		}
	}
	return nil
}

// Delete implements fileid.Index: removes the exact-path record and every
// descendant (harmless if path was a plain file with no descendants).
func (ai *ArbitraryIndex) Delete(ctx context.Context, apiPath string) error {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	logger.Tracef("fileid.ArbitraryIndex.Delete(%q)", apiPath)

	persisted, err := ai.norm.ToPersisted(apiPath)
	if err != nil {
		return err
	}

	return ai.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.DeleteByPathPrefix(ctx, persisted, arbitrarySep); err != nil {
			return err
		}
		return tx.DeleteByPath(ctx, persisted)
	})
}

// Save implements fileid.Index: the arbitrary backend has no fingerprint
// to refresh, so this is a no-op.
func (ai *ArbitraryIndex) Save(ctx context.Context, apiPath string) error {
	logger.Tracef("fileid.ArbitraryIndex.Save(%q): no-op", apiPath)
	return nil
}

// HandlersByAction implements fileid.Index.
func (ai *ArbitraryIndex) HandlersByAction() map[string]EventHandler {
	return map[string]EventHandler{
		"get":  func(ctx context.Context, path, srcPath string) error { return nil },
		"save": func(ctx context.Context, path, srcPath string) error { return ai.Save(ctx, path) },
		"rename": func(ctx context.Context, path, srcPath string) error {
			_, err := ai.Move(ctx, srcPath, path)
			return err
		},
		"copy": func(ctx context.Context, path, srcPath string) error {
			_, err := ai.Copy(ctx, srcPath, path)
			return err
		},
		"delete": func(ctx context.Context, path, srcPath string) error { return ai.Delete(ctx, path) },
	}
}
