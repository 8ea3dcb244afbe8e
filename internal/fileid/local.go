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
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fileid-go/fileid/clock"
	"github.com/fileid-go/fileid/internal/logger"
	"github.com/fileid-go/fileid/internal/pathnorm"
	"github.com/fileid-go/fileid/internal/statprobe"
	"github.com/fileid-go/fileid/internal/store"
)

// LocalIndex is the stat-aware Index: it indexes root_dir at startup and
// on every operation detects out-of-band moves by matching (ino,
// crtime-or-mtime), propagating directory moves to their descendants.
type LocalIndex struct {
	store *store.Store
	norm  *pathnorm.LocalNormalizer
	clock clock.Clock

	autosyncIntervalSecs int

	mu           sync.Mutex
	lastSync     time.Time
	updateCursor bool
}

// NewLocalIndex opens norm against rootDir and walks it (unless the store
// already has directory records, in which case the walk is skipped — see
// LocalIndex.initialize).
func NewLocalIndex(ctx context.Context, st *store.Store, rootDir string, autosyncIntervalSecs int) (*LocalIndex, error) {
	norm, err := pathnorm.NewLocalNormalizer(rootDir)
	if err != nil {
		return nil, err
	}
	li := &LocalIndex{store: st, norm: norm, clock: clock.RealClock{}, autosyncIntervalSecs: autosyncIntervalSecs}
	if err := li.initialize(ctx); err != nil {
		return nil, err
	}
	return li, nil
}

// SetClock overrides the wall clock used for autosync rate-limiting.
// Exposed for deterministic tests; production callers never need it, since
// NewLocalIndex already defaults to clock.RealClock{}.
func (li *LocalIndex) SetClock(c clock.Clock) {
	li.mu.Lock()
	defer li.mu.Unlock()
	li.clock = c
}

// initialize walks root_dir and inserts a record for every directory, in
// a single transaction, unless the store already has directory records —
// restarting the service against an existing store should not re-walk.
func (li *LocalIndex) initialize(ctx context.Context) error {
	return li.store.WithTx(ctx, func(tx *store.Tx) error {
		has, err := tx.HasAnyDir(ctx)
		if err != nil {
			return err
		}
		if has {
			return nil
		}

		return filepath.WalkDir(li.norm.RootDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			stat, err := statprobe.Probe(path)
			if err != nil || stat == nil || stat.IsSymlink {
				return err
			}
			_, err = tx.Insert(ctx, recordFromStat("", path, stat))
			return err
		})
	})
}

func recordFromStat(id, path string, stat *statprobe.Stat) store.Record {
	return store.Record{ID: id, Path: path, Ino: stat.Ino, Crtime: stat.Crtime, Mtime: stat.MtimeNs, IsDir: stat.IsDir}
}

func fingerprintMatches(rec *store.Record, stat *statprobe.Stat) bool {
	if rec.Ino != stat.Ino {
		return false
	}
	if rec.Crtime != nil && stat.Crtime != nil {
		return *rec.Crtime == *stat.Crtime
	}
	return rec.Mtime == stat.MtimeNs
}

// resolveReal follows a symlink at persisted to its real target, for the
// "index on symlink returns the id of the real path" boundary behavior.
func resolveReal(persisted string, stat *statprobe.Stat) (string, *statprobe.Stat, error) {
	if !stat.IsSymlink {
		return persisted, stat, nil
	}
	real, err := filepath.EvalSymlinks(persisted)
	if err != nil {
		return "", nil, nil
	}
	realStat, err := statprobe.ProbeFollow(real)
	if err != nil {
		return "", nil, err
	}
	return real, realStat, nil
}

// Index implements fileid.Index.
func (li *LocalIndex) Index(ctx context.Context, apiPath string) (string, error) {
	li.mu.Lock()
	defer li.mu.Unlock()
	logger.Tracef("fileid.LocalIndex.Index(%q)", apiPath)

	persisted, err := li.norm.ToPersisted(apiPath)
	if err != nil {
		return "", err
	}
	stat, err := statprobe.Probe(persisted)
	if err != nil || stat == nil {
		return "", err
	}
	real, realStat, err := resolveReal(persisted, stat)
	if err != nil || realStat == nil {
		return "", err
	}

	var id string
	err = li.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		id, err = li.indexFileTx(ctx, tx, real, realStat)
		return err
	})
	return id, err
}

func (li *LocalIndex) indexFileTx(ctx context.Context, tx *store.Tx, persisted string, stat *statprobe.Stat) (string, error) {
	id, err := li.syncFileTx(ctx, tx, persisted, stat)
	if err != nil || id != "" {
		return id, err
	}
	return tx.Insert(ctx, recordFromStat("", persisted, stat))
}

// GetID implements fileid.Index.
func (li *LocalIndex) GetID(ctx context.Context, apiPath string) (string, error) {
	li.mu.Lock()
	defer li.mu.Unlock()
	logger.Tracef("fileid.LocalIndex.GetID(%q)", apiPath)

	persisted, err := li.norm.ToPersisted(apiPath)
	if err != nil {
		return "", err
	}
	stat, err := statprobe.Probe(persisted)
	if err != nil || stat == nil {
		return "", err
	}
	real, realStat, err := resolveReal(persisted, stat)
	if err != nil || realStat == nil {
		return "", err
	}

	var id string
	err = li.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		id, err = li.syncFileTx(ctx, tx, real, realStat)
		return err
	})
	return id, err
}

// GetPath implements fileid.Index: a two-phase optimistic read, falling
// back to a rate-limited full sweep only when the fast path's fingerprint
// comparison fails.
func (li *LocalIndex) GetPath(ctx context.Context, id string) (string, error) {
	li.mu.Lock()
	defer li.mu.Unlock()
	logger.Tracef("fileid.LocalIndex.GetPath(%q)", id)

	apiPath, ok, err := li.tryGetPath(ctx, id)
	if err != nil {
		return "", err
	}
	if ok {
		return apiPath, nil
	}

	if !li.autosyncAllowed() {
		return "", nil
	}

	logger.Debugf("fileid.LocalIndex.GetPath(%q): fingerprint stale, running reconciliation sweep", id)
	if err := li.syncAllLocked(ctx); err != nil {
		return "", err
	}

	apiPath, ok, err = li.tryGetPath(ctx, id)
	if err != nil || !ok {
		return "", err
	}
	return apiPath, nil
}

func (li *LocalIndex) autosyncAllowed() bool {
	if li.autosyncIntervalSecs < 0 {
		return false
	}
	if li.autosyncIntervalSecs == 0 {
		return true
	}
	return li.clock.Now().Sub(li.lastSync) >= time.Duration(li.autosyncIntervalSecs)*time.Second
}

func (li *LocalIndex) tryGetPath(ctx context.Context, id string) (string, bool, error) {
	var rec *store.Record
	if err := li.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		rec, err = tx.FindByID(ctx, id)
		return err
	}); err != nil {
		return "", false, err
	}
	if rec == nil {
		return "", false, nil
	}

	stat, err := statprobe.Probe(rec.Path)
	if err != nil {
		return "", false, err
	}
	if stat == nil || !fingerprintMatches(rec, stat) {
		return "", false, nil
	}

	apiPath, err := li.norm.FromPersisted(rec.Path)
	if err != nil {
		if errors.Is(err, pathnorm.ErrOutOfRoot) {
			return "", false, nil
		}
		return "", false, err
	}
	return apiPath, true, nil
}

// Move implements fileid.Index.
func (li *LocalIndex) Move(ctx context.Context, oldAPIPath, newAPIPath string) (string, error) {
	li.mu.Lock()
	defer li.mu.Unlock()
	logger.Tracef("fileid.LocalIndex.Move(%q, %q)", oldAPIPath, newAPIPath)

	oldPersisted, err := li.norm.ToPersisted(oldAPIPath)
	if err != nil {
		return "", err
	}
	newPersisted, err := li.norm.ToPersisted(newAPIPath)
	if err != nil {
		return "", err
	}
	stat, err := statprobe.Probe(newPersisted)
	if err != nil || stat == nil {
		return "", err
	}

	var id string
	err = li.store.WithTx(ctx, func(tx *store.Tx) error {
		foundID, err := li.syncFileTx(ctx, tx, newPersisted, stat)
		if err != nil {
			return err
		}
		if foundID != "" {
			id = foundID
			return nil
		}

		rec, err := tx.FindByPath(ctx, oldPersisted)
		if err != nil {
			return err
		}
		if rec != nil {
			logger.Debugf("fileid.LocalIndex.Move: disjoint move, rewriting record %s by path", rec.ID)
			if err := tx.UpdateByID(ctx, rec.ID, recordFromStat(rec.ID, newPersisted, stat)); err != nil {
				return err
			}
			if rec.IsDir && oldPersisted != newPersisted {
				if err := li.moveRecursiveTx(ctx, tx, oldPersisted, newPersisted); err != nil {
					return err
				}
			}
			id = rec.ID
			return nil
		}

		newID, err := tx.Insert(ctx, recordFromStat("", newPersisted, stat))
		if err != nil {
			return err
		}
		id = newID
		return nil
	})
	return id, err
}

// Copy implements fileid.Index. Per spec, the destination's children are
// assumed to already exist on disk by the time Copy is called (the host
// completes the filesystem copy before emitting the event).
func (li *LocalIndex) Copy(ctx context.Context, fromAPIPath, toAPIPath string) (string, error) {
	li.mu.Lock()
	defer li.mu.Unlock()
	logger.Tracef("fileid.LocalIndex.Copy(%q, %q)", fromAPIPath, toAPIPath)

	fromPersisted, err := li.norm.ToPersisted(fromAPIPath)
	if err != nil {
		return "", err
	}
	toPersisted, err := li.norm.ToPersisted(toAPIPath)
	if err != nil {
		return "", err
	}
	toStat, err := statprobe.Probe(toPersisted)
	if err != nil || toStat == nil {
		return "", err
	}

	var id string
	err = li.store.WithTx(ctx, func(tx *store.Tx) error {
		if toStat.IsDir {
			descendants, err := tx.FindByPathPrefix(ctx, fromPersisted, string(os.PathSeparator))
			if err != nil {
				return err
			}
			for _, d := range descendants {
				rel := strings.TrimPrefix(d.Path, fromPersisted)
				destPath := toPersisted + rel
				destStat, err := statprobe.ProbeFollow(destPath)
				if err != nil {
					return err
				}
				if destStat == nil {
					continue
				}
				if _, err := tx.Insert(ctx, recordFromStat("", destPath, destStat)); err != nil {
					return err
				}
			}
		}

		if fromStat, err := statprobe.Probe(fromPersisted); err == nil && fromStat != nil && !fromStat.IsSymlink {
			if _, err := li.indexFileTx(ctx, tx, fromPersisted, fromStat); err != nil {
				return err
			}
		}

		newID, err := li.indexFileTx(ctx, tx, toPersisted, toStat)
		if err != nil {
			return err
		}
		id = newID
		return nil
	})
	return id, err
}

// Delete implements fileid.Index.
func (li *LocalIndex) Delete(ctx context.Context, apiPath string) error {
	li.mu.Lock()
	defer li.mu.Unlock()
	logger.Tracef("fileid.LocalIndex.Delete(%q)", apiPath)

	persisted, err := li.norm.ToPersisted(apiPath)
	if err != nil {
		return err
	}

	return li.store.WithTx(ctx, func(tx *store.Tx) error {
		rec, err := tx.FindByPath(ctx, persisted)
		if err != nil {
			return err
		}
		if rec != nil && rec.IsDir {
			if err := tx.DeleteByPathPrefix(ctx, persisted, string(os.PathSeparator)); err != nil {
				return err
			}
		}
		return tx.DeleteByPath(ctx, persisted)
	})
}

// Save implements fileid.Index: refresh the stored fingerprint, a no-op
// if the (ino, path) pair isn't already on record.
func (li *LocalIndex) Save(ctx context.Context, apiPath string) error {
	li.mu.Lock()
	defer li.mu.Unlock()
	logger.Tracef("fileid.LocalIndex.Save(%q)", apiPath)

	persisted, err := li.norm.ToPersisted(apiPath)
	if err != nil {
		return err
	}
	stat, err := statprobe.Probe(persisted)
	if err != nil || stat == nil {
		return err
	}

	return li.store.WithTx(ctx, func(tx *store.Tx) error {
		rec, err := tx.FindByPath(ctx, persisted)
		if err != nil {
			return err
		}
		if rec == nil || rec.Ino != stat.Ino {
			return nil
		}
		return tx.UpdateByID(ctx, rec.ID, recordFromStat(rec.ID, persisted, stat))
	})
}

// HandlersByAction implements fileid.Index.
func (li *LocalIndex) HandlersByAction() map[string]EventHandler {
	return map[string]EventHandler{
		"get":  func(ctx context.Context, path, srcPath string) error { return nil },
		"save": func(ctx context.Context, path, srcPath string) error { return li.Save(ctx, path) },
		"rename": func(ctx context.Context, path, srcPath string) error {
			_, err := li.Move(ctx, srcPath, path)
			return err
		},
		"copy": func(ctx context.Context, path, srcPath string) error {
			_, err := li.Copy(ctx, srcPath, path)
			return err
		},
		"delete": func(ctx context.Context, path, srcPath string) error { return li.Delete(ctx, path) },
	}
}

// syncFileTx is the single move-detection primitive: find a record
// sharing stat's inode, validate its fingerprint still matches, and if
// so relocate it (and, for a directory, its descendants) to path.
func (li *LocalIndex) syncFileTx(ctx context.Context, tx *store.Tx, path string, stat *statprobe.Stat) (string, error) {
	if stat.IsSymlink {
		return "", nil
	}

	rec, err := tx.FindByIno(ctx, stat.Ino)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}

	if !fingerprintMatches(rec, stat) {
		logger.Warnf("fileid.LocalIndex: inode %d reused, dropping stale record %s", stat.Ino, rec.ID)
		if err := tx.DeleteByID(ctx, rec.ID); err != nil {
			return "", err
		}
		return "", nil
	}

	if rec.Path != path {
		if err := tx.UpdatePathByID(ctx, rec.ID, path); err != nil {
			return "", err
		}
		if rec.IsDir {
			if err := li.moveRecursiveTx(ctx, tx, rec.Path, path); err != nil {
				return "", err
			}
			li.updateCursor = true
		}
	}
	return rec.ID, nil
}

func (li *LocalIndex) moveRecursiveTx(ctx context.Context, tx *store.Tx, oldDir, newDir string) error {
	descendants, err := tx.FindByPathPrefix(ctx, oldDir, string(os.PathSeparator))
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

func (li *LocalIndex) syncAllLocked(ctx context.Context) error {
	return li.store.WithTx(ctx, func(tx *store.Tx) error {
		return li.syncAllTx(ctx, tx)
	})
}

// SyncAll runs a full reconciliation sweep over every indexed directory,
// regardless of the autosync policy. Exposed for callers (tests, a manual
// admin trigger) that need to force reconciliation outside of GetPath.
func (li *LocalIndex) SyncAll(ctx context.Context) error {
	li.mu.Lock()
	defer li.mu.Unlock()
	return li.syncAllLocked(ctx)
}

func (li *LocalIndex) syncAllTx(ctx context.Context, tx *store.Tx) error {
	for {
		dirs, err := tx.ScanDirs(ctx)
		if err != nil {
			return err
		}

		li.updateCursor = false
		restarted := false
		for _, rec := range dirs {
			stat, err := statprobe.Probe(rec.Path)
			if err != nil {
				return err
			}
			if stat == nil || stat.MtimeNs == rec.Mtime {
				continue
			}

			if err := li.syncDirTx(ctx, tx, rec.Path); err != nil {
				return err
			}
			if newStat, err := statprobe.Probe(rec.Path); err == nil && newStat != nil {
				if err := tx.UpdateByID(ctx, rec.ID, recordFromStat(rec.ID, rec.Path, newStat)); err != nil {
					return err
				}
			}
			if li.updateCursor {
				restarted = true
				break
			}
		}
		if !restarted {
			break
		}
	}

	li.lastSync = li.clock.Now()
	logger.Debugf("fileid.LocalIndex: reconciliation sweep complete")
	return nil
}

// syncDirTx reconciles one directory's immediate children: any entry
// whose inode is already indexed elsewhere is relocated by syncFileTx;
// any directory entry not previously indexed is inserted and recursed
// into.
func (li *LocalIndex) syncDirTx(ctx context.Context, tx *store.Tx, dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		childPath := filepath.Join(dirPath, entry.Name())
		stat, err := statprobe.Probe(childPath)
		if err != nil {
			return err
		}
		if stat == nil {
			continue
		}

		id, err := li.syncFileTx(ctx, tx, childPath, stat)
		if err != nil {
			return err
		}
		if id == "" && stat.IsDir && !stat.IsSymlink {
			newID, err := tx.Insert(ctx, recordFromStat("", childPath, stat))
			if err != nil {
				return err
			}
			_ = newID
			if err := li.syncDirTx(ctx, tx, childPath); err != nil {
				return err
			}
		}
	}
	return nil
}
