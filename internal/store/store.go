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

// Package store is the embedded relational store holding the id<->path
// mapping (and, for the local backend, stat fingerprints). It owns the
// sole commit point: every mutating helper runs inside a caller-supplied
// transaction and never commits on its own.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/fileid-go/fileid/cfg"
	_ "modernc.org/sqlite"
)

// Record is a row of the Files table. Ino/Crtime/Mtime/IsDir are only
// meaningful for the local backend; the arbitrary backend only ever
// populates ID and Path.
type Record struct {
	ID     string
	Path   string
	Ino    uint64
	Crtime *int64
	Mtime  int64
	IsDir  bool
}

// Store wraps a *sql.DB opened against modernc.org/sqlite, schematized for
// one of the two backends at Open time.
type Store struct {
	db      *sql.DB
	backend cfg.IndexBackend
}

// Open creates (if absent) the backend-appropriate Files table and its
// secondary indices, applies the configured journal mode, and returns a
// ready Store. The returned Store owns a single long-lived connection, as
// every index instance is expected to hold exactly one.
func Open(ctx context.Context, storeCfg cfg.StoreConfig, backend cfg.IndexBackend) (*Store, error) {
	dsn := string(storeCfg.DBPath)
	if dsn == "" {
		dsn = cfg.MemorySentinel
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening %q: %w", dsn, err)
	}
	// A single shared connection keeps an in-memory database from vanishing
	// between queries and keeps WAL semantics simple for the local backend.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, backend: backend}

	journal := storeCfg.JournalMode
	if journal == "" {
		journal = cfg.DefaultJournalMode(backend)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA journal_mode = %s", string(journal))); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: setting journal_mode %s: %w", journal, err)
	}

	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	var stmts []string
	if s.backend == cfg.LocalIndexBackend {
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS Files (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				path TEXT NOT NULL,
				ino INTEGER NOT NULL,
				crtime INTEGER NULL,
				mtime INTEGER NOT NULL,
				is_dir INTEGER NOT NULL
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_Files_ino ON Files(ino)`,
			`CREATE INDEX IF NOT EXISTS ix_Files_path ON Files(path)`,
			`CREATE INDEX IF NOT EXISTS ix_Files_is_dir ON Files(is_dir)`,
		}
	} else {
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS Files (
				id TEXT PRIMARY KEY,
				path TEXT NOT NULL UNIQUE
			)`,
			`CREATE INDEX IF NOT EXISTS ix_Files_path ON Files(path)`,
		}
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: creating schema: %w", err)
		}
	}
	return nil
}

// JournalMode reports the journal mode SQLite is actually running with, so
// callers (tests, diagnostics) can confirm it matches configuration.
func (s *Store) JournalMode(ctx context.Context) (string, error) {
	var mode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return "", err
	}
	return strings.ToUpper(mode), nil
}

// Close releases the underlying connection and returns any error from
// closing it. There is no pending transaction to commit: WithTx has already
// committed or rolled back every one.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a single transaction's worth of Store access. Every method on Tx
// mutates within the caller's transaction; none of them call Commit or
// Rollback themselves.
type Tx struct {
	tx      *sql.Tx
	backend cfg.IndexBackend
}

// WithTx runs fn inside a fresh transaction, committing on a nil return
// and rolling back otherwise. It is the Store's sole commit point.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: beginning transaction: %w", err)
	}

	if err := fn(&Tx{tx: sqlTx, backend: s.backend}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: rolling back after %w: %v", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("store: committing: %w", err)
	}
	return nil
}

// Insert adds rec. For the local backend, ID is ignored and the new
// autoincrement id is returned; for the arbitrary backend, rec.ID must
// already hold the caller-minted id.
func (tx *Tx) Insert(ctx context.Context, rec Record) (string, error) {
	if tx.backend == cfg.LocalIndexBackend {
		res, err := tx.tx.ExecContext(ctx,
			`INSERT INTO Files (path, ino, crtime, mtime, is_dir) VALUES (?, ?, ?, ?, ?)`,
			rec.Path, rec.Ino, rec.Crtime, rec.Mtime, boolToInt(rec.IsDir))
		if err != nil {
			return "", fmt.Errorf("store: insert: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("store: insert: reading id: %w", err)
		}
		return strconv.FormatInt(id, 10), nil
	}

	if rec.ID == "" {
		return "", fmt.Errorf("store: insert: arbitrary backend requires a pre-minted id")
	}
	if _, err := tx.tx.ExecContext(ctx, `INSERT INTO Files (id, path) VALUES (?, ?)`, rec.ID, rec.Path); err != nil {
		return "", fmt.Errorf("store: insert: %w", err)
	}
	return rec.ID, nil
}

// UpdateByID overwrites path (and, for the local backend, the stat
// fingerprint) of the record with the given id.
func (tx *Tx) UpdateByID(ctx context.Context, id string, rec Record) error {
	var err error
	if tx.backend == cfg.LocalIndexBackend {
		_, err = tx.tx.ExecContext(ctx,
			`UPDATE Files SET path = ?, ino = ?, crtime = ?, mtime = ?, is_dir = ? WHERE id = ?`,
			rec.Path, rec.Ino, rec.Crtime, rec.Mtime, boolToInt(rec.IsDir), id)
	} else {
		_, err = tx.tx.ExecContext(ctx, `UPDATE Files SET path = ? WHERE id = ?`, rec.Path, id)
	}
	if err != nil {
		return fmt.Errorf("store: update %s: %w", id, err)
	}
	return nil
}

// UpdatePathByID rewrites only the path column, leaving any stat
// fingerprint untouched; used by recursive move rewriting.
func (tx *Tx) UpdatePathByID(ctx context.Context, id string, path string) error {
	if _, err := tx.tx.ExecContext(ctx, `UPDATE Files SET path = ? WHERE id = ?`, path, id); err != nil {
		return fmt.Errorf("store: update path for %s: %w", id, err)
	}
	return nil
}

// DeleteByID removes the record with the given id, if any.
func (tx *Tx) DeleteByID(ctx context.Context, id string) error {
	if _, err := tx.tx.ExecContext(ctx, `DELETE FROM Files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}

// DeleteByPath removes the record at exactly path, if any.
func (tx *Tx) DeleteByPath(ctx context.Context, path string) error {
	if _, err := tx.tx.ExecContext(ctx, `DELETE FROM Files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("store: delete path %s: %w", path, err)
	}
	return nil
}

// DeleteByPathPrefix removes every record whose path is a descendant of
// dir (dir itself is not matched; callers combine this with DeleteByPath
// for the exact-path record). sep is the persisted-path separator: the OS
// path separator for the local backend, "/" for the arbitrary backend.
func (tx *Tx) DeleteByPathPrefix(ctx context.Context, dir string, sep string) error {
	pattern := escapeGlob(dir) + sep + "*"
	if _, err := tx.tx.ExecContext(ctx, `DELETE FROM Files WHERE path GLOB ?`, pattern); err != nil {
		return fmt.Errorf("store: delete prefix %s: %w", dir, err)
	}
	return nil
}

// FindByPathPrefix lists every record whose path is a descendant of dir.
func (tx *Tx) FindByPathPrefix(ctx context.Context, dir string, sep string) ([]*Record, error) {
	pattern := escapeGlob(dir) + sep + "*"
	rows, err := tx.tx.QueryContext(ctx, tx.selectColumns()+` WHERE path GLOB ?`, pattern)
	if err != nil {
		return nil, fmt.Errorf("store: scan prefix %s: %w", dir, err)
	}
	defer rows.Close()
	return tx.scanAll(rows)
}

// FindByIno looks up the (local-only) record with the given inode number.
func (tx *Tx) FindByIno(ctx context.Context, ino uint64) (*Record, error) {
	if tx.backend != cfg.LocalIndexBackend {
		return nil, fmt.Errorf("store: FindByIno is local-backend only")
	}
	row := tx.tx.QueryRowContext(ctx, tx.selectColumns()+` WHERE ino = ?`, ino)
	return tx.scanOne(row)
}

// FindByPath looks up the record at exactly path.
func (tx *Tx) FindByPath(ctx context.Context, path string) (*Record, error) {
	row := tx.tx.QueryRowContext(ctx, tx.selectColumns()+` WHERE path = ?`, path)
	return tx.scanOne(row)
}

// FindByID looks up the record with the given id.
func (tx *Tx) FindByID(ctx context.Context, id string) (*Record, error) {
	row := tx.tx.QueryRowContext(ctx, tx.selectColumns()+` WHERE id = ?`, id)
	return tx.scanOne(row)
}

// ScanDirs returns every directory record (local backend only); the
// LocalIndex reconciliation sweep walks this set looking for dirty
// directories.
func (tx *Tx) ScanDirs(ctx context.Context) ([]*Record, error) {
	if tx.backend != cfg.LocalIndexBackend {
		return nil, fmt.Errorf("store: ScanDirs is local-backend only")
	}
	rows, err := tx.tx.QueryContext(ctx, tx.selectColumns()+` WHERE is_dir = 1`)
	if err != nil {
		return nil, fmt.Errorf("store: scan dirs: %w", err)
	}
	defer rows.Close()
	return tx.scanAll(rows)
}

// HasAnyDir reports whether any directory record already exists, letting
// LocalIndex.initialize skip a redundant startup walk against a
// previously-populated store.
func (tx *Tx) HasAnyDir(ctx context.Context) (bool, error) {
	if tx.backend != cfg.LocalIndexBackend {
		return false, fmt.Errorf("store: HasAnyDir is local-backend only")
	}
	var n int
	if err := tx.tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM Files WHERE is_dir = 1`).Scan(&n); err != nil {
		return false, fmt.Errorf("store: has-any-dir: %w", err)
	}
	return n > 0, nil
}

func (tx *Tx) selectColumns() string {
	if tx.backend == cfg.LocalIndexBackend {
		return `SELECT id, path, ino, crtime, mtime, is_dir FROM Files`
	}
	return `SELECT id, path FROM Files`
}

type scanner interface {
	Scan(dest ...any) error
}

func (tx *Tx) scanOne(row *sql.Row) (*Record, error) {
	rec, err := tx.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan: %w", err)
	}
	return rec, nil
}

func (tx *Tx) scanRow(s scanner) (*Record, error) {
	var rec Record
	if tx.backend == cfg.LocalIndexBackend {
		var isDir int
		if err := s.Scan(&rec.ID, &rec.Path, &rec.Ino, &rec.Crtime, &rec.Mtime, &isDir); err != nil {
			return nil, err
		}
		rec.IsDir = isDir != 0
		return &rec, nil
	}
	if err := s.Scan(&rec.ID, &rec.Path); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (tx *Tx) scanAll(rows *sql.Rows) ([]*Record, error) {
	var out []*Record
	for rows.Next() {
		rec, err := tx.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// escapeGlob escapes SQLite GLOB metacharacters (*, ?, [) by bracketing
// each one individually, so a literal path can be used as a GLOB prefix
// without its own characters being interpreted as wildcards.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[':
			b.WriteByte('[')
			b.WriteRune(r)
			b.WriteByte(']')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
