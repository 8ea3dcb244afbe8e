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

package store

import (
	"context"
	"testing"

	"github.com/fileid-go/fileid/cfg"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LocalStoreTest struct {
	suite.Suite
	ctx context.Context
	s   *Store
}

func TestLocalStoreSuite(t *testing.T) {
	suite.Run(t, new(LocalStoreTest))
}

func (t *LocalStoreTest) SetupTest() {
	t.ctx = context.Background()
	s, err := Open(t.ctx, cfg.StoreConfig{DBPath: cfg.MemorySentinel, JournalMode: cfg.JournalMemory}, cfg.LocalIndexBackend)
	t.Require().NoError(err)
	t.s = s
}

func (t *LocalStoreTest) TearDownTest() {
	t.Require().NoError(t.s.Close())
}

func (t *LocalStoreTest) TestInsertAndFindByID() {
	var id string
	err := t.s.WithTx(t.ctx, func(tx *Tx) error {
		var err error
		id, err = tx.Insert(t.ctx, Record{Path: "/root/a", Ino: 1, Mtime: 100, IsDir: false})
		return err
	})
	t.Require().NoError(err)

	var rec *Record
	err = t.s.WithTx(t.ctx, func(tx *Tx) error {
		var err error
		rec, err = tx.FindByID(t.ctx, id)
		return err
	})
	t.Require().NoError(err)
	t.Require().NotNil(rec)
	t.Equal("/root/a", rec.Path)
	t.Equal(uint64(1), rec.Ino)
}

func (t *LocalStoreTest) TestFindByInoReturnsNilWhenMissing() {
	var rec *Record
	err := t.s.WithTx(t.ctx, func(tx *Tx) error {
		var err error
		rec, err = tx.FindByIno(t.ctx, 9999)
		return err
	})
	t.Require().NoError(err)
	t.Nil(rec)
}

func (t *LocalStoreTest) TestInoUniquenessRejectsDuplicateInsert() {
	err := t.s.WithTx(t.ctx, func(tx *Tx) error {
		_, err := tx.Insert(t.ctx, Record{Path: "/root/a", Ino: 5, Mtime: 1})
		return err
	})
	t.Require().NoError(err)

	err = t.s.WithTx(t.ctx, func(tx *Tx) error {
		_, err := tx.Insert(t.ctx, Record{Path: "/root/b", Ino: 5, Mtime: 2})
		return err
	})
	t.Error(err)
}

func (t *LocalStoreTest) TestDeleteByPathPrefixRemovesDescendantsOnly() {
	err := t.s.WithTx(t.ctx, func(tx *Tx) error {
		if _, err := tx.Insert(t.ctx, Record{Path: "/root/dir", Ino: 1, Mtime: 1, IsDir: true}); err != nil {
			return err
		}
		if _, err := tx.Insert(t.ctx, Record{Path: "/root/dir/child", Ino: 2, Mtime: 1}); err != nil {
			return err
		}
		if _, err := tx.Insert(t.ctx, Record{Path: "/root/other", Ino: 3, Mtime: 1}); err != nil {
			return err
		}
		return nil
	})
	t.Require().NoError(err)

	err = t.s.WithTx(t.ctx, func(tx *Tx) error {
		return tx.DeleteByPathPrefix(t.ctx, "/root/dir", "/")
	})
	t.Require().NoError(err)

	var remaining *Record
	var other *Record
	err = t.s.WithTx(t.ctx, func(tx *Tx) error {
		var err error
		remaining, err = tx.FindByPath(t.ctx, "/root/dir/child")
		if err != nil {
			return err
		}
		other, err = tx.FindByPath(t.ctx, "/root/other")
		return err
	})
	t.Require().NoError(err)
	t.Nil(remaining)
	t.NotNil(other)
}

func (t *LocalStoreTest) TestPathUniquenessIsNotEnforced() {
	// I3: tombstoned records may share a path with a live record.
	err := t.s.WithTx(t.ctx, func(tx *Tx) error {
		if _, err := tx.Insert(t.ctx, Record{Path: "/root/a", Ino: 1, Mtime: 1}); err != nil {
			return err
		}
		_, err := tx.Insert(t.ctx, Record{Path: "/root/a", Ino: 2, Mtime: 1})
		return err
	})
	t.Require().NoError(err)
}

func (t *LocalStoreTest) TestHasAnyDir() {
	var has bool
	err := t.s.WithTx(t.ctx, func(tx *Tx) error {
		var err error
		has, err = tx.HasAnyDir(t.ctx)
		return err
	})
	t.Require().NoError(err)
	t.False(has)

	err = t.s.WithTx(t.ctx, func(tx *Tx) error {
		_, err := tx.Insert(t.ctx, Record{Path: "/root", Ino: 1, Mtime: 1, IsDir: true})
		return err
	})
	t.Require().NoError(err)

	err = t.s.WithTx(t.ctx, func(tx *Tx) error {
		var err error
		has, err = tx.HasAnyDir(t.ctx)
		return err
	})
	t.Require().NoError(err)
	t.True(has)
}

func (t *LocalStoreTest) TestWithTxRollsBackOnError() {
	sentinel := t.s
	err := sentinel.WithTx(t.ctx, func(tx *Tx) error {
		if _, err := tx.Insert(t.ctx, Record{Path: "/root/a", Ino: 1, Mtime: 1}); err != nil {
			return err
		}
		return context.Canceled
	})
	t.Error(err)

	var rec *Record
	err = sentinel.WithTx(t.ctx, func(tx *Tx) error {
		var err error
		rec, err = tx.FindByPath(t.ctx, "/root/a")
		return err
	})
	t.Require().NoError(err)
	t.Nil(rec)
}

type ArbitraryStoreTest struct {
	suite.Suite
	ctx context.Context
	s   *Store
}

func TestArbitraryStoreSuite(t *testing.T) {
	suite.Run(t, new(ArbitraryStoreTest))
}

func (t *ArbitraryStoreTest) SetupTest() {
	t.ctx = context.Background()
	s, err := Open(t.ctx, cfg.StoreConfig{DBPath: cfg.MemorySentinel}, cfg.ArbitraryIndexBackend)
	t.Require().NoError(err)
	t.s = s
}

func (t *ArbitraryStoreTest) TearDownTest() {
	t.Require().NoError(t.s.Close())
}

func (t *ArbitraryStoreTest) TestInsertRequiresPreMintedID() {
	err := t.s.WithTx(t.ctx, func(tx *Tx) error {
		_, err := tx.Insert(t.ctx, Record{Path: "a/b"})
		return err
	})
	t.Error(err)
}

func (t *ArbitraryStoreTest) TestInsertAndFindByPath() {
	err := t.s.WithTx(t.ctx, func(tx *Tx) error {
		_, err := tx.Insert(t.ctx, Record{ID: "uuid-1", Path: "a/b"})
		return err
	})
	t.Require().NoError(err)

	var rec *Record
	err = t.s.WithTx(t.ctx, func(tx *Tx) error {
		var err error
		rec, err = tx.FindByPath(t.ctx, "a/b")
		return err
	})
	t.Require().NoError(err)
	t.Require().NotNil(rec)
	t.Equal("uuid-1", rec.ID)
}

func (t *ArbitraryStoreTest) TestPathUniquenessIsEnforced() {
	err := t.s.WithTx(t.ctx, func(tx *Tx) error {
		_, err := tx.Insert(t.ctx, Record{ID: "uuid-1", Path: "a/b"})
		return err
	})
	t.Require().NoError(err)

	err = t.s.WithTx(t.ctx, func(tx *Tx) error {
		_, err := tx.Insert(t.ctx, Record{ID: "uuid-2", Path: "a/b"})
		return err
	})
	t.Error(err)
}

// The suite opens ":memory:" with no journal mode, so Open requests the
// arbitrary default DELETE; SQLite keeps in-memory databases in MEMORY mode
// regardless, and that is what the store reports.
func (t *ArbitraryStoreTest) TestJournalModeReportsMemoryForInMemoryStore() {
	mode, err := t.s.JournalMode(t.ctx)
	t.Require().NoError(err)
	t.Equal("MEMORY", mode)
}
