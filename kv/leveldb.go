// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

var _ StoreCloser = (*LevelDB)(nil)

var (
	writeOpt = opt.WriteOptions{}
	readOpt  = opt.ReadOptions{}
)

// LevelDB wraps a goleveldb instance.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB creates a persistent level db store.
// An empty one is created if it does not exist yet.
func NewLevelDB(path string, cacheSizeMB int) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open level db storage")
	}
	return openLevelDB(stg, cacheSizeMB)
}

// NewMem creates a level db store backed by memory, for tests and simulation.
func NewMem() (*LevelDB, error) {
	return openLevelDB(storage.NewMemStorage(), 0)
}

func openLevelDB(stg storage.Storage, cacheSizeMB int) (*LevelDB, error) {
	if cacheSizeMB < 16 {
		cacheSizeMB = 16
	}
	db, err := leveldb.Open(stg, &opt.Options{
		BlockCacheCapacity: cacheSizeMB / 2 * opt.MiB,
		WriteBuffer:        cacheSizeMB / 4 * opt.MiB,
		Filter:             filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{db: db}, nil
}

// IsNotFound checks if the error returned by Get indicates key not found.
func (l *LevelDB) IsNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

func (l *LevelDB) Get(key []byte) ([]byte, error) {
	return l.db.Get(key, &readOpt)
}

func (l *LevelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, &readOpt)
}

func (l *LevelDB) Put(key, value []byte) error {
	return l.db.Put(key, value, &writeOpt)
}

func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, &writeOpt)
}

// Close closes the db. Later operations will all fail.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
