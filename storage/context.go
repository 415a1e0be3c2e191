// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/pkg/errors"

	"github.com/zoodao/arena/kv"
)

// Context is a journaled key/value state layered over a committed kv store.
// All writes stay in memory until Commit; NewCheckpoint/RevertTo give
// all-or-nothing semantics to multi-write operations.
type Context struct {
	store   kv.Store
	reads   map[string][]byte
	writes  map[string][]byte
	journal []journalEntry
}

type journalEntry struct {
	key     string
	prev    []byte
	hadPrev bool
}

// NewContext creates a context over the given committed store.
// The store may be nil for a purely in-memory context.
func NewContext(store kv.Store) *Context {
	return &Context{
		store:  store,
		reads:  make(map[string][]byte),
		writes: make(map[string][]byte),
	}
}

// Get returns the raw value for the key and whether it exists.
func (c *Context) Get(key []byte) ([]byte, bool, error) {
	k := string(key)
	if v, ok := c.writes[k]; ok {
		return v, true, nil
	}
	if v, ok := c.reads[k]; ok {
		return v, v != nil, nil
	}
	if c.store == nil {
		return nil, false, nil
	}
	v, err := c.store.Get(key)
	if err != nil {
		if c.store.IsNotFound(err) {
			c.reads[k] = nil
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "storage get")
	}
	c.reads[k] = v
	return v, true, nil
}

// Put records the value for the key in the journal.
func (c *Context) Put(key, value []byte) {
	k := string(key)
	prev, hadPrev := c.writes[k]
	c.journal = append(c.journal, journalEntry{key: k, prev: prev, hadPrev: hadPrev})
	c.writes[k] = value
}

// NewCheckpoint records the current journal position.
func (c *Context) NewCheckpoint() int {
	return len(c.journal)
}

// RevertTo unwinds every write made since the given checkpoint.
func (c *Context) RevertTo(checkpoint int) {
	for i := len(c.journal) - 1; i >= checkpoint; i-- {
		e := c.journal[i]
		if e.hadPrev {
			c.writes[e.key] = e.prev
		} else {
			delete(c.writes, e.key)
		}
	}
	c.journal = c.journal[:checkpoint]
}

// Commit flushes all journaled writes into the backing store and resets
// the journal. It is a no-op for a context without a backing store.
func (c *Context) Commit() error {
	for k, v := range c.writes {
		if c.store != nil {
			if err := c.store.Put([]byte(k), v); err != nil {
				return errors.Wrap(err, "storage commit")
			}
		}
		c.reads[k] = v
		delete(c.writes, k)
	}
	c.journal = c.journal[:0]
	return nil
}
