// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, db.Put([]byte("k"), []byte("v")))

	has, err := db.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, db.Delete([]byte("k")))
	has, err = db.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBucket(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	b1 := Bucket("b1-").NewStore(db)
	b2 := Bucket("b2-").NewStore(db)

	require.NoError(t, b1.Put([]byte("k"), []byte("v1")))
	require.NoError(t, b2.Put([]byte("k"), []byte("v2")))

	v, err := b1.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	v, err = b2.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	// raw store sees prefixed keys only
	_, err = db.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))
}
