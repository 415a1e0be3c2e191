// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoodao/arena/kv"
)

type record struct {
	Amount *big.Int
	Epoch  uint64
}

func TestCheckpointRevert(t *testing.T) {
	ctx := NewContext(nil)
	m := NewMapping[*record](ctx, "records")

	require.NoError(t, m.Set(Uint64Key(1), &record{Amount: big.NewInt(100), Epoch: 1}))

	cp := ctx.NewCheckpoint()
	require.NoError(t, m.Set(Uint64Key(1), &record{Amount: big.NewInt(200), Epoch: 2}))
	require.NoError(t, m.Set(Uint64Key(2), &record{Amount: big.NewInt(300), Epoch: 2}))
	ctx.RevertTo(cp)

	r, err := m.Get(Uint64Key(1))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), r.Amount)
	assert.Equal(t, uint64(1), r.Epoch)

	r, err = m.Get(Uint64Key(2))
	require.NoError(t, err)
	assert.Nil(t, r.Amount)
}

func TestNestedCheckpoints(t *testing.T) {
	ctx := NewContext(nil)
	s := NewSlot[*big.Int](ctx, "counter")

	require.NoError(t, s.Set(big.NewInt(1)))
	cp1 := ctx.NewCheckpoint()
	require.NoError(t, s.Set(big.NewInt(2)))
	cp2 := ctx.NewCheckpoint()
	require.NoError(t, s.Set(big.NewInt(3)))

	ctx.RevertTo(cp2)
	v, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2), v)

	ctx.RevertTo(cp1)
	v, err = s.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), v)
}

func TestCommitPersists(t *testing.T) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	defer db.Close()

	ctx := NewContext(db)
	s := NewSlot[*big.Int](ctx, "counter")
	require.NoError(t, s.Set(big.NewInt(42)))
	require.NoError(t, ctx.Commit())

	// a fresh context over the same store sees the committed value
	fresh := NewContext(db)
	v, err := NewSlot[*big.Int](fresh, "counter").Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), v)
}

func TestEmptyValueInitialized(t *testing.T) {
	ctx := NewContext(nil)
	m := NewMapping[*record](ctx, "records")

	r, err := m.Get(Uint64Key(99))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, uint64(0), r.Epoch)
}
