// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVRFFulfillRequiresPendingRequest(t *testing.T) {
	base := NewBase(DefaultDurations, clockwork.NewFakeClock())
	sk, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = NewVRFFulfiller(base, sk).Fulfill(1)
	assert.Error(t, err)
}

func TestVRFFulfillmentVerifiable(t *testing.T) {
	base := NewBase(DefaultDurations, clockwork.NewFakeClock())
	sk, err := crypto.GenerateKey()
	require.NoError(t, err)

	require.NoError(t, base.RequestRandomNumber())
	proof, err := NewVRFFulfiller(base, sk).Fulfill(7)
	require.NoError(t, err)

	random, err := base.GetRandomResult()
	require.NoError(t, err)

	verified, err := VerifyFulfillment(&sk.PublicKey, 7, proof)
	require.NoError(t, err)
	assert.Equal(t, 0, random.Cmp(verified))

	// a proof for one epoch does not verify for another
	_, err = VerifyFulfillment(&sk.PublicKey, 8, proof)
	assert.Error(t, err)
}
