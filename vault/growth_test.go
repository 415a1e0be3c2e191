// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoodao/arena/asset"
	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/storage"
)

var (
	vaultAddr = common.BytesToAddress([]byte("vault"))
	arenaAddr = common.BytesToAddress([]byte("arena"))
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), RateScale)
}

func newTestVault(t *testing.T) (*Growth, *asset.Ledger) {
	ctx := storage.NewContext(nil)
	dai := asset.NewLedger(ctx, "dai")
	require.NoError(t, dai.Mint(arenaAddr, ether(1_000_000)))
	return NewGrowth(ctx, dai, vaultAddr, arenaAddr), dai
}

func TestMintRedeemAtPar(t *testing.T) {
	g, dai := newTestVault(t)

	shares, err := g.Mint(ether(1000))
	require.NoError(t, err)
	assert.Equal(t, ether(1000), shares)

	bal, err := dai.BalanceOf(vaultAddr)
	require.NoError(t, err)
	assert.Equal(t, ether(1000), bal)

	assets, err := g.Redeem(shares)
	require.NoError(t, err)
	assert.Equal(t, ether(1000), assets)
}

func TestYieldAccrual(t *testing.T) {
	g, dai := newTestVault(t)

	shares, err := g.Mint(ether(1000))
	require.NoError(t, err)

	// 10% yield; fund the vault with the extra dai it now owes
	rate := new(big.Int).Mul(RateScale, big.NewInt(11))
	rate.Div(rate, big.NewInt(10))
	require.NoError(t, g.Accrue(rate))
	require.NoError(t, dai.Mint(vaultAddr, ether(100)))

	assets, err := g.Redeem(shares)
	require.NoError(t, err)
	assert.Equal(t, ether(1100), assets)
}

func TestRateCannotDecrease(t *testing.T) {
	g, _ := newTestVault(t)
	err := g.Accrue(big.NewInt(1))
	assert.Equal(t, reverts.CodeInvariant, reverts.CodeOf(err))
}

func TestUnfundedYieldFailsRedeem(t *testing.T) {
	g, _ := newTestVault(t)

	shares, err := g.Mint(ether(1000))
	require.NoError(t, err)

	rate := new(big.Int).Mul(RateScale, big.NewInt(2))
	require.NoError(t, g.Accrue(rate))

	// the vault owes 2000 dai but only holds 1000
	_, err = g.Redeem(shares)
	assert.Equal(t, reverts.CodeCollaborator, reverts.CodeOf(err))
}

func TestRedeemBeyondSupply(t *testing.T) {
	g, _ := newTestVault(t)
	_, err := g.Redeem(ether(1))
	assert.Equal(t, reverts.CodeCollaborator, reverts.CodeOf(err))
}

func TestConversionRoundTrip(t *testing.T) {
	rate := new(big.Int).Mul(RateScale, big.NewInt(3))
	tokens := SharesToTokens(ether(9), rate)
	assert.Equal(t, ether(27), tokens)
	assert.Equal(t, ether(9), TokensToShares(tokens, rate))
}
