// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"math/big"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoodao/arena/reverts"
)

func newTestBase() *Base {
	return NewBase(DefaultDurations, clockwork.NewFakeClock())
}

func TestRandomLifecycle(t *testing.T) {
	p := newTestBase()

	_, err := p.GetRandomResult()
	assert.Equal(t, reverts.CodeNotReady, reverts.CodeOf(err))

	require.NoError(t, p.RequestRandomNumber())
	_, err = p.GetRandomResult()
	assert.Equal(t, reverts.CodeNotReady, reverts.CodeOf(err))

	require.NoError(t, p.Fulfill(big.NewInt(777)))
	v, err := p.GetRandomResult()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(777), v)

	// repeated requests are idempotent and keep the result
	require.NoError(t, p.RequestRandomNumber())
	v, err = p.GetRandomResult()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(777), v)

	p.ResetRandom()
	_, err = p.GetRandomResult()
	assert.Equal(t, reverts.CodeNotReady, reverts.CodeOf(err))
}

func TestFulfillWithoutRequest(t *testing.T) {
	p := newTestBase()
	err := p.Fulfill(big.NewInt(1))
	assert.Equal(t, reverts.CodeNotReady, reverts.CodeOf(err))
}

func TestDecideWinsProportional(t *testing.T) {
	p := newTestBase()
	a, b := big.NewInt(500), big.NewInt(1500)

	// random mod 2000 below 500 favors A, everything else favors B
	assert.True(t, p.DecideWins(a, b, big.NewInt(499)))
	assert.False(t, p.DecideWins(a, b, big.NewInt(500)))
	assert.False(t, p.DecideWins(a, b, big.NewInt(1999)))
	assert.True(t, p.DecideWins(a, b, big.NewInt(2000)))

	// zero/zero pairing is a coin flip on the low bit
	zero := new(big.Int)
	assert.True(t, p.DecideWins(zero, zero, big.NewInt(2)))
	assert.False(t, p.DecideWins(zero, zero, big.NewInt(3)))
}

func TestVotePricing(t *testing.T) {
	p := newTestBase()
	amount := scale(1000)

	early := p.ComputeVotesByDai(amount, StageStake)
	assert.Equal(t, scale(1300), early)

	regular := p.ComputeVotesByDai(amount, StageDaiVote)
	assert.Equal(t, scale(1000), regular)

	pending := p.ComputeVotesByDai(amount, StagePair)
	assert.Equal(t, scale(1300), pending)

	assert.Equal(t, scale(700), p.ComputeVotesByZoo(scale(700)))
}

func TestLeagues(t *testing.T) {
	p := newTestBase()

	assert.Equal(t, LeagueWooden, p.NftLeague(new(big.Int)))
	assert.Equal(t, LeagueWooden, p.NftLeague(scale(499)))
	assert.Equal(t, LeagueSilver, p.NftLeague(scale(500)))
	assert.Equal(t, LeagueGold, p.NftLeague(scale(2500)))
	assert.Equal(t, LeaguePlatinum, p.NftLeague(scale(7500)))
	assert.Equal(t, LeagueMaster, p.NftLeague(scale(30000)))

	assert.Equal(t, scale(50), p.LeagueZooRewards(LeagueWooden))
	assert.Equal(t, scale(10000), p.LeagueZooRewards(LeagueMaster))
}

func TestPseudoRandomVaries(t *testing.T) {
	p := newTestBase()
	assert.NotEqual(t, p.ComputePseudoRandom(), p.ComputePseudoRandom())
}
