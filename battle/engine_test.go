// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package battle

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoodao/arena/asset"
	"github.com/zoodao/arena/kv"
	"github.com/zoodao/arena/policy"
	"github.com/zoodao/arena/position"
	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/reward"
	"github.com/zoodao/arena/storage"
	"github.com/zoodao/arena/vault"
)

var (
	arenaAddr    = common.BytesToAddress([]byte("arena"))
	vaultAddr    = common.BytesToAddress([]byte("vault"))
	treasuryAddr = common.BytesToAddress([]byte("treasury"))
)

type fixture struct {
	engine     *Engine
	positions  *position.Service
	rewards    *reward.Repository
	accountant *reward.Accountant
	policy     *policy.Base
	vault      *vault.Growth
	dai        *asset.Ledger
}

func newFixture(t *testing.T) *fixture {
	db, err := kv.NewMem()
	require.NoError(t, err)
	ctx := storage.NewContext(db)

	dai := asset.NewLedger(ctx, "dai")
	vlt := vault.NewGrowth(ctx, dai, vaultAddr, arenaAddr)
	positions := position.New(ctx)
	rewards := reward.NewRepository(ctx)
	pol := policy.NewBase(policy.DefaultDurations, clockwork.NewFakeClock())
	accountant := reward.NewAccountant(rewards, positions, pol, 96)

	engine := NewEngine(ctx, positions, rewards, accountant, pol, vlt, dai, Config{
		ArenaAddress:   arenaAddr,
		Treasury:       treasuryAddr,
		TreasuryFeeBps: 400,
	})
	return &fixture{
		engine:     engine,
		positions:  positions,
		rewards:    rewards,
		accountant: accountant,
		policy:     pol,
		vault:      vlt,
		dai:        dai,
	}
}

func scale(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), vault.RateScale)
}

// addFighter stakes a position, gives it votes and pooled vault shares.
func (f *fixture) addFighter(t *testing.T, epoch uint64, votes, shares *big.Int) uint64 {
	id, err := f.positions.CreateStakerPosition(common.BytesToAddress([]byte("col")), epoch)
	require.NoError(t, err)
	rec, err := f.rewards.Get(id, epoch)
	require.NoError(t, err)
	rec.Votes = new(big.Int).Set(votes)
	rec.YTokens = new(big.Int).Set(shares)
	rec.League = f.policy.NftLeague(votes)
	require.NoError(t, f.rewards.Set(id, epoch, rec))
	require.NoError(t, f.positions.MoveActive(id, position.PartitionEligible))
	return id
}

// fundVault deposits assets through the arena so the vault holds custody
// for later redemptions.
func (f *fixture) fundVault(t *testing.T, amount *big.Int) *big.Int {
	require.NoError(t, f.dai.Mint(arenaAddr, amount))
	shares, err := f.vault.Mint(amount)
	require.NoError(t, err)
	return shares
}

func (f *fixture) fulfillRandom(t *testing.T, value *big.Int) {
	require.NoError(t, f.policy.RequestRandomNumber())
	require.NoError(t, f.policy.Fulfill(value))
}

func TestPairAgainstArenaWhenNoOpponent(t *testing.T) {
	f := newFixture(t)
	id := f.addFighter(t, 1, big.NewInt(100), scale(10))

	require.NoError(t, f.engine.PairNft(id, 1))

	count, err := f.engine.PairCount(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	pair, err := f.engine.GetPair(1, 0)
	require.NoError(t, err)
	assert.Equal(t, id, pair.Token1)
	assert.Equal(t, uint64(0), pair.Token2)
	assert.False(t, pair.Played)

	p, ok, err := f.positions.PartitionOf(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, position.PartitionInGame, p)

	rec, err := f.rewards.Get(id, 1)
	require.NoError(t, err)
	assert.Equal(t, scale(10), rec.TokensAtBattleStart)
	assert.Equal(t, vault.RateScale, rec.PricePerShareAtBattleStart)
}

func TestPairMatchesSameLeagueOnly(t *testing.T) {
	f := newFixture(t)
	a := f.addFighter(t, 1, big.NewInt(100), scale(10)) // wooden
	b := f.addFighter(t, 1, big.NewInt(200), scale(10)) // wooden
	c := f.addFighter(t, 1, scale(600), scale(10))      // silver

	require.NoError(t, f.engine.PairNft(a, 1))

	pair, err := f.engine.GetPair(1, 0)
	require.NoError(t, err)
	assert.Equal(t, a, pair.Token1)
	assert.Equal(t, b, pair.Token2)

	// Both sides are locked in game; the silver fighter stays eligible.
	eligible, err := f.positions.EligibleIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint64{c}, eligible)

	err = f.engine.PairNft(a, 1)
	assert.Equal(t, reverts.CodeInvariant, reverts.CodeOf(err))
}

func TestChooseWinnerRequiresFulfilledRandom(t *testing.T) {
	f := newFixture(t)
	id := f.addFighter(t, 1, big.NewInt(100), scale(10))
	require.NoError(t, f.engine.PairNft(id, 1))

	err := f.engine.ChooseWinnerInPair(1, 0)
	assert.Equal(t, reverts.CodeNotReady, reverts.CodeOf(err))
}

func TestBattleRewardSplit(t *testing.T) {
	f := newFixture(t)
	f.fundVault(t, scale(2000))

	// Token1 holds all the votes so it wins deterministically.
	id1 := f.addFighter(t, 1, big.NewInt(100), scale(1000))
	id2 := f.addFighter(t, 1, big.NewInt(0), scale(1000))
	require.NoError(t, f.engine.PairNft(id1, 1))

	// 25% yield accrues during the battle; fund the vault's custody for it.
	require.NoError(t, f.dai.Mint(vaultAddr, scale(500)))
	rate := new(big.Int).Mul(big.NewInt(125), big.NewInt(1e16))
	require.NoError(t, f.vault.Accrue(rate))

	f.fulfillRandom(t, big.NewInt(12345))
	require.NoError(t, f.engine.ChooseWinnerInPair(1, 0))

	pair, err := f.engine.GetPair(1, 0)
	require.NoError(t, err)
	assert.True(t, pair.Played)
	assert.True(t, pair.Win)

	// Each side's income is 1000 - 1000/1.25 = 200 shares; combined 400.
	// Treasury takes 4% of 400 = 16 shares = 20 assets at the new rate.
	treasury, err := f.dai.BalanceOf(treasuryAddr)
	require.NoError(t, err)
	assert.Equal(t, scale(20), treasury)

	rec1, err := f.rewards.Get(id1, 1)
	require.NoError(t, err)
	rec2, err := f.rewards.Get(id2, 1)
	require.NoError(t, err)

	assert.Equal(t, scale(384), rec1.YTokensSaldo)
	assert.Equal(t, scale(-200), rec2.YTokensSaldo)

	// Conservation: winner gain plus treasury cut equals combined income.
	sum := new(big.Int).Add(rec1.YTokensSaldo, scale(16))
	assert.Equal(t, scale(400), sum)

	// coef = start*current/(current-start) = 1e18*1.25e18/0.25e18 = 5e18.
	coef := new(big.Int).Mul(big.NewInt(5), vault.RateScale)
	assert.Equal(t, coef, rec1.PricePerShareCoef)
	assert.Equal(t, coef, rec2.PricePerShareCoef)

	// Winner earns the league zoo grant.
	assert.Equal(t, f.policy.LeagueZooRewards(policy.LeagueWooden), rec1.ZooRewards)
	assert.Equal(t, 0, rec2.ZooRewards.Sign())

	// Vote total of the pair counts towards the epoch's played votes.
	played, err := f.engine.PlayedVotes(1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), played)

	done, err := f.engine.AllPairsPlayed(1)
	require.NoError(t, err)
	assert.True(t, done)

	err = f.engine.ChooseWinnerInPair(1, 0)
	assert.Equal(t, reverts.CodeInvariant, reverts.CodeOf(err))
}

func TestZeroIncomeSkipsSaldoAndCoef(t *testing.T) {
	f := newFixture(t)
	f.fundVault(t, scale(2000))
	id1 := f.addFighter(t, 1, big.NewInt(100), scale(1000))
	id2 := f.addFighter(t, 1, big.NewInt(0), scale(1000))
	require.NoError(t, f.engine.PairNft(id1, 1))

	// No rate movement between pairing and decision.
	f.fulfillRandom(t, big.NewInt(777))
	require.NoError(t, f.engine.ChooseWinnerInPair(1, 0))

	rec1, err := f.rewards.Get(id1, 1)
	require.NoError(t, err)
	rec2, err := f.rewards.Get(id2, 1)
	require.NoError(t, err)

	// Nonzero saldo never comes with a zero coefficient: here both stay zero.
	assert.Equal(t, 0, rec1.YTokensSaldo.Sign())
	assert.Equal(t, 0, rec2.YTokensSaldo.Sign())
	assert.Equal(t, 0, rec1.PricePerShareCoef.Sign())
	assert.Equal(t, 0, rec2.PricePerShareCoef.Sign())

	// The winner still earns its zoo grant.
	assert.True(t, rec1.ZooRewards.Sign() > 0)

	treasury, err := f.dai.BalanceOf(treasuryAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, treasury.Sign())
}

func TestFlatRateBattleIgnoresRoundingDust(t *testing.T) {
	f := newFixture(t)

	// An uneven snapshot rate makes the double-floored share conversion
	// report dust income even though the rate never moves afterwards.
	rate := new(big.Int).Mul(big.NewInt(13), big.NewInt(1e17))
	require.NoError(t, f.vault.Accrue(rate))

	// 7 shares round-trip to 6 through tokens at 1.3: dust of 1 share.
	id1 := f.addFighter(t, 1, big.NewInt(100), big.NewInt(7))
	id2 := f.addFighter(t, 1, big.NewInt(0), big.NewInt(7))
	require.NoError(t, f.engine.PairNft(id1, 1))

	f.fulfillRandom(t, big.NewInt(42))
	require.NoError(t, f.engine.ChooseWinnerInPair(1, 0))

	rec1, err := f.rewards.Get(id1, 1)
	require.NoError(t, err)
	rec2, err := f.rewards.Get(id2, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, rec1.YTokensSaldo.Sign())
	assert.Equal(t, 0, rec2.YTokensSaldo.Sign())
	assert.Equal(t, 0, rec1.PricePerShareCoef.Sign())
	assert.Equal(t, 0, rec2.PricePerShareCoef.Sign())

	treasury, err := f.dai.BalanceOf(treasuryAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, treasury.Sign())
}

func TestArenaBattleOutcomes(t *testing.T) {
	f := newFixture(t)
	f.fundVault(t, scale(1000))
	id := f.addFighter(t, 1, big.NewInt(100), scale(1000))
	require.NoError(t, f.engine.PairNft(id, 1))

	require.NoError(t, f.dai.Mint(vaultAddr, scale(250)))
	rate := new(big.Int).Mul(big.NewInt(125), big.NewInt(1e16))
	require.NoError(t, f.vault.Accrue(rate))

	f.fulfillRandom(t, big.NewInt(99))
	require.NoError(t, f.engine.ChooseWinnerInPair(1, 0))

	pair, err := f.engine.GetPair(1, 0)
	require.NoError(t, err)
	rec, err := f.rewards.Get(id, 1)
	require.NoError(t, err)
	treasury, err := f.dai.BalanceOf(treasuryAddr)
	require.NoError(t, err)

	if pair.Win {
		// The position keeps its yield and earns the zoo grant.
		assert.Equal(t, scale(1000), rec.YTokens)
		assert.True(t, rec.ZooRewards.Sign() > 0)
		assert.Equal(t, 0, treasury.Sign())
		assert.Equal(t, 0, rec.PricePerShareCoef.Sign())
	} else {
		// Income above the snapshot (200 shares = 250 assets) is swept.
		assert.Equal(t, scale(800), rec.YTokens)
		assert.Equal(t, 0, rec.ZooRewards.Sign())
		assert.Equal(t, scale(250), treasury)
		assert.True(t, rec.PricePerShareCoef.Sign() > 0)
	}
	// The arena side never touches the saldo.
	assert.Equal(t, 0, rec.YTokensSaldo.Sign())

	played, err := f.engine.PlayedVotes(1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), played)
}
