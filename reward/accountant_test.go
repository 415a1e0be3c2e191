// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoodao/arena/kv"
	"github.com/zoodao/arena/policy"
	"github.com/zoodao/arena/position"
	"github.com/zoodao/arena/storage"
	"github.com/zoodao/arena/vault"
)

type fixture struct {
	repo       *Repository
	positions  *position.Service
	accountant *Accountant
}

func newFixture(t *testing.T) *fixture {
	db, err := kv.NewMem()
	require.NoError(t, err)
	ctx := storage.NewContext(db)
	repo := NewRepository(ctx)
	positions := position.New(ctx)
	pol := policy.NewBase(policy.DefaultDurations, clockwork.NewFakeClock())
	return &fixture{
		repo:       repo,
		positions:  positions,
		accountant: NewAccountant(repo, positions, pol, 96),
	}
}

func scale(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), vault.RateScale)
}

func TestRecordRoundTripsSignedSaldo(t *testing.T) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	repo := NewRepository(storage.NewContext(db))

	rec, err := repo.Get(1, 1)
	require.NoError(t, err)
	rec.YTokensSaldo = big.NewInt(-4200)
	rec.Votes = big.NewInt(1300)
	rec.League = policy.LeagueSilver
	require.NoError(t, repo.Set(1, 1, rec))

	got, err := repo.Get(1, 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(-4200), got.YTokensSaldo)
	assert.Equal(t, big.NewInt(1300), got.Votes)
	assert.Equal(t, policy.LeagueSilver, got.League)

	// Unwritten epochs read as zero records.
	empty, err := repo.Get(1, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.YTokensSaldo.Sign())
	assert.Equal(t, 0, empty.Votes.Sign())
}

func TestCatchUpCarriesVotesForward(t *testing.T) {
	f := newFixture(t)
	id, err := f.positions.CreateStakerPosition(common.Address{}, 1)
	require.NoError(t, err)

	rec, err := f.repo.Get(id, 1)
	require.NoError(t, err)
	rec.Votes = scale(600)
	rec.YTokens = big.NewInt(500)
	require.NoError(t, f.repo.Set(id, 1, rec))

	// Pending votes booked ahead into epoch 2 stack on the carried total.
	pending, err := f.repo.Get(id, 2)
	require.NoError(t, err)
	pending.Votes = scale(2000)
	require.NoError(t, f.repo.Set(id, 2, pending))

	require.NoError(t, f.accountant.CatchUpStaker(id, 4))

	rec2, err := f.repo.Get(id, 2)
	require.NoError(t, err)
	assert.Equal(t, scale(2600), rec2.Votes)
	assert.Equal(t, policy.LeagueGold, rec2.League)

	rec4, err := f.repo.Get(id, 4)
	require.NoError(t, err)
	assert.Equal(t, scale(2600), rec4.Votes)
	assert.Equal(t, big.NewInt(500), rec4.YTokens)

	pos, err := f.positions.GetExistingStakerPosition(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), pos.LastUpdateEpoch)

	// Second run is a no-op.
	require.NoError(t, f.accountant.CatchUpStaker(id, 4))
	rec4, err = f.repo.Get(id, 4)
	require.NoError(t, err)
	assert.Equal(t, scale(2600), rec4.Votes)
}

func TestVoterRewardProportionalShare(t *testing.T) {
	f := newFixture(t)
	stakingID, err := f.positions.CreateStakerPosition(common.Address{}, 1)
	require.NoError(t, err)
	votingID, vpos, err := f.positions.CreateVotingPosition(stakingID, 1)
	require.NoError(t, err)

	// The voter holds a quarter of the epoch's votes.
	vpos.Votes = big.NewInt(250)
	require.NoError(t, f.positions.SetVotingPosition(votingID, vpos))

	rec, err := f.repo.Get(stakingID, 1)
	require.NoError(t, err)
	rec.Votes = big.NewInt(1000)
	rec.YTokensSaldo = big.NewInt(9600)
	rec.ZooRewards = big.NewInt(400)
	require.NoError(t, f.repo.Set(stakingID, 1, rec))

	shares, zoo, err := f.accountant.PendingVoterReward(votingID, 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2400), shares)
	assert.Equal(t, big.NewInt(100), zoo)

	// A negative-saldo epoch contributes nothing.
	loss, err := f.repo.Get(stakingID, 2)
	require.NoError(t, err)
	loss.Votes = big.NewInt(1000)
	loss.YTokensSaldo = big.NewInt(-5000)
	require.NoError(t, f.repo.Set(stakingID, 2, loss))

	shares, _, err = f.accountant.PendingVoterReward(votingID, 3)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2400), shares)

	// Settlement pays out once and moves the cursor.
	shares, zoo, err = f.accountant.SettleVoterReward(votingID, 3)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2400), shares)
	assert.Equal(t, big.NewInt(100), zoo)

	shares, zoo, err = f.accountant.PendingVoterReward(votingID, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, shares.Sign())
	assert.Equal(t, 0, zoo.Sign())
}

func TestPendingVotesExcludedFromEarlierEpochs(t *testing.T) {
	f := newFixture(t)
	stakingID, err := f.positions.CreateStakerPosition(common.Address{}, 1)
	require.NoError(t, err)
	votingID, vpos, err := f.positions.CreateVotingPosition(stakingID, 1)
	require.NoError(t, err)

	// 250 votes counted in epoch 1, another 750 booked ahead into epoch 2.
	vpos.Votes = big.NewInt(1000)
	vpos.PendingVotes = big.NewInt(750)
	vpos.PendingVotesEpoch = 2
	require.NoError(t, f.positions.SetVotingPosition(votingID, vpos))

	rec, err := f.repo.Get(stakingID, 1)
	require.NoError(t, err)
	rec.Votes = big.NewInt(1000)
	rec.YTokensSaldo = big.NewInt(9600)
	rec.ZooRewards = big.NewInt(400)
	require.NoError(t, f.repo.Set(stakingID, 1, rec))

	rec2, err := f.repo.Get(stakingID, 2)
	require.NoError(t, err)
	rec2.Votes = big.NewInt(1750)
	rec2.YTokensSaldo = big.NewInt(3500)
	require.NoError(t, f.repo.Set(stakingID, 2, rec2))

	// Epoch 1 pays on the 250 effective votes, epoch 2 on the full 1000.
	shares, zoo, err := f.accountant.PendingVoterReward(votingID, 3)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(4400), shares) // 9600*250/1000 + 3500*1000/1750
	assert.Equal(t, big.NewInt(100), zoo)     // 400*250/1000
}

func TestDeferBanksRewardBeforeVoteChange(t *testing.T) {
	f := newFixture(t)
	stakingID, err := f.positions.CreateStakerPosition(common.Address{}, 1)
	require.NoError(t, err)
	votingID, vpos, err := f.positions.CreateVotingPosition(stakingID, 1)
	require.NoError(t, err)
	vpos.Votes = big.NewInt(500)
	require.NoError(t, f.positions.SetVotingPosition(votingID, vpos))

	rec, err := f.repo.Get(stakingID, 1)
	require.NoError(t, err)
	rec.Votes = big.NewInt(1000)
	rec.YTokensSaldo = big.NewInt(1000)
	require.NoError(t, f.repo.Set(stakingID, 1, rec))

	require.NoError(t, f.accountant.DeferVoterReward(votingID, 2))

	// Doubling the votes afterwards must not double the banked epoch.
	vpos, err = f.positions.GetExistingVotingPosition(votingID)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), vpos.YTokensRewardDebt)
	assert.Equal(t, uint64(2), vpos.LastRewardedEpoch)
	vpos.Votes = big.NewInt(1000)
	require.NoError(t, f.positions.SetVotingPosition(votingID, vpos))

	shares, _, err := f.accountant.SettleVoterReward(votingID, 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), shares)
}

func TestStakerRewardFlatFraction(t *testing.T) {
	f := newFixture(t)
	id, err := f.positions.CreateStakerPosition(common.Address{}, 1)
	require.NoError(t, err)

	for epoch, saldo := range map[uint64]int64{1: 9600, 2: -4800, 3: 960} {
		rec, err := f.repo.Get(id, epoch)
		require.NoError(t, err)
		rec.YTokensSaldo = big.NewInt(saldo)
		require.NoError(t, f.repo.Set(id, epoch, rec))
	}

	shares, err := f.accountant.PendingStakerReward(id, 4)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(110), shares) // 9600/96 + 960/96

	shares, err = f.accountant.SettleStakerReward(id, 4)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(110), shares)

	shares, err = f.accountant.PendingStakerReward(id, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, shares.Sign())
}

func TestSharesExcludingRewards(t *testing.T) {
	f := newFixture(t)
	stakingID, err := f.positions.CreateStakerPosition(common.Address{}, 1)
	require.NoError(t, err)
	votingID, vpos, err := f.positions.CreateVotingPosition(stakingID, 1)
	require.NoError(t, err)
	vpos.DaiInvested = scale(1000)
	vpos.YTokensNumber = scale(1000)
	require.NoError(t, f.positions.SetVotingPosition(votingID, vpos))

	// Epoch 1 battle moved the share price: coefficient recorded.
	rec, err := f.repo.Get(stakingID, 1)
	require.NoError(t, err)
	rec.YTokensSaldo = big.NewInt(1)
	rec.PricePerShareCoef = scale(10)
	require.NoError(t, f.repo.Set(stakingID, 1, rec))

	// Epoch 2 battle had zero income: no coefficient, no deduction.
	shares, err := f.accountant.SharesExcludingRewards(votingID, 3)
	require.NoError(t, err)
	assert.Equal(t, scale(900), shares) // 1000 - 1000*1e18/10e18

	// Committing writes the balance back and stops re-deducting.
	committed, err := f.accountant.CommitShareDeduction(votingID, 3)
	require.NoError(t, err)
	assert.Equal(t, scale(900), committed)

	shares, err = f.accountant.SharesExcludingRewards(votingID, 3)
	require.NoError(t, err)
	assert.Equal(t, scale(900), shares)
}
