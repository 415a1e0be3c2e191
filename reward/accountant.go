// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"math/big"

	"github.com/zoodao/arena/policy"
	"github.com/zoodao/arena/position"
	"github.com/zoodao/arena/vault"
)

// Accountant runs the lazy per-position catch-up and computes pending
// battle rewards. All epoch arguments are the caller's current epoch;
// the accountant never consults the clock itself.
type Accountant struct {
	repo         *Repository
	positions    *position.Service
	policy       policy.Policy
	saldoDivisor *big.Int
}

func NewAccountant(repo *Repository, positions *position.Service, pol policy.Policy, saldoDivisor uint64) *Accountant {
	return &Accountant{
		repo:         repo,
		positions:    positions,
		policy:       pol,
		saldoDivisor: new(big.Int).SetUint64(saldoDivisor),
	}
}

// CatchUpStaker rolls votes and shares forward from the last updated epoch
// to the current one and re-buckets the league at every step. Pending votes
// booked ahead into a future epoch accumulate on top of the carried total.
// Idempotent within an epoch.
func (a *Accountant) CatchUpStaker(stakingID, currentEpoch uint64) error {
	pos, err := a.positions.GetExistingStakerPosition(stakingID)
	if err != nil {
		return err
	}
	if pos.LastUpdateEpoch >= currentEpoch {
		return nil
	}
	for e := pos.LastUpdateEpoch + 1; e <= currentEpoch; e++ {
		prev, err := a.repo.Get(stakingID, e-1)
		if err != nil {
			return err
		}
		rec, err := a.repo.Get(stakingID, e)
		if err != nil {
			return err
		}
		rec.Votes.Add(rec.Votes, prev.Votes)
		rec.YTokens.Add(rec.YTokens, prev.YTokens)
		rec.League = a.policy.NftLeague(rec.Votes)
		if err := a.repo.Set(stakingID, e, rec); err != nil {
			return err
		}
	}
	pos.LastUpdateEpoch = currentEpoch
	return a.positions.SetStakerPosition(stakingID, pos)
}

// LastVoterEpoch bounds a voting position's reward range: the earliest of
// the staker's unstake epoch, the vote's liquidation epoch and now.
func (a *Accountant) LastVoterEpoch(pos *position.VotingPosition, currentEpoch uint64) (uint64, error) {
	last := currentEpoch
	staker, err := a.positions.GetExistingStakerPosition(pos.StakingPositionID)
	if err != nil {
		return 0, err
	}
	if staker.EndEpoch != 0 && staker.EndEpoch < last {
		last = staker.EndEpoch
	}
	if pos.EndEpoch != 0 && pos.EndEpoch < last {
		last = pos.EndEpoch
	}
	return last, nil
}

// accrueVoter sums the position's proportional share of every positive
// epoch saldo and zoo grant in [lastRewardedEpoch, lastEpoch). The
// numerator is the position's effective weight at each epoch, so votes
// booked ahead never claim a cut of an epoch whose record excludes them.
func (a *Accountant) accrueVoter(pos *position.VotingPosition, lastEpoch uint64) (shares, zoo *big.Int, err error) {
	shares = new(big.Int)
	zoo = new(big.Int)
	for e := pos.LastRewardedEpoch; e < lastEpoch; e++ {
		rec, err := a.repo.Get(pos.StakingPositionID, e)
		if err != nil {
			return nil, nil, err
		}
		if rec.YTokensSaldo.Sign() <= 0 || rec.Votes.Sign() == 0 {
			continue
		}
		votes := pos.EffectiveVotes(e)
		if votes.Sign() <= 0 {
			continue
		}
		cut := new(big.Int).Mul(rec.YTokensSaldo, votes)
		shares.Add(shares, cut.Div(cut, rec.Votes))
		grant := new(big.Int).Mul(rec.ZooRewards, votes)
		zoo.Add(zoo, grant.Div(grant, rec.Votes))
	}
	return shares, zoo, nil
}

// PendingVoterReward returns accrued but unclaimed reward: the running
// debt plus everything earned since the last settlement.
func (a *Accountant) PendingVoterReward(votingID, currentEpoch uint64) (shares, zoo *big.Int, err error) {
	pos, err := a.positions.GetExistingVotingPosition(votingID)
	if err != nil {
		return nil, nil, err
	}
	last, err := a.LastVoterEpoch(pos, currentEpoch)
	if err != nil {
		return nil, nil, err
	}
	shares, zoo, err = a.accrueVoter(pos, last)
	if err != nil {
		return nil, nil, err
	}
	shares.Add(shares, pos.YTokensRewardDebt)
	zoo.Add(zoo, pos.ZooRewardDebt)
	return shares, zoo, nil
}

// SettleVoterReward realizes the pending reward: clears the debts,
// advances the reward cursor and returns the claimable amounts.
func (a *Accountant) SettleVoterReward(votingID, currentEpoch uint64) (shares, zoo *big.Int, err error) {
	pos, err := a.positions.GetExistingVotingPosition(votingID)
	if err != nil {
		return nil, nil, err
	}
	last, err := a.LastVoterEpoch(pos, currentEpoch)
	if err != nil {
		return nil, nil, err
	}
	shares, zoo, err = a.accrueVoter(pos, last)
	if err != nil {
		return nil, nil, err
	}
	shares.Add(shares, pos.YTokensRewardDebt)
	zoo.Add(zoo, pos.ZooRewardDebt)
	pos.YTokensRewardDebt = new(big.Int)
	pos.ZooRewardDebt = new(big.Int)
	pos.LastRewardedEpoch = last
	if err := a.positions.SetVotingPosition(votingID, pos); err != nil {
		return nil, nil, err
	}
	return shares, zoo, nil
}

// DeferVoterReward banks the accrued reward into the position's debt
// fields. Vote mutators call this first so a changed vote weight never
// rewrites history.
func (a *Accountant) DeferVoterReward(votingID, currentEpoch uint64) error {
	pos, err := a.positions.GetExistingVotingPosition(votingID)
	if err != nil {
		return err
	}
	last, err := a.LastVoterEpoch(pos, currentEpoch)
	if err != nil {
		return err
	}
	shares, zoo, err := a.accrueVoter(pos, last)
	if err != nil {
		return err
	}
	pos.YTokensRewardDebt.Add(pos.YTokensRewardDebt, shares)
	pos.ZooRewardDebt.Add(pos.ZooRewardDebt, zoo)
	pos.LastRewardedEpoch = last
	return a.positions.SetVotingPosition(votingID, pos)
}

// PendingStakerReward is a flat fraction of every positive epoch saldo
// between the staker's reward cursor and its last epoch.
func (a *Accountant) PendingStakerReward(stakingID, currentEpoch uint64) (*big.Int, error) {
	pos, err := a.positions.GetExistingStakerPosition(stakingID)
	if err != nil {
		return nil, err
	}
	return a.accrueStaker(pos, stakingID, currentEpoch)
}

func (a *Accountant) accrueStaker(pos *position.StakerPosition, stakingID, currentEpoch uint64) (*big.Int, error) {
	last := currentEpoch
	if pos.EndEpoch != 0 && pos.EndEpoch < last {
		last = pos.EndEpoch
	}
	shares := new(big.Int)
	for e := pos.LastRewardedEpoch; e < last; e++ {
		rec, err := a.repo.Get(stakingID, e)
		if err != nil {
			return nil, err
		}
		if rec.YTokensSaldo.Sign() > 0 {
			shares.Add(shares, new(big.Int).Div(rec.YTokensSaldo, a.saldoDivisor))
		}
	}
	return shares, nil
}

// SettleStakerReward realizes the staker's pending reward and advances
// its reward cursor.
func (a *Accountant) SettleStakerReward(stakingID, currentEpoch uint64) (*big.Int, error) {
	pos, err := a.positions.GetExistingStakerPosition(stakingID)
	if err != nil {
		return nil, err
	}
	shares, err := a.accrueStaker(pos, stakingID, currentEpoch)
	if err != nil {
		return nil, err
	}
	last := currentEpoch
	if pos.EndEpoch != 0 && pos.EndEpoch < last {
		last = pos.EndEpoch
	}
	pos.LastRewardedEpoch = last
	if err := a.positions.SetStakerPosition(stakingID, pos); err != nil {
		return nil, err
	}
	return shares, nil
}

// SharesExcludingRewards returns how many of the voter's vault shares are
// still its own: the invested principal's share footprint for every epoch
// whose battle moved the share price is already spent on rewards. A nonzero
// saldo always comes with a nonzero coefficient, so the skipped epochs are
// exactly the ones where no yield moved.
func (a *Accountant) SharesExcludingRewards(votingID, currentEpoch uint64) (*big.Int, error) {
	pos, err := a.positions.GetExistingVotingPosition(votingID)
	if err != nil {
		return nil, err
	}
	last, err := a.LastVoterEpoch(pos, currentEpoch)
	if err != nil {
		return nil, err
	}
	shares := new(big.Int).Set(pos.YTokensNumber)
	for e := pos.LastEpochYTokensWereDeductedForRewards; e < last; e++ {
		rec, err := a.repo.Get(pos.StakingPositionID, e)
		if err != nil {
			return nil, err
		}
		if rec.PricePerShareCoef.Sign() == 0 {
			continue
		}
		spent := new(big.Int).Mul(pos.DaiInvested, vault.RateScale)
		shares.Sub(shares, spent.Div(spent, rec.PricePerShareCoef))
	}
	if shares.Sign() < 0 {
		shares.SetInt64(0)
	}
	return shares, nil
}

// CommitShareDeduction writes the excluded-share balance back onto the
// position and advances the deduction cursor. Withdrawal paths call this
// so the same epoch's footprint is never deducted twice.
func (a *Accountant) CommitShareDeduction(votingID, currentEpoch uint64) (*big.Int, error) {
	shares, err := a.SharesExcludingRewards(votingID, currentEpoch)
	if err != nil {
		return nil, err
	}
	pos, err := a.positions.GetExistingVotingPosition(votingID)
	if err != nil {
		return nil, err
	}
	last, err := a.LastVoterEpoch(pos, currentEpoch)
	if err != nil {
		return nil, err
	}
	pos.YTokensNumber = new(big.Int).Set(shares)
	pos.LastEpochYTokensWereDeductedForRewards = last
	if err := a.positions.SetVotingPosition(votingID, pos); err != nil {
		return nil, err
	}
	return shares, nil
}
