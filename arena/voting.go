// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package arena

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zoodao/arena/policy"
	"github.com/zoodao/arena/reverts"
)

// CreateVotingPosition deposits dai behind a staked position and converts
// it to votes. Votes placed after the dai-vote window close are booked as
// pending for the next epoch so a late voter cannot influence a battle
// whose voting window already passed.
func (a *Arena) CreateVotingPosition(caller common.Address, stakingID uint64, amount *big.Int) (id uint64, err error) {
	err = a.atomically("create_voting_position", func() error {
		if amount.Sign() <= 0 {
			return reverts.Invariant("vote amount must be positive")
		}
		if _, err := a.requireActiveStaker(stakingID); err != nil {
			return err
		}
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		if err := a.accountant.CatchUpStaker(stakingID, epoch); err != nil {
			return err
		}
		currentStage, err := a.clock.CurrentStage()
		if err != nil {
			return err
		}
		if err := a.dai.Transfer(caller, a.config.ArenaAddress, amount); err != nil {
			return err
		}
		shares, err := a.vault.Mint(amount)
		if err != nil {
			return err
		}
		votes := a.policy.ComputeVotesByDai(amount, currentStage)
		target := epoch
		if currentStage > policy.StageDaiVote {
			target = epoch + 1
		}

		var pos *votingMutation
		id, pos, err = a.newVotingMutation(stakingID, target)
		if err != nil {
			return err
		}
		pos.position.DaiInvested = new(big.Int).Set(amount)
		pos.position.YTokensNumber = new(big.Int).Set(shares)
		pos.position.DaiVotes = new(big.Int).Set(votes)
		pos.position.Votes = new(big.Int).Set(votes)
		if err := pos.bookVotes(target, votes, shares); err != nil {
			return err
		}
		if err := pos.save(); err != nil {
			return err
		}
		if target == epoch {
			if err := a.moveByVotes(stakingID, epoch); err != nil {
				return err
			}
		}
		if err := a.votingNFT.Mint(id, caller); err != nil {
			return err
		}
		a.logger.Info("voting position created", "voting", id, "staking", stakingID,
			"amount", amount, "votes", votes, "epoch", target)
		return nil
	})
	return id, err
}

// AddDaiToVoting increases an existing voting position, pricing and
// pending-booking the new votes exactly like position creation.
func (a *Arena) AddDaiToVoting(caller common.Address, votingID uint64, amount *big.Int) error {
	return a.atomically("add_dai_to_voting", func() error {
		if amount.Sign() <= 0 {
			return reverts.Invariant("vote amount must be positive")
		}
		pos, epoch, err := a.beginVoteMutation(caller, votingID)
		if err != nil {
			return err
		}
		if _, err := a.requireActiveStaker(pos.stakingID); err != nil {
			return err
		}
		currentStage, err := a.clock.CurrentStage()
		if err != nil {
			return err
		}
		if err := a.dai.Transfer(caller, a.config.ArenaAddress, amount); err != nil {
			return err
		}
		shares, err := a.vault.Mint(amount)
		if err != nil {
			return err
		}
		votes := a.policy.ComputeVotesByDai(amount, currentStage)
		target := epoch
		if currentStage > policy.StageDaiVote {
			target = epoch + 1
		}
		pos.position.DaiInvested.Add(pos.position.DaiInvested, amount)
		pos.position.YTokensNumber.Add(pos.position.YTokensNumber, shares)
		pos.position.DaiVotes.Add(pos.position.DaiVotes, votes)
		pos.position.Votes.Add(pos.position.Votes, votes)
		if target > epoch {
			// Mark the booked-ahead votes so settled epochs accrue at the
			// weight their record actually counted. The reward cursor was
			// advanced to the current epoch above, so a stale mark from an
			// earlier epoch can be replaced outright.
			if pos.position.PendingVotesEpoch == target {
				pos.position.PendingVotes.Add(pos.position.PendingVotes, votes)
			} else {
				pos.position.PendingVotes = new(big.Int).Set(votes)
				pos.position.PendingVotesEpoch = target
			}
		}
		if err := pos.bookVotes(target, votes, shares); err != nil {
			return err
		}
		if err := pos.save(); err != nil {
			return err
		}
		if target == epoch {
			return a.moveByVotes(pos.stakingID, epoch)
		}
		return nil
	})
}

// AddZooToVoting boosts the position with the secondary token, one vote per
// unit, capped by the invested dai. Boost weight also feeds the collection
// governance ledger.
func (a *Arena) AddZooToVoting(caller common.Address, votingID uint64, amount *big.Int) error {
	return a.atomically("add_zoo_to_voting", func() error {
		if err := a.clock.Require("addZooToVoting", policy.StageZooVote); err != nil {
			return err
		}
		if amount.Sign() <= 0 {
			return reverts.Invariant("boost amount must be positive")
		}
		pos, epoch, err := a.beginVoteMutation(caller, votingID)
		if err != nil {
			return err
		}
		if _, err := a.requireActiveStaker(pos.stakingID); err != nil {
			return err
		}
		invested := new(big.Int).Add(pos.position.ZooInvested, amount)
		if invested.Cmp(pos.position.DaiInvested) > 0 {
			return reverts.Invariant("zoo boost %s exceeds invested dai %s",
				invested, pos.position.DaiInvested)
		}
		if err := a.zoo.Transfer(caller, a.config.ArenaAddress, amount); err != nil {
			return err
		}
		votes := a.policy.ComputeVotesByZoo(amount)
		pos.position.ZooInvested = invested
		pos.position.Votes.Add(pos.position.Votes, votes)
		if err := pos.bookVotes(epoch, votes, nil); err != nil {
			return err
		}
		if err := pos.save(); err != nil {
			return err
		}
		if err := a.listing.AddVotes(pos.collection, votes, epoch); err != nil {
			return err
		}
		return a.moveByVotes(pos.stakingID, epoch)
	})
}

// WithdrawDaiFromVoting liquidates part or all of the invested dai. The
// voter recovers principal only: shares already consumed to fund realized
// rewards are excluded before redemption. Excess zoo boost over the
// remaining dai is auto-withdrawn.
func (a *Arena) WithdrawDaiFromVoting(caller common.Address, votingID uint64, beneficiary common.Address, amount *big.Int) (paid *big.Int, err error) {
	err = a.atomically("withdraw_dai_from_voting", func() error {
		if err := a.clock.Require("withdrawDaiFromVoting", policy.StageStake); err != nil {
			return err
		}
		if amount.Sign() <= 0 {
			return reverts.Invariant("withdraw amount must be positive")
		}
		pos, epoch, err := a.beginVoteMutation(caller, votingID)
		if err != nil {
			return err
		}
		if amount.Cmp(pos.position.DaiInvested) > 0 {
			return reverts.Invariant("withdrawing %s exceeds invested dai %s",
				amount, pos.position.DaiInvested)
		}
		available, err := a.accountant.CommitShareDeduction(votingID, epoch)
		if err != nil {
			return err
		}
		if err := pos.reload(); err != nil {
			return err
		}

		full := amount.Cmp(pos.position.DaiInvested) == 0
		sharesOut := new(big.Int).Set(available)
		votesOut := new(big.Int).Set(pos.position.DaiVotes)
		if !full {
			sharesOut.Mul(available, amount)
			sharesOut.Div(sharesOut, pos.position.DaiInvested)
			votesOut.Mul(pos.position.DaiVotes, amount)
			votesOut.Div(votesOut, pos.position.DaiInvested)
		}
		pos.position.DaiInvested.Sub(pos.position.DaiInvested, amount)
		pos.position.DaiVotes.Sub(pos.position.DaiVotes, votesOut)
		pos.position.Votes.Sub(pos.position.Votes, votesOut)
		pos.position.YTokensNumber.Sub(pos.position.YTokensNumber, sharesOut)

		// Rebalance: the boost cap must hold after the dai reduction.
		excess := new(big.Int).Sub(pos.position.ZooInvested, pos.position.DaiInvested)
		zooVotesOut := new(big.Int)
		if excess.Sign() > 0 {
			zooVotesOut = a.policy.ComputeVotesByZoo(excess)
			pos.position.ZooInvested.Sub(pos.position.ZooInvested, excess)
			pos.position.Votes.Sub(pos.position.Votes, zooVotesOut)
			if err := a.zoo.Transfer(a.config.ArenaAddress, beneficiary, excess); err != nil {
				return err
			}
			if err := a.listing.RemoveVotes(pos.collection, zooVotesOut, epoch); err != nil {
				return err
			}
		}
		if full {
			pos.position.EndEpoch = epoch
		}
		if err := pos.unbookVotes(epoch, new(big.Int).Add(votesOut, zooVotesOut), sharesOut); err != nil {
			return err
		}
		if err := pos.save(); err != nil {
			return err
		}

		paid = new(big.Int)
		if sharesOut.Sign() > 0 {
			paid, err = a.vault.Redeem(sharesOut)
			if err != nil {
				return err
			}
			if err := a.dai.Transfer(a.config.ArenaAddress, beneficiary, paid); err != nil {
				return err
			}
		}
		if err := a.moveByVotes(pos.stakingID, epoch); err != nil {
			return err
		}
		a.logger.Info("dai withdrawn", "voting", votingID, "amount", amount, "paid", paid)
		return nil
	})
	return paid, err
}

// WithdrawZooFromVoting returns part or all of the boost tokens.
func (a *Arena) WithdrawZooFromVoting(caller common.Address, votingID uint64, beneficiary common.Address, amount *big.Int) error {
	return a.atomically("withdraw_zoo_from_voting", func() error {
		if err := a.clock.Require("withdrawZooFromVoting", policy.StageStake); err != nil {
			return err
		}
		if amount.Sign() <= 0 {
			return reverts.Invariant("withdraw amount must be positive")
		}
		pos, epoch, err := a.beginVoteMutation(caller, votingID)
		if err != nil {
			return err
		}
		if amount.Cmp(pos.position.ZooInvested) > 0 {
			return reverts.Invariant("withdrawing %s exceeds invested zoo %s",
				amount, pos.position.ZooInvested)
		}
		votes := a.policy.ComputeVotesByZoo(amount)
		pos.position.ZooInvested.Sub(pos.position.ZooInvested, amount)
		pos.position.Votes.Sub(pos.position.Votes, votes)
		if err := pos.unbookVotes(epoch, votes, nil); err != nil {
			return err
		}
		if err := pos.save(); err != nil {
			return err
		}
		if err := a.zoo.Transfer(a.config.ArenaAddress, beneficiary, amount); err != nil {
			return err
		}
		if err := a.listing.RemoveVotes(pos.collection, votes, epoch); err != nil {
			return err
		}
		return a.moveByVotes(pos.stakingID, epoch)
	})
}

// ClaimRewardFromVoting pays the voter's accrued battle reward plus any
// zoo grants from won battles.
func (a *Arena) ClaimRewardFromVoting(caller common.Address, votingID uint64, beneficiary common.Address) (paidDai, paidZoo *big.Int, err error) {
	err = a.atomically("claim_voting_reward", func() error {
		if err := a.votingNFT.RequireOwner(votingID, caller); err != nil {
			return err
		}
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		pos, err := a.positions.GetExistingVotingPosition(votingID)
		if err != nil {
			return err
		}
		if err := a.accountant.CatchUpStaker(pos.StakingPositionID, epoch); err != nil {
			return err
		}
		shares, zooGrant, err := a.accountant.SettleVoterReward(votingID, epoch)
		if err != nil {
			return err
		}
		paidDai = new(big.Int)
		paidZoo = zooGrant
		if shares.Sign() > 0 {
			paidDai, err = a.vault.Redeem(shares)
			if err != nil {
				return err
			}
			if err := a.dai.Transfer(a.config.ArenaAddress, beneficiary, paidDai); err != nil {
				return err
			}
		}
		if zooGrant.Sign() > 0 {
			if err := a.zoo.Transfer(a.config.ArenaAddress, beneficiary, zooGrant); err != nil {
				return err
			}
		}
		return nil
	})
	return paidDai, paidZoo, err
}

// ClaimVoterIncentive pays the voter's accrued incentive-token reward.
func (a *Arena) ClaimVoterIncentive(caller common.Address, votingID uint64, beneficiary common.Address) (paid *big.Int, err error) {
	err = a.atomically("claim_voter_incentive", func() error {
		if err := a.votingNFT.RequireOwner(votingID, caller); err != nil {
			return err
		}
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		paid, err = a.incentives.SettleVoterIncentive(votingID, epoch)
		if err != nil {
			return err
		}
		if paid.Sign() == 0 {
			return nil
		}
		return a.zoo.Transfer(a.config.ArenaAddress, beneficiary, paid)
	})
	return paid, err
}

// TransferVotingPosition moves position ownership without touching the
// accounting.
func (a *Arena) TransferVotingPosition(caller, to common.Address, votingID uint64) error {
	return a.atomically("transfer_voting_position", func() error {
		return a.votingNFT.Transfer(caller, to, votingID)
	})
}
