// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package arena

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zoodao/arena/policy"
	"github.com/zoodao/arena/position"
	"github.com/zoodao/arena/reverts"
)

// CreateStakerPosition stakes one NFT of an eligible collection. The
// position itself is minted to the caller as a transferable token.
func (a *Arena) CreateStakerPosition(caller, collection common.Address) (id uint64, err error) {
	err = a.atomically("create_staker_position", func() error {
		if err := a.clock.Require("createStakerPosition", policy.StageStake); err != nil {
			return err
		}
		if err := a.listing.RequireEligible(collection); err != nil {
			return err
		}
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		id, err = a.positions.CreateStakerPosition(collection, epoch)
		if err != nil {
			return err
		}
		if err := a.listing.OnStake(collection, epoch); err != nil {
			return err
		}
		if err := a.stakerNFT.Mint(id, caller); err != nil {
			return err
		}
		a.updateActiveGauge()
		a.logger.Info("position staked", "staking", id, "collection", collection, "epoch", epoch)
		return nil
	})
	return id, err
}

// RemoveStakerPosition unstakes the position, returning its token to the
// owner and dropping it from the active index.
func (a *Arena) RemoveStakerPosition(caller common.Address, stakingID uint64) error {
	return a.atomically("remove_staker_position", func() error {
		if err := a.clock.Require("removeStakerPosition", policy.StageStake); err != nil {
			return err
		}
		if err := a.stakerNFT.RequireOwner(stakingID, caller); err != nil {
			return err
		}
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		if err := a.accountant.CatchUpStaker(stakingID, epoch); err != nil {
			return err
		}
		pos, err := a.positions.GetExistingStakerPosition(stakingID)
		if err != nil {
			return err
		}
		if err := a.positions.CloseStakerPosition(stakingID, epoch); err != nil {
			return err
		}
		if err := a.listing.OnUnstake(pos.Collection, epoch); err != nil {
			return err
		}
		if err := a.stakerNFT.Burn(stakingID); err != nil {
			return err
		}
		a.updateActiveGauge()
		a.logger.Info("position unstaked", "staking", stakingID, "epoch", epoch)
		return nil
	})
}

// TransferStakerPosition moves position ownership without touching the
// accounting.
func (a *Arena) TransferStakerPosition(caller, to common.Address, stakingID uint64) error {
	return a.atomically("transfer_staker_position", func() error {
		return a.stakerNFT.Transfer(caller, to, stakingID)
	})
}

// ClaimRewardFromStaking pays the staker's accrued battle cut to the
// beneficiary in the deposit asset.
func (a *Arena) ClaimRewardFromStaking(caller common.Address, stakingID uint64, beneficiary common.Address) (paid *big.Int, err error) {
	err = a.atomically("claim_staking_reward", func() error {
		if err := a.stakerNFT.RequireOwner(stakingID, caller); err != nil {
			return err
		}
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		if err := a.accountant.CatchUpStaker(stakingID, epoch); err != nil {
			return err
		}
		shares, err := a.accountant.SettleStakerReward(stakingID, epoch)
		if err != nil {
			return err
		}
		paid = new(big.Int)
		if shares.Sign() == 0 {
			return nil
		}
		paid, err = a.vault.Redeem(shares)
		if err != nil {
			return err
		}
		return a.dai.Transfer(a.config.ArenaAddress, beneficiary, paid)
	})
	return paid, err
}

// ClaimStakerIncentive pays the staker's accrued incentive-token reward.
func (a *Arena) ClaimStakerIncentive(caller common.Address, stakingID uint64, beneficiary common.Address) (paid *big.Int, err error) {
	err = a.atomically("claim_staker_incentive", func() error {
		if err := a.stakerNFT.RequireOwner(stakingID, caller); err != nil {
			return err
		}
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		paid, err = a.incentives.SettleStakerIncentive(stakingID, epoch)
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

// moveByVotes keeps the active-index partition in sync with the position's
// current-epoch vote total.
func (a *Arena) moveByVotes(stakingID, epoch uint64) error {
	p, ok, err := a.positions.PartitionOf(stakingID)
	if err != nil {
		return err
	}
	if !ok || p == position.PartitionInGame {
		return nil
	}
	rec, err := a.rewards.Get(stakingID, epoch)
	if err != nil {
		return err
	}
	target := position.PartitionIdle
	if rec.Votes.Sign() > 0 {
		target = position.PartitionEligible
	}
	if p == target {
		return nil
	}
	return a.positions.MoveActive(stakingID, target)
}

func (a *Arena) updateActiveGauge() {
	if _, _, total, err := a.positions.Counts(); err == nil {
		metricActivePositions.Set(float64(total))
	}
}

// requireActiveStaker rejects votes against unstaked positions.
func (a *Arena) requireActiveStaker(stakingID uint64) (*position.StakerPosition, error) {
	pos, err := a.positions.GetExistingStakerPosition(stakingID)
	if err != nil {
		return nil, err
	}
	if !pos.IsActive() {
		return nil, reverts.Invariant("staker position %d is unstaked", stakingID)
	}
	return pos, nil
}
