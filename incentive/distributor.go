// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package incentive

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zoodao/arena/listing"
	"github.com/zoodao/arena/position"
)

// Config sets the incentive emission schedule.
type Config struct {
	// BaseStakerRate and BaseVoterRate are the per-epoch emission bases.
	BaseStakerRate *big.Int
	BaseVoterRate  *big.Int
	// EndEpoch is the last epoch (inclusive) that accrues incentives.
	EndEpoch uint64
}

// PlayedVotesFunc returns the vote total that played in battles at an epoch.
type PlayedVotesFunc func(epoch uint64) (*big.Int, error)

// Distributor computes the secondary incentive-token rewards from the
// collection weight ledger, independent of battle outcomes.
type Distributor struct {
	listing     *listing.Service
	positions   *position.Service
	playedVotes PlayedVotesFunc
	config      Config
}

func NewDistributor(ls *listing.Service, positions *position.Service, playedVotes PlayedVotesFunc, config Config) *Distributor {
	return &Distributor{
		listing:     ls,
		positions:   positions,
		playedVotes: playedVotes,
		config:      config,
	}
}

// cap bounds the reward range end at the emission horizon.
func (d *Distributor) cap(last uint64) uint64 {
	if d.config.EndEpoch != 0 && last > d.config.EndEpoch+1 {
		return d.config.EndEpoch + 1
	}
	return last
}

// stakerEpochReward is base * poolWeight / (globalWeight * stakedCount).
func (d *Distributor) stakerEpochReward(pos *position.StakerPosition, epoch uint64) (*big.Int, error) {
	pool, err := d.listing.PoolWeight(pos.Collection, epoch)
	if err != nil {
		return nil, err
	}
	global, err := d.listing.GlobalWeight(epoch)
	if err != nil {
		return nil, err
	}
	count, err := d.listing.StakedCount(pos.Collection, epoch)
	if err != nil {
		return nil, err
	}
	if global.Sign() == 0 || count == 0 {
		return new(big.Int), nil
	}
	r := new(big.Int).Mul(d.config.BaseStakerRate, pool)
	r.Div(r, global)
	return r.Div(r, new(big.Int).SetUint64(count)), nil
}

// PendingStakerIncentive accrues the staker's incentive since its last
// incentive settlement, capped at the emission horizon.
func (d *Distributor) PendingStakerIncentive(stakingID, currentEpoch uint64) (*big.Int, error) {
	pos, err := d.positions.GetExistingStakerPosition(stakingID)
	if err != nil {
		return nil, err
	}
	last := currentEpoch
	if pos.EndEpoch != 0 && pos.EndEpoch < last {
		last = pos.EndEpoch
	}
	total := new(big.Int)
	for e := pos.LastEpochOfIncentiveReward; e < d.cap(last); e++ {
		r, err := d.stakerEpochReward(pos, e)
		if err != nil {
			return nil, err
		}
		total.Add(total, r)
	}
	return total, nil
}

// SettleStakerIncentive realizes the pending incentive and advances the
// staker's incentive cursor.
func (d *Distributor) SettleStakerIncentive(stakingID, currentEpoch uint64) (*big.Int, error) {
	total, err := d.PendingStakerIncentive(stakingID, currentEpoch)
	if err != nil {
		return nil, err
	}
	pos, err := d.positions.GetExistingStakerPosition(stakingID)
	if err != nil {
		return nil, err
	}
	last := currentEpoch
	if pos.EndEpoch != 0 && pos.EndEpoch < last {
		last = pos.EndEpoch
	}
	pos.LastEpochOfIncentiveReward = d.cap(last)
	if err := d.positions.SetStakerPosition(stakingID, pos); err != nil {
		return nil, err
	}
	return total, nil
}

// voterEpochReward is base * poolWeight * votes / (globalWeight * playedVotes).
func (d *Distributor) voterEpochReward(collection common.Address, votes *big.Int, epoch uint64) (*big.Int, error) {
	pool, err := d.listing.PoolWeight(collection, epoch)
	if err != nil {
		return nil, err
	}
	global, err := d.listing.GlobalWeight(epoch)
	if err != nil {
		return nil, err
	}
	played, err := d.playedVotes(epoch)
	if err != nil {
		return nil, err
	}
	if global.Sign() == 0 || played.Sign() == 0 {
		return new(big.Int), nil
	}
	r := new(big.Int).Mul(d.config.BaseVoterRate, pool)
	r.Mul(r, votes)
	r.Div(r, global)
	return r.Div(r, played), nil
}

// PendingVoterIncentive accrues the voter's incentive since its last
// incentive settlement.
func (d *Distributor) PendingVoterIncentive(votingID, currentEpoch uint64) (*big.Int, error) {
	pos, err := d.positions.GetExistingVotingPosition(votingID)
	if err != nil {
		return nil, err
	}
	staker, err := d.positions.GetExistingStakerPosition(pos.StakingPositionID)
	if err != nil {
		return nil, err
	}
	last := d.voterLast(pos, staker, currentEpoch)
	total := new(big.Int)
	for e := pos.LastEpochOfIncentiveReward; e < d.cap(last); e++ {
		r, err := d.voterEpochReward(staker.Collection, pos.EffectiveVotes(e), e)
		if err != nil {
			return nil, err
		}
		total.Add(total, r)
	}
	return total, nil
}

// SettleVoterIncentive realizes the pending incentive and advances the
// voter's incentive cursor.
func (d *Distributor) SettleVoterIncentive(votingID, currentEpoch uint64) (*big.Int, error) {
	total, err := d.PendingVoterIncentive(votingID, currentEpoch)
	if err != nil {
		return nil, err
	}
	pos, err := d.positions.GetExistingVotingPosition(votingID)
	if err != nil {
		return nil, err
	}
	staker, err := d.positions.GetExistingStakerPosition(pos.StakingPositionID)
	if err != nil {
		return nil, err
	}
	pos.LastEpochOfIncentiveReward = d.cap(d.voterLast(pos, staker, currentEpoch))
	if err := d.positions.SetVotingPosition(votingID, pos); err != nil {
		return nil, err
	}
	return total, nil
}

func (d *Distributor) voterLast(pos *position.VotingPosition, staker *position.StakerPosition, currentEpoch uint64) uint64 {
	last := currentEpoch
	if staker.EndEpoch != 0 && staker.EndEpoch < last {
		last = staker.EndEpoch
	}
	if pos.EndEpoch != 0 && pos.EndEpoch < last {
		last = pos.EndEpoch
	}
	return last
}
