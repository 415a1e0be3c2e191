// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// StakerPosition represents one staked NFT. Positions are never deleted;
// historical epoch records stay addressable after unstaking.
type StakerPosition struct {
	Collection                 common.Address
	StartEpoch                 uint64
	EndEpoch                   uint64 // 0 = active
	LastRewardedEpoch          uint64
	LastUpdateEpoch            uint64
	LastEpochOfIncentiveReward uint64
}

// IsEmpty returns whether the entry can be treated as empty.
func (p *StakerPosition) IsEmpty() bool {
	return p.StartEpoch == 0
}

// IsActive returns whether the position is staked and eligible for battle.
func (p *StakerPosition) IsActive() bool {
	return !p.IsEmpty() && p.EndEpoch == 0
}

// VotingPosition represents a bundle of votes backing one staker position.
// The staking id is a weak back-reference: a ledger lookup, not ownership.
type VotingPosition struct {
	StakingPositionID uint64

	DaiInvested   *big.Int
	YTokensNumber *big.Int // vault shares owned by this position
	ZooInvested   *big.Int
	DaiVotes      *big.Int
	Votes         *big.Int // daiVotes + zoo-derived votes

	StartEpoch                             uint64
	EndEpoch                               uint64 // 0 = active
	LastRewardedEpoch                      uint64
	LastEpochYTokensWereDeductedForRewards uint64
	LastEpochOfIncentiveReward             uint64

	YTokensRewardDebt *big.Int
	ZooRewardDebt     *big.Int

	// Votes booked ahead into PendingVotesEpoch: already counted in Votes
	// but not effective before that epoch starts.
	PendingVotes      *big.Int
	PendingVotesEpoch uint64
}

// IsEmpty returns whether the entry can be treated as empty.
func (p *VotingPosition) IsEmpty() bool {
	return p.StartEpoch == 0
}

// IsActive returns whether the position still holds votes.
func (p *VotingPosition) IsActive() bool {
	return !p.IsEmpty() && p.EndEpoch == 0
}

// EffectiveVotes returns the vote weight that counted at the epoch.
// Pending votes are excluded for epochs before they take effect.
func (p *VotingPosition) EffectiveVotes(epoch uint64) *big.Int {
	if p.PendingVotesEpoch != 0 && epoch < p.PendingVotesEpoch {
		v := new(big.Int).Sub(p.Votes, p.PendingVotes)
		if v.Sign() < 0 {
			v.SetInt64(0)
		}
		return v
	}
	return new(big.Int).Set(p.Votes)
}
