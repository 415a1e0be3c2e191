// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package arena

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zoodao/arena/position"
	"github.com/zoodao/arena/reverts"
)

// votingMutation is one in-flight change to a voting position and its
// staker's epoch record, keeping both sides in lockstep.
type votingMutation struct {
	arena      *Arena
	id         uint64
	stakingID  uint64
	collection common.Address
	position   *position.VotingPosition
}

func (a *Arena) newVotingMutation(stakingID, startEpoch uint64) (uint64, *votingMutation, error) {
	staker, err := a.positions.GetExistingStakerPosition(stakingID)
	if err != nil {
		return 0, nil, err
	}
	id, pos, err := a.positions.CreateVotingPosition(stakingID, startEpoch)
	if err != nil {
		return 0, nil, err
	}
	return id, &votingMutation{
		arena:      a,
		id:         id,
		stakingID:  stakingID,
		collection: staker.Collection,
		position:   pos,
	}, nil
}

// beginVoteMutation loads the position, catches up its staker and banks the
// accrued reward so the vote change cannot rewrite history.
func (a *Arena) beginVoteMutation(caller common.Address, votingID uint64) (*votingMutation, uint64, error) {
	if err := a.votingNFT.RequireOwner(votingID, caller); err != nil {
		return nil, 0, err
	}
	pos, err := a.positions.GetExistingVotingPosition(votingID)
	if err != nil {
		return nil, 0, err
	}
	if !pos.IsActive() {
		return nil, 0, reverts.Invariant("voting position %d is liquidated", votingID)
	}
	epoch, err := a.clock.CurrentEpoch()
	if err != nil {
		return nil, 0, err
	}
	if err := a.accountant.CatchUpStaker(pos.StakingPositionID, epoch); err != nil {
		return nil, 0, err
	}
	if err := a.accountant.DeferVoterReward(votingID, epoch); err != nil {
		return nil, 0, err
	}
	staker, err := a.positions.GetExistingStakerPosition(pos.StakingPositionID)
	if err != nil {
		return nil, 0, err
	}
	m := &votingMutation{
		arena:      a,
		id:         votingID,
		stakingID:  pos.StakingPositionID,
		collection: staker.Collection,
	}
	if err := m.reload(); err != nil {
		return nil, 0, err
	}
	return m, epoch, nil
}

func (m *votingMutation) reload() error {
	pos, err := m.arena.positions.GetExistingVotingPosition(m.id)
	if err != nil {
		return err
	}
	m.position = pos
	return nil
}

func (m *votingMutation) save() error {
	return m.arena.positions.SetVotingPosition(m.id, m.position)
}

// bookVotes adds the vote (and share) delta to the staker's epoch record
// and re-buckets its league.
func (m *votingMutation) bookVotes(epoch uint64, votes, shares *big.Int) error {
	rec, err := m.arena.rewards.Get(m.stakingID, epoch)
	if err != nil {
		return err
	}
	rec.Votes.Add(rec.Votes, votes)
	if shares != nil {
		rec.YTokens.Add(rec.YTokens, shares)
	}
	rec.League = m.arena.policy.NftLeague(rec.Votes)
	return m.arena.rewards.Set(m.stakingID, epoch, rec)
}

// unbookVotes removes the vote (and share) delta from the staker's epoch
// record.
func (m *votingMutation) unbookVotes(epoch uint64, votes, shares *big.Int) error {
	rec, err := m.arena.rewards.Get(m.stakingID, epoch)
	if err != nil {
		return err
	}
	rec.Votes.Sub(rec.Votes, votes)
	if shares != nil {
		rec.YTokens.Sub(rec.YTokens, shares)
	}
	if rec.Votes.Sign() < 0 || rec.YTokens.Sign() < 0 {
		return reverts.Invariant("epoch %d record for staking position %d went negative", epoch, m.stakingID)
	}
	rec.League = m.arena.policy.NftLeague(rec.Votes)
	return m.arena.rewards.Set(m.stakingID, epoch, rec)
}
