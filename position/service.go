// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/storage"
)

// Service is the staking/voting position ledger. It owns the position
// records and the partitioned active index; ids are monotonically
// increasing and never reused.
type Service struct {
	stakers       *storage.Mapping[*StakerPosition]
	votings       *storage.Mapping[*VotingPosition]
	stakerCounter *storage.Slot[uint64]
	votingCounter *storage.Slot[uint64]
	index         *storage.Slot[*activeIndex]
}

func New(ctx *storage.Context) *Service {
	return &Service{
		stakers:       storage.NewMapping[*StakerPosition](ctx, "staker-positions"),
		votings:       storage.NewMapping[*VotingPosition](ctx, "voting-positions"),
		stakerCounter: storage.NewSlot[uint64](ctx, "staker-position-counter"),
		votingCounter: storage.NewSlot[uint64](ctx, "voting-position-counter"),
		index:         storage.NewSlot[*activeIndex](ctx, "active-staker-index"),
	}
}

//
// Staker positions
//

// CreateStakerPosition appends a new active position for the collection.
func (s *Service) CreateStakerPosition(collection common.Address, epoch uint64) (uint64, error) {
	counter, err := s.stakerCounter.Get()
	if err != nil {
		return 0, err
	}
	counter++
	if err := s.stakerCounter.Set(counter); err != nil {
		return 0, err
	}
	pos := &StakerPosition{
		Collection:                 collection,
		StartEpoch:                 epoch,
		LastRewardedEpoch:          epoch,
		LastUpdateEpoch:            epoch,
		LastEpochOfIncentiveReward: epoch,
	}
	if err := s.stakers.Set(storage.Uint64Key(counter), pos); err != nil {
		return 0, err
	}
	if err := s.withIndex(func(x *activeIndex) error {
		return x.add(counter)
	}); err != nil {
		return 0, err
	}
	return counter, nil
}

// CloseStakerPosition ends the position and drops it from the active index.
func (s *Service) CloseStakerPosition(id uint64, epoch uint64) error {
	pos, err := s.GetExistingStakerPosition(id)
	if err != nil {
		return err
	}
	if !pos.IsActive() {
		return reverts.Invariant("staker position %d already unstaked", id)
	}
	pos.EndEpoch = epoch
	if err := s.stakers.Set(storage.Uint64Key(id), pos); err != nil {
		return err
	}
	return s.withIndex(func(x *activeIndex) error {
		return x.remove(id)
	})
}

func (s *Service) GetStakerPosition(id uint64) (*StakerPosition, error) {
	p, err := s.stakers.Get(storage.Uint64Key(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get staker position")
	}
	return p, nil
}

func (s *Service) GetExistingStakerPosition(id uint64) (*StakerPosition, error) {
	p, err := s.GetStakerPosition(id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return nil, reverts.Invariant("staker position %d does not exist", id)
	}
	return p, nil
}

func (s *Service) SetStakerPosition(id uint64, pos *StakerPosition) error {
	return s.stakers.Set(storage.Uint64Key(id), pos)
}

//
// Voting positions
//

// CreateVotingPosition records a new vote bundle backing the staker position.
func (s *Service) CreateVotingPosition(stakingID uint64, startEpoch uint64) (uint64, *VotingPosition, error) {
	counter, err := s.votingCounter.Get()
	if err != nil {
		return 0, nil, err
	}
	counter++
	if err := s.votingCounter.Set(counter); err != nil {
		return 0, nil, err
	}
	pos := &VotingPosition{
		StakingPositionID:                      stakingID,
		DaiInvested:                            new(big.Int),
		YTokensNumber:                          new(big.Int),
		ZooInvested:                            new(big.Int),
		DaiVotes:                               new(big.Int),
		Votes:                                  new(big.Int),
		StartEpoch:                             startEpoch,
		LastRewardedEpoch:                      startEpoch,
		LastEpochYTokensWereDeductedForRewards: startEpoch,
		LastEpochOfIncentiveReward:             startEpoch,
		YTokensRewardDebt:                      new(big.Int),
		ZooRewardDebt:                          new(big.Int),
		PendingVotes:                           new(big.Int),
	}
	if err := s.votings.Set(storage.Uint64Key(counter), pos); err != nil {
		return 0, nil, err
	}
	return counter, pos, nil
}

func (s *Service) GetVotingPosition(id uint64) (*VotingPosition, error) {
	p, err := s.votings.Get(storage.Uint64Key(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get voting position")
	}
	return p, nil
}

func (s *Service) GetExistingVotingPosition(id uint64) (*VotingPosition, error) {
	p, err := s.GetVotingPosition(id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return nil, reverts.Invariant("voting position %d does not exist", id)
	}
	return p, nil
}

func (s *Service) SetVotingPosition(id uint64, pos *VotingPosition) error {
	return s.votings.Set(storage.Uint64Key(id), pos)
}

//
// Active index
//

func (s *Service) withIndex(fn func(*activeIndex) error) error {
	x, err := s.index.Get()
	if err != nil {
		return err
	}
	if err := fn(x); err != nil {
		return err
	}
	return s.index.Set(x)
}

// MoveActive shifts the position into the target partition.
func (s *Service) MoveActive(id uint64, target Partition) error {
	return s.withIndex(func(x *activeIndex) error {
		return x.move(id, target)
	})
}

// PartitionOf returns the partition the position currently sits in.
func (s *Service) PartitionOf(id uint64) (Partition, bool, error) {
	x, err := s.index.Get()
	if err != nil {
		return PartitionIdle, false, err
	}
	p, ok := x.partitionOf(id)
	return p, ok, nil
}

// EligibleIDs returns unpaired positions with non-zero votes this epoch.
func (s *Service) EligibleIDs() ([]uint64, error) {
	x, err := s.index.Get()
	if err != nil {
		return nil, err
	}
	return x.eligible(), nil
}

// ActiveIDs returns every staked position id, in index order.
func (s *Service) ActiveIDs() ([]uint64, error) {
	x, err := s.index.Get()
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(x.ids))
	copy(out, x.ids)
	return out, nil
}

// Counts returns (in game, with non-zero votes, total active).
func (s *Service) Counts() (int, int, int, error) {
	x, err := s.index.Get()
	if err != nil {
		return 0, 0, 0, err
	}
	return x.inGame, x.nonZero, len(x.ids), nil
}

// ResetGames empties the in-game partition on epoch advance.
func (s *Service) ResetGames() error {
	return s.withIndex(func(x *activeIndex) error {
		x.resetGames()
		return nil
	})
}
