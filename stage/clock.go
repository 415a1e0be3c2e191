// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stage

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/zoodao/arena/policy"
	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/storage"
)

type clockState struct {
	CurrentEpoch uint64
	EpochStart   uint64 // unix seconds
}

// Clock derives the current epoch stage from wall-clock offsets against the
// epoch start date, using the policy's per-stage durations. Epochs are
// numbered from 1.
type Clock struct {
	state  *storage.Slot[*clockState]
	starts *storage.Mapping[uint64]
	pol    policy.Policy
	clock  clockwork.Clock
}

func New(ctx *storage.Context, pol policy.Policy, clock clockwork.Clock) *Clock {
	return &Clock{
		state:  storage.NewSlot[*clockState](ctx, "stage-clock"),
		starts: storage.NewMapping[uint64](ctx, "epoch-starts"),
		pol:    pol,
		clock:  clock,
	}
}

// Init starts epoch 1 at the current time. Calling it on an initialized
// clock is a no-op.
func (c *Clock) Init() error {
	s, err := c.state.Get()
	if err != nil {
		return err
	}
	if s.CurrentEpoch != 0 {
		return nil
	}
	now := uint64(c.clock.Now().Unix())
	if err := c.state.Set(&clockState{CurrentEpoch: 1, EpochStart: now}); err != nil {
		return err
	}
	return c.starts.Set(storage.Uint64Key(1), now)
}

func (c *Clock) current() (*clockState, error) {
	s, err := c.state.Get()
	if err != nil {
		return nil, err
	}
	if s.CurrentEpoch == 0 {
		return nil, errors.New("stage clock not initialized")
	}
	return s, nil
}

func (c *Clock) CurrentEpoch() (uint64, error) {
	s, err := c.current()
	if err != nil {
		return 0, err
	}
	return s.CurrentEpoch, nil
}

// CurrentStage returns the stage of the current epoch. Past the total epoch
// duration the stage stays at winner selection until the epoch is advanced.
func (c *Clock) CurrentStage() (policy.Stage, error) {
	s, err := c.current()
	if err != nil {
		return policy.StageUnknown, err
	}
	elapsed := c.clock.Now().Sub(time.Unix(int64(s.EpochStart), 0))
	d := c.pol.StageDurations()

	boundaries := []struct {
		s policy.Stage
		d time.Duration
	}{
		{policy.StageStake, d.Stake},
		{policy.StageDaiVote, d.DaiVote},
		{policy.StagePair, d.Pair},
		{policy.StageZooVote, d.ZooVote},
	}
	for _, b := range boundaries {
		if elapsed < b.d {
			return b.s, nil
		}
		elapsed -= b.d
	}
	return policy.StageWinner, nil
}

// Require rejects unless the current stage is one of the given stages.
func (c *Clock) Require(op string, stages ...policy.Stage) error {
	current, err := c.CurrentStage()
	if err != nil {
		return err
	}
	for _, s := range stages {
		if current == s {
			return nil
		}
	}
	return reverts.Stage("%s is not allowed during the %s stage", op, current)
}

// EpochElapsed reports whether the configured total epoch duration has passed.
func (c *Clock) EpochElapsed() (bool, error) {
	s, err := c.current()
	if err != nil {
		return false, err
	}
	end := time.Unix(int64(s.EpochStart), 0).Add(c.pol.StageDurations().Total())
	return !c.clock.Now().Before(end), nil
}

// AdvanceEpoch increments the epoch and restarts the stage cycle now.
// Preconditions (duration elapsed or all pairs played) are the caller's.
func (c *Clock) AdvanceEpoch() (uint64, error) {
	s, err := c.current()
	if err != nil {
		return 0, err
	}
	now := uint64(c.clock.Now().Unix())
	s.CurrentEpoch++
	s.EpochStart = now
	if err := c.state.Set(s); err != nil {
		return 0, err
	}
	if err := c.starts.Set(storage.Uint64Key(s.CurrentEpoch), now); err != nil {
		return 0, err
	}
	return s.CurrentEpoch, nil
}

// EpochStart returns the recorded start time of the given epoch.
func (c *Clock) EpochStart(epoch uint64) (time.Time, error) {
	start, err := c.starts.Get(storage.Uint64Key(epoch))
	if err != nil {
		return time.Time{}, err
	}
	if start == 0 {
		return time.Time{}, errors.Errorf("epoch %d has not started", epoch)
	}
	return time.Unix(int64(start), 0), nil
}
