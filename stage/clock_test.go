// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stage

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoodao/arena/policy"
	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/storage"
)

var testDurations = policy.Durations{
	Stake:   2 * time.Hour,
	DaiVote: 2 * time.Hour,
	Pair:    time.Hour,
	ZooVote: time.Hour,
	Winner:  time.Hour,
}

func newTestClock(t *testing.T) (*Clock, clockwork.FakeClock) {
	fake := clockwork.NewFakeClock()
	ctx := storage.NewContext(nil)
	c := New(ctx, policy.NewBase(testDurations, fake), fake)
	require.NoError(t, c.Init())
	return c, fake
}

func TestStageProgression(t *testing.T) {
	c, fake := newTestClock(t)

	epoch, err := c.CurrentEpoch()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)

	expect := func(want policy.Stage) {
		s, err := c.CurrentStage()
		require.NoError(t, err)
		assert.Equal(t, want, s)
	}

	expect(policy.StageStake)
	fake.Advance(2 * time.Hour)
	expect(policy.StageDaiVote)
	fake.Advance(2 * time.Hour)
	expect(policy.StagePair)
	fake.Advance(time.Hour)
	expect(policy.StageZooVote)
	fake.Advance(time.Hour)
	expect(policy.StageWinner)

	// stage sticks at winner past the total duration
	fake.Advance(10 * time.Hour)
	expect(policy.StageWinner)

	done, err := c.EpochElapsed()
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRequire(t *testing.T) {
	c, fake := newTestClock(t)

	require.NoError(t, c.Require("stake", policy.StageStake))
	err := c.Require("pair", policy.StagePair)
	assert.Equal(t, reverts.CodeStage, reverts.CodeOf(err))

	fake.Advance(4 * time.Hour)
	require.NoError(t, c.Require("pair", policy.StagePair))
	require.NoError(t, c.Require("vote", policy.StageStake, policy.StagePair))
}

func TestAdvanceEpoch(t *testing.T) {
	c, fake := newTestClock(t)
	start1, err := c.EpochStart(1)
	require.NoError(t, err)

	fake.Advance(testDurations.Total())
	epoch, err := c.AdvanceEpoch()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), epoch)

	s, err := c.CurrentStage()
	require.NoError(t, err)
	assert.Equal(t, policy.StageStake, s)

	start2, err := c.EpochStart(2)
	require.NoError(t, err)
	assert.True(t, start2.After(start1))

	elapsed, err := c.EpochElapsed()
	require.NoError(t, err)
	assert.False(t, elapsed)
}

func TestInitIdempotent(t *testing.T) {
	c, fake := newTestClock(t)
	fake.Advance(time.Hour)
	require.NoError(t, c.Init())
	epoch, err := c.CurrentEpoch()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)
}
