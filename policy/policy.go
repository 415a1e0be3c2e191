// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"math/big"
	"time"
)

// Stage is one of the five ordered stages of an epoch.
type Stage uint8

const (
	StageUnknown Stage = iota
	StageStake         // staking/unstaking, dai liquidation
	StageDaiVote       // dai vote creation/increase
	StagePair          // battle pairing
	StageZooVote       // zoo vote add/recompute
	StageWinner        // winner selection, epoch advance
)

func (s Stage) String() string {
	switch s {
	case StageStake:
		return "stake"
	case StageDaiVote:
		return "dai-vote"
	case StagePair:
		return "pair"
	case StageZooVote:
		return "zoo-vote"
	case StageWinner:
		return "winner"
	default:
		return "unknown"
	}
}

// League is a discretized bucket derived from a position's vote total,
// restricting pairing to comparable-strength opponents.
type League uint8

const (
	LeagueWooden League = iota
	LeagueSilver
	LeagueGold
	LeaguePlatinum
	LeagueMaster
)

func (l League) String() string {
	switch l {
	case LeagueWooden:
		return "wooden"
	case LeagueSilver:
		return "silver"
	case LeagueGold:
		return "gold"
	case LeaguePlatinum:
		return "platinum"
	case LeagueMaster:
		return "master"
	default:
		return "unknown"
	}
}

// Durations holds the wall-clock length of each stage.
type Durations struct {
	Stake   time.Duration
	DaiVote time.Duration
	Pair    time.Duration
	ZooVote time.Duration
	Winner  time.Duration
}

// Total returns the full epoch duration.
func (d Durations) Total() time.Duration {
	return d.Stake + d.DaiVote + d.Pair + d.ZooVote + d.Winner
}

// Policy supplies randomness, the win/lose decision function, vote pricing,
// league bucketing and stage durations. It is pluggable; the arena never
// assumes anything about it beyond this interface.
type Policy interface {
	// RequestRandomNumber starts a random request for the current epoch.
	RequestRandomNumber() error
	// GetRandomResult returns the fulfilled random value, or a NotReady
	// rejection if the request has not been fulfilled yet.
	GetRandomResult() (*big.Int, error)
	// ResetRandom discards the current request/result on epoch advance.
	ResetRandom()
	// ComputePseudoRandom returns a cheap pseudo-random value for
	// non-security-critical choices such as opponent selection.
	ComputePseudoRandom() *big.Int

	// DecideWins returns true if the side with votesA wins given the random
	// value. The decision must be bias-free with respect to the random input.
	DecideWins(votesA, votesB, random *big.Int) bool

	// ComputeVotesByDai prices a dai amount into votes for the given stage.
	ComputeVotesByDai(amount *big.Int, stage Stage) *big.Int
	// ComputeVotesByZoo prices a zoo amount into votes.
	ComputeVotesByZoo(amount *big.Int) *big.Int

	// NftLeague buckets a vote total into a league.
	NftLeague(votes *big.Int) League
	// LeagueZooRewards returns the flat zoo grant for winning an arena
	// pairing in the given league.
	LeagueZooRewards(league League) *big.Int

	// StageDurations returns the configured per-stage durations.
	StageDurations() Durations
}
