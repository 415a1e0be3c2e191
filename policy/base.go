// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"encoding/binary"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jonboulle/clockwork"

	"github.com/zoodao/arena/reverts"
)

var (
	oneEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	// vote thresholds between leagues, in 1e18-scaled vote units
	leagueThresholds = []*big.Int{
		scale(500),   // below: wooden
		scale(2500),  // below: silver
		scale(7500),  // below: gold
		scale(30000), // below: platinum; above: master
	}

	// flat zoo grants for winning against the arena, by league
	leagueZooRewards = []*big.Int{
		scale(50),
		scale(250),
		scale(750),
		scale(3000),
		scale(10000),
	}
)

func scale(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), oneEther)
}

// DefaultDurations is the production stage schedule.
var DefaultDurations = Durations{
	Stake:   2 * 24 * time.Hour,
	DaiVote: 2 * 24 * time.Hour,
	Pair:    24 * time.Hour,
	ZooVote: 24 * time.Hour,
	Winner:  24 * time.Hour,
}

// Base is the default policy. Randomness is request/fulfill: an external
// fulfiller feeds the value via Fulfill, or SelfFulfill(true) makes requests
// resolve immediately from the pseudo-random source (simulation only).
type Base struct {
	durations   Durations
	clock       clockwork.Clock
	selfFulfill bool

	requested bool
	random    *big.Int
	nonce     uint64
}

func NewBase(durations Durations, clock clockwork.Clock) *Base {
	return &Base{durations: durations, clock: clock}
}

// SelfFulfill makes every random request resolve immediately. Not safe for
// production use; the pseudo-random source is manipulable.
func (b *Base) SelfFulfill(on bool) {
	b.selfFulfill = on
}

func (b *Base) RequestRandomNumber() error {
	if b.requested {
		return nil
	}
	b.requested = true
	if b.selfFulfill {
		b.random = b.ComputePseudoRandom()
	}
	return nil
}

// Fulfill feeds the random value for a pending request.
func (b *Base) Fulfill(value *big.Int) error {
	if !b.requested {
		return reverts.NotReady("no random request pending")
	}
	b.random = new(big.Int).Set(value)
	return nil
}

func (b *Base) GetRandomResult() (*big.Int, error) {
	if b.random == nil {
		return nil, reverts.NotReady("random number not fulfilled")
	}
	return new(big.Int).Set(b.random), nil
}

func (b *Base) ResetRandom() {
	b.requested = false
	b.random = nil
}

func (b *Base) ComputePseudoRandom() *big.Int {
	var seed [16]byte
	binary.BigEndian.PutUint64(seed[:8], uint64(b.clock.Now().UnixNano()))
	b.nonce++
	binary.BigEndian.PutUint64(seed[8:], b.nonce)
	return new(big.Int).SetBytes(crypto.Keccak256(seed[:]))
}

// DecideWins picks side A with probability votesA/(votesA+votesB).
// A zero/zero pairing is a coin flip on the low bit.
func (b *Base) DecideWins(votesA, votesB, random *big.Int) bool {
	total := new(big.Int).Add(votesA, votesB)
	if total.Sign() == 0 {
		return random.Bit(0) == 0
	}
	return new(big.Int).Mod(random, total).Cmp(votesA) < 0
}

// ComputeVotesByDai prices dai into votes. Early votes (stake stage) and
// pending votes deferred to the next epoch earn a 13/10 premium; votes placed
// during the regular dai-vote stage price 1:1.
func (b *Base) ComputeVotesByDai(amount *big.Int, stage Stage) *big.Int {
	if stage == StageDaiVote {
		return new(big.Int).Set(amount)
	}
	votes := new(big.Int).Mul(amount, big.NewInt(13))
	return votes.Div(votes, big.NewInt(10))
}

func (b *Base) ComputeVotesByZoo(amount *big.Int) *big.Int {
	return new(big.Int).Set(amount)
}

func (b *Base) NftLeague(votes *big.Int) League {
	for i, threshold := range leagueThresholds {
		if votes.Cmp(threshold) < 0 {
			return League(i)
		}
	}
	return LeagueMaster
}

func (b *Base) LeagueZooRewards(league League) *big.Int {
	if int(league) >= len(leagueZooRewards) {
		return new(big.Int)
	}
	return new(big.Int).Set(leagueZooRewards[league])
}

func (b *Base) StageDurations() Durations {
	return b.durations
}
