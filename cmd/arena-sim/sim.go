// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"

	"github.com/zoodao/arena/arena"
	"github.com/zoodao/arena/policy"
	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/vault"
)

type voter struct {
	owner    common.Address
	votingID uint64
}

type simulator struct {
	arena     *arena.Arena
	clk       clockwork.FakeClock
	config    arena.Config
	fulfiller *policy.VRFFulfiller
	rng       *rand.Rand

	collection common.Address
	stakings   []uint64
	voters     []voter
}

func newSimulator(a *arena.Arena, clk clockwork.FakeClock, config arena.Config, fulfiller *policy.VRFFulfiller, rng *rand.Rand) *simulator {
	return &simulator{
		arena:      a,
		clk:        clk,
		config:     config,
		fulfiller:  fulfiller,
		rng:        rng,
		collection: common.BytesToAddress([]byte("sim-collection")),
	}
}

func scale(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), vault.RateScale)
}

func (s *simulator) run(epochs, stakers, voters int) error {
	if err := s.setup(stakers, voters); err != nil {
		return err
	}
	for i := 0; i < epochs; i++ {
		if err := s.playEpoch(); err != nil {
			return err
		}
	}
	return s.settle()
}

// setup funds the participants and stakes the initial positions during
// the first stake window.
func (s *simulator) setup(stakers, voters int) error {
	if err := s.arena.AllowCollection(s.config.Owner, s.collection); err != nil {
		return err
	}
	// zoo custody for winner grants and incentives
	if err := s.arena.Zoo().Mint(s.config.ArenaAddress, scale(10_000_000)); err != nil {
		return err
	}

	for i := 0; i < stakers; i++ {
		owner := common.BytesToAddress([]byte(fmt.Sprintf("sim-staker-%d", i)))
		id, err := s.arena.CreateStakerPosition(owner, s.collection)
		if err != nil {
			return err
		}
		s.stakings = append(s.stakings, id)
		logger.Info("staked", "staking", id, "owner", owner)
	}

	for i := 0; i < voters; i++ {
		owner := common.BytesToAddress([]byte(fmt.Sprintf("sim-voter-%d", i)))
		amount := scale(int64(100 + s.rng.Intn(1900)))
		if err := s.arena.Dai().Mint(owner, amount); err != nil {
			return err
		}
		target := s.stakings[s.rng.Intn(len(s.stakings))]
		id, err := s.arena.CreateVotingPosition(owner, target, amount)
		if err != nil {
			return err
		}
		s.voters = append(s.voters, voter{owner: owner, votingID: id})
		logger.Info("voted", "voting", id, "staking", target, "owner", owner, "dai", amount)
	}
	return nil
}

func (s *simulator) playEpoch() error {
	epoch, err := s.arena.CurrentEpoch()
	if err != nil {
		return err
	}
	logger.Info("epoch begins", "epoch", epoch)

	d := policy.DefaultDurations

	// pair window
	s.clk.Advance(d.Stake + d.DaiVote)
	for _, id := range s.stakings {
		if err := s.arena.PairNft(id); err != nil {
			// the second nft of a pair is consumed by the first's pairing
			if reverts.IsRevert(err) {
				continue
			}
			return err
		}
	}
	pairCount, err := s.arena.PairCount(epoch)
	if err != nil {
		return err
	}

	// zoo boost window
	s.clk.Advance(d.Pair)
	for _, v := range s.voters {
		if s.rng.Intn(2) == 0 {
			continue
		}
		boost := scale(int64(10 + s.rng.Intn(90)))
		if err := s.arena.Zoo().Mint(v.owner, boost); err != nil {
			return err
		}
		if err := s.arena.AddZooToVoting(v.owner, v.votingID, boost); err != nil {
			if reverts.IsRevert(err) {
				continue
			}
			return err
		}
	}

	if err := s.accrueYield(); err != nil {
		return err
	}

	// winner window
	s.clk.Advance(d.ZooVote)
	if err := s.arena.RequestRandom(); err != nil {
		return err
	}
	if _, err := s.fulfiller.Fulfill(epoch); err != nil {
		return err
	}
	for i := uint64(0); i < pairCount; i++ {
		if err := s.arena.ChooseWinnerInPair(i); err != nil {
			return err
		}
		pair, err := s.arena.GetPair(epoch, i)
		if err != nil {
			return err
		}
		winner, loser := pair.Token1, pair.Token2
		if !pair.Win {
			winner, loser = loser, winner
		}
		logger.Info("battle decided", "epoch", epoch, "pair", i, "winner", winner, "loser", loser)
	}

	s.clk.Advance(d.Winner)
	if err := s.arena.UpdateEpoch(); err != nil {
		return err
	}
	inGame, eligible, total, err := s.arena.ActiveCounts()
	if err != nil {
		return err
	}
	logger.Info("epoch closed", "epoch", epoch, "pairs", pairCount,
		"inGame", inGame, "eligible", eligible, "staked", total)
	return nil
}

// accrueYield bumps the vault rate by 2% and funds the custody so the
// gain is redeemable.
func (s *simulator) accrueYield() error {
	rate, err := s.arena.Vault().ExchangeRateCurrent()
	if err != nil {
		return err
	}
	next := new(big.Int).Mul(rate, big.NewInt(102))
	next.Div(next, big.NewInt(100))
	if err := s.arena.Dai().Mint(s.config.VaultAddress, scale(1_000_000)); err != nil {
		return err
	}
	if err := s.arena.Vault().Accrue(next); err != nil {
		return err
	}
	logger.Debug("yield accrued", "rate", next)
	return nil
}

// settle claims every reward stream and prints the final balances.
func (s *simulator) settle() error {
	for _, v := range s.voters {
		dai, zoo, err := s.arena.ClaimRewardFromVoting(v.owner, v.votingID, v.owner)
		if err != nil {
			return err
		}
		incentive, err := s.arena.ClaimVoterIncentive(v.owner, v.votingID, v.owner)
		if err != nil {
			return err
		}
		logger.Info("voter settled", "voting", v.votingID, "dai", dai, "zoo", zoo, "incentive", incentive)
	}
	for _, id := range s.stakings {
		owner, err := s.arena.StakerPositionOwner(id)
		if err != nil {
			return err
		}
		dai, err := s.arena.ClaimRewardFromStaking(owner, id, owner)
		if err != nil {
			return err
		}
		incentive, err := s.arena.ClaimStakerIncentive(owner, id, owner)
		if err != nil {
			return err
		}
		logger.Info("staker settled", "staking", id, "dai", dai, "incentive", incentive)
	}

	treasury, err := s.arena.Dai().BalanceOf(s.config.Treasury)
	if err != nil {
		return err
	}
	logger.Info("simulation done", "treasuryDai", treasury)
	return nil
}
