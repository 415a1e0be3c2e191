// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package arena implements the NFT battle arena: an epoch/stage state
// machine over staked NFT positions, voting positions backed by yield-vault
// shares, pairwise randomized battles and the winner/loser/treasury reward
// split, plus a secondary incentive distribution keyed on the collection
// governance-weight ledger.
package arena

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/jonboulle/clockwork"

	"github.com/zoodao/arena/asset"
	"github.com/zoodao/arena/battle"
	"github.com/zoodao/arena/incentive"
	"github.com/zoodao/arena/listing"
	"github.com/zoodao/arena/nftoken"
	"github.com/zoodao/arena/policy"
	"github.com/zoodao/arena/position"
	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/reward"
	"github.com/zoodao/arena/stage"
	"github.com/zoodao/arena/storage"
	"github.com/zoodao/arena/vault"
)

// Arena is the facade over the battle state machine. All public operations
// are atomic: a failed operation leaves no partial state behind.
type Arena struct {
	ctx    *storage.Context
	config Config

	clock      *stage.Clock
	policy     policy.Policy
	dai        *asset.Ledger
	zoo        *asset.Ledger
	stakerNFT  *nftoken.Registry
	votingNFT  *nftoken.Registry
	vault      *vault.Growth
	listing    *listing.Service
	positions  *position.Service
	rewards    *reward.Repository
	accountant *reward.Accountant
	engine     *battle.Engine
	incentives *incentive.Distributor

	logger log.Logger
}

// New wires an arena over the storage context. The deposit and boost asset
// pools start empty; provisioning them is the operator's concern.
func New(ctx *storage.Context, pol policy.Policy, wallClock clockwork.Clock, config Config) (*Arena, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	dai := asset.NewLedger(ctx, "dai")
	zoo := asset.NewLedger(ctx, "zoo")
	vlt := vault.NewGrowth(ctx, dai, config.VaultAddress, config.ArenaAddress)
	positions := position.New(ctx)
	rewards := reward.NewRepository(ctx)
	accountant := reward.NewAccountant(rewards, positions, pol, config.StakerSaldoDivisor)
	engine := battle.NewEngine(ctx, positions, rewards, accountant, pol, vlt, dai, battle.Config{
		ArenaAddress:   config.ArenaAddress,
		Treasury:       config.Treasury,
		TreasuryFeeBps: config.TreasuryFeeBps,
	})
	ls := listing.New(ctx)
	incentives := incentive.NewDistributor(ls, positions, engine.PlayedVotes, incentive.Config{
		BaseStakerRate: config.BaseStakerIncentive,
		BaseVoterRate:  config.BaseVoterIncentive,
		EndEpoch:       config.EndEpochOfIncentiveRewards,
	})

	return &Arena{
		ctx:        ctx,
		config:     config,
		clock:      stage.New(ctx, pol, wallClock),
		policy:     pol,
		dai:        dai,
		zoo:        zoo,
		stakerNFT:  nftoken.NewRegistry(ctx, "staker-position-nft"),
		votingNFT:  nftoken.NewRegistry(ctx, "voting-position-nft"),
		vault:      vlt,
		listing:    ls,
		positions:  positions,
		rewards:    rewards,
		accountant: accountant,
		engine:     engine,
		incentives: incentives,
		logger:     log.New("pkg", "arena"),
	}, nil
}

// Init starts epoch 1. Idempotent.
func (a *Arena) Init() error {
	return a.atomically("init", func() error {
		return a.clock.Init()
	})
}

// atomically runs the operation inside a storage checkpoint and reverts
// every partial write on failure.
func (a *Arena) atomically(op string, fn func() error) error {
	cp := a.ctx.NewCheckpoint()
	if err := fn(); err != nil {
		a.ctx.RevertTo(cp)
		metricOps.WithLabelValues(op, "failed").Inc()
		a.logger.Debug("operation rejected", "op", op, "err", err)
		return err
	}
	metricOps.WithLabelValues(op, "ok").Inc()
	return nil
}

// Commit flushes the journaled state to the backing store.
func (a *Arena) Commit() error {
	return a.ctx.Commit()
}

// Dai, Zoo and Vault expose the collaborator ledgers for provisioning.
func (a *Arena) Dai() *asset.Ledger   { return a.dai }
func (a *Arena) Zoo() *asset.Ledger   { return a.zoo }
func (a *Arena) Vault() *vault.Growth { return a.vault }

//
// Step operations. Permissionless: progress can be forced by any caller,
// with idempotency guards instead of identity checks.
//

// PairNft matches an eligible position against a same-league opponent, or
// against the arena when none exists.
func (a *Arena) PairNft(stakingID uint64) error {
	return a.atomically("pair_nft", func() error {
		if err := a.clock.Require("pairNft", policy.StagePair); err != nil {
			return err
		}
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		if err := a.engine.PairNft(stakingID, epoch); err != nil {
			return err
		}
		metricPairs.Inc()
		a.logger.Info("paired", "staking", stakingID, "epoch", epoch)
		return nil
	})
}

// RequestRandom asks the policy module for the epoch's random value.
func (a *Arena) RequestRandom() error {
	return a.atomically("request_random", func() error {
		if err := a.clock.Require("requestRandom", policy.StageWinner); err != nil {
			return err
		}
		return a.policy.RequestRandomNumber()
	})
}

// ChooseWinnerInPair decides one pair of the current epoch.
func (a *Arena) ChooseWinnerInPair(index uint64) error {
	return a.atomically("choose_winner", func() error {
		if err := a.clock.Require("chooseWinnerInPair", policy.StageWinner); err != nil {
			return err
		}
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		if err := a.engine.ChooseWinnerInPair(epoch, index); err != nil {
			return err
		}
		pair, err := a.engine.GetPair(epoch, index)
		if err != nil {
			return err
		}
		a.logger.Info("battle decided", "epoch", epoch, "pair", index,
			"token1", pair.Token1, "token2", pair.Token2, "token1Won", pair.Win)
		return nil
	})
}

// UpdateEpoch advances to the next epoch once the epoch duration has
// elapsed or every pair has been decided, whichever comes first.
func (a *Arena) UpdateEpoch() error {
	return a.atomically("update_epoch", func() error {
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		elapsed, err := a.clock.EpochElapsed()
		if err != nil {
			return err
		}
		if !elapsed {
			count, err := a.engine.PairCount(epoch)
			if err != nil {
				return err
			}
			done, err := a.engine.AllPairsPlayed(epoch)
			if err != nil {
				return err
			}
			if count == 0 || !done {
				return reverts.NotReady("epoch %d still running", epoch)
			}
		}
		next, err := a.clock.AdvanceEpoch()
		if err != nil {
			return err
		}
		if err := a.positions.ResetGames(); err != nil {
			return err
		}
		// Votes booked as pending during the closed epoch take effect now;
		// resync every position's partition with its new-epoch vote total.
		ids, err := a.positions.ActiveIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := a.accountant.CatchUpStaker(id, next); err != nil {
				return err
			}
			if err := a.moveByVotes(id, next); err != nil {
				return err
			}
		}
		a.policy.ResetRandom()
		metricEpoch.Set(float64(next))
		a.logger.Info("epoch advanced", "epoch", next)
		return nil
	})
}

// UpdateInfo runs the lazy catch-up for the staker position and resyncs
// its active-index partition.
func (a *Arena) UpdateInfo(stakingID uint64) error {
	return a.atomically("update_info", func() error {
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		if err := a.accountant.CatchUpStaker(stakingID, epoch); err != nil {
			return err
		}
		return a.moveByVotes(stakingID, epoch)
	})
}

//
// Getters.
//

func (a *Arena) CurrentEpoch() (uint64, error) {
	return a.clock.CurrentEpoch()
}

func (a *Arena) CurrentStage() (policy.Stage, error) {
	return a.clock.CurrentStage()
}

func (a *Arena) EpochStart(epoch uint64) (time.Time, error) {
	return a.clock.EpochStart(epoch)
}

func (a *Arena) GetStakerPosition(id uint64) (*position.StakerPosition, error) {
	return a.positions.GetExistingStakerPosition(id)
}

func (a *Arena) GetVotingPosition(id uint64) (*position.VotingPosition, error) {
	return a.positions.GetExistingVotingPosition(id)
}

func (a *Arena) GetBattleReward(stakingID, epoch uint64) (*reward.Record, error) {
	return a.rewards.Get(stakingID, epoch)
}

func (a *Arena) GetPair(epoch, index uint64) (*battle.Pair, error) {
	return a.engine.GetPair(epoch, index)
}

func (a *Arena) PairCount(epoch uint64) (uint64, error) {
	return a.engine.PairCount(epoch)
}

func (a *Arena) PlayedVotes(epoch uint64) (*big.Int, error) {
	return a.engine.PlayedVotes(epoch)
}

// ActiveCounts returns (in game, with non-zero votes, total active).
func (a *Arena) ActiveCounts() (int, int, int, error) {
	return a.positions.Counts()
}

func (a *Arena) StakerPositionOwner(id uint64) (common.Address, error) {
	return a.stakerNFT.OwnerOf(id)
}

func (a *Arena) VotingPositionOwner(id uint64) (common.Address, error) {
	return a.votingNFT.OwnerOf(id)
}

func (a *Arena) PendingStakerReward(stakingID uint64) (*big.Int, error) {
	epoch, err := a.clock.CurrentEpoch()
	if err != nil {
		return nil, err
	}
	return a.accountant.PendingStakerReward(stakingID, epoch)
}

func (a *Arena) PendingVoterReward(votingID uint64) (shares, zoo *big.Int, err error) {
	epoch, err := a.clock.CurrentEpoch()
	if err != nil {
		return nil, nil, err
	}
	return a.accountant.PendingVoterReward(votingID, epoch)
}
