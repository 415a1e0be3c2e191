// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package battle

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/zoodao/arena/asset"
	"github.com/zoodao/arena/policy"
	"github.com/zoodao/arena/position"
	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/reward"
	"github.com/zoodao/arena/storage"
	"github.com/zoodao/arena/vault"
)

const feeDenominator = 10_000

// Pair is one battle of an epoch. Token2 == 0 pairs Token1 against the
// arena itself when no same-league opponent exists.
type Pair struct {
	Token1 uint64
	Token2 uint64
	Played bool
	Win    bool // Token1 won
}

// Config carries the engine's payout wiring.
type Config struct {
	// ArenaAddress custodies pooled assets between vault redemptions
	// and payouts.
	ArenaAddress common.Address
	// Treasury receives the fee cut of every battle's combined income.
	Treasury common.Address
	// TreasuryFeeBps is the treasury cut in basis points.
	TreasuryFeeBps uint64
}

// Engine pairs eligible staked positions by league, consumes randomness
// and settles the winner/loser/treasury split.
type Engine struct {
	pairs       *storage.Mapping[*Pair]
	pairCounts  *storage.Mapping[uint64]
	playedPairs *storage.Mapping[uint64]
	playedVotes *storage.Mapping[*big.Int]

	positions  *position.Service
	rewards    *reward.Repository
	accountant *reward.Accountant
	policy     policy.Policy
	vault      vault.Vault
	dai        *asset.Ledger
	config     Config
}

func NewEngine(
	ctx *storage.Context,
	positions *position.Service,
	rewards *reward.Repository,
	accountant *reward.Accountant,
	pol policy.Policy,
	vlt vault.Vault,
	dai *asset.Ledger,
	config Config,
) *Engine {
	return &Engine{
		pairs:       storage.NewMapping[*Pair](ctx, "battle-pairs"),
		pairCounts:  storage.NewMapping[uint64](ctx, "battle-pair-counts"),
		playedPairs: storage.NewMapping[uint64](ctx, "battle-played-counts"),
		playedVotes: storage.NewMapping[*big.Int](ctx, "battle-played-votes"),
		positions:   positions,
		rewards:     rewards,
		accountant:  accountant,
		policy:      pol,
		vault:       vlt,
		dai:         dai,
		config:      config,
	}
}

func pairKey(epoch uint64, index uint64) []byte {
	return storage.CompositeKey(storage.Uint64Key(epoch), storage.Uint64Key(index))
}

// PairCount returns how many pairs were formed in the epoch.
func (e *Engine) PairCount(epoch uint64) (uint64, error) {
	return e.pairCounts.Get(storage.Uint64Key(epoch))
}

// GetPair returns the pair at the index within the epoch.
func (e *Engine) GetPair(epoch, index uint64) (*Pair, error) {
	count, err := e.PairCount(epoch)
	if err != nil {
		return nil, err
	}
	if index >= count {
		return nil, reverts.Invariant("pair %d does not exist in epoch %d", index, epoch)
	}
	return e.pairs.Get(pairKey(epoch, index))
}

// PlayedVotes returns the vote total across all decided pairs of the epoch,
// the denominator of the voter incentive split.
func (e *Engine) PlayedVotes(epoch uint64) (*big.Int, error) {
	v, err := e.playedVotes.Get(storage.Uint64Key(epoch))
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = new(big.Int)
	}
	return v, nil
}

// AllPairsPlayed reports whether every pair of the epoch has been decided.
func (e *Engine) AllPairsPlayed(epoch uint64) (bool, error) {
	count, err := e.PairCount(epoch)
	if err != nil {
		return false, err
	}
	played, err := e.playedPairs.Get(storage.Uint64Key(epoch))
	if err != nil {
		return false, err
	}
	return played == count, nil
}

// PairNft matches the position against a pseudo-randomly chosen opponent of
// the same league, or against the arena when none exists. Both sides'
// share balances are snapshotted at the current exchange rate so battle
// income can be measured at decision time.
func (e *Engine) PairNft(stakingID, epoch uint64) error {
	if err := e.requireEligible(stakingID); err != nil {
		return err
	}
	if err := e.accountant.CatchUpStaker(stakingID, epoch); err != nil {
		return err
	}
	rec, err := e.rewards.Get(stakingID, epoch)
	if err != nil {
		return err
	}

	candidates, err := e.sameLeagueCandidates(stakingID, rec.League, epoch)
	if err != nil {
		return err
	}

	var opponent uint64
	if len(candidates) > 0 {
		pick := new(big.Int).Mod(e.policy.ComputePseudoRandom(), big.NewInt(int64(len(candidates))))
		opponent = candidates[pick.Int64()]
	}

	count, err := e.pairCounts.Get(storage.Uint64Key(epoch))
	if err != nil {
		return err
	}
	pair := &Pair{Token1: stakingID, Token2: opponent}
	if err := e.pairs.Set(pairKey(epoch, count), pair); err != nil {
		return err
	}
	if err := e.pairCounts.Set(storage.Uint64Key(epoch), count+1); err != nil {
		return err
	}

	rate, err := e.vault.ExchangeRateCurrent()
	if err != nil {
		return err
	}
	if err := e.snapshot(stakingID, epoch, rate); err != nil {
		return err
	}
	if err := e.positions.MoveActive(stakingID, position.PartitionInGame); err != nil {
		return err
	}
	if opponent != 0 {
		if err := e.snapshot(opponent, epoch, rate); err != nil {
			return err
		}
		if err := e.positions.MoveActive(opponent, position.PartitionInGame); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) requireEligible(stakingID uint64) error {
	p, ok, err := e.positions.PartitionOf(stakingID)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Invariant("staker position %d is not active", stakingID)
	}
	if p == position.PartitionInGame {
		return reverts.Invariant("staker position %d is already paired", stakingID)
	}
	if p != position.PartitionEligible {
		return reverts.Invariant("staker position %d has no votes to battle with", stakingID)
	}
	return nil
}

func (e *Engine) sameLeagueCandidates(stakingID uint64, league policy.League, epoch uint64) ([]uint64, error) {
	ids, err := e.positions.EligibleIDs()
	if err != nil {
		return nil, err
	}
	var out []uint64
	for _, id := range ids {
		if id == stakingID {
			continue
		}
		if err := e.accountant.CatchUpStaker(id, epoch); err != nil {
			return nil, err
		}
		rec, err := e.rewards.Get(id, epoch)
		if err != nil {
			return nil, err
		}
		if rec.League == league {
			out = append(out, id)
		}
	}
	return out, nil
}

func (e *Engine) snapshot(stakingID, epoch uint64, rate *big.Int) error {
	rec, err := e.rewards.Get(stakingID, epoch)
	if err != nil {
		return err
	}
	rec.TokensAtBattleStart = vault.SharesToTokens(rec.YTokens, rate)
	rec.PricePerShareAtBattleStart = new(big.Int).Set(rate)
	return e.rewards.Set(stakingID, epoch, rec)
}

// ChooseWinnerInPair decides the pair with the epoch's fulfilled random
// value and settles the reward split.
func (e *Engine) ChooseWinnerInPair(epoch, index uint64) error {
	pair, err := e.GetPair(epoch, index)
	if err != nil {
		return err
	}
	if pair.Played {
		return reverts.Invariant("pair %d of epoch %d already played", index, epoch)
	}
	random, err := e.policy.GetRandomResult()
	if err != nil {
		return err
	}
	random = perPairRandom(random, epoch, index)

	if pair.Token2 == 0 {
		err = e.settleArenaBattle(pair, epoch, random)
	} else {
		err = e.settleBattle(pair, epoch, random)
	}
	if err != nil {
		return err
	}

	pair.Played = true
	if err := e.pairs.Set(pairKey(epoch, index), pair); err != nil {
		return err
	}
	played, err := e.playedPairs.Get(storage.Uint64Key(epoch))
	if err != nil {
		return err
	}
	return e.playedPairs.Set(storage.Uint64Key(epoch), played+1)
}

// perPairRandom stretches the single epoch random over all pairs.
func perPairRandom(random *big.Int, epoch, index uint64) *big.Int {
	h := crypto.Keccak256(random.Bytes(), storage.Uint64Key(epoch), storage.Uint64Key(index))
	return new(big.Int).SetBytes(h)
}

// income is the position's vault-share gain since its battle snapshot,
// floored at zero against rounding. A rate that has not moved earned
// nothing; the double-floored share math can otherwise leave dust that
// would divide the coefficient by zero.
func (e *Engine) income(rec *reward.Record, rate *big.Int) *big.Int {
	if rate.Cmp(rec.PricePerShareAtBattleStart) == 0 {
		return new(big.Int)
	}
	base := vault.TokensToShares(rec.TokensAtBattleStart, rate)
	gain := new(big.Int).Sub(rec.YTokens, base)
	if gain.Sign() < 0 {
		gain.SetInt64(0)
	}
	return gain
}

// pricePerShareCoef encodes the epoch's rate movement so withdrawing voters
// can subtract the share footprint already spent on rewards.
func pricePerShareCoef(start, current *big.Int) *big.Int {
	diff := new(big.Int).Sub(current, start)
	coef := new(big.Int).Mul(start, current)
	return coef.Div(coef, diff)
}

func (e *Engine) settleBattle(pair *Pair, epoch uint64, random *big.Int) error {
	rec1, err := e.rewards.Get(pair.Token1, epoch)
	if err != nil {
		return err
	}
	rec2, err := e.rewards.Get(pair.Token2, epoch)
	if err != nil {
		return err
	}
	pair.Win = e.policy.DecideWins(rec1.Votes, rec2.Votes, random)

	votes := new(big.Int).Add(rec1.Votes, rec2.Votes)
	if err := e.addPlayedVotes(epoch, votes); err != nil {
		return err
	}

	winner, loser := rec1, rec2
	if !pair.Win {
		winner, loser = rec2, rec1
	}
	winner.ZooRewards.Add(winner.ZooRewards, e.policy.LeagueZooRewards(winner.League))

	rate, err := e.vault.ExchangeRateCurrent()
	if err != nil {
		return err
	}
	income1 := e.income(rec1, rate)
	income2 := e.income(rec2, rate)
	total := new(big.Int).Add(income1, income2)
	if total.Sign() == 0 {
		// No yield moved during the battle; nothing to split and no
		// share footprint to record.
		if err := e.rewards.Set(pair.Token1, epoch, rec1); err != nil {
			return err
		}
		return e.rewards.Set(pair.Token2, epoch, rec2)
	}

	fee := new(big.Int).Mul(total, new(big.Int).SetUint64(e.config.TreasuryFeeBps))
	fee.Div(fee, big.NewInt(feeDenominator))
	if err := e.payTreasury(fee); err != nil {
		return err
	}

	winner.YTokensSaldo.Add(winner.YTokensSaldo, new(big.Int).Sub(total, fee))
	loserIncome := income2
	if !pair.Win {
		loserIncome = income1
	}
	loser.YTokensSaldo.Sub(loser.YTokensSaldo, loserIncome)

	coef := pricePerShareCoef(rec1.PricePerShareAtBattleStart, rate)
	rec1.PricePerShareCoef = coef
	rec2.PricePerShareCoef = new(big.Int).Set(coef)

	if err := e.rewards.Set(pair.Token1, epoch, rec1); err != nil {
		return err
	}
	return e.rewards.Set(pair.Token2, epoch, rec2)
}

// settleArenaBattle decides a solo pair against the house. A losing
// position has its yield above the battle snapshot swept to the treasury;
// a winning one earns the league's zoo grant.
func (e *Engine) settleArenaBattle(pair *Pair, epoch uint64, random *big.Int) error {
	rec, err := e.rewards.Get(pair.Token1, epoch)
	if err != nil {
		return err
	}
	one := big.NewInt(1)
	pair.Win = e.policy.DecideWins(one, one, random)

	if err := e.addPlayedVotes(epoch, rec.Votes); err != nil {
		return err
	}

	if pair.Win {
		rec.ZooRewards.Add(rec.ZooRewards, e.policy.LeagueZooRewards(rec.League))
		return e.rewards.Set(pair.Token1, epoch, rec)
	}

	rate, err := e.vault.ExchangeRateCurrent()
	if err != nil {
		return err
	}
	gain := e.income(rec, rate)
	if gain.Sign() == 0 {
		return e.rewards.Set(pair.Token1, epoch, rec)
	}
	if err := e.payTreasury(gain); err != nil {
		return err
	}
	rec.YTokens.Sub(rec.YTokens, gain)
	rec.PricePerShareCoef = pricePerShareCoef(rec.PricePerShareAtBattleStart, rate)
	return e.rewards.Set(pair.Token1, epoch, rec)
}

func (e *Engine) payTreasury(shares *big.Int) error {
	if shares.Sign() == 0 {
		return nil
	}
	assets, err := e.vault.Redeem(shares)
	if err != nil {
		return err
	}
	return e.dai.Transfer(e.config.ArenaAddress, e.config.Treasury, assets)
}

func (e *Engine) addPlayedVotes(epoch uint64, votes *big.Int) error {
	played, err := e.PlayedVotes(epoch)
	if err != nil {
		return err
	}
	return e.playedVotes.Set(storage.Uint64Key(epoch), new(big.Int).Add(played, votes))
}
