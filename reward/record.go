// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/zoodao/arena/policy"
)

// Record aggregates one staker position's battle accounting for one epoch.
// YTokensSaldo is signed: battle losses drive it below zero.
type Record struct {
	YTokensSaldo               *big.Int
	Votes                      *big.Int
	YTokens                    *big.Int
	TokensAtBattleStart        *big.Int
	PricePerShareAtBattleStart *big.Int
	PricePerShareCoef          *big.Int
	ZooRewards                 *big.Int
	League                     policy.League
}

// recordSnapshot is the wire form. RLP has no signed integers, so the
// saldo travels as sign flag plus magnitude.
type recordSnapshot struct {
	SaldoNeg                   bool
	SaldoAbs                   *big.Int
	Votes                      *big.Int
	YTokens                    *big.Int
	TokensAtBattleStart        *big.Int
	PricePerShareAtBattleStart *big.Int
	PricePerShareCoef          *big.Int
	ZooRewards                 *big.Int
	League                     uint8
}

func (r *Record) EncodeRLP(w io.Writer) error {
	r.normalize()
	return rlp.Encode(w, &recordSnapshot{
		SaldoNeg:                   r.YTokensSaldo.Sign() < 0,
		SaldoAbs:                   new(big.Int).Abs(r.YTokensSaldo),
		Votes:                      r.Votes,
		YTokens:                    r.YTokens,
		TokensAtBattleStart:        r.TokensAtBattleStart,
		PricePerShareAtBattleStart: r.PricePerShareAtBattleStart,
		PricePerShareCoef:          r.PricePerShareCoef,
		ZooRewards:                 r.ZooRewards,
		League:                     uint8(r.League),
	})
}

func (r *Record) DecodeRLP(s *rlp.Stream) error {
	var snap recordSnapshot
	if err := s.Decode(&snap); err != nil {
		return err
	}
	r.YTokensSaldo = snap.SaldoAbs
	if snap.SaldoNeg {
		r.YTokensSaldo = new(big.Int).Neg(snap.SaldoAbs)
	}
	r.Votes = snap.Votes
	r.YTokens = snap.YTokens
	r.TokensAtBattleStart = snap.TokensAtBattleStart
	r.PricePerShareAtBattleStart = snap.PricePerShareAtBattleStart
	r.PricePerShareCoef = snap.PricePerShareCoef
	r.ZooRewards = snap.ZooRewards
	r.League = policy.League(snap.League)
	return nil
}

// normalize fills nil fields so callers can do arithmetic without guards.
func (r *Record) normalize() *Record {
	for _, f := range []**big.Int{
		&r.YTokensSaldo, &r.Votes, &r.YTokens, &r.TokensAtBattleStart,
		&r.PricePerShareAtBattleStart, &r.PricePerShareCoef, &r.ZooRewards,
	} {
		if *f == nil {
			*f = new(big.Int)
		}
	}
	return r
}
