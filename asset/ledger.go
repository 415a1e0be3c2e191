// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/storage"
)

// Ledger is a named fungible balance ledger. The arena uses two instances:
// the stable deposit asset and the zoo boost/incentive token.
type Ledger struct {
	name     string
	balances *storage.Mapping[*big.Int]
	supply   *storage.Slot[*big.Int]
}

func NewLedger(ctx *storage.Context, name string) *Ledger {
	return &Ledger{
		name:     name,
		balances: storage.NewMapping[*big.Int](ctx, name+"-balances"),
		supply:   storage.NewSlot[*big.Int](ctx, name+"-supply"),
	}
}

func (l *Ledger) Name() string {
	return l.name
}

func (l *Ledger) BalanceOf(addr common.Address) (*big.Int, error) {
	return l.balances.Get(addr.Bytes())
}

func (l *Ledger) TotalSupply() (*big.Int, error) {
	return l.supply.Get()
}

// Transfer moves amount between accounts. Insufficient balance is an
// invariant rejection.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.Invariant("%s: negative transfer amount", l.name)
	}
	fromBal, err := l.balances.Get(from.Bytes())
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.Invariant("%s: balance of %s below transfer amount", l.name, from)
	}
	toBal, err := l.balances.Get(to.Bytes())
	if err != nil {
		return err
	}
	if err := l.balances.Set(from.Bytes(), new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return l.balances.Set(to.Bytes(), new(big.Int).Add(toBal, amount))
}

// Mint credits new tokens to an account.
func (l *Ledger) Mint(to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.Invariant("%s: negative mint amount", l.name)
	}
	bal, err := l.balances.Get(to.Bytes())
	if err != nil {
		return err
	}
	if err := l.balances.Set(to.Bytes(), new(big.Int).Add(bal, amount)); err != nil {
		return err
	}
	supply, err := l.supply.Get()
	if err != nil {
		return err
	}
	return l.supply.Set(new(big.Int).Add(supply, amount))
}
