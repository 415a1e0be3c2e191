// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zoodao/arena/asset"
	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/storage"
)

type growthState struct {
	Rate        *big.Int
	TotalShares *big.Int
}

// Growth is a deterministic vault implementation holding custody via the
// deposit-asset ledger. Yield is modelled by raising the exchange rate with
// Accrue; the matching asset balance must be provisioned to the vault
// address, otherwise redemptions fail like a broken external vault would.
type Growth struct {
	dai       *asset.Ledger
	addr      common.Address
	depositor common.Address
	state     *storage.Slot[*growthState]
}

func NewGrowth(ctx *storage.Context, dai *asset.Ledger, addr, depositor common.Address) *Growth {
	return &Growth{
		dai:       dai,
		addr:      addr,
		depositor: depositor,
		state:     storage.NewSlot[*growthState](ctx, "vault-growth"),
	}
}

func (g *Growth) getState() (*growthState, error) {
	s, err := g.state.Get()
	if err != nil {
		return nil, err
	}
	if s.Rate == nil {
		s = &growthState{Rate: new(big.Int).Set(RateScale), TotalShares: new(big.Int)}
	}
	return s, nil
}

func (g *Growth) ExchangeRateCurrent() (*big.Int, error) {
	s, err := g.getState()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(s.Rate), nil
}

func (g *Growth) Mint(amount *big.Int) (*big.Int, error) {
	s, err := g.getState()
	if err != nil {
		return nil, err
	}
	if err := g.dai.Transfer(g.depositor, g.addr, amount); err != nil {
		return nil, err
	}
	shares := TokensToShares(amount, s.Rate)
	s.TotalShares = new(big.Int).Add(s.TotalShares, shares)
	if err := g.state.Set(s); err != nil {
		return nil, err
	}
	return shares, nil
}

func (g *Growth) Redeem(shares *big.Int) (*big.Int, error) {
	s, err := g.getState()
	if err != nil {
		return nil, err
	}
	if shares.Cmp(s.TotalShares) > 0 {
		return nil, reverts.Collaborator("vault: redeeming %s shares exceeds supply %s", shares, s.TotalShares)
	}
	assets := SharesToTokens(shares, s.Rate)
	if err := g.dai.Transfer(g.addr, g.depositor, assets); err != nil {
		return nil, reverts.Collaborator("vault: redeem transfer failed: %s", err)
	}
	s.TotalShares = new(big.Int).Sub(s.TotalShares, shares)
	if err := g.state.Set(s); err != nil {
		return nil, err
	}
	return assets, nil
}

// Accrue raises the exchange rate, modelling yield. Rate decreases are
// rejected to preserve the monotonicity contract.
func (g *Growth) Accrue(newRate *big.Int) error {
	s, err := g.getState()
	if err != nil {
		return err
	}
	if newRate.Cmp(s.Rate) < 0 {
		return reverts.Invariant("vault: exchange rate cannot decrease")
	}
	s.Rate = new(big.Int).Set(newRate)
	return g.state.Set(s)
}
