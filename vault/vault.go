// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import "math/big"

// RateScale is the fixed-point scale of the exchange rate: a rate of
// 1e18 means one share redeems for exactly one unit of the deposit asset.
var RateScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Vault wraps a yield-bearing vault converting between the stable deposit
// asset and interest-bearing shares at a monotonically non-decreasing
// exchange rate.
type Vault interface {
	// Mint deposits the amount from the depositor's balance and returns the
	// number of shares issued.
	Mint(amount *big.Int) (*big.Int, error)
	// Redeem burns shares and credits the depositor with the underlying
	// assets. Returns the asset amount released.
	Redeem(shares *big.Int) (*big.Int, error)
	// ExchangeRateCurrent returns the current 1e18-scaled rate.
	ExchangeRateCurrent() (*big.Int, error)
}

// SharesToTokens converts shares to underlying assets at the given rate.
func SharesToTokens(shares, rate *big.Int) *big.Int {
	v := new(big.Int).Mul(shares, rate)
	return v.Div(v, RateScale)
}

// TokensToShares converts underlying assets to shares at the given rate.
func TokensToShares(tokens, rate *big.Int) *big.Int {
	v := new(big.Int).Mul(tokens, RateScale)
	return v.Div(v, rate)
}
