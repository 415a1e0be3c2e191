// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package arena

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Config wires the arena's addresses and economic parameters.
type Config struct {
	// ArenaAddress custodies pooled deposit assets between vault
	// operations and payouts.
	ArenaAddress common.Address
	// VaultAddress is the yield vault's custody address.
	VaultAddress common.Address
	// Treasury receives battle fees and arena-battle sweeps.
	Treasury common.Address
	// Owner may manage collection eligibility.
	Owner common.Address

	// TreasuryFeeBps is the treasury cut of each battle's combined
	// income, in basis points.
	TreasuryFeeBps uint64
	// StakerSaldoDivisor fixes the staker cut at saldo/divisor per
	// positive-saldo epoch.
	StakerSaldoDivisor uint64

	// BaseStakerIncentive and BaseVoterIncentive are the per-epoch
	// incentive emission bases.
	BaseStakerIncentive *big.Int
	BaseVoterIncentive  *big.Int
	// EndEpochOfIncentiveRewards is the last epoch (inclusive) that
	// accrues incentives; 0 disables the cap.
	EndEpochOfIncentiveRewards uint64
}

// DefaultConfig returns the production parameter set. Addresses must still
// be assigned by the operator.
func DefaultConfig() Config {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return Config{
		TreasuryFeeBps:      400,
		StakerSaldoDivisor:  96,
		BaseStakerIncentive: new(big.Int).Mul(big.NewInt(500), scale),
		BaseVoterIncentive:  new(big.Int).Mul(big.NewInt(500), scale),
	}
}

func (c *Config) Validate() error {
	if c.ArenaAddress == (common.Address{}) {
		return errors.New("arena address not set")
	}
	if c.VaultAddress == (common.Address{}) {
		return errors.New("vault address not set")
	}
	if c.Treasury == (common.Address{}) {
		return errors.New("treasury address not set")
	}
	if c.TreasuryFeeBps > 10_000 {
		return errors.New("treasury fee exceeds 100%")
	}
	if c.StakerSaldoDivisor == 0 {
		return errors.New("staker saldo divisor must be positive")
	}
	if c.BaseStakerIncentive == nil || c.BaseVoterIncentive == nil {
		return errors.New("incentive bases not set")
	}
	return nil
}
