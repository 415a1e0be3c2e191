// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package arena

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zoodao/arena/reverts"
)

func (a *Arena) requireOwner(caller common.Address) error {
	if caller != a.config.Owner {
		return reverts.Ownership("caller %s is not the arena owner", caller)
	}
	return nil
}

// AllowCollection marks an NFT collection eligible for staking. Owner only.
func (a *Arena) AllowCollection(caller, collection common.Address) error {
	return a.atomically("allow_collection", func() error {
		if err := a.requireOwner(caller); err != nil {
			return err
		}
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		return a.listing.AllowCollection(collection, epoch)
	})
}

// DisallowCollection stops new stakes on the collection. Owner only.
func (a *Arena) DisallowCollection(caller, collection common.Address) error {
	return a.atomically("disallow_collection", func() error {
		if err := a.requireOwner(caller); err != nil {
			return err
		}
		return a.listing.DisallowCollection(collection)
	})
}

// VoteForCollection locks zoo on a collection, raising its governance
// weight from the current epoch onwards.
func (a *Arena) VoteForCollection(caller, collection common.Address, amount *big.Int) (lockID uint64, err error) {
	err = a.atomically("vote_for_collection", func() error {
		if amount.Sign() <= 0 {
			return reverts.Invariant("lock amount must be positive")
		}
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		if err := a.zoo.Transfer(caller, a.config.ArenaAddress, amount); err != nil {
			return err
		}
		lockID, err = a.listing.VoteForCollection(caller, collection, amount, epoch)
		return err
	})
	return lockID, err
}

// UnvoteFromCollection releases a collection lock and refunds the zoo.
func (a *Arena) UnvoteFromCollection(caller common.Address, lockID uint64) (refund *big.Int, err error) {
	err = a.atomically("unvote_from_collection", func() error {
		epoch, err := a.clock.CurrentEpoch()
		if err != nil {
			return err
		}
		refund, err = a.listing.UnvoteFromCollection(lockID, caller, epoch)
		if err != nil {
			return err
		}
		return a.zoo.Transfer(a.config.ArenaAddress, caller, refund)
	})
	return refund, err
}

// PoolWeight returns the collection's governance weight at the epoch.
func (a *Arena) PoolWeight(collection common.Address, epoch uint64) (*big.Int, error) {
	return a.listing.PoolWeight(collection, epoch)
}

// GlobalWeight returns the all-collections governance weight at the epoch.
func (a *Arena) GlobalWeight(epoch uint64) (*big.Int, error) {
	return a.listing.GlobalWeight(epoch)
}

// StakedCount returns the collection's staked-NFT count at the epoch.
func (a *Arena) StakedCount(collection common.Address, epoch uint64) (uint64, error) {
	return a.listing.StakedCount(collection, epoch)
}
