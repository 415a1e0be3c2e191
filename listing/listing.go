// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package listing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/storage"
)

// Collection is one eligible (or formerly eligible) NFT collection.
type Collection struct {
	Eligible        bool
	LastUpdateEpoch uint64
}

// Lock is a governance-weight vote locked on a collection.
type Lock struct {
	Voter      common.Address
	Collection common.Address
	Amount     *big.Int
	StartEpoch uint64
	EndEpoch   uint64 // 0 = active
}

func (l *Lock) IsEmpty() bool {
	return l.Amount == nil
}

// globalKey aggregates weights across all collections.
var globalKey = common.Address{}

// Service tracks collection eligibility, the per-collection/per-epoch
// governance weight ledger and per-epoch staked-NFT counts. Weights and
// counts are running totals: deltas book into the epoch they occur in and a
// lazy catch-up carries balances forward, mirroring the position ledger.
type Service struct {
	collections *storage.Mapping[*Collection]
	weights     *storage.Mapping[*big.Int]
	counts      *storage.Mapping[uint64]
	locks       *storage.Mapping[*Lock]
	lockCounter *storage.Slot[uint64]
}

func New(ctx *storage.Context) *Service {
	return &Service{
		collections: storage.NewMapping[*Collection](ctx, "listing-collections"),
		weights:     storage.NewMapping[*big.Int](ctx, "listing-weights"),
		counts:      storage.NewMapping[uint64](ctx, "listing-staked-counts"),
		locks:       storage.NewMapping[*Lock](ctx, "listing-locks"),
		lockCounter: storage.NewSlot[uint64](ctx, "listing-lock-counter"),
	}
}

func epochKey(collection common.Address, epoch uint64) []byte {
	return storage.CompositeKey(collection.Bytes(), storage.Uint64Key(epoch))
}

// AllowCollection marks a collection eligible for staking.
func (s *Service) AllowCollection(collection common.Address, epoch uint64) error {
	c, err := s.collections.Get(collection.Bytes())
	if err != nil {
		return err
	}
	if c.Eligible {
		return reverts.Invariant("collection %s already eligible", collection)
	}
	if c.LastUpdateEpoch == 0 {
		c.LastUpdateEpoch = epoch
	}
	c.Eligible = true
	return s.collections.Set(collection.Bytes(), c)
}

// DisallowCollection stops new stakes on the collection. Existing positions
// and weights are unaffected.
func (s *Service) DisallowCollection(collection common.Address) error {
	c, err := s.collections.Get(collection.Bytes())
	if err != nil {
		return err
	}
	if !c.Eligible {
		return reverts.Invariant("collection %s is not eligible", collection)
	}
	c.Eligible = false
	return s.collections.Set(collection.Bytes(), c)
}

// RequireEligible rejects if the collection is not eligible.
func (s *Service) RequireEligible(collection common.Address) error {
	c, err := s.collections.Get(collection.Bytes())
	if err != nil {
		return err
	}
	if !c.Eligible {
		return reverts.Invariant("collection %s is not eligible", collection)
	}
	return nil
}

// catchUp carries the collection's weight and staked count forward to the
// given epoch. The global aggregate is a pseudo-collection under the zero
// address and catches up the same way.
func (s *Service) catchUp(collection common.Address, epoch uint64) error {
	c, err := s.collections.Get(collection.Bytes())
	if err != nil {
		return err
	}
	if c.LastUpdateEpoch == 0 {
		c.LastUpdateEpoch = epoch
		return s.collections.Set(collection.Bytes(), c)
	}
	if epoch <= c.LastUpdateEpoch {
		return nil
	}
	for e := c.LastUpdateEpoch + 1; e <= epoch; e++ {
		prevW, err := s.weights.Get(epochKey(collection, e-1))
		if err != nil {
			return err
		}
		curW, err := s.weights.Get(epochKey(collection, e))
		if err != nil {
			return err
		}
		if err := s.weights.Set(epochKey(collection, e), new(big.Int).Add(curW, prevW)); err != nil {
			return err
		}
		prevN, err := s.counts.Get(epochKey(collection, e-1))
		if err != nil {
			return err
		}
		curN, err := s.counts.Get(epochKey(collection, e))
		if err != nil {
			return err
		}
		if err := s.counts.Set(epochKey(collection, e), curN+prevN); err != nil {
			return err
		}
	}
	c.LastUpdateEpoch = epoch
	return s.collections.Set(collection.Bytes(), c)
}

func (s *Service) addWeight(collection common.Address, amount *big.Int, epoch uint64) error {
	if err := s.catchUp(collection, epoch); err != nil {
		return err
	}
	w, err := s.weights.Get(epochKey(collection, epoch))
	if err != nil {
		return err
	}
	w = new(big.Int).Add(w, amount)
	if w.Sign() < 0 {
		return reverts.Invariant("collection %s weight below zero", collection)
	}
	return s.weights.Set(epochKey(collection, epoch), w)
}

// AddVotes adds governance weight to the collection for the epoch onwards.
func (s *Service) AddVotes(collection common.Address, amount *big.Int, epoch uint64) error {
	if err := s.addWeight(collection, amount, epoch); err != nil {
		return err
	}
	return s.addWeight(globalKey, amount, epoch)
}

// RemoveVotes removes governance weight from the epoch onwards.
func (s *Service) RemoveVotes(collection common.Address, amount *big.Int, epoch uint64) error {
	neg := new(big.Int).Neg(amount)
	if err := s.addWeight(collection, neg, epoch); err != nil {
		return err
	}
	return s.addWeight(globalKey, neg, epoch)
}

// OnStake bumps the collection's staked-NFT count for the epoch onwards.
func (s *Service) OnStake(collection common.Address, epoch uint64) error {
	if err := s.catchUp(collection, epoch); err != nil {
		return err
	}
	n, err := s.counts.Get(epochKey(collection, epoch))
	if err != nil {
		return err
	}
	return s.counts.Set(epochKey(collection, epoch), n+1)
}

// OnUnstake decrements the collection's staked-NFT count.
func (s *Service) OnUnstake(collection common.Address, epoch uint64) error {
	if err := s.catchUp(collection, epoch); err != nil {
		return err
	}
	n, err := s.counts.Get(epochKey(collection, epoch))
	if err != nil {
		return err
	}
	if n == 0 {
		return reverts.Invariant("collection %s staked count below zero", collection)
	}
	return s.counts.Set(epochKey(collection, epoch), n-1)
}

// PoolWeight returns the collection's weight at the epoch, catching up first.
func (s *Service) PoolWeight(collection common.Address, epoch uint64) (*big.Int, error) {
	if err := s.catchUp(collection, epoch); err != nil {
		return nil, err
	}
	return s.weights.Get(epochKey(collection, epoch))
}

// GlobalWeight returns the all-collections weight at the epoch.
func (s *Service) GlobalWeight(epoch uint64) (*big.Int, error) {
	return s.PoolWeight(globalKey, epoch)
}

// StakedCount returns the collection's staked-NFT count at the epoch.
func (s *Service) StakedCount(collection common.Address, epoch uint64) (uint64, error) {
	if err := s.catchUp(collection, epoch); err != nil {
		return 0, err
	}
	return s.counts.Get(epochKey(collection, epoch))
}

// VoteForCollection locks governance weight on a collection. Custody of the
// locked tokens is the caller's concern.
func (s *Service) VoteForCollection(voter, collection common.Address, amount *big.Int, epoch uint64) (uint64, error) {
	if err := s.RequireEligible(collection); err != nil {
		return 0, err
	}
	if amount.Sign() <= 0 {
		return 0, reverts.Invariant("collection vote amount must be positive")
	}
	if err := s.AddVotes(collection, amount, epoch); err != nil {
		return 0, err
	}
	counter, err := s.lockCounter.Get()
	if err != nil {
		return 0, err
	}
	counter++
	if err := s.lockCounter.Set(counter); err != nil {
		return 0, err
	}
	lock := &Lock{Voter: voter, Collection: collection, Amount: amount, StartEpoch: epoch}
	if err := s.locks.Set(storage.Uint64Key(counter), lock); err != nil {
		return 0, err
	}
	return counter, nil
}

// UnvoteFromCollection releases a lock and returns the amount to refund.
func (s *Service) UnvoteFromCollection(lockID uint64, voter common.Address, epoch uint64) (*big.Int, error) {
	lock, err := s.locks.Get(storage.Uint64Key(lockID))
	if err != nil {
		return nil, err
	}
	if lock.IsEmpty() {
		return nil, reverts.Invariant("collection vote %d does not exist", lockID)
	}
	if lock.Voter != voter {
		return nil, reverts.Ownership("caller %s does not own collection vote %d", voter, lockID)
	}
	if lock.EndEpoch != 0 {
		return nil, reverts.Invariant("collection vote %d already released", lockID)
	}
	if err := s.RemoveVotes(lock.Collection, lock.Amount, epoch); err != nil {
		return nil, err
	}
	lock.EndEpoch = epoch
	if err := s.locks.Set(storage.Uint64Key(lockID), lock); err != nil {
		return nil, err
	}
	return lock.Amount, nil
}

// GetLock returns a collection vote lock.
func (s *Service) GetLock(lockID uint64) (*Lock, error) {
	return s.locks.Get(storage.Uint64Key(lockID))
}
