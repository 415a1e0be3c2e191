// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nftoken

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/zoodao/arena/reverts"
	"github.com/zoodao/arena/storage"
)

// Registry tracks ownership of non-fungible position tokens by integer id.
// Staker and voting positions each get their own registry, so position
// ownership composes with standard NFT transfer semantics.
type Registry struct {
	name   string
	owners *storage.Mapping[common.Address]
}

func NewRegistry(ctx *storage.Context, name string) *Registry {
	return &Registry{
		name:   name,
		owners: storage.NewMapping[common.Address](ctx, name+"-owners"),
	}
}

// Mint assigns a fresh token id to the owner. Minting an existing id is an
// invariant rejection.
func (r *Registry) Mint(id uint64, owner common.Address) error {
	existing, err := r.owners.Get(storage.Uint64Key(id))
	if err != nil {
		return err
	}
	if existing != (common.Address{}) {
		return reverts.Invariant("%s: token %d already minted", r.name, id)
	}
	return r.owners.Set(storage.Uint64Key(id), owner)
}

// OwnerOf returns the owner of the token, rejecting unknown ids.
func (r *Registry) OwnerOf(id uint64) (common.Address, error) {
	owner, err := r.owners.Get(storage.Uint64Key(id))
	if err != nil {
		return common.Address{}, err
	}
	if owner == (common.Address{}) {
		return common.Address{}, reverts.Invariant("%s: token %d does not exist", r.name, id)
	}
	return owner, nil
}

// RequireOwner rejects unless caller owns the token.
func (r *Registry) RequireOwner(id uint64, caller common.Address) error {
	owner, err := r.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != caller {
		return reverts.Ownership("%s: caller %s does not own token %d", r.name, caller, id)
	}
	return nil
}

// Transfer moves the token to a new owner.
func (r *Registry) Transfer(from, to common.Address, id uint64) error {
	if err := r.RequireOwner(id, from); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return reverts.Invariant("%s: transfer to zero address", r.name)
	}
	return r.owners.Set(storage.Uint64Key(id), to)
}

// Burn removes the token.
func (r *Registry) Burn(id uint64) error {
	if _, err := r.OwnerOf(id); err != nil {
		return err
	}
	return r.owners.Set(storage.Uint64Key(id), common.Address{})
}
