// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"github.com/pkg/errors"

	"github.com/zoodao/arena/storage"
)

// Repository stores battle reward records keyed by (staking id, epoch).
type Repository struct {
	records *storage.Mapping[*Record]
}

func NewRepository(ctx *storage.Context) *Repository {
	return &Repository{
		records: storage.NewMapping[*Record](ctx, "battle-rewards"),
	}
}

func key(stakingID, epoch uint64) []byte {
	return storage.CompositeKey(storage.Uint64Key(stakingID), storage.Uint64Key(epoch))
}

// Get returns the record for the staking position at the epoch, zero-valued
// if never written.
func (r *Repository) Get(stakingID, epoch uint64) (*Record, error) {
	rec, err := r.records.Get(key(stakingID, epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get battle reward record")
	}
	return rec.normalize(), nil
}

func (r *Repository) Set(stakingID, epoch uint64, rec *Record) error {
	return r.records.Set(key(stakingID, epoch), rec)
}
