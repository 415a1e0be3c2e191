// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/zoodao/arena/reverts"
)

// Partition is one of the three contiguous regions of the active index.
type Partition uint8

const (
	// PartitionInGame holds positions paired into a battle this epoch.
	PartitionInGame Partition = iota
	// PartitionEligible holds unpaired positions with non-zero votes.
	PartitionEligible
	// PartitionIdle holds active positions with zero votes.
	PartitionIdle
)

// activeIndex is a dense array of active staker position ids partitioned as
// [0, inGame) in battle, [inGame, nonZero) eligible, [nonZero, len) idle.
// All mutations go through move/add/remove so the partition boundaries stay
// consistent; the id lookup map is rebuilt on decode.
type activeIndex struct {
	ids     []uint64
	inGame  int
	nonZero int
	lookup  map[uint64]int
}

type indexSnapshot struct {
	IDs     []uint64
	InGame  uint64
	NonZero uint64
}

func (x *activeIndex) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &indexSnapshot{
		IDs:     x.ids,
		InGame:  uint64(x.inGame),
		NonZero: uint64(x.nonZero),
	})
}

func (x *activeIndex) DecodeRLP(s *rlp.Stream) error {
	var snap indexSnapshot
	if err := s.Decode(&snap); err != nil {
		return err
	}
	x.ids = snap.IDs
	x.inGame = int(snap.InGame)
	x.nonZero = int(snap.NonZero)
	x.lookup = make(map[uint64]int, len(snap.IDs))
	for i, id := range snap.IDs {
		x.lookup[id] = i
	}
	return nil
}

func (x *activeIndex) ensure() {
	if x.lookup == nil {
		x.lookup = make(map[uint64]int)
	}
}

func (x *activeIndex) swap(i, j int) {
	if i == j {
		return
	}
	x.ids[i], x.ids[j] = x.ids[j], x.ids[i]
	x.lookup[x.ids[i]] = i
	x.lookup[x.ids[j]] = j
}

func (x *activeIndex) partitionAt(pos int) Partition {
	switch {
	case pos < x.inGame:
		return PartitionInGame
	case pos < x.nonZero:
		return PartitionEligible
	default:
		return PartitionIdle
	}
}

// add appends the id to the idle partition.
func (x *activeIndex) add(id uint64) error {
	x.ensure()
	if _, ok := x.lookup[id]; ok {
		return reverts.Invariant("position %d already in the active index", id)
	}
	x.lookup[id] = len(x.ids)
	x.ids = append(x.ids, id)
	return nil
}

// move shifts the id into the target partition, one boundary at a time.
func (x *activeIndex) move(id uint64, target Partition) error {
	x.ensure()
	pos, ok := x.lookup[id]
	if !ok {
		return reverts.Invariant("position %d is not in the active index", id)
	}
	for x.partitionAt(pos) != target {
		switch cur := x.partitionAt(pos); {
		case cur < target: // shift right, towards idle
			if cur == PartitionInGame {
				x.inGame--
				x.swap(pos, x.inGame)
				pos = x.inGame
			} else {
				x.nonZero--
				x.swap(pos, x.nonZero)
				pos = x.nonZero
			}
		default: // shift left, towards in-game
			if cur == PartitionIdle {
				x.swap(pos, x.nonZero)
				pos = x.nonZero
				x.nonZero++
			} else {
				x.swap(pos, x.inGame)
				pos = x.inGame
				x.inGame++
			}
		}
	}
	return nil
}

// remove drops the id, preserving the partition invariant by moving it to
// the idle tail first (swap-to-end then truncate).
func (x *activeIndex) remove(id uint64) error {
	if err := x.move(id, PartitionIdle); err != nil {
		return err
	}
	pos := x.lookup[id]
	last := len(x.ids) - 1
	x.swap(pos, last)
	x.ids = x.ids[:last]
	delete(x.lookup, id)
	return nil
}

func (x *activeIndex) partitionOf(id uint64) (Partition, bool) {
	x.ensure()
	pos, ok := x.lookup[id]
	if !ok {
		return PartitionIdle, false
	}
	return x.partitionAt(pos), true
}

// eligible returns the unpaired non-zero-vote ids.
func (x *activeIndex) eligible() []uint64 {
	out := make([]uint64, x.nonZero-x.inGame)
	copy(out, x.ids[x.inGame:x.nonZero])
	return out
}

// resetGames empties the in-game partition back into eligible.
func (x *activeIndex) resetGames() {
	x.inGame = 0
}
