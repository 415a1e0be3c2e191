// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/zoodao/arena/api/utils"
	"github.com/zoodao/arena/arena"
	"github.com/zoodao/arena/reverts"
)

// ArenaAPI exposes read-only views of the arena state over HTTP.
type ArenaAPI struct {
	arena *arena.Arena
}

func NewArenaAPI(a *arena.Arena) *ArenaAPI {
	return &ArenaAPI{arena: a}
}

// Status is the epoch and stage snapshot.
type Status struct {
	Epoch      uint64 `json:"epoch"`
	Stage      uint64 `json:"stage"`
	StageName  string `json:"stageName"`
	EpochStart int64  `json:"epochStart"`
	InGame     int    `json:"inGame"`
	Eligible   int    `json:"eligible"`
	Staked     int    `json:"staked"`
}

// StakerPosition is the JSON shape of a staked NFT position.
type StakerPosition struct {
	ID                uint64 `json:"id"`
	Owner             string `json:"owner"`
	Collection        string `json:"collection"`
	StartEpoch        uint64 `json:"startEpoch"`
	EndEpoch          uint64 `json:"endEpoch"`
	LastUpdateEpoch   uint64 `json:"lastUpdateEpoch"`
	LastRewardedEpoch uint64 `json:"lastRewardedEpoch"`
	PendingReward     string `json:"pendingReward"`
}

// VotingPosition is the JSON shape of a voting position.
type VotingPosition struct {
	ID                uint64 `json:"id"`
	Owner             string `json:"owner"`
	StakingPositionID uint64 `json:"stakingPositionId"`
	DaiInvested       string `json:"daiInvested"`
	ZooInvested       string `json:"zooInvested"`
	YTokensNumber     string `json:"yTokensNumber"`
	DaiVotes          string `json:"daiVotes"`
	Votes             string `json:"votes"`
	StartEpoch        uint64 `json:"startEpoch"`
	EndEpoch          uint64 `json:"endEpoch"`
	LastRewardedEpoch uint64 `json:"lastRewardedEpoch"`
	PendingShares     string `json:"pendingShares"`
	PendingZoo        string `json:"pendingZoo"`
}

// Pair is the JSON shape of a battle pair.
type Pair struct {
	Index   uint64 `json:"index"`
	Token1  uint64 `json:"token1"`
	Token2  uint64 `json:"token2"`
	Played  bool   `json:"played"`
	Win     bool   `json:"win"`
	IsArena bool   `json:"isArena"`
}

// EpochPairs wraps the pair list of one epoch.
type EpochPairs struct {
	Epoch       uint64 `json:"epoch"`
	PlayedVotes string `json:"playedVotes"`
	Pairs       []Pair `json:"pairs"`
}

func (api *ArenaAPI) handleGetStatus(w http.ResponseWriter, _ *http.Request) error {
	epoch, err := api.arena.CurrentEpoch()
	if err != nil {
		return err
	}
	stage, err := api.arena.CurrentStage()
	if err != nil {
		return err
	}
	start, err := api.arena.EpochStart(epoch)
	if err != nil {
		return err
	}
	inGame, nonZero, total, err := api.arena.ActiveCounts()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Status{
		Epoch:      epoch,
		Stage:      uint64(stage),
		StageName:  stage.String(),
		EpochStart: start.Unix(),
		InGame:     inGame,
		Eligible:   nonZero,
		Staked:     total,
	})
}

func (api *ArenaAPI) handleGetStakerPosition(w http.ResponseWriter, req *http.Request) error {
	id, err := parseUint(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	pos, err := api.arena.GetStakerPosition(id)
	if err != nil {
		return notFoundOnRevert(err)
	}
	// the nft is burned on unstake, closed positions have no owner
	var owner string
	if pos.IsActive() {
		addr, err := api.arena.StakerPositionOwner(id)
		if err != nil {
			return err
		}
		owner = addr.Hex()
	}
	pending, err := api.arena.PendingStakerReward(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &StakerPosition{
		ID:                id,
		Owner:             owner,
		Collection:        pos.Collection.Hex(),
		StartEpoch:        pos.StartEpoch,
		EndEpoch:          pos.EndEpoch,
		LastUpdateEpoch:   pos.LastUpdateEpoch,
		LastRewardedEpoch: pos.LastRewardedEpoch,
		PendingReward:     bigString(pending),
	})
}

func (api *ArenaAPI) handleGetVotingPosition(w http.ResponseWriter, req *http.Request) error {
	id, err := parseUint(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	pos, err := api.arena.GetVotingPosition(id)
	if err != nil {
		return notFoundOnRevert(err)
	}
	owner, err := api.arena.VotingPositionOwner(id)
	if err != nil {
		return err
	}
	shares, zoo, err := api.arena.PendingVoterReward(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &VotingPosition{
		ID:                id,
		Owner:             owner.Hex(),
		StakingPositionID: pos.StakingPositionID,
		DaiInvested:       bigString(pos.DaiInvested),
		ZooInvested:       bigString(pos.ZooInvested),
		YTokensNumber:     bigString(pos.YTokensNumber),
		DaiVotes:          bigString(pos.DaiVotes),
		Votes:             bigString(pos.Votes),
		StartEpoch:        pos.StartEpoch,
		EndEpoch:          pos.EndEpoch,
		LastRewardedEpoch: pos.LastRewardedEpoch,
		PendingShares:     bigString(shares),
		PendingZoo:        bigString(zoo),
	})
}

func (api *ArenaAPI) handleGetEpochPairs(w http.ResponseWriter, req *http.Request) error {
	epoch, err := parseUint(mux.Vars(req)["epoch"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "epoch"))
	}
	count, err := api.arena.PairCount(epoch)
	if err != nil {
		return err
	}
	played, err := api.arena.PlayedVotes(epoch)
	if err != nil {
		return err
	}
	pairs := make([]Pair, 0, count)
	for i := uint64(0); i < count; i++ {
		p, err := api.arena.GetPair(epoch, i)
		if err != nil {
			return err
		}
		pairs = append(pairs, Pair{
			Index:   i,
			Token1:  p.Token1,
			Token2:  p.Token2,
			Played:  p.Played,
			Win:     p.Win,
			IsArena: p.Token2 == 0,
		})
	}
	return utils.WriteJSON(w, &EpochPairs{
		Epoch:       epoch,
		PlayedVotes: bigString(played),
		Pairs:       pairs,
	})
}

func (api *ArenaAPI) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/status").
		Methods(http.MethodGet).
		Name("GET /arena/status").
		HandlerFunc(utils.WrapHandlerFunc(api.handleGetStatus))
	sub.Path("/positions/staker/{id}").
		Methods(http.MethodGet).
		Name("GET /arena/positions/staker/{id}").
		HandlerFunc(utils.WrapHandlerFunc(api.handleGetStakerPosition))
	sub.Path("/positions/voting/{id}").
		Methods(http.MethodGet).
		Name("GET /arena/positions/voting/{id}").
		HandlerFunc(utils.WrapHandlerFunc(api.handleGetVotingPosition))
	sub.Path("/epochs/{epoch}/pairs").
		Methods(http.MethodGet).
		Name("GET /arena/epochs/{epoch}/pairs").
		HandlerFunc(utils.WrapHandlerFunc(api.handleGetEpochPairs))
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// notFoundOnRevert maps state rejections to 404, everything else stays 500.
func notFoundOnRevert(err error) error {
	if reverts.IsRevert(err) {
		return utils.NotFound(err)
	}
	return err
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
