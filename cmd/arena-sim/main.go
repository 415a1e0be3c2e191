// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// arena-sim plays scripted battle epochs against an in-memory (or
// persisted) arena, with a fake clock driving the stage windows. It is
// the reference harness for eyeballing reward flows end to end.
package main

import (
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/jonboulle/clockwork"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/zoodao/arena/api"
	"github.com/zoodao/arena/arena"
	"github.com/zoodao/arena/kv"
	"github.com/zoodao/arena/policy"
	"github.com/zoodao/arena/storage"
)

var (
	version   string
	gitCommit string

	logger = log.New("pkg", "sim")
)

func fullVersion() string {
	if version == "" {
		return "dev"
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "arena-sim",
		Usage:     "scripted epoch simulator for the ZooDAO battle arena",
		Copyright: "2025 ZooDAO",
		Flags: []cli.Flag{
			epochsFlag,
			stakersFlag,
			votersFlag,
			seedFlag,
			verbosityFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
		},
		Action: simAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func simAction(ctx *cli.Context) error {
	initLogger(ctx)

	var (
		store *kv.LevelDB
		err   error
	)
	if dir := ctx.String(dataDirFlag.Name); dir != "" {
		store, err = kv.NewLevelDB(dir, 64)
	} else {
		store, err = kv.NewMem()
	}
	if err != nil {
		return err
	}
	defer store.Close()

	clk := clockwork.NewFakeClockAt(time.Now())
	pol := policy.NewBase(policy.DefaultDurations, clk)

	vrfKey, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	fulfiller := policy.NewVRFFulfiller(pol, vrfKey)

	config := arena.DefaultConfig()
	config.ArenaAddress = common.BytesToAddress([]byte("sim-arena"))
	config.VaultAddress = common.BytesToAddress([]byte("sim-vault"))
	config.Treasury = common.BytesToAddress([]byte("sim-treasury"))
	config.Owner = common.BytesToAddress([]byte("sim-owner"))

	a, err := arena.New(storage.NewContext(store), pol, clk, config)
	if err != nil {
		return err
	}
	if err := a.Init(); err != nil {
		return err
	}

	sim := newSimulator(a, clk, config, fulfiller, rand.New(rand.NewSource(ctx.Int64(seedFlag.Name))))
	if err := sim.run(ctx.Int(epochsFlag.Name), ctx.Int(stakersFlag.Name), ctx.Int(votersFlag.Name)); err != nil {
		return err
	}
	if err := a.Commit(); err != nil {
		return err
	}

	if addr := ctx.String(apiAddrFlag.Name); addr != "" {
		return serveAPI(a, addr, ctx.String(apiCorsFlag.Name))
	}
	return nil
}

func initLogger(ctx *cli.Context) {
	lvl := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, lvl, false)
	log.SetDefault(log.NewLogger(handler))
}

func serveAPI(a *arena.Arena, addr, cors string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: api.New(a, api.Options{AllowedOrigins: cors})}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			logger.Error("api server stopped", "err", err)
		}
	}()
	logger.Info("api serving", "addr", listener.Addr())

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("shutting down...")
	return srv.Close()
}
