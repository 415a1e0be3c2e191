// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	epochsFlag = cli.IntFlag{
		Name:  "epochs",
		Value: 3,
		Usage: "number of epochs to play",
	}
	stakersFlag = cli.IntFlag{
		Name:  "stakers",
		Value: 4,
		Usage: "number of nft positions to stake",
	}
	votersFlag = cli.IntFlag{
		Name:  "voters",
		Value: 3,
		Usage: "number of voters placing dai votes",
	}
	seedFlag = cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "seed for vote amounts and staker selection",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-9)",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory for the state db (default: in-memory)",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Usage: "serve the read-only API at this address after the run",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "*",
		Usage: "comma separated list of domains for API CORS",
	}
)
