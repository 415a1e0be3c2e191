// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package arena

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Name:      "operations_total",
		Help:      "Arena operations by name and result.",
	}, []string{"op", "result"})

	metricEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "arena",
		Name:      "current_epoch",
		Help:      "Current battle epoch.",
	})

	metricActivePositions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "arena",
		Name:      "active_staker_positions",
		Help:      "Staked positions currently in the active index.",
	})

	metricPairs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "arena",
		Name:      "pairs_total",
		Help:      "Battle pairs formed.",
	})
)
