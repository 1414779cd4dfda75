// Copyright 2025 EURECOM
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Contributors:
//   Giulio CAROTA
//   Thomas DU
//   Adlen KSENTINI

package monitoring

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
)

var (
	CallAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "call_attempts_total",
			Help: "Call admission attempts by outcome",
		},
		[]string{"simulationId", "outcome"},
	)

	ActiveSessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_call_sessions",
			Help: "Number of calls in progress",
		},
		[]string{"simulationId"},
	)

	Handovers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handovers_total",
			Help: "Executed handovers",
		},
		[]string{"simulationId"},
	)

	SessionsTerminated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "call_sessions_terminated_total",
			Help: "Terminated calls by reason",
		},
		[]string{"simulationId", "reason"},
	)

	Revenue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdr_revenue_total",
			Help: "Sum of the cost of all call detail records",
		},
		[]string{"simulationId"},
	)

	StationLoad = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "base_station_current_calls",
			Help: "Calls served by a base station",
		},
		[]string{"simulationId", "stationId"},
	)

	SimulationTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulation_ticks_total",
			Help: "Ticks processed by the simulation driver",
		},
		[]string{"simulationId"},
	)
)

func init() {
	prometheus.MustRegister(CallAttempts, ActiveSessions, Handovers, SessionsTerminated, Revenue, StationLoad, SimulationTicks)
}

func StartMetricsServer(port uint16) {
	logging.Logger.Info("starting prometheus metrics server", zap.Uint16("port", port))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
		if err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("could not start metrics server", zap.Error(err))
		}
	}()
}
