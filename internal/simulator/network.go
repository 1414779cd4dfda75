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

package simulator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/components/core"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/components/ran"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/monitoring"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/trafficgen"
)

/* Network Instance Code*/

// NetworkInstance is the simulation driver. Every tick it moves all UEs, advances
// all active sessions, then runs call arrivals and retries, in that order.
type NetworkInstance struct {
	ctx        context.Context
	State      *NetworkState
	Ledger     *core.Ledger
	stateMutex sync.RWMutex

	Hss       *core.Hss
	Ocs       *core.Ocs
	Mme       *core.Mme
	Nef       *core.Nef
	admission *core.AdmissionController
	handover  *core.HandoverEngine
	scheduler *trafficgen.RetryScheduler

	config       *NetworkConfig
	sbiPort      uint16
	sbiServer    *http.Server
	nefStarted   bool
	simId        string
	startTime    time.Time
	tickDuration time.Duration
	tick         int
	targetTick   int // last tick of the background run, 0 when unbounded or not started

	runCancel context.CancelFunc
	runDone   chan struct{}
	finished  bool

	log *zap.Logger
}

// NewNetworkInstance builds the network model described by config. Subscribers
// without a configured position or velocity get random ones from the seeded source.
func NewNetworkInstance(sbiPort uint16, config *NetworkConfig) (*NetworkInstance, error) {
	if config == nil {
		return nil, errors.New("no network configuration")
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid network configuration: %w", err)
	}

	simId := uuid.NewString()
	n := &NetworkInstance{
		ctx:          context.Background(),
		State:        NewNetworkState(config.AreaSize),
		config:       config,
		sbiPort:      sbiPort,
		simId:        simId,
		startTime:    config.startTime(),
		tickDuration: time.Duration(config.TickSeconds) * time.Second,
		log:          logging.Logger.With(zap.String("simulationId", simId)),
	}

	rng := trafficgen.NewRand(config.Seed)

	for _, bsCfg := range config.BaseStations {
		if err := n.State.AddBaseStation(models.NewBaseStation(bsCfg)); err != nil {
			return nil, err
		}
	}
	for _, tCfg := range config.Tariffs {
		n.State.AddTariff(models.NewTariff(tCfg.Name, decimal.NewFromFloat(tCfg.PricePerMinute)))
	}

	n.Hss = core.NewHss(config.NetworkId)
	n.Ocs = core.NewOcs(config.NetworkId)
	n.Mme = core.NewMme(config.NetworkId, n.State, *config.HysteresisDb)
	n.Nef = core.NewNef(simId)
	n.Ledger = core.NewLedger(simId, n)
	n.admission = core.NewAdmissionController(simId, n.Hss, n.Ocs, n.Mme, &n.State.Stats, n)
	n.handover = core.NewHandoverEngine(simId, n.Mme, &n.State.Stats, n)

	backoff, err := trafficgen.NewBackoff(config.BackoffMin, config.BackoffMax, rng)
	if err != nil {
		return nil, err
	}
	n.scheduler = trafficgen.NewRetryScheduler(trafficgen.NewPoissonCalls(rng), backoff)

	for i, sCfg := range config.Subscribers {
		tariff, _ := n.State.Tariff(sCfg.Tariff)
		ue := models.NewUserEquipment(fmt.Sprintf("UE-%02d", i+1),
			valueOr(sCfg.X, rng.Float64()*config.AreaSize),
			valueOr(sCfg.Y, rng.Float64()*config.AreaSize),
			valueOr(sCfg.Vx, rng.Float64()*2-1),
			valueOr(sCfg.Vy, rng.Float64()*2-1))

		sub := models.NewSubscriber(sCfg.FirstName, sCfg.LastName, sCfg.Phone, sCfg.Email, ue, tariff, sCfg.ArrivalRate, sCfg.AvgDuration)
		if _, err := sub.TopUp(decimal.NewFromFloat(sCfg.InitialBalance)); err != nil {
			return nil, err
		}
		sub.Subscribe()

		n.State.AddSubscriber(sub)
		if err := n.Hss.AddSubscriber(sub); err != nil {
			return nil, err
		}
	}

	// scripted calls placed before the first tick
	for i, sCfg := range config.Subscribers {
		if sCfg.InitialCall <= 0 {
			continue
		}
		sub := n.State.Subscribers()[i]
		if session, err := n.admission.AttemptCall(sub, sCfg.InitialCall, n.Now()); err == nil {
			n.State.AddSession(session)
		}
	}

	return n, nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

// InitNetworkInstance starts the event exposure function and its sbi server.
func (n *NetworkInstance) InitNetworkInstance() error {
	if err := n.Nef.InitNef(); err != nil {
		return err
	}
	n.nefStarted = true

	if n.sbiPort == 0 {
		return nil
	}

	/* enable event exposure service based interface */
	r := mux.NewRouter()
	n.Nef.RegisterNorthboundAPIs(r)

	h2server := &http2.Server{}
	n.sbiServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", n.sbiPort),
		Handler: h2c.NewHandler(r, h2server),
	}

	go func(server *http.Server) {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			n.log.Error("could not start sbi server", zap.Error(err))
		}
	}(n.sbiServer)

	return nil
}

// Publish forwards core events to the NEF once it runs.
func (n *NetworkInstance) Publish(msg *models.SessionEventMsg) {
	if n.nefStarted {
		n.Nef.Publish(msg)
	}
}

func (n *NetworkInstance) SimulationId() string { return n.simId }

// Now is the simulated time of the current tick.
func (n *NetworkInstance) Now() time.Time {
	return n.startTime.Add(time.Duration(n.tick) * n.tickDuration)
}

// Tick advances the simulation by one time unit.
func (n *NetworkInstance) Tick(ctx context.Context) error {
	n.stateMutex.Lock()
	defer n.stateMutex.Unlock()

	n.tick++
	now := n.Now()
	subscribers := n.State.Subscribers()

	// mobility: each UE only touches its own position
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, sub := range subscribers {
		g.Go(func() error {
			ran.Move(sub.Ue, n.State.AreaSize)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// sessions: single writer for every capacity change
	active := n.State.ActiveSessions()
	stillActive := make([]*models.CallSession, 0, len(active))
	for _, session := range active {
		reason, terminated := n.handover.Advance(session, now)
		if !terminated {
			stillActive = append(stillActive, session)
			continue
		}
		if _, err := n.Ledger.CloseSession(session, reason, now); err != nil {
			n.log.Warn("session close", zap.String("subscriber", session.Subscriber.Id), zap.Error(err))
		}
		n.State.Stats.RecordTermination(reason)
	}
	n.State.setActiveSessions(stillActive)

	// arrivals and retries, sessions admitted here are first advanced next tick
	for _, sub := range subscribers {
		session, _ := n.scheduler.Step(sub, n.State.IsBusy(sub.Id), n.admission, now)
		if session != nil {
			n.State.AddSession(session)
		}
	}

	monitoring.SimulationTicks.WithLabelValues(n.simId).Inc()
	monitoring.ActiveSessions.WithLabelValues(n.simId).Set(float64(len(n.State.ActiveSessions())))
	return nil
}

// Run processes ticks until the count is reached or ctx is cancelled.
// Cancellation is only observed between ticks.
func (n *NetworkInstance) Run(ctx context.Context, ticks int) error {
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Start runs the configured number of ticks in the background, paced by tickIntervalMs.
// A stopped run resumes towards the same final tick; a finished run is extended by
// another round of ticks.
func (n *NetworkInstance) Start() error {
	if n.runCancel != nil {
		if !n.Finished() {
			return errors.New("simulation already running")
		}
		n.runCancel()
		<-n.runDone
		n.runCancel = nil
	}

	n.stateMutex.Lock()
	if n.config.Ticks > 0 && (n.finished || n.targetTick == 0) {
		n.targetTick = n.tick + n.config.Ticks
	}
	n.finished = false
	target := n.targetTick
	n.stateMutex.Unlock()

	runCtx, cancel := context.WithCancel(n.ctx)
	n.runCancel = cancel
	n.runDone = make(chan struct{})
	n.log.Info("starting simulation", zap.Int("targetTick", target))

	go func() {
		defer close(n.runDone)
		var err error
		if n.config.TickIntervalMs <= 0 {
			err = n.runUntil(runCtx, target)
		} else {
			err = n.runPaced(runCtx, time.Duration(n.config.TickIntervalMs)*time.Millisecond, target)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			n.log.Error("simulation aborted", zap.Error(err))
			return
		}
		if err == nil {
			n.stateMutex.Lock()
			n.finished = true
			n.stateMutex.Unlock()
			stats := n.Stats()
			n.log.Info("simulation finished", zap.String("stats", stats.Dumps()))
		}
	}()
	return nil
}

// runUntil ticks until the simulation clock reaches target, forever when target is 0.
func (n *NetworkInstance) runUntil(ctx context.Context, target int) error {
	for target <= 0 || n.CurrentTick() < target {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (n *NetworkInstance) runPaced(ctx context.Context, interval time.Duration, target int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for target <= 0 || n.CurrentTick() < target {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := n.Tick(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n *NetworkInstance) Stop() error {
	if n.runCancel == nil {
		return nil
	}
	n.runCancel()
	<-n.runDone
	n.runCancel = nil
	return nil
}

// Shutdown stops the run, the event exposure task and the sbi server.
func (n *NetworkInstance) Shutdown() {
	_ = n.Stop()
	n.stateMutex.Lock()
	if n.nefStarted {
		n.nefStarted = false
		if err := n.Nef.StopNef(); err != nil {
			n.log.Warn("could not stop nef", zap.Error(err))
		}
	}
	n.stateMutex.Unlock()
	if n.sbiServer != nil {
		if err := n.sbiServer.Close(); err != nil {
			n.log.Warn("could not stop sbi server", zap.Error(err))
		}
	}
}

func (n *NetworkInstance) Finished() bool {
	n.stateMutex.RLock()
	defer n.stateMutex.RUnlock()
	return n.finished
}

/* read side, used by the oam api and the cli */

func (n *NetworkInstance) Stats() models.NetworkStats {
	n.stateMutex.RLock()
	defer n.stateMutex.RUnlock()
	return n.State.Stats
}

func (n *NetworkInstance) CurrentTick() int {
	n.stateMutex.RLock()
	defer n.stateMutex.RUnlock()
	return n.tick
}

func (n *NetworkInstance) StationsInfo() []models.StationInfo {
	n.stateMutex.RLock()
	defer n.stateMutex.RUnlock()

	stations := n.State.Stations()
	out := make([]models.StationInfo, 0, len(stations))
	for _, bs := range stations {
		out = append(out, bs.Info())
	}
	return out
}

type TraceEntry struct {
	models.HistoryEntry
	Quality ran.SignalQuality `json:"quality"`
}

// Trace returns the recorded samples of a subscriber UE.
func (n *NetworkInstance) Trace(phone string) ([]TraceEntry, bool) {
	n.stateMutex.RLock()
	defer n.stateMutex.RUnlock()

	sub, ok := n.State.Subscriber(phone)
	if !ok {
		return nil, false
	}
	history := sub.Ue.History()
	out := make([]TraceEntry, 0, len(history))
	for _, h := range history {
		out = append(out, TraceEntry{HistoryEntry: h, Quality: ran.ClassifyRsrp(h.Rsrp)})
	}
	return out, true
}

func (n *NetworkInstance) ActiveSessionCount() int {
	n.stateMutex.RLock()
	defer n.stateMutex.RUnlock()
	return len(n.State.ActiveSessions())
}
