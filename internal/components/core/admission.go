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

package core

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/monitoring"
)

// AdmissionController gates call attempts. It authenticates through the HSS,
// ranks cells with the MME policy, reserves capacity and charges through the OCS.
type AdmissionController struct {
	hss       *Hss
	ocs       *Ocs
	mme       *Mme
	stats     *models.NetworkStats
	publisher EventPublisher
	simId     string
	log       *zap.Logger
}

func NewAdmissionController(simId string, hss *Hss, ocs *Ocs, mme *Mme, stats *models.NetworkStats, publisher EventPublisher) *AdmissionController {
	return &AdmissionController{
		hss:       hss,
		ocs:       ocs,
		mme:       mme,
		stats:     stats,
		publisher: publisherOrNoop(publisher),
		simId:     simId,
		log:       logging.ForNF("CAC").With(zap.String("simulationId", simId)),
	}
}

// AttemptCall tries to admit a call of duration ticks for sub at time now.
// On success the session is returned with one slot taken on its serving station and
// the subscriber charged; the caller is responsible for tracking it as active.
// Blocked attempts return one of the Err* admission errors.
func (cac *AdmissionController) AttemptCall(sub *models.Subscriber, duration int, now time.Time) (*models.CallSession, error) {
	session, err := cac.admit(sub, duration, now)

	outcome := OutcomeOf(err)
	cac.stats.Record(outcome)
	monitoring.CallAttempts.WithLabelValues(cac.simId, string(outcome)).Inc()

	if err != nil {
		cac.log.Info("call blocked",
			zap.String("subscriber", sub.Id),
			zap.Int("duration", duration),
			zap.String("outcome", string(outcome)))
		cac.publisher.Publish(&models.SessionEventMsg{
			EventType:    models.EVENT_CALL_BLOCKED,
			TimeStamp:    now,
			SimulationId: cac.simId,
			SubscriberId: sub.Id,
			Outcome:      outcome,
		})
		return nil, err
	}

	cac.log.Info("call admitted",
		zap.String("subscriber", sub.Id),
		zap.String("station", session.BaseStation.Id),
		zap.Int("duration", duration))
	monitoring.StationLoad.WithLabelValues(cac.simId, session.BaseStation.Id).Set(float64(session.BaseStation.CurrentCalls()))
	cac.publisher.Publish(&models.SessionEventMsg{
		EventType:       models.EVENT_CALL_ADMITTED,
		TimeStamp:       now,
		SimulationId:    cac.simId,
		SubscriberId:    sub.Id,
		TargetStationId: session.BaseStation.Id,
		Outcome:         outcome,
	})
	return session, nil
}

func (cac *AdmissionController) admit(sub *models.Subscriber, duration int, now time.Time) (*models.CallSession, error) {
	if registered, ok := cac.hss.GetSubscriber(sub.Id); !ok || registered != sub {
		return nil, fmt.Errorf("subscriber %s: %w", sub.Id, ErrUnknownSubscriber)
	}

	estimatedCost := cac.ocs.EstimateCost(sub, duration)

	candidates := cac.mme.SelectBestBaseStations(sub.Ue)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("subscriber %s at (%.1f, %.1f): %w", sub.Id, sub.Ue.X, sub.Ue.Y, ErrOutOfCoverage)
	}

	// the balance is subscriber wide, so once it fails every later candidate fails
	// too; the walk still continues over the ranked list
	balanceFailure := false
	for _, candidate := range candidates {
		bs := candidate.Station
		if !bs.HasCapacity() {
			continue
		}
		if !cac.ocs.CheckBalance(sub, estimatedCost) {
			balanceFailure = true
			continue
		}
		if !bs.TryReserve() {
			continue
		}
		if err := cac.ocs.Charge(sub, estimatedCost); err != nil {
			if relErr := bs.Release(); relErr != nil {
				cac.log.Error("could not roll back reservation", zap.Error(relErr))
			}
			balanceFailure = true
			continue
		}
		return models.NewCallSession(sub, bs, duration, now), nil
	}

	if balanceFailure {
		return nil, fmt.Errorf("subscriber %s balance %s below %s: %w",
			sub.Id, sub.Balance().StringFixed(2), estimatedCost.StringFixed(2), ErrInsufficientBalance)
	}
	return nil, fmt.Errorf("subscriber %s, %d candidate cells full: %w", sub.Id, len(candidates), ErrCapacityExhausted)
}
