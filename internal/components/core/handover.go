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
	"time"

	"go.uber.org/zap"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/components/ran"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/monitoring"
)

// HandoverEngine advances active sessions by one tick.
type HandoverEngine struct {
	mme       *Mme
	stats     *models.NetworkStats
	publisher EventPublisher
	simId     string
	log       *zap.Logger
}

func NewHandoverEngine(simId string, mme *Mme, stats *models.NetworkStats, publisher EventPublisher) *HandoverEngine {
	return &HandoverEngine{
		mme:       mme,
		stats:     stats,
		publisher: publisherOrNoop(publisher),
		simId:     simId,
		log:       logging.ForNF(mme.MmeId).With(zap.String("simulationId", simId)),
	}
}

// Advance runs one tick of session: countdown, measurement, hysteresis handover and
// the termination check. It reports whether the session ended and why. An ended session
// still holds its slot on session.BaseStation; releasing it is the ledger's job.
func (ho *HandoverEngine) Advance(session *models.CallSession, now time.Time) (models.TerminationReason, bool) {
	session.RemainingTime--

	sub := session.Subscriber
	ue := sub.Ue
	source := session.BaseStation

	report := ho.mme.MeasurementReport(ue)
	_, currentRsrp := ran.CheckLinkQuality(ue, source)

	if target := ho.mme.EvaluateHandover(source, currentRsrp, report); target != nil {
		if target.TryReserve() {
			if err := source.Release(); err != nil {
				ho.log.Error("source station release failed", zap.String("station", source.Id), zap.Error(err))
			}
			session.BaseStation = target
			session.Handovers++
			ho.stats.Handovers++
			_, currentRsrp = ran.CheckLinkQuality(ue, target)

			ho.log.Info("handover",
				zap.String("subscriber", sub.Id),
				zap.String("source", source.Id),
				zap.String("target", target.Id),
				zap.Float64("rsrp", currentRsrp))
			monitoring.Handovers.WithLabelValues(ho.simId).Inc()
			monitoring.StationLoad.WithLabelValues(ho.simId, source.Id).Set(float64(source.CurrentCalls()))
			monitoring.StationLoad.WithLabelValues(ho.simId, target.Id).Set(float64(target.CurrentCalls()))
			ho.publisher.Publish(&models.SessionEventMsg{
				EventType:       models.EVENT_HANDOVER,
				TimeStamp:       now,
				SimulationId:    ho.simId,
				SubscriberId:    sub.Id,
				SourceStationId: source.Id,
				TargetStationId: target.Id,
				Rsrp:            models.PtrFloat64(currentRsrp),
			})
		} else {
			ho.log.Debug("handover target full, staying on source",
				zap.String("subscriber", sub.Id),
				zap.String("source", source.Id),
				zap.String("target", target.Id))
		}
	}

	if err := ue.LogState(now, currentRsrp, session.BaseStation.Id); err != nil {
		ho.log.Warn("ue history not updated", zap.Error(err))
	}

	if currentRsrp <= ue.RxSensitivity {
		ho.log.Info("call dropped",
			zap.String("subscriber", sub.Id),
			zap.Float64("x", ue.X),
			zap.Float64("y", ue.Y),
			zap.Float64("rsrp", currentRsrp))
		return models.Dropped, true
	}
	if session.RemainingTime <= 0 {
		return models.Completed, true
	}
	return "", false
}
