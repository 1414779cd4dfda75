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
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/monitoring"
)

const CDRTimeFormat = "15:04:05"

// Ledger stores the call detail records of terminated sessions in insertion order.
type Ledger struct {
	records     []models.CDR
	index       map[models.CDRKey]int
	ledgerMutex sync.RWMutex
	publisher   EventPublisher
	simId       string
	log         *zap.Logger
}

func NewLedger(simId string, publisher EventPublisher) *Ledger {
	return &Ledger{
		records:   make([]models.CDR, 0),
		index:     make(map[models.CDRKey]int),
		publisher: publisherOrNoop(publisher),
		simId:     simId,
		log:       logging.ForNF("CDR").With(zap.String("simulationId", simId)),
	}
}

// CloseSession records the CDR of a terminated session and frees its slot on the
// final serving station. The call is billed on its nominal duration whatever the
// reason. A session is closed at most once.
func (l *Ledger) CloseSession(session *models.CallSession, reason models.TerminationReason, now time.Time) (models.CDR, error) {
	if err := session.MarkClosed(); err != nil {
		return models.CDR{}, fmt.Errorf("%s: %w", err.Error(), ErrSessionClosed)
	}

	bs := session.BaseStation
	if err := bs.Release(); err != nil {
		l.log.Error("could not release station slot", zap.String("station", bs.Id), zap.Error(err))
	}
	monitoring.StationLoad.WithLabelValues(l.simId, bs.Id).Set(float64(bs.CurrentCalls()))

	cdr := models.CDR{
		SubscriberId:  session.Subscriber.Id,
		BaseStationId: bs.Id,
		StartTime:     session.StartTime.Format(CDRTimeFormat),
		StartUnix:     session.StartTime.Unix(),
		Duration:      session.Duration,
		Cost:          session.Subscriber.Tariff.CostOf(session.Duration),
		Reason:        reason,
	}

	l.ledgerMutex.Lock()
	if _, exists := l.index[cdr.Key()]; exists {
		l.ledgerMutex.Unlock()
		return cdr, fmt.Errorf("record %s: %w", cdr.Key(), ErrDuplicateRecord)
	}
	l.index[cdr.Key()] = len(l.records)
	l.records = append(l.records, cdr)
	l.ledgerMutex.Unlock()

	monitoring.SessionsTerminated.WithLabelValues(l.simId, string(reason)).Inc()
	monitoring.Revenue.WithLabelValues(l.simId).Add(cdr.Cost.InexactFloat64())

	l.log.Info("session closed",
		zap.String("subscriber", cdr.SubscriberId),
		zap.String("station", cdr.BaseStationId),
		zap.Int("duration", cdr.Duration),
		zap.String("cost", cdr.Cost.StringFixed(2)),
		zap.String("reason", string(reason)))
	l.publisher.Publish(&models.SessionEventMsg{
		EventType:       models.EVENT_CALL_RELEASED,
		TimeStamp:       now,
		SimulationId:    l.simId,
		SubscriberId:    cdr.SubscriberId,
		SourceStationId: cdr.BaseStationId,
		Reason:          reason,
		Cost:            models.PtrDecimal(cdr.Cost),
	})
	return cdr, nil
}

// TotalRevenue sums the cost of every record.
func (l *Ledger) TotalRevenue() decimal.Decimal {
	l.ledgerMutex.RLock()
	defer l.ledgerMutex.RUnlock()

	total := decimal.Zero
	for _, r := range l.records {
		total = total.Add(r.Cost)
	}
	return total
}

func (l *Ledger) Count() int {
	l.ledgerMutex.RLock()
	defer l.ledgerMutex.RUnlock()
	return len(l.records)
}

// ByPhone returns the records of one subscriber in insertion order.
func (l *Ledger) ByPhone(phone string) []models.CDR {
	l.ledgerMutex.RLock()
	defer l.ledgerMutex.RUnlock()

	calls := make([]models.CDR, 0)
	for _, r := range l.records {
		if r.SubscriberId == phone {
			calls = append(calls, r)
		}
	}
	return calls
}

func (l *Ledger) Records() []models.CDR {
	l.ledgerMutex.RLock()
	defer l.ledgerMutex.RUnlock()

	out := make([]models.CDR, len(l.records))
	copy(out, l.records)
	return out
}
