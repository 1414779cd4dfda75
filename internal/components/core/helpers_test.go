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
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

type stationList []*models.BaseStation

func (s stationList) Stations() []*models.BaseStation { return s }

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.SessionEventMsg
}

func (p *recordingPublisher) Publish(msg *models.SessionEventMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *msg)
}

func (p *recordingPublisher) kinds() []models.SessionEventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.SessionEventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

var testStart = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newStation(id string, capacity int, x, y float64) *models.BaseStation {
	return models.NewBaseStation(models.BaseStationConfig{Id: id, Capacity: capacity, X: x, Y: y})
}

func newSubscriber(phone string, x, y float64, balance int64) *models.Subscriber {
	ue := models.NewUserEquipment("UE-"+phone, x, y, 0, 0)
	sub := models.NewSubscriber("Test", phone, phone, "", ue, models.NewTariff("Basic", decimal.NewFromInt(1)), 0, 0)
	if _, err := sub.TopUp(decimal.NewFromInt(balance)); err != nil {
		panic(err)
	}
	sub.Subscribe()
	return sub
}

type testCore struct {
	hss       *Hss
	ocs       *Ocs
	mme       *Mme
	stats     *models.NetworkStats
	publisher *recordingPublisher
	admission *AdmissionController
	handover  *HandoverEngine
	ledger    *Ledger
}

func newTestCore(stations ...*models.BaseStation) *testCore {
	tc := &testCore{
		hss:       NewHss("00101"),
		ocs:       NewOcs("00101"),
		mme:       NewMme("00101", stationList(stations), DefaultHysteresisMargin),
		stats:     &models.NetworkStats{},
		publisher: &recordingPublisher{},
	}
	tc.admission = NewAdmissionController("test", tc.hss, tc.ocs, tc.mme, tc.stats, tc.publisher)
	tc.handover = NewHandoverEngine("test", tc.mme, tc.stats, tc.publisher)
	tc.ledger = NewLedger("test", tc.publisher)
	return tc
}

func (tc *testCore) register(subs ...*models.Subscriber) {
	for _, sub := range subs {
		if err := tc.hss.AddSubscriber(sub); err != nil {
			panic(err)
		}
	}
}
