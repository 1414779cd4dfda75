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
	"testing"
	"time"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/components/ran"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

// startOn places an already admitted call of sub on bs
func startOn(t *testing.T, sub *models.Subscriber, bs *models.BaseStation, duration int) *models.CallSession {
	t.Helper()
	if !bs.TryReserve() {
		t.Fatalf("could not reserve %s", bs.Id)
	}
	return models.NewCallSession(sub, bs, duration, testStart)
}

// runSession moves the UE and advances the session until it terminates
func runSession(t *testing.T, tc *testCore, session *models.CallSession, area float64) (models.TerminationReason, int) {
	t.Helper()
	for tick := 1; tick <= 10000; tick++ {
		ran.Move(session.Subscriber.Ue, area)
		if reason, done := tc.handover.Advance(session, testStart.Add(time.Duration(tick)*time.Second)); done {
			return reason, tick
		}
	}
	t.Fatalf("session never terminated")
	return "", 0
}

func TestAdvance_StationaryMidpointStays(t *testing.T) {
	a := newStation("BS-A", 1, 0, 0)
	b := newStation("BS-B", 1, 1000, 1000)
	tc := newTestCore(a, b)
	sub := newSubscriber("100", 500, 500, 100)

	session := startOn(t, sub, b, 5)
	reason, ticks := runSession(t, tc, session, 1000)

	if reason != models.Completed || ticks != 5 {
		t.Fatalf("expected completion after 5 ticks, got %s after %d", reason, ticks)
	}
	if session.Handovers != 0 || session.BaseStation != b || tc.stats.Handovers != 0 {
		t.Fatalf("equal rsrp must not trigger a handover")
	}
	if b.CurrentCalls() != 1 || a.CurrentCalls() != 0 {
		t.Fatalf("unexpected loads a=%d b=%d", a.CurrentCalls(), b.CurrentCalls())
	}
	if n := len(sub.Ue.History()); n != 5 {
		t.Fatalf("expected one history entry per tick, got %d", n)
	}
}

func TestAdvance_SingleHandoverTowardsStrongerCell(t *testing.T) {
	a := newStation("BS-A", 1, 0, 0)
	b := newStation("BS-B", 1, 1000, 1000)
	tc := newTestCore(a, b)
	sub := newSubscriber("100", 500, 500, 100)
	sub.Ue.Vx, sub.Ue.Vy = -5, -5

	session := startOn(t, sub, b, 60)
	reason, ticks := runSession(t, tc, session, 1000)

	if reason != models.Completed || ticks != 60 {
		t.Fatalf("expected completion after 60 ticks, got %s after %d", reason, ticks)
	}
	if session.Handovers != 1 || tc.stats.Handovers != 1 {
		t.Fatalf("expected exactly one handover, got %d (stats %d)", session.Handovers, tc.stats.Handovers)
	}
	if session.BaseStation != a {
		t.Fatalf("expected session on BS-A, got %s", session.BaseStation.Id)
	}
	if a.CurrentCalls() != 1 || b.CurrentCalls() != 0 {
		t.Fatalf("unexpected loads a=%d b=%d", a.CurrentCalls(), b.CurrentCalls())
	}

	handovers := 0
	for _, k := range tc.publisher.kinds() {
		if k == models.EVENT_HANDOVER {
			handovers++
		}
	}
	if handovers != 1 {
		t.Fatalf("expected one handover event, got %d", handovers)
	}

	history := sub.Ue.History()
	if history[0].BaseStationId != "BS-B" || history[len(history)-1].BaseStationId != "BS-A" {
		t.Fatalf("history does not show the serving cell change")
	}
}

func TestAdvance_FullTargetKeepsSource(t *testing.T) {
	a := newStation("BS-A", 1, 0, 0)
	b := newStation("BS-B", 1, 1000, 1000)
	tc := newTestCore(a, b)
	if !a.TryReserve() {
		t.Fatalf("setup reservation failed")
	}
	sub := newSubscriber("100", 500, 500, 100)
	sub.Ue.Vx, sub.Ue.Vy = -5, -5

	session := startOn(t, sub, b, 60)
	reason, _ := runSession(t, tc, session, 1000)

	if reason != models.Completed {
		t.Fatalf("expected completion, got %s", reason)
	}
	if session.Handovers != 0 || session.BaseStation != b {
		t.Fatalf("handover into a full cell")
	}
	if a.CurrentCalls() != 1 || b.CurrentCalls() != 1 {
		t.Fatalf("unexpected loads a=%d b=%d", a.CurrentCalls(), b.CurrentCalls())
	}
}

func TestAdvance_DropsBelowSensitivity(t *testing.T) {
	bs := newStation("BS-01", 1, 0, 0)
	tc := newTestCore(bs)
	sub := newSubscriber("100", 6000, 0, 100)

	session := startOn(t, sub, bs, 30)
	reason, done := tc.handover.Advance(session, testStart.Add(time.Second))
	if !done || reason != models.Dropped {
		t.Fatalf("expected drop, got %s %v", reason, done)
	}
	if session.RemainingTime != 29 {
		t.Fatalf("expected remaining time 29, got %d", session.RemainingTime)
	}
}

func TestEvaluateHandover_HysteresisIsStrict(t *testing.T) {
	serving := newStation("BS-A", 1, 0, 0)
	other := newStation("BS-B", 1, 0, 0)
	mme := NewMme("00101", stationList{serving, other}, 3)

	report := []ran.Measurement{{Station: other, Rsrp: -87}}
	if target := mme.EvaluateHandover(serving, -90, report); target != nil {
		t.Fatalf("a gain equal to the margin must not trigger a handover")
	}
	report[0].Rsrp = -86.9
	if target := mme.EvaluateHandover(serving, -90, report); target != other {
		t.Fatalf("expected handover to BS-B")
	}
	report[0].Station = serving
	if target := mme.EvaluateHandover(serving, -90, report); target != nil {
		t.Fatalf("serving cell can not be a handover target")
	}
	if target := mme.EvaluateHandover(serving, -90, nil); target != nil {
		t.Fatalf("empty report must keep the session")
	}
}
