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
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

func TestCloseSession_BillsNominalDurationOnFinalStation(t *testing.T) {
	a := newStation("BS-A", 1, 0, 0)
	b := newStation("BS-B", 1, 1000, 1000)
	tc := newTestCore(a, b)
	sub := newSubscriber("100", 500, 500, 100)
	sub.Tariff.SetCostPerMinute(decimal.NewFromInt(2))

	session := startOn(t, sub, a, 10)
	// handed over to B during the call
	if !b.TryReserve() || a.Release() != nil {
		t.Fatalf("setup handover failed")
	}
	session.BaseStation = b
	session.Handovers = 1

	cdr, err := tc.ledger.CloseSession(session, models.Dropped, testStart.Add(3*time.Second))
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !cdr.Cost.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected cost 20, got %s", cdr.Cost)
	}
	if cdr.BaseStationId != "BS-B" || cdr.Reason != models.Dropped || cdr.Duration != 10 {
		t.Fatalf("unexpected record %+v", cdr)
	}
	if cdr.StartTime != "10:00:00" || cdr.StartUnix != testStart.Unix() {
		t.Fatalf("unexpected start time %s / %d", cdr.StartTime, cdr.StartUnix)
	}
	if b.CurrentCalls() != 0 || a.CurrentCalls() != 0 {
		t.Fatalf("slot not released a=%d b=%d", a.CurrentCalls(), b.CurrentCalls())
	}

	if _, err := tc.ledger.CloseSession(session, models.Completed, testStart.Add(4*time.Second)); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if tc.ledger.Count() != 1 || !tc.ledger.TotalRevenue().Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected one record worth 20, got %d / %s", tc.ledger.Count(), tc.ledger.TotalRevenue())
	}
	if b.CurrentCalls() != 0 {
		t.Fatalf("double close released twice")
	}

	kinds := tc.publisher.kinds()
	if len(kinds) != 1 || kinds[0] != models.EVENT_CALL_RELEASED {
		t.Fatalf("unexpected events %v", kinds)
	}
}

func TestCloseSession_RejectsDuplicateKey(t *testing.T) {
	bs := newStation("BS-01", 2, 0, 0)
	tc := newTestCore(bs)
	sub := newSubscriber("100", 10, 10, 100)

	first := startOn(t, sub, bs, 5)
	second := startOn(t, sub, bs, 7)

	if _, err := tc.ledger.CloseSession(first, models.Completed, testStart); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if _, err := tc.ledger.CloseSession(second, models.Completed, testStart); !errors.Is(err, ErrDuplicateRecord) {
		t.Fatalf("expected ErrDuplicateRecord, got %v", err)
	}
	records := tc.ledger.Records()
	if len(records) != 1 || records[0].Duration != 5 {
		t.Fatalf("first record must be kept, got %+v", records)
	}
}

func TestLedger_ByPhoneAndRevenue(t *testing.T) {
	bs := newStation("BS-01", 10, 0, 0)
	tc := newTestCore(bs)
	ivan := newSubscriber("100", 10, 10, 100)
	maria := newSubscriber("200", 20, 20, 100)

	calls := []struct {
		sub      *models.Subscriber
		duration int
		offset   time.Duration
	}{
		{ivan, 3, 0},
		{maria, 4, time.Second},
		{ivan, 5, 2 * time.Second},
	}
	for _, c := range calls {
		if !bs.TryReserve() {
			t.Fatalf("reservation failed")
		}
		s := models.NewCallSession(c.sub, bs, c.duration, testStart.Add(c.offset))
		if _, err := tc.ledger.CloseSession(s, models.Completed, testStart.Add(time.Minute)); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	got := tc.ledger.ByPhone("100")
	if len(got) != 2 || got[0].Duration != 3 || got[1].Duration != 5 {
		t.Fatalf("unexpected records for 100: %+v", got)
	}
	if len(tc.ledger.ByPhone("999")) != 0 {
		t.Fatalf("unknown phone must have no records")
	}
	if !tc.ledger.TotalRevenue().Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected revenue 12, got %s", tc.ledger.TotalRevenue())
	}
	if bs.CurrentCalls() != 0 {
		t.Fatalf("expected all slots released, got %d", bs.CurrentCalls())
	}
}

func TestOcs_ChargeRefusedLeavesBalance(t *testing.T) {
	ocs := NewOcs("00101")
	sub := newSubscriber("100", 0, 0, 4)

	if ocs.CheckBalance(sub, decimal.NewFromInt(5)) {
		t.Fatalf("balance 4 must not cover 5")
	}
	if err := ocs.Charge(sub, decimal.NewFromInt(5)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if !sub.Balance().Equal(decimal.NewFromInt(4)) || !sub.BonusBalance().IsZero() {
		t.Fatalf("balances changed on a refused charge")
	}

	if err := ocs.Charge(sub, decimal.NewFromInt(4)); err != nil {
		t.Fatalf("charge: %v", err)
	}
	if !sub.Balance().IsZero() || !sub.BonusBalance().Equal(decimal.RequireFromString("0.2")) {
		t.Fatalf("unexpected balances %s / %s", sub.Balance(), sub.BonusBalance())
	}
}

func TestHss_Registration(t *testing.T) {
	hss := NewHss("00101")
	a := newSubscriber("100", 0, 0, 0)
	b := newSubscriber("200", 0, 0, 0)

	if err := hss.AddSubscriber(a); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := hss.AddSubscriber(b); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := hss.AddSubscriber(a); err == nil {
		t.Fatalf("duplicate registration must fail")
	}

	subs := hss.Subscribers()
	if len(subs) != 2 || subs[0] != a || subs[1] != b {
		t.Fatalf("unexpected registration order")
	}
	if hss.RemoveSubscriber("999") {
		t.Fatalf("removing an unknown subscriber must report false")
	}
	if !hss.RemoveSubscriber("100") {
		t.Fatalf("remove failed")
	}
	if _, ok := hss.GetSubscriber("100"); ok {
		t.Fatalf("removed subscriber still found")
	}
	if subs := hss.Subscribers(); len(subs) != 1 || subs[0] != b {
		t.Fatalf("unexpected subscribers after removal")
	}
}
