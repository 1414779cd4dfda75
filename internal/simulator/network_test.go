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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/monitoring"
)

func ptr(v float64) *float64 { return &v }

// handoverProfile has one subscriber placing a 60 tick call from the midpoint of two
// stations while walking towards the one that does not serve it at admission.
func handoverProfile() *NetworkConfig {
	return &NetworkConfig{
		AreaSize:  1000,
		Ticks:     80,
		StartTime: "2025-03-01T10:00:00Z",
		Seed:      1,
		BaseStations: []models.BaseStationConfig{
			{Id: "BS-02", Capacity: 1, X: 0, Y: 0},
			{Id: "BS-01", Capacity: 1, X: 1000, Y: 1000},
		},
		Tariffs: []models.TariffConfig{{Name: "Basic", PricePerMinute: 1}},
		Subscribers: []models.SubscriberConfig{{
			FirstName:      "Ivan",
			Phone:          "1234567890",
			Tariff:         "Basic",
			InitialBalance: 100,
			InitialCall:    60,
			X:              ptr(500),
			Y:              ptr(500),
			Vx:             ptr(-5),
			Vy:             ptr(-5),
		}},
	}
}

func loadProfile(subscribers, stations int) *NetworkConfig {
	cfg := &NetworkConfig{
		AreaSize:  1000,
		Ticks:     400,
		StartTime: "2025-03-01T10:00:00Z",
		Seed:      2024,
		Tariffs:   []models.TariffConfig{{Name: "Basic", PricePerMinute: 1}, {Name: "Premium", PricePerMinute: 0.5}},
	}
	for i := 0; i < stations; i++ {
		cfg.BaseStations = append(cfg.BaseStations, models.BaseStationConfig{
			Id:       "BS-" + string(rune('A'+i)),
			Capacity: 2,
			X:        float64(100 + 200*i),
			Y:        float64(900 - 200*i),
		})
	}
	for i := 0; i < subscribers; i++ {
		tariff := "Basic"
		if i%2 == 1 {
			tariff = "Premium"
		}
		cfg.Subscribers = append(cfg.Subscribers, models.SubscriberConfig{
			FirstName:      "Sub",
			Phone:          "55500" + string(rune('0'+i/10)) + string(rune('0'+i%10)),
			Tariff:         tariff,
			InitialBalance: 60,
			ArrivalRate:    0.05,
			AvgDuration:    10,
		})
	}
	return cfg
}

func TestNetworkInstance_SingleHandoverScenario(t *testing.T) {
	n, err := NewNetworkInstance(0, handoverProfile())
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}

	active := n.State.ActiveSessions()
	if len(active) != 1 || active[0].BaseStation.Id != "BS-01" {
		t.Fatalf("initial call should be served by BS-01, got %v", active)
	}

	if err := n.Run(context.Background(), 80); err != nil {
		t.Fatalf("run: %v", err)
	}

	stats := n.Stats()
	if stats.Handovers != 1 || stats.CompletedCalls != 1 || stats.DroppedCalls != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.TotalAttempts != 1 || stats.GradeOfService() != 0 {
		t.Fatalf("unexpected attempts %+v", stats)
	}

	records := n.Ledger.ByPhone("1234567890")
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].BaseStationId != "BS-02" || records[0].Reason != models.Completed {
		t.Fatalf("unexpected record %+v", records[0])
	}
	if !records[0].Cost.Equal(decimal.NewFromInt(60)) || records[0].StartTime != "10:00:00" {
		t.Fatalf("unexpected billing %+v", records[0])
	}

	sub, _ := n.State.Subscriber("1234567890")
	if !sub.Balance().Equal(decimal.NewFromInt(40)) || !sub.BonusBalance().Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected balances %s / %s", sub.Balance(), sub.BonusBalance())
	}
	for _, info := range n.StationsInfo() {
		if info.CurrentCalls != 0 {
			t.Fatalf("station %s still holds %d calls", info.Id, info.CurrentCalls)
		}
	}

	if got := testutil.ToFloat64(monitoring.Handovers.WithLabelValues(n.SimulationId())); got != 1 {
		t.Fatalf("handover metric %v, want 1", got)
	}
	if got := testutil.ToFloat64(monitoring.SimulationTicks.WithLabelValues(n.SimulationId())); got != 80 {
		t.Fatalf("tick metric %v, want 80", got)
	}

	trace, ok := n.Trace("1234567890")
	if !ok || len(trace) != 60 {
		t.Fatalf("expected 60 trace samples, got %d", len(trace))
	}
}

func TestNetworkInstance_CapacityInvariants(t *testing.T) {
	n, err := NewNetworkInstance(0, loadProfile(30, 4))
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}

	ctx := context.Background()
	for tick := 0; tick < 400; tick++ {
		if err := n.Tick(ctx); err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}

		load := 0
		for _, bs := range n.State.Stations() {
			c := bs.CurrentCalls()
			if c < 0 || c > bs.Capacity {
				t.Fatalf("tick %d: station %s holds %d of %d", tick, bs.Id, c, bs.Capacity)
			}
			load += c
		}

		active := n.State.ActiveSessions()
		if load != len(active) {
			t.Fatalf("tick %d: %d reserved slots for %d active sessions", tick, load, len(active))
		}
		seen := make(map[string]bool)
		for _, s := range active {
			if seen[s.Subscriber.Id] {
				t.Fatalf("tick %d: subscriber %s has two active sessions", tick, s.Subscriber.Id)
			}
			seen[s.Subscriber.Id] = true
			if s.Closed() {
				t.Fatalf("tick %d: closed session still active", tick)
			}
		}
	}

	stats := n.Stats()
	if stats.TotalAttempts == 0 {
		t.Fatalf("profile produced no traffic")
	}
	if stats.TotalAttempts != stats.SuccessfulCalls+stats.Blocked() {
		t.Fatalf("attempt accounting broken: %+v", stats)
	}
	terminated := stats.CompletedCalls + stats.DroppedCalls
	if int64(n.Ledger.Count()) != terminated {
		t.Fatalf("%d records for %d terminated calls", n.Ledger.Count(), terminated)
	}
	if stats.SuccessfulCalls != terminated+int64(n.ActiveSessionCount()) {
		t.Fatalf("admitted calls %d != terminated %d + active %d", stats.SuccessfulCalls, terminated, n.ActiveSessionCount())
	}

	revenue := decimal.Zero
	for _, r := range n.Ledger.Records() {
		revenue = revenue.Add(r.Cost)
	}
	if !revenue.Equal(n.Ledger.TotalRevenue()) {
		t.Fatalf("revenue %s does not match records %s", n.Ledger.TotalRevenue(), revenue)
	}
	for _, sub := range n.State.Subscribers() {
		if sub.Balance().IsNegative() {
			t.Fatalf("subscriber %s has a negative balance %s", sub.Id, sub.Balance())
		}
	}
}

func TestNetworkInstance_SeedIsReproducible(t *testing.T) {
	run := func() (models.NetworkStats, decimal.Decimal) {
		n, err := NewNetworkInstance(0, loadProfile(20, 3))
		if err != nil {
			t.Fatalf("new instance: %v", err)
		}
		if err := n.Run(context.Background(), 200); err != nil {
			t.Fatalf("run: %v", err)
		}
		return n.Stats(), n.Ledger.TotalRevenue()
	}

	s1, r1 := run()
	s2, r2 := run()
	if s1 != s2 || !r1.Equal(r2) {
		t.Fatalf("same seed gave different runs:\n%+v %s\n%+v %s", s1, r1, s2, r2)
	}
}

func TestNetworkInstance_RunStopsOnCancel(t *testing.T) {
	n, err := NewNetworkInstance(0, handoverProfile())
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := n.Run(ctx, 10); err == nil {
		t.Fatalf("expected cancellation error")
	}
	if n.CurrentTick() != 0 {
		t.Fatalf("ticks processed after cancellation: %d", n.CurrentTick())
	}
}

func TestNetworkInstance_ResumeKeepsFinalTick(t *testing.T) {
	config := handoverProfile()
	config.TickIntervalMs = 5
	n, err := NewNetworkInstance(0, config)
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}
	defer n.Shutdown()

	if err := n.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := n.Start(); err == nil {
		t.Fatalf("expected an error starting a running simulation")
	}
	deadline := time.Now().Add(5 * time.Second)
	for n.CurrentTick() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("paced run did not advance")
		}
		time.Sleep(time.Millisecond)
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if n.Finished() {
		t.Fatalf("stopped run reported as finished")
	}
	stoppedAt := n.CurrentTick()

	config.TickIntervalMs = 0
	if err := n.Start(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	for !n.Finished() {
		if time.Now().After(deadline) {
			t.Fatalf("resumed run did not finish, tick %d", n.CurrentTick())
		}
		time.Sleep(time.Millisecond)
	}
	if n.CurrentTick() != 80 {
		t.Fatalf("resumed at %d, expected to end at 80, got %d", stoppedAt, n.CurrentTick())
	}
}
