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

package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TerminationReason string

const (
	Completed TerminationReason = "COMPLETED"
	Dropped   TerminationReason = "DROPPED"
)

// A CallSession is one call in progress. It is only mutated by the simulation engine.
type CallSession struct {
	Subscriber    *Subscriber
	BaseStation   *BaseStation // serving station, changes on handover
	Duration      int
	RemainingTime int
	StartTime     time.Time
	Handovers     int

	closed bool
}

func NewCallSession(sub *Subscriber, bs *BaseStation, duration int, start time.Time) *CallSession {
	return &CallSession{
		Subscriber:    sub,
		BaseStation:   bs,
		Duration:      duration,
		RemainingTime: duration,
		StartTime:     start,
	}
}

func (s *CallSession) Closed() bool { return s.closed }

// MarkClosed flags the session as terminated. It fails on the second call.
func (s *CallSession) MarkClosed() error {
	if s.closed {
		return fmt.Errorf("session of %s started at %s already closed", s.Subscriber.Id, s.StartTime.Format(time.RFC3339))
	}
	s.closed = true
	return nil
}

// CDRKey identifies a call detail record.
type CDRKey struct {
	SubscriberId  string
	BaseStationId string
	StartUnix     int64
}

func (k CDRKey) String() string {
	return fmt.Sprintf("%s_%s_%d", k.SubscriberId, k.BaseStationId, k.StartUnix)
}

// CDR is the immutable record of one terminated call.
type CDR struct {
	SubscriberId  string            `json:"subscriberId"`
	BaseStationId string            `json:"baseStationId"`
	StartTime     string            `json:"startTime"`
	StartUnix     int64             `json:"startUnix"`
	Duration      int               `json:"duration"`
	Cost          decimal.Decimal   `json:"cost"`
	Reason        TerminationReason `json:"reason"`
}

func (c CDR) Key() CDRKey {
	return CDRKey{SubscriberId: c.SubscriberId, BaseStationId: c.BaseStationId, StartUnix: c.StartUnix}
}
