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
	"time"

	"github.com/giuliocarot0/gitc"
	"github.com/shopspring/decimal"
)

const (
	SessionEventType gitc.MessageType = iota
)

type SessionEventKind string

const (
	EVENT_CALL_ADMITTED SessionEventKind = "CALL_ADMITTED"
	EVENT_CALL_BLOCKED  SessionEventKind = "CALL_BLOCKED"
	EVENT_HANDOVER      SessionEventKind = "HANDOVER"
	EVENT_CALL_RELEASED SessionEventKind = "CALL_RELEASED"
)

// SessionEventMsg is published by the engine towards the exposure function.
type SessionEventMsg struct {
	EventType       SessionEventKind  `json:"eventType"`
	TimeStamp       time.Time         `json:"timeStamp"`
	SimulationId    string            `json:"simulationId"`
	SubscriberId    string            `json:"subscriberId"`
	SourceStationId string            `json:"sourceStationId,omitempty"`
	TargetStationId string            `json:"targetStationId,omitempty"`
	Rsrp            *float64          `json:"rsrp,omitempty"`
	Outcome         CallOutcome       `json:"outcome,omitempty"`
	Reason          TerminationReason `json:"reason,omitempty"`
	Cost            *decimal.Decimal  `json:"cost,omitempty"`
}

// EventNotification is the body posted to subscribed callbacks.
type EventNotification struct {
	NotifId     string            `json:"notifId"`
	EventNotifs []SessionEventMsg `json:"eventNotifs"`
}

// EventSubscription is the body accepted by the exposure subscription api.
type EventSubscription struct {
	EventList []SessionEventKind `json:"eventList"`
	NotifyUri string             `json:"notifyUri"`
	SubId     string             `json:"subId,omitempty"`
}

func PtrFloat64(v float64) *float64 { return &v }

func PtrDecimal(v decimal.Decimal) *decimal.Decimal { return &v }
