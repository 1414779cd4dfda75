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

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

// Admission failures. They are expected outcomes of the simulation, never faults.
var (
	ErrUnknownSubscriber   = errors.New("blocked: unknown subscriber")
	ErrOutOfCoverage       = errors.New("blocked: out of coverage")
	ErrInsufficientBalance = errors.New("blocked: insufficient balance")
	ErrCapacityExhausted   = errors.New("blocked: no capacity")
)

var (
	ErrDuplicateRecord = errors.New("duplicate call detail record")
	ErrSessionClosed   = errors.New("session already closed")
)

// OutcomeOf maps the result of an admission attempt to its reporting class.
func OutcomeOf(err error) models.CallOutcome {
	switch {
	case err == nil:
		return models.Admitted
	case errors.Is(err, ErrUnknownSubscriber):
		return models.BlockedUnknownSubscriber
	case errors.Is(err, ErrOutOfCoverage):
		return models.BlockedOutOfCoverage
	case errors.Is(err, ErrInsufficientBalance):
		return models.BlockedInsufficientBalance
	default:
		return models.BlockedCapacityExhausted
	}
}

// EventPublisher receives the session events produced by the core functions.
type EventPublisher interface {
	Publish(msg *models.SessionEventMsg)
}

type noopPublisher struct{}

func (noopPublisher) Publish(*models.SessionEventMsg) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
