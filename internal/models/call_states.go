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

type CallState int

const (
	Idle     CallState = iota
	InCall             // session active
	Retrying           // blocked attempt waiting for its backoff to expire
)

type CallOutcome string

const (
	Admitted                   CallOutcome = "ADMITTED"
	BlockedUnknownSubscriber   CallOutcome = "BLOCKED_UNKNOWN_SUBSCRIBER"
	BlockedOutOfCoverage       CallOutcome = "BLOCKED_OUT_OF_COVERAGE"
	BlockedInsufficientBalance CallOutcome = "BLOCKED_INSUFFICIENT_BALANCE"
	BlockedCapacityExhausted   CallOutcome = "BLOCKED_CAPACITY_EXHAUSTED"
)

func (o CallOutcome) IsBlocked() bool {
	return o != Admitted
}
