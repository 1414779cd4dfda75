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

package trafficgen

import (
	"time"

	"go.uber.org/zap"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

// Admitter is the admission side seen by the scheduler
type Admitter interface {
	AttemptCall(sub *models.Subscriber, duration int, now time.Time) (*models.CallSession, error)
}

// RetryScheduler drives the call attempts of idle subscribers: new arrivals from
// the call generator and bounded random backoff after a blocked attempt.
type RetryScheduler struct {
	calls   CallGenerator
	backoff *Backoff
	log     *zap.Logger
}

func NewRetryScheduler(calls CallGenerator, backoff *Backoff) *RetryScheduler {
	return &RetryScheduler{
		calls:   calls,
		backoff: backoff,
		log:     logging.Logger.Named("retry"),
	}
}

// Step runs one tick for sub. busy tells whether sub already has an active call.
// A session is returned when an attempt got admitted at this tick, together with the
// state the subscriber is left in.
func (rs *RetryScheduler) Step(sub *models.Subscriber, busy bool, admitter Admitter, now time.Time) (*models.CallSession, models.CallState) {
	if busy {
		return nil, models.InCall
	}

	if sub.RetryTimer > 0 {
		sub.RetryTimer--
		if sub.RetryTimer > 0 {
			return nil, models.Retrying
		}

		rs.log.Debug("retrying blocked call", zap.String("subscriber", sub.Id), zap.Int("duration", sub.PendingDuration))
		session, err := admitter.AttemptCall(sub, sub.PendingDuration, now)
		if err != nil {
			sub.RetryTimer = rs.backoff.Next()
			return nil, models.Retrying
		}
		sub.PendingDuration = 0
		return session, models.InCall
	}

	request := rs.calls.NextCall(sub)
	if request == nil {
		return nil, models.Idle
	}

	session, err := admitter.AttemptCall(sub, request.Duration, now)
	if err != nil {
		sub.PendingDuration = request.Duration
		sub.RetryTimer = rs.backoff.Next()
		rs.log.Debug("call blocked, backing off",
			zap.String("subscriber", sub.Id),
			zap.Int("retryIn", sub.RetryTimer),
			zap.Error(err))
		return nil, models.Retrying
	}
	return session, models.InCall
}
