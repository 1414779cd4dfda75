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
	"math/rand/v2"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

// PoissonCalls draws call arrivals with the per tick probability of the subscriber
// and exponentially distributed durations around its average duration.
type PoissonCalls struct {
	rng *rand.Rand
}

func NewPoissonCalls(rng *rand.Rand) *PoissonCalls {
	return &PoissonCalls{rng: rng}
}

// NextCall returns nil when no call arrives at this tick
func (p *PoissonCalls) NextCall(sub *models.Subscriber) *CallRequest {
	if p.rng.Float64() >= sub.ArrivalRate {
		return nil
	}
	return &CallRequest{Duration: p.Duration(sub.AvgDuration)}
}

// Duration draws an exponential call length with the given mean, at least one tick
func (p *PoissonCalls) Duration(mean float64) int {
	return max(1, int(p.rng.ExpFloat64()*mean))
}
