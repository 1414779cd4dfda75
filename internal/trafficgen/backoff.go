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
	"fmt"
	"math/rand/v2"
)

const (
	DefaultBackoffMin = 5
	DefaultBackoffMax = 15
)

// Backoff draws retry delays uniformly in [Min, Max] ticks
type Backoff struct {
	Min int
	Max int
	rng *rand.Rand
}

func NewBackoff(minTicks, maxTicks int, rng *rand.Rand) (*Backoff, error) {
	if minTicks < 1 || maxTicks < minTicks {
		return nil, fmt.Errorf("invalid backoff range [%d, %d]", minTicks, maxTicks)
	}
	return &Backoff{Min: minTicks, Max: maxTicks, rng: rng}, nil
}

func (b *Backoff) Next() int {
	return b.Min + b.rng.IntN(b.Max-b.Min+1)
}
