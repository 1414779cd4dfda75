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

// CallRequest is a call a subscriber wants to place
type CallRequest struct {
	Duration int // ticks
}

// CallGenerator decides, once per tick, whether a subscriber places a new call
type CallGenerator interface {
	NextCall(sub *models.Subscriber) *CallRequest
}

// NewRand returns the seeded source shared by the generators of one simulation run
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
