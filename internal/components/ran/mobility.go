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

package ran

import (
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

// Move advances the UE by its velocity inside the square [0, area]x[0, area].
// A UE crossing a border is mirrored back inside and the matching velocity
// component changes sign.
func Move(ue *models.UserEquipment, area float64) {
	ue.X, ue.Vx = reflect(ue.X+ue.Vx, ue.Vx, area)
	ue.Y, ue.Vy = reflect(ue.Y+ue.Vy, ue.Vy, area)
}

func reflect(pos, vel, area float64) (float64, float64) {
	if area <= 0 {
		return pos, vel
	}
	// a step longer than the area bounces more than once
	for pos < 0 || pos > area {
		if pos < 0 {
			pos = -pos
		} else {
			pos = 2*area - pos
		}
		vel = -vel
	}
	return pos, vel
}
