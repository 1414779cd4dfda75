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
	"math"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

// Distance is the euclidean distance between a UE and a base station, in metres.
func Distance(ue *models.UserEquipment, bs *models.BaseStation) float64 {
	return math.Hypot(ue.X-bs.X, ue.Y-bs.Y)
}

// PathLoss returns the attenuation in dB at distance d metres: L = 40 + 30*log10(d).
// Distances below one metre are evaluated at one metre.
func PathLoss(d float64) float64 {
	if d < 1 {
		d = 1
	}
	return 40 + 30*math.Log10(d)
}

// CheckLinkQuality evaluates the link budget between ue and bs in both directions.
// The link is good only when the downlink clears the UE sensitivity and the uplink
// clears the station sensitivity. The returned rsrp is the downlink level in dBm.
func CheckLinkQuality(ue *models.UserEquipment, bs *models.BaseStation) (bool, float64) {
	loss := PathLoss(Distance(ue, bs))

	dlSignal := bs.TxPower - loss
	ulSignal := ue.TxPower - loss

	return dlSignal > ue.RxSensitivity && ulSignal > bs.RxSensitivity, dlSignal
}

// CoverageRadius is the distance at which the downlink of bs falls to rxSensitivity.
func CoverageRadius(bs *models.BaseStation, rxSensitivity float64) float64 {
	return math.Pow(10, (bs.TxPower-40-rxSensitivity)/30)
}

type SignalQuality string

const (
	Excellent SignalQuality = "Excellent"
	Good      SignalQuality = "Good"
	Fair      SignalQuality = "Fair"
	Poor      SignalQuality = "Poor"
)

func ClassifyRsrp(rsrp float64) SignalQuality {
	switch {
	case rsrp > -80:
		return Excellent
	case rsrp > -90:
		return Good
	case rsrp > -100:
		return Fair
	default:
		return Poor
	}
}
