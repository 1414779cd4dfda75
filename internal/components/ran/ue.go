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
	"sort"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

// Measurement is one line of a UE measurement report.
type Measurement struct {
	Station  *models.BaseStation
	Rsrp     float64
	GoodLink bool
}

// MeasurementReport scans every station and keeps the ones whose downlink is
// above the UE sensitivity, strongest first.
func MeasurementReport(ue *models.UserEquipment, stations []*models.BaseStation) []Measurement {
	report := make([]Measurement, 0, len(stations))
	for _, bs := range stations {
		good, rsrp := CheckLinkQuality(ue, bs)
		if rsrp > ue.RxSensitivity {
			report = append(report, Measurement{Station: bs, Rsrp: rsrp, GoodLink: good})
		}
	}
	SortByRsrp(report)
	return report
}

// SortByRsrp orders measurements by descending rsrp, equal levels by ascending station id.
func SortByRsrp(m []Measurement) {
	sort.SliceStable(m, func(i, j int) bool {
		if m[i].Rsrp != m[j].Rsrp {
			return m[i].Rsrp > m[j].Rsrp
		}
		return m[i].Station.Id < m[j].Station.Id
	})
}
