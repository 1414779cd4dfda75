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
	"fmt"

	"go.uber.org/zap"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/components/ran"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

const DefaultHysteresisMargin = 3.0 // dB

// StationDirectory gives read access to the base station table of the network.
type StationDirectory interface {
	Stations() []*models.BaseStation
}

// Mme holds the station selection policy: initial cell ranking and the handover rule.
type Mme struct {
	MmeId            string
	HysteresisMargin float64
	stations         StationDirectory
	log              *zap.Logger
}

func NewMme(networkId string, stations StationDirectory, hysteresisMargin float64) *Mme {
	mmeId := fmt.Sprintf("MME-%s", networkId)
	return &Mme{
		MmeId:            mmeId,
		HysteresisMargin: hysteresisMargin,
		stations:         stations,
		log:              logging.ForNF(mmeId),
	}
}

// SelectBestBaseStations returns the stations with a good link in both directions,
// strongest rsrp first and equal levels ordered by station id.
func (mme *Mme) SelectBestBaseStations(ue *models.UserEquipment) []ran.Measurement {
	stations := mme.stations.Stations()
	candidates := make([]ran.Measurement, 0, len(stations))
	for _, bs := range stations {
		good, rsrp := ran.CheckLinkQuality(ue, bs)
		if good {
			candidates = append(candidates, ran.Measurement{Station: bs, Rsrp: rsrp, GoodLink: true})
		}
	}
	ran.SortByRsrp(candidates)
	return candidates
}

// MeasurementReport produces the periodic UE scan over the whole station table.
func (mme *Mme) MeasurementReport(ue *models.UserEquipment) []ran.Measurement {
	return ran.MeasurementReport(ue, mme.stations.Stations())
}

// EvaluateHandover applies the hysteresis rule to a measurement report.
// The best reported station is returned as target only when it beats the serving
// rsrp by strictly more than the margin. Nil means stay.
func (mme *Mme) EvaluateHandover(serving *models.BaseStation, currentRsrp float64, report []ran.Measurement) *models.BaseStation {
	if len(report) == 0 {
		return nil
	}

	best := report[0]
	if best.Rsrp > currentRsrp+mme.HysteresisMargin && best.Station.Id != serving.Id {
		return best.Station
	}
	return nil
}
