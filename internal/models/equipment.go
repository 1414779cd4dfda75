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

import (
	"fmt"
	"time"
)

const (
	DefaultUeTxPower       = 23.0
	DefaultUeRxSensitivity = -110.0
)

// HistoryEntry is one observed sample of a UE during an active call.
type HistoryEntry struct {
	Time          time.Time `json:"time"`
	X             float64   `json:"x"`
	Y             float64   `json:"y"`
	Rsrp          float64   `json:"rsrp"`
	BaseStationId string    `json:"baseStationId"`
}

// A UserEquipment is the handset owned by a subscriber.
// Position and velocity are moved by the mobility model; the history is append only
// and kept in time order.
type UserEquipment struct {
	Id            string
	X             float64
	Y             float64
	Vx            float64
	Vy            float64
	TxPower       float64 // dBm
	RxSensitivity float64 // dBm

	history []HistoryEntry
}

func NewUserEquipment(id string, x, y, vx, vy float64) *UserEquipment {
	return &UserEquipment{
		Id:            id,
		X:             x,
		Y:             y,
		Vx:            vx,
		Vy:            vy,
		TxPower:       DefaultUeTxPower,
		RxSensitivity: DefaultUeRxSensitivity,
		history:       make([]HistoryEntry, 0),
	}
}

// LogState appends the current position together with the measured rsrp and the serving cell.
// A timestamp older than the last recorded one is refused.
func (ue *UserEquipment) LogState(timestamp time.Time, rsrp float64, baseStationId string) error {
	if n := len(ue.history); n > 0 && timestamp.Before(ue.history[n-1].Time) {
		return fmt.Errorf("ue %s: history entry at %s precedes last entry at %s",
			ue.Id, timestamp.Format(time.RFC3339), ue.history[n-1].Time.Format(time.RFC3339))
	}
	ue.history = append(ue.history, HistoryEntry{
		Time:          timestamp,
		X:             ue.X,
		Y:             ue.Y,
		Rsrp:          rsrp,
		BaseStationId: baseStationId,
	})
	return nil
}

// History returns a copy of the recorded samples.
func (ue *UserEquipment) History() []HistoryEntry {
	out := make([]HistoryEntry, len(ue.history))
	copy(out, ue.history)
	return out
}

func (ue *UserEquipment) Position() (float64, float64) {
	return ue.X, ue.Y
}
