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
	"sync"
)

const (
	DefaultStationTxPower       = 43.0
	DefaultStationRxSensitivity = -120.0
)

// A BaseStation is a radio cell of the simulated access network.
// Its session counter is only moved through TryReserve and Release, which keeps
// 0 <= CurrentCalls() <= Capacity under concurrent callers.
type BaseStation struct {
	Id            string
	Capacity      int
	TxPower       float64 // dBm
	RxSensitivity float64 // dBm
	X             float64
	Y             float64

	// reserved for interference modelling, carried but not evaluated
	Frequency   float64
	Bandwidth   float64
	AntennaType string
	Neighbors   []string

	currentCalls int
	callsMutex   sync.Mutex
}

type BaseStationConfig struct {
	Id            string   `yaml:"id" json:"id"`
	Capacity      int      `yaml:"capacity" json:"capacity"`
	X             float64  `yaml:"x" json:"x"`
	Y             float64  `yaml:"y" json:"y"`
	TxPower       *float64 `yaml:"txPower,omitempty" json:"txPower,omitempty"`
	RxSensitivity *float64 `yaml:"rxSensitivity,omitempty" json:"rxSensitivity,omitempty"`
	Frequency     float64  `yaml:"frequency,omitempty" json:"frequency,omitempty"`
	Bandwidth     float64  `yaml:"bandwidth,omitempty" json:"bandwidth,omitempty"`
	AntennaType   string   `yaml:"antennaType,omitempty" json:"antennaType,omitempty"`
	Neighbors     []string `yaml:"neighbors,omitempty" json:"neighbors,omitempty"`
}

// NewBaseStation creates a station with no active calls.
// Power levels not present in the configuration fall back to the defaults.
func NewBaseStation(cfg BaseStationConfig) *BaseStation {
	bs := &BaseStation{
		Id:            cfg.Id,
		Capacity:      cfg.Capacity,
		TxPower:       DefaultStationTxPower,
		RxSensitivity: DefaultStationRxSensitivity,
		X:             cfg.X,
		Y:             cfg.Y,
		Frequency:     cfg.Frequency,
		Bandwidth:     cfg.Bandwidth,
		AntennaType:   cfg.AntennaType,
		Neighbors:     append([]string(nil), cfg.Neighbors...),
	}
	if cfg.TxPower != nil {
		bs.TxPower = *cfg.TxPower
	}
	if cfg.RxSensitivity != nil {
		bs.RxSensitivity = *cfg.RxSensitivity
	}
	return bs
}

func (bs *BaseStation) CurrentCalls() int {
	bs.callsMutex.Lock()
	defer bs.callsMutex.Unlock()
	return bs.currentCalls
}

func (bs *BaseStation) HasCapacity() bool {
	bs.callsMutex.Lock()
	defer bs.callsMutex.Unlock()
	return bs.currentCalls < bs.Capacity
}

// TryReserve takes one session slot on the station.
// It returns false, leaving the counter untouched, when the station is full.
func (bs *BaseStation) TryReserve() bool {
	bs.callsMutex.Lock()
	defer bs.callsMutex.Unlock()

	if bs.currentCalls >= bs.Capacity {
		return false
	}
	bs.currentCalls++
	return true
}

// Release gives back one session slot.
func (bs *BaseStation) Release() error {
	bs.callsMutex.Lock()
	defer bs.callsMutex.Unlock()

	if bs.currentCalls <= 0 {
		return fmt.Errorf("base station %s has no active calls to release", bs.Id)
	}
	bs.currentCalls--
	return nil
}

// StationInfo is a read-only snapshot of a station used by the OAM api.
type StationInfo struct {
	Id           string  `json:"id"`
	Capacity     int     `json:"capacity"`
	CurrentCalls int     `json:"currentCalls"`
	TxPower      float64 `json:"txPower"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

func (bs *BaseStation) Info() StationInfo {
	return StationInfo{
		Id:           bs.Id,
		Capacity:     bs.Capacity,
		CurrentCalls: bs.CurrentCalls(),
		TxPower:      bs.TxPower,
		X:            bs.X,
		Y:            bs.Y,
	}
}
