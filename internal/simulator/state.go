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

package simulator

import (
	"fmt"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

// NetworkState is the whole mutable model of one simulation run. It is owned by
// the NetworkInstance driving it and handed to the core functions by reference.
type NetworkState struct {
	AreaSize float64

	stationIds  []string
	stations    map[string]*models.BaseStation
	subscribers []*models.Subscriber
	tariffs     map[string]*models.Tariff

	activeSessions []*models.CallSession
	busy           map[string]*models.CallSession

	Stats models.NetworkStats
}

func NewNetworkState(areaSize float64) *NetworkState {
	return &NetworkState{
		AreaSize:       areaSize,
		stationIds:     make([]string, 0),
		stations:       make(map[string]*models.BaseStation),
		subscribers:    make([]*models.Subscriber, 0),
		tariffs:        make(map[string]*models.Tariff),
		activeSessions: make([]*models.CallSession, 0),
		busy:           make(map[string]*models.CallSession),
	}
}

func (s *NetworkState) AddBaseStation(bs *models.BaseStation) error {
	if _, exists := s.stations[bs.Id]; exists {
		return fmt.Errorf("base station %s already exists", bs.Id)
	}
	s.stations[bs.Id] = bs
	s.stationIds = append(s.stationIds, bs.Id)
	return nil
}

// Stations lists the base stations in insertion order.
func (s *NetworkState) Stations() []*models.BaseStation {
	out := make([]*models.BaseStation, 0, len(s.stationIds))
	for _, id := range s.stationIds {
		out = append(out, s.stations[id])
	}
	return out
}

func (s *NetworkState) Station(id string) (*models.BaseStation, bool) {
	bs, ok := s.stations[id]
	return bs, ok
}

func (s *NetworkState) AddTariff(t *models.Tariff) {
	s.tariffs[t.Name] = t
}

func (s *NetworkState) Tariff(name string) (*models.Tariff, bool) {
	t, ok := s.tariffs[name]
	return t, ok
}

func (s *NetworkState) AddSubscriber(sub *models.Subscriber) {
	s.subscribers = append(s.subscribers, sub)
}

func (s *NetworkState) Subscribers() []*models.Subscriber {
	return s.subscribers
}

func (s *NetworkState) Subscriber(phone string) (*models.Subscriber, bool) {
	for _, sub := range s.subscribers {
		if sub.Phone == phone {
			return sub, true
		}
	}
	return nil, false
}

// AddSession registers an admitted session as active.
func (s *NetworkState) AddSession(session *models.CallSession) {
	s.activeSessions = append(s.activeSessions, session)
	s.busy[session.Subscriber.Id] = session
}

func (s *NetworkState) ActiveSessions() []*models.CallSession {
	return s.activeSessions
}

func (s *NetworkState) IsBusy(subscriberId string) bool {
	_, ok := s.busy[subscriberId]
	return ok
}

// setActiveSessions replaces the active set after a tick, freeing terminated subscribers.
func (s *NetworkState) setActiveSessions(active []*models.CallSession) {
	s.activeSessions = active
	s.busy = make(map[string]*models.CallSession, len(active))
	for _, session := range active {
		s.busy[session.Subscriber.Id] = session
	}
}
