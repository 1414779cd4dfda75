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
	"sync"

	"go.uber.org/zap"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

// Hss is the subscriber directory used to authenticate call attempts.
type Hss struct {
	HssId       string
	subscribers map[string]*models.Subscriber
	order       []string
	subMutex    sync.RWMutex
	log         *zap.Logger
}

func NewHss(networkId string) *Hss {
	hssId := fmt.Sprintf("HSS-%s", networkId)
	return &Hss{
		HssId:       hssId,
		subscribers: make(map[string]*models.Subscriber),
		order:       make([]string, 0),
		log:         logging.ForNF(hssId),
	}
}

func (hss *Hss) AddSubscriber(sub *models.Subscriber) error {
	hss.subMutex.Lock()
	defer hss.subMutex.Unlock()

	if _, exists := hss.subscribers[sub.Id]; exists {
		return fmt.Errorf("subscriber %s already registered", sub.Id)
	}
	hss.subscribers[sub.Id] = sub
	hss.order = append(hss.order, sub.Id)
	hss.log.Debug("subscriber registered", zap.String("subscriber", sub.Id))
	return nil
}

// RemoveSubscriber revokes the subscription; later attempts are rejected as unknown.
func (hss *Hss) RemoveSubscriber(id string) bool {
	hss.subMutex.Lock()
	defer hss.subMutex.Unlock()

	if _, exists := hss.subscribers[id]; !exists {
		return false
	}
	delete(hss.subscribers, id)
	for i, sid := range hss.order {
		if sid == id {
			hss.order = append(hss.order[:i], hss.order[i+1:]...)
			break
		}
	}
	return true
}

func (hss *Hss) GetSubscriber(id string) (*models.Subscriber, bool) {
	hss.subMutex.RLock()
	defer hss.subMutex.RUnlock()
	sub, ok := hss.subscribers[id]
	return sub, ok
}

// Subscribers lists the registered subscribers in registration order.
func (hss *Hss) Subscribers() []*models.Subscriber {
	hss.subMutex.RLock()
	defer hss.subMutex.RUnlock()

	out := make([]*models.Subscriber, 0, len(hss.order))
	for _, id := range hss.order {
		out = append(out, hss.subscribers[id])
	}
	return out
}
