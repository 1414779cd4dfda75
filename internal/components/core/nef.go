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
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/giuliocarot0/gitc"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

// Nef exposes the session events of a simulation to external subscribers.
// Events reach it through a gitc task and are posted to every callback subscribed
// for their type.
type Nef struct {
	NefId         string
	Subscriptions map[models.SessionEventKind][]string
	SubMutex      sync.RWMutex
	taskName      string
	client        *http.Client
	log           *zap.Logger
}

func NewNef(simId string) *Nef {
	nefId := fmt.Sprintf("NEF-%s", simId)
	return &Nef{
		NefId:         nefId,
		Subscriptions: make(map[models.SessionEventKind][]string),
		SubMutex:      sync.RWMutex{},
		taskName:      nefId,
		client:        &http.Client{Timeout: 5 * time.Second},
		log:           logging.ForNF(nefId),
	}
}

func (nef *Nef) InitNef() error {
	nef.log.Info("started")
	err := gitc.StartTask(nef.taskName, func(msg gitc.Message) {
		switch msg.Type {
		case models.SessionEventType:
			if event, ok := msg.Payload.(*models.SessionEventMsg); ok {
				nef.handleSessionEvent(event)
			}
		}
	}, 1024)
	if err != nil {
		return fmt.Errorf("could not start %s task: %w", nef.NefId, err)
	}
	return nil
}

// StopNef removes the event task; events published afterwards are discarded.
func (nef *Nef) StopNef() error {
	if err := gitc.StopTask(nef.taskName); err != nil {
		return fmt.Errorf("could not stop %s task: %w", nef.NefId, err)
	}
	nef.log.Info("stopped")
	return nil
}

// Publish hands the event over to the NEF task. It never blocks the tick on delivery.
func (nef *Nef) Publish(msg *models.SessionEventMsg) {
	if err := gitc.Send(msg.SimulationId, nef.taskName, models.SessionEventType, msg); err != nil {
		nef.log.Debug("could not send session event", zap.String("event", string(msg.EventType)), zap.Error(err))
	}
}

func (nef *Nef) handleSessionEvent(msg *models.SessionEventMsg) {
	nef.SubMutex.RLock()
	callbacks := append([]string(nil), nef.Subscriptions[msg.EventType]...)
	nef.SubMutex.RUnlock()

	if len(callbacks) == 0 {
		return
	}

	notification := &models.EventNotification{
		NotifId:     uuid.NewString(),
		EventNotifs: []models.SessionEventMsg{*msg},
	}
	callbackBody, err := json.Marshal(notification)
	if err != nil {
		nef.log.Error("error while marshalling notification", zap.Error(err))
		return
	}

	for _, callbackUrl := range callbacks {
		go func(url string, data []byte) {
			resp, err := nef.client.Post(url, "application/json", bytes.NewBuffer(data))
			if err != nil {
				nef.log.Warn("error notifying subscriber", zap.String("url", url), zap.Error(err))
				return
			}
			defer func() {
				_ = resp.Body.Close()
			}()
		}(callbackUrl, callbackBody)
	}
}

// NORTHBOUND Definitions

func (nef *Nef) HandleNewSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	subData := &models.EventSubscription{}
	if err := json.NewDecoder(r.Body).Decode(subData); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if subData.NotifyUri == "" {
		http.Error(w, "could not find notifyUri information", http.StatusBadRequest)
		return
	}
	if len(subData.EventList) == 0 {
		http.Error(w, "could not find event list", http.StatusBadRequest)
		return
	}
	for _, event := range subData.EventList {
		switch event {
		case models.EVENT_CALL_ADMITTED, models.EVENT_CALL_BLOCKED, models.EVENT_HANDOVER, models.EVENT_CALL_RELEASED:
		default:
			http.Error(w, fmt.Sprintf("unsupported event %s", event), http.StatusBadRequest)
			return
		}
	}

	nef.SubMutex.Lock()
	for _, event := range subData.EventList {
		nef.Subscriptions[event] = append(nef.Subscriptions[event], subData.NotifyUri)
	}
	nef.SubMutex.Unlock()

	subData.SubId = uuid.NewString()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/nnef-evts/v1/subscriptions/"+subData.SubId)
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(subData); err != nil {
		nef.log.Warn("could not encode response", zap.Error(err))
	}

	nef.log.Info("created new subscription", zap.String("notifyUri", subData.NotifyUri))
}

func (nef *Nef) RegisterNorthboundAPIs(r *mux.Router) {
	r.HandleFunc("/nnef-evts/v1/subscriptions", nef.HandleNewSubscription)
	nef.log.Info("nnef-evts has been registered")
}
