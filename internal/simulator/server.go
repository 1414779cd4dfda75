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
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

type RevenueResponse struct {
	TotalRevenue string `json:"totalRevenue"`
	RecordCount  int    `json:"recordCount"`
}

type StatsResponse struct {
	models.NetworkStats
	GradeOfService       float64 `json:"gradeOfService"`
	ResourceBlockingRate float64 `json:"resourceBlockingRate"`
	ActiveSessions       int     `json:"activeSessions"`
}

func (app *CellSimulatorApp) handleInitSimulation(w http.ResponseWriter, r *http.Request) {
	config := &NetworkConfig{}

	if app.config.NetConfig != nil {
		// avoid api config to override the file one
		config = app.config.NetConfig
	} else {
		if r.Body == nil {
			http.Error(w, "Missing request body", http.StatusBadRequest)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(config); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	if err := app.InitNewSimulation(config); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	app.writeJSON(w, app.GetCurrentSimulationStatus())
}

func (app *CellSimulatorApp) handleStartSimulation(w http.ResponseWriter, r *http.Request) {
	if err := app.StartSimulation(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	app.writeJSON(w, app.GetCurrentSimulationStatus())
}

func (app *CellSimulatorApp) handleStatusSimulation(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, app.GetCurrentSimulationStatus())
}

func (app *CellSimulatorApp) handleStopSimulation(w http.ResponseWriter, r *http.Request) {
	if err := app.StopSimulation(); err != nil {
		http.Error(w, "could not stop simulation", http.StatusInternalServerError)
		return
	}
	app.writeJSON(w, app.GetCurrentSimulationStatus())
}

// withInstance rejects report requests issued before any configuration
func (app *CellSimulatorApp) withInstance(handler func(http.ResponseWriter, *http.Request, *NetworkInstance)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst := app.instance()
		if inst == nil {
			http.Error(w, "no simulation instance configured", http.StatusConflict)
			return
		}
		handler(w, r, inst)
	}
}

func (app *CellSimulatorApp) handleStats(w http.ResponseWriter, r *http.Request, inst *NetworkInstance) {
	stats := inst.Stats()
	app.writeJSON(w, StatsResponse{
		NetworkStats:         stats,
		GradeOfService:       stats.GradeOfService(),
		ResourceBlockingRate: stats.ResourceBlockingRate(),
		ActiveSessions:       inst.ActiveSessionCount(),
	})
}

func (app *CellSimulatorApp) handleCdrs(w http.ResponseWriter, r *http.Request, inst *NetworkInstance) {
	app.writeJSON(w, inst.Ledger.Records())
}

func (app *CellSimulatorApp) handleCdrsByPhone(w http.ResponseWriter, r *http.Request, inst *NetworkInstance) {
	app.writeJSON(w, inst.Ledger.ByPhone(mux.Vars(r)["phone"]))
}

func (app *CellSimulatorApp) handleRevenue(w http.ResponseWriter, r *http.Request, inst *NetworkInstance) {
	app.writeJSON(w, RevenueResponse{
		TotalRevenue: inst.Ledger.TotalRevenue().StringFixed(2),
		RecordCount:  inst.Ledger.Count(),
	})
}

func (app *CellSimulatorApp) handleStations(w http.ResponseWriter, r *http.Request, inst *NetworkInstance) {
	app.writeJSON(w, inst.StationsInfo())
}

func (app *CellSimulatorApp) handleTrace(w http.ResponseWriter, r *http.Request, inst *NetworkInstance) {
	phone := mux.Vars(r)["phone"]
	trace, ok := inst.Trace(phone)
	if !ok {
		http.Error(w, fmt.Sprintf("subscriber %s not found", phone), http.StatusNotFound)
		return
	}
	app.writeJSON(w, trace)
}

func (app *CellSimulatorApp) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		app.log.Warn("could not encode response", zap.Error(err))
	}
}

const oamApiRoot = "/cell-simulator/v1"

// router registers every route on the root router with its full path, so that a
// method mismatch answers 405 instead of 404.
func (app *CellSimulatorApp) router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc(oamApiRoot+"/configure", app.handleInitSimulation).Methods(http.MethodPost)
	router.HandleFunc(oamApiRoot+"/start", app.handleStartSimulation).Methods(http.MethodPost)
	router.HandleFunc(oamApiRoot+"/status", app.handleStatusSimulation).Methods(http.MethodGet)
	router.HandleFunc(oamApiRoot+"/stop", app.handleStopSimulation).Methods(http.MethodPost)

	router.HandleFunc(oamApiRoot+"/stats", app.withInstance(app.handleStats)).Methods(http.MethodGet)
	router.HandleFunc(oamApiRoot+"/cdrs", app.withInstance(app.handleCdrs)).Methods(http.MethodGet)
	router.HandleFunc(oamApiRoot+"/cdrs/{phone}", app.withInstance(app.handleCdrsByPhone)).Methods(http.MethodGet)
	router.HandleFunc(oamApiRoot+"/revenue", app.withInstance(app.handleRevenue)).Methods(http.MethodGet)
	router.HandleFunc(oamApiRoot+"/stations", app.withInstance(app.handleStations)).Methods(http.MethodGet)
	router.HandleFunc(oamApiRoot+"/subscribers/{phone}/trace", app.withInstance(app.handleTrace)).Methods(http.MethodGet)

	return router
}

func (app *CellSimulatorApp) startHttpServer() {
	app.wg.Add(1)

	app.server = &http.Server{Addr: fmt.Sprintf(":%d", app.config.OamPort), Handler: app.router()}

	go func() {
		defer func() {
			_ = recover()
			app.wg.Done()
		}()

		app.log.Info("serving simulation api", zap.Uint16("port", app.config.OamPort))
		// always returns error. ErrServerClosed on graceful close
		if err := app.server.ListenAndServe(); err != http.ErrServerClosed {
			app.log.Fatal("ListenAndServe()", zap.Error(err))
		}
	}()
}

func (app *CellSimulatorApp) stopHttpServer() {
	if app.server != nil {
		if err := app.server.Close(); err != nil {
			app.log.Warn("could not stop oam server", zap.Error(err))
		}
	}
}
