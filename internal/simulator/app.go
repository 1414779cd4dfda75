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
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/monitoring"
)

/* Simulation Controller code */

type SimulationStatus string

const (
	CONFIGURED SimulationStatus = "CONFIGURED"
	STARTED    SimulationStatus = "STARTED"
	FINISHED   SimulationStatus = "FINISHED"
	STOPPED    SimulationStatus = "STOPPED"
	ERROR      SimulationStatus = "ERROR"
)

type SimulationStatusResponse struct {
	Status       SimulationStatus `json:"status"`
	SimulationId string           `json:"simulationId,omitempty"`
	Tick         int              `json:"tick"`
}

type CellSimulatorApp struct {
	currentInstance *NetworkInstance
	status          SimulationStatus
	instanceMutex   sync.RWMutex
	server          *http.Server
	wg              sync.WaitGroup
	ctx             context.Context
	config          *AppConfig
	log             *zap.Logger
}

func NewCellSimulatorApp(config *AppConfig) *CellSimulatorApp {
	return &CellSimulatorApp{
		currentInstance: nil,
		status:          STOPPED,
		instanceMutex:   sync.RWMutex{},
		wg:              sync.WaitGroup{},
		config:          config,
		log:             logging.Logger.Named("app"),
	}
}

func (app *CellSimulatorApp) InitNewSimulation(config *NetworkConfig) error {
	if config == nil {
		return errors.New("no configuration provided, could not initialize")
	}

	app.instanceMutex.Lock()
	defer app.instanceMutex.Unlock()

	if app.currentInstance != nil && app.status == STARTED {
		return errors.New("could not initialize the simulation instance, please stop the current instance")
	}
	if app.currentInstance != nil {
		app.currentInstance.Shutdown()
		app.currentInstance = nil
	}

	instance, err := NewNetworkInstance(app.config.SbiPort, config)
	if err != nil {
		return err
	}
	if err := instance.InitNetworkInstance(); err != nil {
		return err
	}

	app.currentInstance = instance
	app.status = CONFIGURED
	return nil
}

func (app *CellSimulatorApp) StartSimulation() error {
	app.instanceMutex.Lock()
	defer app.instanceMutex.Unlock()

	if app.currentInstance == nil {
		return errors.New("please configure the simulation via /configure")
	}
	if app.status == STARTED && !app.currentInstance.Finished() {
		return errors.New("simulation already started")
	}

	if err := app.currentInstance.Start(); err != nil {
		app.status = ERROR
		return err
	}

	app.status = STARTED
	return nil
}

func (app *CellSimulatorApp) GetCurrentSimulationStatus() SimulationStatusResponse {
	app.instanceMutex.RLock()
	defer app.instanceMutex.RUnlock()

	resp := SimulationStatusResponse{Status: app.status}
	if app.currentInstance != nil {
		resp.SimulationId = app.currentInstance.SimulationId()
		resp.Tick = app.currentInstance.CurrentTick()
		if app.status == STARTED && app.currentInstance.Finished() {
			resp.Status = FINISHED
		}
	}
	return resp
}

func (app *CellSimulatorApp) StopSimulation() error {
	app.instanceMutex.Lock()
	defer app.instanceMutex.Unlock()

	if app.status == STOPPED || app.currentInstance == nil {
		return errors.New("no running instance")
	}

	if err := app.currentInstance.Stop(); err != nil {
		return err
	}

	// the instance is kept so that its reports stay readable and it can be resumed
	app.status = STOPPED
	return nil
}

func (app *CellSimulatorApp) instance() *NetworkInstance {
	app.instanceMutex.RLock()
	defer app.instanceMutex.RUnlock()
	return app.currentInstance
}

func (app *CellSimulatorApp) Run() error {
	var cancel context.CancelFunc
	app.ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	app.wg.Add(1)
	go app.listenShutdownEvent()
	app.log.Info("running config", zap.String("config", app.config.Dumps()))

	if app.config.InitOnStartup {
		app.log.Info("bootstraping simulation instance")
		if err := app.InitNewSimulation(app.config.NetConfig); err != nil {
			return err
		}
	}

	app.startHttpServer()
	monitoring.StartMetricsServer(app.config.MetricsPort)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	app.log.Info("terminating...")

	cancel()
	app.wg.Wait()

	if inst := app.instance(); inst != nil {
		inst.Shutdown()
	}
	return nil
}

func (app *CellSimulatorApp) listenShutdownEvent() {
	defer func() {
		_ = recover()
		app.wg.Done()
	}()

	<-app.ctx.Done()
	app.stopHttpServer()
}
