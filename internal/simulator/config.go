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
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/components/core"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/trafficgen"
)

type AppConfig struct {
	SbiPort       uint16         `yaml:"sbiPort"`
	OamPort       uint16         `yaml:"oamPort"`
	MetricsPort   uint16         `yaml:"metricsPort"`
	InitOnStartup bool           `yaml:"initOnStartup"`
	Logging       logging.Config `yaml:"logging"`
	/* Custom configuration parameters */
	NetConfig *NetworkConfig `yaml:"simulationProfile"`
}

type NetworkConfig struct {
	NetworkId      string   `yaml:"networkId" json:"networkId"`
	AreaSize       float64  `yaml:"areaSize" json:"areaSize"`
	Ticks          int      `yaml:"ticks" json:"ticks"`                   // 0 runs until stopped
	TickSeconds    int      `yaml:"tickSeconds" json:"tickSeconds"`       // simulated time per tick
	TickIntervalMs int      `yaml:"tickIntervalMs" json:"tickIntervalMs"` // wall clock pacing, 0 runs flat out
	StartTime      string   `yaml:"startTime,omitempty" json:"startTime,omitempty"`
	Seed           uint64   `yaml:"seed" json:"seed"`
	HysteresisDb   *float64 `yaml:"hysteresisDb,omitempty" json:"hysteresisDb,omitempty"`
	BackoffMin     int      `yaml:"backoffMin" json:"backoffMin"`
	BackoffMax     int      `yaml:"backoffMax" json:"backoffMax"`

	BaseStations []models.BaseStationConfig `yaml:"baseStations" json:"baseStations"`
	Tariffs      []models.TariffConfig      `yaml:"tariffs" json:"tariffs"`
	Subscribers  []models.SubscriberConfig  `yaml:"subscribers" json:"subscribers"`
}

const (
	defaultAreaSize    = 1000.0
	defaultNetworkId   = "00101"
	defaultTickSeconds = 1
	defaultSbiPort     = 8080
	defaultOamPort     = 8081
	defaultMetricsPort = 9090
)

func InitConfig(configPath string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	cfg := AppConfig{
		SbiPort:     defaultSbiPort,
		OamPort:     defaultOamPort,
		MetricsPort: defaultMetricsPort,
		Logging:     logging.DefaultConfig(),
	}
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}

	if cfg.InitOnStartup && cfg.NetConfig == nil {
		return nil, errors.New("when initializing from startup, simulation profile must be defined in config file")
	}
	if cfg.NetConfig != nil {
		cfg.NetConfig.ApplyDefaults()
		if err := cfg.NetConfig.Validate(); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (cfg *AppConfig) Dumps() string {
	d, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Sprintf("<unprintable config: %s>", err.Error())
	}
	return string(d)
}

// ApplyDefaults fills the zero values of the profile.
func (nc *NetworkConfig) ApplyDefaults() {
	if nc.NetworkId == "" {
		nc.NetworkId = defaultNetworkId
	}
	if nc.AreaSize == 0 {
		nc.AreaSize = defaultAreaSize
	}
	if nc.TickSeconds == 0 {
		nc.TickSeconds = defaultTickSeconds
	}
	if nc.HysteresisDb == nil {
		nc.HysteresisDb = models.PtrFloat64(core.DefaultHysteresisMargin)
	}
	if nc.BackoffMin == 0 && nc.BackoffMax == 0 {
		nc.BackoffMin = trafficgen.DefaultBackoffMin
		nc.BackoffMax = trafficgen.DefaultBackoffMax
	}
}

func (nc *NetworkConfig) Validate() error {
	var errs []error

	if nc.AreaSize <= 0 {
		errs = append(errs, fmt.Errorf("areaSize must be positive, got %v", nc.AreaSize))
	}
	if nc.Ticks < 0 {
		errs = append(errs, fmt.Errorf("ticks must not be negative, got %d", nc.Ticks))
	}
	if nc.TickSeconds < 0 || nc.TickIntervalMs < 0 {
		errs = append(errs, errors.New("tickSeconds and tickIntervalMs must not be negative"))
	}
	if nc.BackoffMin < 1 || nc.BackoffMax < nc.BackoffMin {
		errs = append(errs, fmt.Errorf("invalid backoff range [%d, %d]", nc.BackoffMin, nc.BackoffMax))
	}
	if nc.StartTime != "" {
		if _, err := time.Parse(time.RFC3339, nc.StartTime); err != nil {
			errs = append(errs, fmt.Errorf("startTime: %w", err))
		}
	}
	if len(nc.BaseStations) == 0 {
		errs = append(errs, errors.New("at least one base station is required"))
	}

	stationIds := make(map[string]bool)
	for _, bs := range nc.BaseStations {
		if bs.Id == "" {
			errs = append(errs, errors.New("base station without id"))
			continue
		}
		if stationIds[bs.Id] {
			errs = append(errs, fmt.Errorf("duplicate base station %s", bs.Id))
		}
		stationIds[bs.Id] = true
		if bs.Capacity < 0 {
			errs = append(errs, fmt.Errorf("base station %s: negative capacity", bs.Id))
		}
	}

	tariffs := make(map[string]bool)
	for _, t := range nc.Tariffs {
		if t.PricePerMinute < 0 {
			errs = append(errs, fmt.Errorf("tariff %s: negative price", t.Name))
		}
		tariffs[t.Name] = true
	}

	phones := make(map[string]bool)
	for _, s := range nc.Subscribers {
		if s.Phone == "" {
			errs = append(errs, fmt.Errorf("subscriber %s %s without phone", s.FirstName, s.LastName))
			continue
		}
		if phones[s.Phone] {
			errs = append(errs, fmt.Errorf("duplicate subscriber %s", s.Phone))
		}
		phones[s.Phone] = true
		if !tariffs[s.Tariff] {
			errs = append(errs, fmt.Errorf("subscriber %s: unknown tariff %q", s.Phone, s.Tariff))
		}
		if s.ArrivalRate < 0 || s.ArrivalRate > 1 {
			errs = append(errs, fmt.Errorf("subscriber %s: arrivalRate must be within [0, 1]", s.Phone))
		}
		if s.AvgDuration < 0 || s.InitialBalance < 0 || s.InitialCall < 0 {
			errs = append(errs, fmt.Errorf("subscriber %s: negative traffic or balance parameters", s.Phone))
		}
	}

	return errors.Join(errs...)
}

func (nc *NetworkConfig) startTime() time.Time {
	if nc.StartTime == "" {
		return time.Now().UTC().Truncate(time.Second)
	}
	t, _ := time.Parse(time.RFC3339, nc.StartTime)
	return t
}
