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

package cmd

import (
	"github.com/spf13/cobra"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/simulator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulation OAM api, event exposure and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return simulator.NewCellSimulatorApp(cfg).Run()
	},
}
