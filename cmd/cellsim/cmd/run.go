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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/simulator"
)

var (
	runTicks int
	runSeed  int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured simulation profile to completion and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.NetConfig == nil {
			return errors.New("config file has no simulationProfile")
		}
		if runTicks > 0 {
			cfg.NetConfig.Ticks = runTicks
		}
		if runSeed >= 0 {
			cfg.NetConfig.Seed = uint64(runSeed)
		}
		if cfg.NetConfig.Ticks <= 0 {
			return errors.New("run needs a bounded number of ticks")
		}

		instance, err := simulator.NewNetworkInstance(0, cfg.NetConfig)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := instance.Run(ctx, cfg.NetConfig.Ticks); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		printSummary(cmd, instance)
		return nil
	},
}

func printSummary(cmd *cobra.Command, instance *simulator.NetworkInstance) {
	out := cmd.OutOrStdout()
	stats := instance.Stats()

	fmt.Fprintf(out, "simulation %s, %d ticks\n", instance.SimulationId(), instance.CurrentTick())
	fmt.Fprint(out, stats.Dumps())
	fmt.Fprintf(out, "Revenue:          %s (%d records)\n",
		instance.Ledger.TotalRevenue().StringFixed(2), instance.Ledger.Count())

	for _, sub := range instance.State.Subscribers() {
		fmt.Fprintf(out, "  %-12s %-20s calls: %-4d balance: %s bonus: %s\n",
			sub.Phone, sub.DisplayName(), len(instance.Ledger.ByPhone(sub.Phone)),
			sub.Balance().StringFixed(2), sub.BonusBalance().StringFixed(2))
	}
}

func init() {
	runCmd.Flags().IntVar(&runTicks, "ticks", 0, "override the number of ticks")
	runCmd.Flags().Int64Var(&runSeed, "seed", -1, "override the random seed")
}
