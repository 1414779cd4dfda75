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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/cell-simulator/internal/models"
)

var DefaultBonusRate = decimal.RequireFromString("0.05")

// Ocs is the online charging function. It is the only component debiting balances.
type Ocs struct {
	OcsId     string
	BonusRate decimal.Decimal
	log       *zap.Logger
}

func NewOcs(networkId string) *Ocs {
	ocsId := fmt.Sprintf("OCS-%s", networkId)
	return &Ocs{
		OcsId:     ocsId,
		BonusRate: DefaultBonusRate,
		log:       logging.ForNF(ocsId),
	}
}

// EstimateCost prices a call of duration ticks with the subscriber tariff.
func (ocs *Ocs) EstimateCost(sub *models.Subscriber, duration int) decimal.Decimal {
	return sub.Tariff.CostOf(duration)
}

func (ocs *Ocs) CheckBalance(sub *models.Subscriber, estimatedCost decimal.Decimal) bool {
	return sub.Balance().GreaterThanOrEqual(estimatedCost)
}

// Charge debits amount and credits the bonus accrual. The balance is left untouched
// and ErrInsufficientBalance returned when it does not cover amount.
func (ocs *Ocs) Charge(sub *models.Subscriber, amount decimal.Decimal) error {
	bonus := amount.Mul(ocs.BonusRate)
	if !sub.Withdraw(amount, bonus) {
		return fmt.Errorf("subscriber %s cannot afford %s: %w", sub.Id, amount.StringFixed(2), ErrInsufficientBalance)
	}
	ocs.log.Debug("subscriber charged",
		zap.String("subscriber", sub.Id),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("bonus", bonus.StringFixed(2)),
		zap.String("balance", sub.Balance().StringFixed(2)))
	return nil
}
