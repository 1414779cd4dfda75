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

	"github.com/shopspring/decimal"
)

// A Tariff is shared by reference across subscribers.
type Tariff struct {
	Name          string
	costPerMinute decimal.Decimal
	rateMutex     sync.RWMutex
}

type TariffConfig struct {
	Name           string  `yaml:"name" json:"name"`
	PricePerMinute float64 `yaml:"pricePerMinute" json:"pricePerMinute"`
}

func NewTariff(name string, costPerMinute decimal.Decimal) *Tariff {
	return &Tariff{
		Name:          name,
		costPerMinute: costPerMinute,
	}
}

func (t *Tariff) CostPerMinute() decimal.Decimal {
	t.rateMutex.RLock()
	defer t.rateMutex.RUnlock()
	return t.costPerMinute
}

// SetCostPerMinute changes the rate for every subscriber holding this tariff.
func (t *Tariff) SetCostPerMinute(cost decimal.Decimal) {
	t.rateMutex.Lock()
	defer t.rateMutex.Unlock()
	t.costPerMinute = cost
}

// CostOf returns the price of a call lasting duration ticks (one tick is billed as one minute).
func (t *Tariff) CostOf(duration int) decimal.Decimal {
	return t.CostPerMinute().Mul(decimal.NewFromInt(int64(duration)))
}

// A Subscriber owns its UE and a prepaid balance.
type Subscriber struct {
	// identifiers
	Id        string
	Phone     string
	FirstName string
	LastName  string
	Email     string

	Ue         *UserEquipment
	Tariff     *Tariff
	Subscribed bool

	// traffic model
	ArrivalRate float64 // call probability per tick
	AvgDuration float64 // ticks

	// retry state, owned by the retry scheduler
	RetryTimer      int
	PendingDuration int

	balance      decimal.Decimal
	bonusBalance decimal.Decimal
	balanceMutex sync.RWMutex
}

type SubscriberConfig struct {
	FirstName      string   `yaml:"firstName" json:"firstName"`
	LastName       string   `yaml:"lastName" json:"lastName"`
	Phone          string   `yaml:"phone" json:"phone"`
	Email          string   `yaml:"email,omitempty" json:"email,omitempty"`
	Tariff         string   `yaml:"tariff" json:"tariff"`
	InitialBalance float64  `yaml:"initialBalance" json:"initialBalance"`
	ArrivalRate    float64  `yaml:"arrivalRate" json:"arrivalRate"`
	AvgDuration    float64  `yaml:"avgDuration" json:"avgDuration"`
	InitialCall    int      `yaml:"initialCall,omitempty" json:"initialCall,omitempty"`
	X              *float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y              *float64 `yaml:"y,omitempty" json:"y,omitempty"`
	Vx             *float64 `yaml:"vx,omitempty" json:"vx,omitempty"`
	Vy             *float64 `yaml:"vy,omitempty" json:"vy,omitempty"`
}

// NewSubscriber creates a subscriber with an empty balance.
// The phone number doubles as subscriber id.
func NewSubscriber(firstName, lastName, phone, email string, ue *UserEquipment, tariff *Tariff, arrivalRate, avgDuration float64) *Subscriber {
	return &Subscriber{
		Id:           phone,
		Phone:        phone,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Ue:           ue,
		Tariff:       tariff,
		ArrivalRate:  arrivalRate,
		AvgDuration:  avgDuration,
		balance:      decimal.Zero,
		bonusBalance: decimal.Zero,
	}
}

func (s *Subscriber) Balance() decimal.Decimal {
	s.balanceMutex.RLock()
	defer s.balanceMutex.RUnlock()
	return s.balance
}

func (s *Subscriber) BonusBalance() decimal.Decimal {
	s.balanceMutex.RLock()
	defer s.balanceMutex.RUnlock()
	return s.bonusBalance
}

// TopUp credits the main balance and returns the new amount.
func (s *Subscriber) TopUp(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return s.Balance(), fmt.Errorf("subscriber %s: top up amount must not be negative", s.Id)
	}
	s.balanceMutex.Lock()
	defer s.balanceMutex.Unlock()
	s.balance = s.balance.Add(amount)
	return s.balance, nil
}

// Withdraw debits amount together with the bonus accrual if the balance covers it.
// It reports false without touching either balance otherwise.
func (s *Subscriber) Withdraw(amount, bonus decimal.Decimal) bool {
	s.balanceMutex.Lock()
	defer s.balanceMutex.Unlock()

	if s.balance.LessThan(amount) {
		return false
	}
	s.balance = s.balance.Sub(amount)
	s.bonusBalance = s.bonusBalance.Add(bonus)
	return true
}

func (s *Subscriber) Subscribe()   { s.Subscribed = true }
func (s *Subscriber) Unsubscribe() { s.Subscribed = false }

func (s *Subscriber) DisplayName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}
