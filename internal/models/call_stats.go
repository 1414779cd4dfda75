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
)

// NetworkStats collects the call counters of a simulation run.
type NetworkStats struct {
	TotalAttempts     int64 `json:"totalAttempts"`
	SuccessfulCalls   int64 `json:"successfulCalls"`
	BlockedUnknown    int64 `json:"blockedUnknownSubscriber"`
	BlockedByCoverage int64 `json:"blockedOutOfCoverage"`
	BlockedByBalance  int64 `json:"blockedByBalance"`
	BlockedByCapacity int64 `json:"blockedByCapacity"`
	Handovers         int64 `json:"handovers"`
	DroppedCalls      int64 `json:"droppedCalls"`
	CompletedCalls    int64 `json:"completedCalls"`
}

// Blocked is the number of attempts that did not get a session, whatever the cause.
func (stats *NetworkStats) Blocked() int64 {
	return stats.BlockedUnknown + stats.BlockedByCoverage + stats.BlockedByBalance + stats.BlockedByCapacity
}

// GradeOfService is the blocked fraction of all attempts, 0 without attempts.
func (stats *NetworkStats) GradeOfService() float64 {
	if stats.TotalAttempts == 0 {
		return 0
	}
	return float64(stats.Blocked()) / float64(stats.TotalAttempts)
}

// ResourceBlockingRate only counts capacity and balance blocks over all attempts,
// leaving out subscribers that were unknown or out of coverage.
func (stats *NetworkStats) ResourceBlockingRate() float64 {
	if stats.TotalAttempts == 0 {
		return 0
	}
	return float64(stats.BlockedByCapacity+stats.BlockedByBalance) / float64(stats.TotalAttempts)
}

// Record counts one admission attempt with its outcome.
func (stats *NetworkStats) Record(outcome CallOutcome) {
	stats.TotalAttempts++
	switch outcome {
	case Admitted:
		stats.SuccessfulCalls++
	case BlockedUnknownSubscriber:
		stats.BlockedUnknown++
	case BlockedOutOfCoverage:
		stats.BlockedByCoverage++
	case BlockedInsufficientBalance:
		stats.BlockedByBalance++
	case BlockedCapacityExhausted:
		stats.BlockedByCapacity++
	}
}

func (stats *NetworkStats) RecordTermination(reason TerminationReason) {
	switch reason {
	case Dropped:
		stats.DroppedCalls++
	case Completed:
		stats.CompletedCalls++
	}
}

func (stats *NetworkStats) Dumps() string {
	return fmt.Sprintf("Attempts:         %d,\nSuccessful:       %d,\nBlocked capacity: %d,\nBlocked balance:  %d,\nBlocked coverage: %d,\nBlocked unknown:  %d,\nHandovers:        %d,\nDropped:          %d,\nCompleted:        %d,\nGrade of service: %.2f%%,\nResource blocking: %.2f%%,\n",
		stats.TotalAttempts, stats.SuccessfulCalls, stats.BlockedByCapacity, stats.BlockedByBalance, stats.BlockedByCoverage,
		stats.BlockedUnknown, stats.Handovers, stats.DroppedCalls, stats.CompletedCalls, stats.GradeOfService()*100, stats.ResourceBlockingRate()*100)
}
