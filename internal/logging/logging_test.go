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

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitialize_JSONFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cellsim.log")
	t.Cleanup(func() { _ = Initialize(DefaultConfig()) })

	if err := Initialize(Config{Level: "debug", Format: "json", Output: path}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	ForNF("MME-00101").Debug("handover evaluated")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	entry := map[string]any{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not json: %q", line)
	}
	if entry["msg"] != "handover evaluated" || entry["nf"] != "MME-00101" || entry["level"] != "debug" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Fatalf("missing timestamp in %v", entry)
	}
}

func TestInitialize_LevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cellsim.log")
	t.Cleanup(func() { _ = Initialize(DefaultConfig()) })

	if err := Initialize(Config{Level: "warn", Format: "json", Output: path}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	Logger.Info("dropped")
	Logger.Warn("kept")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "dropped") || !strings.Contains(string(data), "kept") {
		t.Fatalf("level filter not applied: %q", data)
	}
}

func TestInitialize_BadOutput(t *testing.T) {
	t.Cleanup(func() { _ = Initialize(DefaultConfig()) })
	if err := Initialize(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")}); err == nil {
		t.Fatalf("expected error for an unwritable output")
	}
}
