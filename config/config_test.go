/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STORE_NUMBER", "STORE_TIMEZONE", "STORE_BUSINESS_DAY_CUTOFF_HOUR",
		"DATABASE_PATH", "LOG_LEVEL", "LOG_JSON",
		"BROADCAST_BUFFER_SIZE", "ARCHIVE_POLL_INTERVAL", "ARCHIVE_MAX_RETRIES",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Store.StoreNumber != 1 {
		t.Errorf("StoreNumber = %d, want 1", cfg.Store.StoreNumber)
	}
	if cfg.Store.Timezone != "America/Los_Angeles" {
		t.Errorf("Timezone = %s", cfg.Store.Timezone)
	}
	if cfg.Database.Path != "./data/orders.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Broadcast.BufferSize != 256 {
		t.Errorf("Broadcast.BufferSize = %d, want 256", cfg.Broadcast.BufferSize)
	}
	if cfg.Archive.MaxRetries != 5 {
		t.Errorf("Archive.MaxRetries = %d, want 5", cfg.Archive.MaxRetries)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("STORE_NUMBER", "7")
	os.Setenv("STORE_TIMEZONE", "UTC")
	os.Setenv("DATABASE_PATH", "/tmp/test-orders.db")
	os.Setenv("BROADCAST_BUFFER_SIZE", "64")
	os.Setenv("ARCHIVE_MAX_RETRIES", "10")
	defer clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Store.StoreNumber != 7 {
		t.Errorf("StoreNumber = %d, want 7", cfg.Store.StoreNumber)
	}
	if cfg.Store.Timezone != "UTC" {
		t.Errorf("Timezone = %s, want UTC", cfg.Store.Timezone)
	}
	if cfg.Database.Path != "/tmp/test-orders.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Broadcast.BufferSize != 64 {
		t.Errorf("Broadcast.BufferSize = %d, want 64", cfg.Broadcast.BufferSize)
	}
	if cfg.Archive.MaxRetries != 10 {
		t.Errorf("Archive.MaxRetries = %d, want 10", cfg.Archive.MaxRetries)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"zero store number", func(c *Config) { c.Store.StoreNumber = 0 }, true},
		{"empty timezone", func(c *Config) { c.Store.Timezone = "" }, true},
		{"invalid timezone", func(c *Config) { c.Store.Timezone = "Not/AZone" }, true},
		{"cutoff hour negative", func(c *Config) { c.Store.BusinessDayCutoffHour = -1 }, true},
		{"cutoff hour too large", func(c *Config) { c.Store.BusinessDayCutoffHour = 24 }, true},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, true},
		{"zero broadcast buffer", func(c *Config) { c.Broadcast.BufferSize = 0 }, true},
		{"negative max retries", func(c *Config) { c.Archive.MaxRetries = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Store:     StoreConfig{StoreNumber: 1, Timezone: "UTC", BusinessDayCutoffHour: 4},
				Database:  DatabaseConfig{Path: "./data/orders.db"},
				Server:    ServerConfig{LogLevel: "info"},
				Broadcast: BroadcastConfig{BufferSize: 256},
				Archive:   ArchiveConfig{MaxRetries: 5},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetupLogger_DoesNotPanic(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		SetupLogger(level, true)
		SetupLogger(level, false)
	}
}
