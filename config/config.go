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
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the complete application configuration for the order engine.
type Config struct {
	Store     StoreConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Broadcast BroadcastConfig
	Archive   ArchiveConfig
}

// StoreConfig identifies this edge server within the receipt-number scheme
// and anchors the business-day rollover used by the receipt/queue counters.
type StoreConfig struct {
	StoreNumber           int
	Timezone              string // IANA name, e.g. "America/Los_Angeles"
	BusinessDayCutoffHour int    // local hour the business date rolls over at
}

// DatabaseConfig holds the sqlite file location for internal/storage.Store.
type DatabaseConfig struct {
	Path string
}

// ServerConfig holds logging settings, identical in shape to the teacher's.
type ServerConfig struct {
	LogLevel string
	LogJson  bool
}

// BroadcastConfig sizes the bounded event fan-out channel.
type BroadcastConfig struct {
	BufferSize int
}

// ArchiveConfig tunes the external archiver this core only notifies.
type ArchiveConfig struct {
	PollInterval time.Duration
	MaxRetries   int
}

// LoadConfig loads configuration from environment variables, applying the
// same defaults-then-override shape as the teacher's LoadConfig.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			StoreNumber:           1,
			Timezone:              "America/Los_Angeles",
			BusinessDayCutoffHour: 4,
		},
		Database: DatabaseConfig{
			Path: "./data/orders.db",
		},
		Server: ServerConfig{
			LogLevel: "info",
			LogJson:  false,
		},
		Broadcast: BroadcastConfig{
			BufferSize: 256,
		},
		Archive: ArchiveConfig{
			PollInterval: 30 * time.Second,
			MaxRetries:   5,
		},
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("STORE_NUMBER"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Store.StoreNumber = i
		}
	}
	if v := os.Getenv("STORE_TIMEZONE"); v != "" {
		cfg.Store.Timezone = v
	}
	if v := os.Getenv("STORE_BUSINESS_DAY_CUTOFF_HOUR"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Store.BusinessDayCutoffHour = i
		}
	}

	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("LOG_JSON"); v != "" {
		cfg.Server.LogJson = v == "true"
	}

	if v := os.Getenv("BROADCAST_BUFFER_SIZE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Broadcast.BufferSize = i
		}
	}

	if v := os.Getenv("ARCHIVE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Archive.PollInterval = d
		}
	}
	if v := os.Getenv("ARCHIVE_MAX_RETRIES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Archive.MaxRetries = i
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Store.StoreNumber <= 0 {
		return fmt.Errorf("STORE_NUMBER must be positive")
	}
	if c.Store.Timezone == "" {
		return fmt.Errorf("STORE_TIMEZONE is required")
	}
	if _, err := time.LoadLocation(c.Store.Timezone); err != nil {
		return fmt.Errorf("invalid STORE_TIMEZONE %q: %w", c.Store.Timezone, err)
	}
	if c.Store.BusinessDayCutoffHour < 0 || c.Store.BusinessDayCutoffHour > 23 {
		return fmt.Errorf("STORE_BUSINESS_DAY_CUTOFF_HOUR must be in [0,23]")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.Broadcast.BufferSize <= 0 {
		return fmt.Errorf("BROADCAST_BUFFER_SIZE must be positive")
	}
	if c.Archive.MaxRetries < 0 {
		return fmt.Errorf("ARCHIVE_MAX_RETRIES cannot be negative")
	}
	return nil
}

// SetupLogger initializes the global Zap logger with structured JSON format,
// carried over verbatim in spirit from the teacher's config.SetupLogger.
func SetupLogger(level string, useJSON bool) {
	zapConfig := zap.NewProductionConfig()

	zapConfig.EncoderConfig.TimeKey = "ts"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapConfig.EncoderConfig.CallerKey = "caller"
	zapConfig.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	zapConfig.EncoderConfig.LevelKey = "level"
	zapConfig.EncoderConfig.MessageKey = "msg"
	zapConfig.EncoderConfig.StacktraceKey = "stacktrace"

	if !useJSON {
		zapConfig.Encoding = "console"
	}

	switch level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := zapConfig.Build(zap.AddCallerSkip(0))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	zap.ReplaceGlobals(logger)
}
