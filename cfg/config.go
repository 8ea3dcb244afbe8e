// Copyright 2024 Google Inc. All Rights Reserved.
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

package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the root configuration for a file-identity service instance.
type Config struct {
	RootDir ResolvedPath `yaml:"root-dir"`

	Store StoreConfig `yaml:"store"`

	IndexBackend IndexBackend `yaml:"file-id-manager-class"`

	// AutosyncIntervalSecs rate-limits LocalIndex.GetPath's reconciliation
	// sweep: negative disables autosync, zero forces a sweep on every call,
	// positive values are a minimum number of seconds between sweeps.
	AutosyncIntervalSecs int `yaml:"autosync-interval-secs"`

	Logging LoggingConfig `yaml:"logging"`

	ListenAddr string `yaml:"listen-addr"`
}

// StoreConfig configures the embedded SQLite store.
type StoreConfig struct {
	DBPath      ResolvedPath `yaml:"db-path"`
	JournalMode JournalMode  `yaml:"db-journal-mode"`
}

// LoggingConfig configures the service's structured logger.
type LoggingConfig struct {
	Severity LogSeverity  `yaml:"severity"`
	Format   string       `yaml:"format"`
	FilePath ResolvedPath `yaml:"file-path"`

	// LogRotateConfig governs rotation of FilePath when it is non-empty.
	LogRotateConfig LogRotateConfig `yaml:"log-rotate"`
}

// LogRotateConfig mirrors the knobs lumberjack.Logger exposes for rotating
// the log file on disk.
type LogRotateConfig struct {
	MaxFileSizeMB   int  `yaml:"max-file-size-mb"`
	BackupFileCount int  `yaml:"backup-file-count"`
	Compress        bool `yaml:"compress"`
}

// DefaultLogRotateConfig returns the rotation policy applied when a log
// file path is set but no rotation flags were supplied.
func DefaultLogRotateConfig() LogRotateConfig {
	return LogRotateConfig{
		MaxFileSizeMB:   512,
		BackupFileCount: 10,
		Compress:        false,
	}
}

// BindFlags registers the pflag flags that back Config and binds each to
// its viper key.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("root-dir", "", "", "Absolute path of the tree to index (local backend only).")
	if err = viper.BindPFlag("root-dir", flagSet.Lookup("root-dir")); err != nil {
		return err
	}

	flagSet.StringP("db-path", "", ":memory:", "Path to the SQLite store, or :memory:.")
	if err = viper.BindPFlag("store.db-path", flagSet.Lookup("db-path")); err != nil {
		return err
	}

	flagSet.StringP("db-journal-mode", "", "", "SQLite journal mode: DELETE, TRUNCATE, PERSIST, MEMORY, WAL, or OFF.")
	if err = viper.BindPFlag("store.db-journal-mode", flagSet.Lookup("db-journal-mode")); err != nil {
		return err
	}

	flagSet.StringP("file-id-manager-class", "", "arbitrary", "Index backend: local or arbitrary.")
	if err = viper.BindPFlag("file-id-manager-class", flagSet.Lookup("file-id-manager-class")); err != nil {
		return err
	}

	flagSet.IntP("autosync-interval-secs", "", 0, "Seconds between LocalIndex reconciliation sweeps; negative disables autosync.")
	if err = viper.BindPFlag("autosync-interval-secs", flagSet.Lookup("autosync-interval-secs")); err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "INFO", "Logging severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "text", "Logging output format: text or json.")
	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to write logs to; empty means stderr.")
	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.IntP("log-rotate-max-size-mb", "", 512, "Maximum size in MB of a log file before it gets rotated.")
	if err = viper.BindPFlag("logging.log-rotate.max-file-size-mb", flagSet.Lookup("log-rotate-max-size-mb")); err != nil {
		return err
	}

	flagSet.IntP("log-rotate-backup-file-count", "", 10, "Number of rotated log backups to retain; 0 keeps all.")
	if err = viper.BindPFlag("logging.log-rotate.backup-file-count", flagSet.Lookup("log-rotate-backup-file-count")); err != nil {
		return err
	}

	flagSet.BoolP("log-rotate-compress", "", false, "Whether rotated log backups are gzip-compressed.")
	if err = viper.BindPFlag("logging.log-rotate.compress", flagSet.Lookup("log-rotate-compress")); err != nil {
		return err
	}

	flagSet.StringP("listen-addr", "", "127.0.0.1:8765", "Address the lookup HTTP surface listens on.")
	if err = viper.BindPFlag("listen-addr", flagSet.Lookup("listen-addr")); err != nil {
		return err
	}

	return nil
}
