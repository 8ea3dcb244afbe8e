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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fileid-go/fileid/cfg"
	"github.com/fileid-go/fileid/internal/bootstrap"
	"github.com/fileid-go/fileid/internal/logger"
	"github.com/fileid-go/fileid/internal/util"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	unmarshalErr  error

	// Config holds the fully rationalized, validated configuration for the
	// running instance, populated by initConfig before RunE fires.
	Config cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "fileid serve [flags]",
	Short: "Serve the file-identity lookup API over HTTP",
	Long: `fileid tracks a stable id for every file under a directory tree (or
          behind an arbitrary API-defined namespace), reconciling that
          mapping against out-of-band moves, and serves id<->path lookups
          over a small HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		if err := cfg.Rationalize(&Config); err != nil {
			return fmt.Errorf("rationalizing config: %w", err)
		}
		if err := cfg.ValidateConfig(&Config); err != nil {
			return err
		}

		if err := logger.InitLogFile(Config.Logging); err != nil {
			return fmt.Errorf("initializing log file: %w", err)
		}
		logger.SetLogFormat(Config.Logging.Format)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := bootstrap.New(ctx, Config)
		if err != nil {
			return fmt.Errorf("starting service: %w", err)
		}
		return b.Start(ctx)
	},
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile == "" {
		unmarshalErr = viper.Unmarshal(&Config, viper.DecodeHook(cfg.DecodeHook()))
		return
	}

	resolved, err := util.GetResolvedPath(cfgFile)
	if err != nil {
		configFileErr = fmt.Errorf("resolving config file path: %w", err)
		return
	}
	viper.SetConfigFile(resolved)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("reading config file: %w", err)
		return
	}
	unmarshalErr = viper.Unmarshal(&Config, viper.DecodeHook(cfg.DecodeHook()))
}
