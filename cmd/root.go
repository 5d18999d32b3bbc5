// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/drip-api/common"
)

func init() {
	cobra.OnInitialize(common.SetupLogging)

	// Logging configuration
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	bind("log.level", "DRIP_LOG_LEVEL", rootCmd, "log-level")

	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	bind("log.report_caller", "DRIP_LOG_REPORT_CALLER", rootCmd, "log-report-caller")

	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	bind("log.output", "DRIP_LOG_OUTPUT", rootCmd, "log-output")

	rootCmd.PersistentFlags().Bool("log-pretty", true, "Pretty print log messages")
	bind("log.pretty", "DRIP_LOG_PRETTY", rootCmd, "log-pretty")

	// Market data
	rootCmd.PersistentFlags().String("data-provider", "tiingo", "Market data provider, one of: `tiingo` or `pvdb`")
	bind("data.provider", "DRIP_DATA_PROVIDER", rootCmd, "data-provider")

	rootCmd.PersistentFlags().String("tiingo-token", "", "Tiingo API token")
	bind("tiingo.token", "TIINGO_TOKEN", rootCmd, "tiingo-token")

	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	bind("database.url", "DATABASE_URL", rootCmd, "database-url")

	// Cache
	rootCmd.PersistentFlags().Bool("cache", true, "Cache market data")
	bind("cache.enabled", "DRIP_CACHE", rootCmd, "cache")

	rootCmd.PersistentFlags().String("redis-url", "", "Redis connection string for the shared cache; if blank only the local cache is used")
	bind("cache.redis_url", "REDIS_URL", rootCmd, "redis-url")

	// Gemini
	if err := viper.BindEnv("gemini.api_key", "GEMINI_API_KEY"); err != nil {
		log.Panic().Err(err).Msg("could not bind gemini.api_key")
	}

	viper.SetDefault("server.cors_origins", "*")
	viper.SetDefault("tiingo.url", "https://api.tiingo.com")
	viper.SetDefault("cache.local_size", 1024)
	viper.SetDefault("cache.ttl", 86400)
	viper.SetDefault("cache.purge_every", "24h")
	viper.SetDefault("simulator.max_workers", 8)
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("otlp.http", true)
}

// bind ties a configuration key to an environment variable and a persistent flag
func bind(key, env string, cmd *cobra.Command, flag string) {
	if err := viper.BindEnv(key, env); err != nil {
		log.Panic().Err(err).Str("Key", key).Msg("could not bind environment variable")
	}
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		log.Panic().Err(err).Str("Key", key).Msg("could not bind flag")
	}
}

var rootCmd = &cobra.Command{
	Use:     "dripapi",
	Version: common.CurrentVersion.String(),
	Short:   "Simulate buy-and-hold portfolios with dividend reinvestment",
	Long: `Simulate buying a basket of securities, reinvesting every dividend at the
close on the day it is paid, and selling at the end of the period.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
