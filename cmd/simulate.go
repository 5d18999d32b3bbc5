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
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/drip-api/common"
	"github.com/penny-vault/drip-api/data"
	"github.com/penny-vault/drip-api/data/database"
	"github.com/penny-vault/drip-api/simulator"
)

var (
	simulateCash  float64
	simulateStart int
	simulateEnd   int
)

func init() {
	simulateCmd.Flags().Float64Var(&simulateCash, "cash", 10_000, "Starting cash split evenly between tickers")
	simulateCmd.Flags().IntVar(&simulateStart, "start", 0, "First calendar year of the simulation")
	simulateCmd.Flags().IntVar(&simulateEnd, "end", 0, "Last calendar year of the simulation")
	for _, name := range []string{"start", "end"} {
		if err := simulateCmd.MarkFlagRequired(name); err != nil {
			log.Panic().Err(err).Str("Flag", name).Msg("could not mark flag required")
		}
	}

	rootCmd.AddCommand(simulateCmd)
}

var simulateCmd = &cobra.Command{
	Use:        "simulate [flags] TICKER...",
	Short:      "Simulate a buy-and-hold portfolio with dividends reinvested",
	Args:       cobra.MinimumNArgs(1),
	ArgAliases: []string{"TICKER"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := common.SetupCache(); err != nil {
			return err
		}

		if strings.EqualFold(viper.GetString("data.provider"), data.ProviderPvDb) {
			if err := database.Connect(ctx); err != nil {
				return err
			}
		}

		provider, err := data.NewProvider()
		if err != nil {
			return err
		}

		result, err := simulator.Simulate(ctx, provider, &simulator.Request{
			StartingCash: simulateCash,
			StartYear:    simulateStart,
			EndYear:      simulateEnd,
			Tickers:      args,
		})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(out))
		return nil
	},
}
