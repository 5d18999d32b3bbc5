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
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-co-op/gocron"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/drip-api/common"
	"github.com/penny-vault/drip-api/completion"
	"github.com/penny-vault/drip-api/data"
	"github.com/penny-vault/drip-api/data/database"
	"github.com/penny-vault/drip-api/handler"
	"github.com/penny-vault/drip-api/middleware"
	"github.com/penny-vault/drip-api/observability/opentelemetry"
	"github.com/penny-vault/drip-api/router"
	"github.com/penny-vault/drip-api/stats"
)

func init() {
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	if err := viper.BindEnv("server.port", "PORT"); err != nil {
		log.Panic().Err(err).Msg("could not bind server.port")
	}
	if err := viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port")); err != nil {
		log.Panic().Err(err).Msg("could not bind server.port")
	}

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the drip-api server",
	Long:  `Run HTTP server that implements the dividend reinvestment simulation API`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if viper.GetString("otlp.endpoint") != "" {
			shutdown, err := opentelemetry.Setup(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("could not setup opentelemetry")
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("could not flush traces")
				}
			}()
		}

		if err := common.SetupCache(); err != nil {
			log.Fatal().Err(err).Msg("could not setup cache")
		}

		if strings.EqualFold(viper.GetString("data.provider"), data.ProviderPvDb) {
			if err := database.Connect(ctx); err != nil {
				log.Fatal().Err(err).Msg("could not connect to database")
			}
		}

		provider, err := data.NewProvider()
		if err != nil {
			log.Fatal().Err(err).Msg("could not create market data provider")
		}

		api := &handler.API{
			Provider:   provider,
			Stats:      stats.NewYahoo(),
			Completion: completion.NewGeminiFromConfig(),
		}

		// Create new Fiber instance
		app := fiber.New(fiber.Config{
			AppName:      common.ProgramName,
			JSONEncoder:  json.Marshal,
			JSONDecoder:  json.Unmarshal,
			ReadTimeout:  viper.GetDuration("server.read_timeout"),
			WriteTimeout: viper.GetDuration("server.write_timeout"),
		})

		// shutdown cleanly on interrupt
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigs
			log.Info().Str("Signal", sig.String()).Msg("shutting down")
			if err := app.Shutdown(); err != nil {
				log.Error().Err(err).Msg("error during shutdown")
			}
		}()

		app.Use(cors.New(cors.Config{
			AllowOrigins: viper.GetString("server.cors_origins"),
			AllowHeaders: "Content-Type",
			AllowMethods: "GET,POST,OPTIONS",
		}))

		app.Use(middleware.NewLogger())
		app.Use(middleware.NewTracer())

		router.SetupRoutes(app, api)

		// purge the local cache so the current year picks up newly closed trading days
		scheduler := gocron.NewScheduler(common.GetTimezone())
		if _, err := scheduler.Every(viper.GetDuration("cache.purge_every")).Do(common.CachePurge); err != nil {
			log.Error().Err(err).Msg("could not schedule cache purge")
		}
		scheduler.StartAsync()
		defer scheduler.Stop()

		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	},
}
