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

package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/penny-vault/drip-api/common"
	"github.com/penny-vault/drip-api/middleware"
	"github.com/penny-vault/drip-api/stats"
)

// GetStats looks up headline statistics for the symbol given either in the path or
// in the `symbol` query parameter
func (api *API) GetStats(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	if symbol == "" {
		symbol = c.Query("symbol")
	}

	symbol = common.NormalizeTicker(symbol)
	if symbol == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Missing stock symbol in query parameters.")
	}

	subLog := middleware.Logger(c).With().Str("Endpoint", "GetStats").Str("Symbol", symbol).Logger()

	st, err := api.Stats.Lookup(c.UserContext(), symbol)
	if err != nil {
		if errors.Is(err, stats.ErrNotFound) || errors.Is(err, stats.ErrMissingSymbol) {
			subLog.Info().Err(err).Msg("symbol not found")
			return errorResponse(c, fiber.StatusNotFound, fmt.Sprintf("Stock symbol %s not found or invalid.", symbol))
		}

		subLog.Error().Err(err).Msg("statistics lookup failed")
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(st)
}
