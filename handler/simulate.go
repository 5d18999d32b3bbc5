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

	"github.com/gofiber/fiber/v2"

	"github.com/penny-vault/drip-api/middleware"
	"github.com/penny-vault/drip-api/simulator"
)

// Simulate runs a buy-and-hold simulation with dividend reinvestment for the posted
// portfolio and returns the aggregate result
func (api *API) Simulate(c *fiber.Ctx) error {
	subLog := middleware.Logger(c).With().Str("Endpoint", "Simulate").Logger()

	req, err := simulator.ParseRequest(c.Body())
	if err != nil {
		subLog.Warn().Err(err).Msg("rejected simulation request")
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := simulator.Simulate(c.UserContext(), api.Provider, req)
	if err != nil {
		if errors.Is(err, simulator.ErrBadRequest) {
			subLog.Warn().Err(err).Msg("rejected simulation request")
			return errorResponse(c, fiber.StatusBadRequest, err.Error())
		}

		subLog.Error().Err(err).Msg("simulation failed")
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(result)
}
