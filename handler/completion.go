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

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/penny-vault/drip-api/completion"
	"github.com/penny-vault/drip-api/middleware"
)

type CompletionRequest struct {
	Instructions string `json:"instructions"`
}

type CompletionResponse struct {
	Output string `json:"output"`
}

func (api *API) PostCompletion(c *fiber.Ctx) error {
	subLog := middleware.Logger(c).With().Str("Endpoint", "Completion").Logger()

	// an unreadable body is treated the same as one without instructions
	var req CompletionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		subLog.Warn().Err(err).Msg("could not decode completion request")
	}

	output, err := api.Completion.Complete(c.UserContext(), req.Instructions)
	switch {
	case errors.Is(err, completion.ErrEmptyInstructions):
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, completion.ErrNotConfigured):
		subLog.Error().Err(err).Msg("completion is not configured")
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	case err != nil:
		subLog.Error().Err(err).Msg("completion failed")
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(CompletionResponse{Output: output})
}
