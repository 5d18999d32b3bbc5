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

package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/penny-vault/drip-api/observability/opentelemetry"
)

// NewTracer starts a server span for every request and makes it the parent of any
// spans created by the handler through c.UserContext()
func NewTracer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := fmt.Sprintf("%s %s", c.Method(), c.Path())
		ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(opentelemetry.SpanAttributesFromFiber(c)...),
		)
		defer span.End()

		c.SetUserContext(ctx)

		err := c.Next()

		code := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.status_code", code))
		if err != nil {
			span.RecordError(err)
		}
		if err != nil || code >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("status %d", code))
		}

		return err
	}
}
