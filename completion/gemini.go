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

package completion

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/penny-vault/drip-api/observability/opentelemetry"
)

const DefaultModel = "gemini-2.0-flash"

// Gemini completes instructions with the Gemini API. The underlying client is created
// on first use so a server without a key can still start.
type Gemini struct {
	apiKey string
	model  string

	lock   sync.Mutex
	client *genai.Client
}

func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{
		apiKey: strings.TrimSpace(apiKey),
		model:  model,
	}
}

// NewGeminiFromConfig reads gemini.api_key and gemini.model
func NewGeminiFromConfig() *Gemini {
	return NewGemini(viper.GetString("gemini.api_key"), viper.GetString("gemini.model"))
}

func (g *Gemini) Complete(ctx context.Context, instructions string) (string, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "completion.Gemini.Complete")
	defer span.End()

	if strings.TrimSpace(instructions) == "" {
		span.SetStatus(codes.Error, ErrEmptyInstructions.Error())
		return "", ErrEmptyInstructions
	}

	client, err := g.getClient(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.String("Model", g.model))

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(instructions), nil)
	if err != nil {
		log.Error().Err(err).Str("Model", g.model).Msg("gemini request failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		span.SetStatus(codes.Error, ErrEmptyResponse.Error())
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	return sb.String(), nil
}

func (g *Gemini) getClient(ctx context.Context) (*genai.Client, error) {
	if g.apiKey == "" {
		return nil, ErrNotConfigured
	}

	g.lock.Lock()
	defer g.lock.Unlock()

	if g.client != nil {
		return g.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	g.client = client
	return client, nil
}
