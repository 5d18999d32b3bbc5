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

package stats

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/penny-vault/drip-api/common"
	"github.com/penny-vault/drip-api/observability/opentelemetry"
)

type equityFunc func(symbol string) (*finance.Equity, error)

// Yahoo reads statistics from the Yahoo Finance quote endpoint
type Yahoo struct {
	get equityFunc
}

func NewYahoo() *Yahoo {
	return &Yahoo{
		get: equity.Get,
	}
}

func (y *Yahoo) Lookup(ctx context.Context, symbol string) (*Statistics, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "stats.Yahoo.Lookup")
	defer span.End()

	symbol = common.NormalizeTicker(symbol)
	if symbol == "" {
		span.SetStatus(codes.Error, ErrMissingSymbol.Error())
		return nil, ErrMissingSymbol
	}

	span.SetAttributes(attribute.String("Symbol", symbol))

	eq, err := y.get(symbol)
	if err != nil {
		log.Warn().Err(err).Str("Symbol", symbol).Msg("yahoo quote lookup failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}

	if eq == nil || eq.QuoteType == "" {
		span.SetStatus(codes.Error, ErrNotFound.Error())
		return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}

	return fromEquity(symbol, eq), nil
}

// fromEquity maps the quote to Statistics; zero values mean the field was absent
func fromEquity(symbol string, eq *finance.Equity) *Statistics {
	return &Statistics{
		Symbol:                  symbol,
		ShortName:               optString(eq.ShortName),
		TrailingEps:             optFloat(eq.EpsTrailingTwelveMonths),
		EpsTrailingTwelveMonths: optFloat(eq.EpsTrailingTwelveMonths),
		ForwardEps:              optFloat(eq.EpsForward),
		ForwardPE:               optFloat(eq.ForwardPE),
		TrailingPE:              optFloat(eq.TrailingPE),
		DividendYield:           optFloat(eq.TrailingAnnualDividendYield),
		MarketCap:               optInt(eq.MarketCap),
		Currency:                optString(eq.CurrencyID),
	}
}

func optFloat(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optInt(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
