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

// Package stats looks up valuation and dividend statistics for a single symbol.
package stats

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("symbol not found")
	ErrMissingSymbol = errors.New("missing symbol")
)

// Statistics is a snapshot of a symbol's headline figures. Values the upstream source
// does not report are nil.
type Statistics struct {
	Symbol                  string   `json:"symbol"`
	ShortName               *string  `json:"shortName"`
	TrailingEps             *float64 `json:"trailingEps"`
	EpsTrailingTwelveMonths *float64 `json:"epsTrailingTwelveMonths"`
	ForwardEps              *float64 `json:"forwardEps"`
	ForwardPE               *float64 `json:"forwardPE"`
	TrailingPE              *float64 `json:"trailingPE"`
	DividendYield           *float64 `json:"dividendYield"`
	MarketCap               *int64   `json:"marketCap"`
	Beta                    *float64 `json:"beta"`
	Currency                *string  `json:"currency"`
}

type Lookup interface {
	Lookup(ctx context.Context, symbol string) (*Statistics, error)
}
