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

package simulator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// output precision
const (
	currencyPlaces int32 = 2
	pricePlaces    int32 = 4
	percentPlaces  int32 = 4
	ratioPlaces    int32 = 6
	sharePlaces    int32 = 6
)

// TickerOutcome is the result of simulating one ticker. Either Error is set or the
// remaining fields describe a completed buy, reinvest, sell cycle; never both. Values
// are kept at full precision and only rounded when encoded.
type TickerOutcome struct {
	Symbol              string
	BuyDate             time.Time
	BuyPrice            float64
	SellDate            time.Time
	SellPrice           float64
	FinalShares         float64
	DividendsReinvested float64
	InitialInvestment   float64
	FinalValue          float64
	ROI                 float64
	Error               string
}

// Failed reports whether the ticker could not be simulated
func (o *TickerOutcome) Failed() bool {
	return o.Error != ""
}

type tickerOutcomeJSON struct {
	BuyDate             string  `json:"buy_date"`
	BuyPrice            float64 `json:"buy_price"`
	SellDate            string  `json:"sell_date"`
	SellPrice           float64 `json:"sell_price"`
	FinalShares         float64 `json:"final_shares"`
	DividendsReinvested float64 `json:"dividends_reinvested"`
	InitialInvestment   float64 `json:"initial_investment"`
	FinalValue          float64 `json:"final_value"`
	ROI                 float64 `json:"roi"`
}

type tickerErrorJSON struct {
	Error string `json:"error"`
}

func (o *TickerOutcome) MarshalJSON() ([]byte, error) {
	if o.Failed() {
		return json.Marshal(tickerErrorJSON{Error: o.Error})
	}

	return json.Marshal(tickerOutcomeJSON{
		BuyDate:             o.BuyDate.Format("2006-01-02"),
		BuyPrice:            round(o.BuyPrice, pricePlaces),
		SellDate:            o.SellDate.Format("2006-01-02"),
		SellPrice:           round(o.SellPrice, pricePlaces),
		FinalShares:         round(o.FinalShares, sharePlaces),
		DividendsReinvested: round(o.DividendsReinvested, currencyPlaces),
		InitialInvestment:   round(o.InitialInvestment, currencyPlaces),
		FinalValue:          round(o.FinalValue, currencyPlaces),
		ROI:                 round(o.ROI, ratioPlaces),
	})
}

// Result is the outcome of a portfolio simulation
type Result struct {
	StartingCash    float64
	FinalCash       float64
	ROI             float64
	StartYear       int
	EndYear         int
	Tickers         []string
	TickerBreakdown map[string]*TickerOutcome
	FailedTickers   []string
	Note            string
}

// ROIPercent is ROI expressed as a percentage
func (r *Result) ROIPercent() float64 {
	return r.ROI * 100
}

type resultJSON struct {
	StartingCash    float64                   `json:"starting_cash"`
	FinalCash       float64                   `json:"final_cash"`
	ROI             float64                   `json:"roi"`
	ROIPercent      float64                   `json:"roi_percent"`
	StartYear       int                       `json:"start_year"`
	EndYear         int                       `json:"end_year"`
	Tickers         []string                  `json:"tickers"`
	TickerBreakdown map[string]*TickerOutcome `json:"ticker_breakdown"`
	FailedTickers   []string                  `json:"failed_tickers,omitempty"`
	Note            string                    `json:"note,omitempty"`
}

func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		StartingCash:    round(r.StartingCash, currencyPlaces),
		FinalCash:       round(r.FinalCash, currencyPlaces),
		ROI:             round(r.ROI, ratioPlaces),
		ROIPercent:      round(r.ROIPercent(), percentPlaces),
		StartYear:       r.StartYear,
		EndYear:         r.EndYear,
		Tickers:         r.Tickers,
		TickerBreakdown: r.TickerBreakdown,
		FailedTickers:   r.FailedTickers,
		Note:            r.Note,
	})
}

// failureMessage is the text reported in a failed ticker's breakdown entry
func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoData):
		return "No price data available for this period"
	case errors.Is(err, ErrInvalidBuyPrice):
		return "Invalid buy price"
	default:
		return err.Error()
	}
}

func failureNote(numFailed int) string {
	return fmt.Sprintf("%d ticker(s) failed; their cash allocation was returned unchanged.", numFailed)
}

// round v to places decimal places, half away from zero
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
