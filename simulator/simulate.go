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
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gonum.org/v1/gonum/floats"

	"github.com/penny-vault/drip-api/common"
	"github.com/penny-vault/drip-api/data"
	"github.com/penny-vault/drip-api/observability/opentelemetry"
)

const defaultMaxWorkers = 8

// tickerResult is the slot a single ticker's simulation writes into
type tickerResult struct {
	symbol  string
	outcome *TickerOutcome
	err     error
}

// Simulate runs the buy, reinvest, sell strategy for every ticker in req and combines
// the outcomes. Tickers are simulated concurrently and independently; a ticker that
// fails keeps its share of the starting cash uninvested. Returned errors match either
// ErrBadRequest or ErrInternal.
func Simulate(ctx context.Context, provider data.Provider, req *Request) (result *Result, err error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "simulator.Simulate")
	defer span.End()

	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Float64("StartingCash", req.StartingCash),
		attribute.Int("StartYear", req.StartYear),
		attribute.Int("EndYear", req.EndYear),
		attribute.StringSlice("Tickers", req.Tickers),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Stack().Interface("Panic", r).Msg("portfolio simulation panicked")
			span.SetStatus(codes.Error, "panic")
			result = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	begin, end := req.Window()
	cashPerTicker := req.CashPerTicker()

	results := runTickers(ctx, provider, req.Tickers, cashPerTicker, begin, end)

	result, err = aggregate(req, cashPerTicker, results)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	log.Info().
		Float64("StartingCash", result.StartingCash).
		Float64("FinalCash", result.FinalCash).
		Int("NumTickers", len(req.Tickers)).
		Int("NumFailed", len(result.FailedTickers)).
		Msg("portfolio simulation complete")

	return result, nil
}

// runTickers simulates each ticker on a bounded pool of workers. results[i] always
// belongs to tickers[i], so encounter order is preserved regardless of scheduling.
func runTickers(ctx context.Context, provider data.Provider, tickers []string, cashPerTicker float64, begin, end time.Time) []tickerResult {
	results := make([]tickerResult, len(tickers))

	numWorkers := maxWorkers()
	if numWorkers > len(tickers) {
		numWorkers = len(tickers)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for ii := 0; ii < numWorkers; ii++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = tickerWorker(ctx, provider, tickers[idx], cashPerTicker, begin, end)
			}
		}()
	}

	for idx := range tickers {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results
}

// tickerWorker fetches and simulates a single ticker. Every failure, including a
// panic, is captured in the returned slot.
func tickerWorker(ctx context.Context, provider data.Provider, ticker string, cash float64, begin, end time.Time) (res tickerResult) {
	res.symbol = common.NormalizeTicker(ticker)
	subLog := log.With().Str("Ticker", res.symbol).Logger()

	defer func() {
		if r := recover(); r != nil {
			subLog.Error().Stack().Interface("Panic", r).Msg("ticker simulation panicked")
			res.outcome = nil
			res.err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	if res.symbol == "" {
		res.err = ErrInvalidSymbol
		return
	}

	records, err := provider.Fetch(ctx, res.symbol, begin, end)
	if err != nil {
		subLog.Warn().Err(err).Msg("could not fetch market data")
		res.err = err
		return
	}

	res.outcome, res.err = SimulateTicker(res.symbol, cash, records)
	if res.err != nil {
		subLog.Warn().Err(res.err).Int("NumRecords", len(records)).Msg("ticker simulation failed")
	}
	return
}

func aggregate(req *Request, cashPerTicker float64, results []tickerResult) (*Result, error) {
	result := &Result{
		StartingCash:    req.StartingCash,
		StartYear:       req.StartYear,
		EndYear:         req.EndYear,
		Tickers:         req.Tickers,
		TickerBreakdown: make(map[string]*TickerOutcome, len(results)),
	}

	proceeds := make([]float64, 0, len(results))
	for _, res := range results {
		if res.err != nil {
			result.FailedTickers = append(result.FailedTickers, res.symbol)
			result.TickerBreakdown[res.symbol] = &TickerOutcome{
				Symbol: res.symbol,
				Error:  failureMessage(res.err),
			}
			continue
		}

		// later duplicates replace earlier ones under the same symbol
		result.TickerBreakdown[res.symbol] = res.outcome
		proceeds = append(proceeds, res.outcome.FinalValue)
	}

	result.FinalCash = floats.Sum(proceeds) + cashPerTicker*float64(len(result.FailedTickers))
	result.ROI = (result.FinalCash - result.StartingCash) / result.StartingCash

	if math.IsNaN(result.FinalCash) || math.IsInf(result.FinalCash, 0) || math.IsNaN(result.ROI) || math.IsInf(result.ROI, 0) {
		return nil, fmt.Errorf("%w: portfolio value is not a finite number", ErrInternal)
	}

	if len(result.FailedTickers) > 0 {
		result.Note = failureNote(len(result.FailedTickers))
	}

	return result, nil
}

func maxWorkers() int {
	if n := viper.GetInt("simulator.max_workers"); n > 0 {
		return n
	}
	return defaultMaxWorkers
}
