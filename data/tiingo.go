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

package data

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	imports "github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/penny-vault/drip-api/common"
	"github.com/penny-vault/drip-api/observability/opentelemetry"
)

var tiingoAPI = "https://api.tiingo.com"

// Tiingo loads end-of-day prices and dividends from the tiingo daily prices endpoint
type Tiingo struct {
	apikey  string
	baseURL string
	client  *http.Client
}

// NewTiingo Create a new Tiingo data provider
func NewTiingo(key string) *Tiingo {
	return &Tiingo{
		apikey:  key,
		baseURL: tiingoAPI,
		client:  http.DefaultClient,
	}
}

// WithBaseURL points the provider at a different tiingo compatible host
func (t *Tiingo) WithBaseURL(baseURL string) *Tiingo {
	if baseURL != "" {
		t.baseURL = baseURL
	}
	return t
}

func (t *Tiingo) DataType() string {
	return "tiingo"
}

func (t *Tiingo) pricesURL(symbol string, begin, end time.Time) string {
	return fmt.Sprintf("%s/tiingo/daily/%s/prices?startDate=%s&endDate=%s&format=csv&resampleFreq=daily&token=%s",
		t.baseURL, url.PathEscape(symbol), begin.Format("2006-01-02"), end.Format("2006-01-02"), t.apikey)
}

// Fetch downloads daily records for symbol between begin and end (inclusive)
func (t *Tiingo) Fetch(ctx context.Context, symbol string, begin, end time.Time) ([]*DailyRecord, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "tiingo.Fetch")
	defer span.End()

	span.SetAttributes(
		attribute.String("Symbol", symbol),
		attribute.String("Begin", begin.Format("2006-01-02")),
		attribute.String("End", end.Format("2006-01-02")),
	)

	subLog := log.With().Str("Symbol", symbol).Time("Begin", begin).Time("End", end).Logger()

	if end.Before(begin) {
		subLog.Warn().Msg("end before begin in call to Fetch")
		return nil, ErrInvalidTimeRange
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.pricesURL(symbol, begin, end), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not build request")
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		msg := "tiingo http request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		msg := "could not read tiingo body"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Int("HTTPResponseStatusCode", resp.StatusCode).Msg(msg)
		return nil, err
	}

	span.SetAttributes(attribute.Int("StatusCode", resp.StatusCode))

	// tiingo responds with 404 for symbols it does not know about
	if resp.StatusCode == http.StatusNotFound {
		subLog.Info().Bytes("Body", body).Msg("symbol not found")
		return []*DailyRecord{}, nil
	}

	if resp.StatusCode >= 400 {
		msg := "tiingo returned invalid response code"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Int("HTTPResponseStatusCode", resp.StatusCode).Bytes("Body", body).Msg(msg)
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, resp.StatusCode)
	}

	records, err := parseTiingoCSV(ctx, body)
	if err != nil {
		span.RecordError(err)
		msg := "could not parse tiingo csv"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}

	subLog.Debug().Int("NumRecords", len(records)).Msg("loaded eod prices from tiingo")
	return records, nil
}

// parseTiingoCSV converts the csv body of a tiingo prices response into daily records.
// Only date, open, close, and divCash are used; any other columns are ignored.
func parseTiingoCSV(ctx context.Context, body []byte) ([]*DailyRecord, error) {
	// header only (or nothing at all) means no trading days in the range
	if bytes.Count(bytes.TrimSpace(body), []byte("\n")) == 0 {
		return []*DailyRecord{}, nil
	}

	header := string(bytes.TrimSpace(bytes.SplitN(body, []byte("\n"), 2)[0]))
	columns := make(map[string]bool)
	for _, col := range strings.Split(header, ",") {
		columns[strings.TrimSpace(col)] = true
	}
	for _, col := range []string{"date", "open", "close", "divCash"} {
		if !columns[col] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	floatConverter := imports.Converter{
		ConcreteType: float64(0),
		ConverterFunc: func(in interface{}) (interface{}, error) {
			v, err := strconv.ParseFloat(in.(string), 64)
			if err != nil {
				return math.NaN(), nil
			}
			return v, nil
		},
	}

	tz := common.GetTimezone()

	df, err := imports.LoadFromCSV(ctx, bytes.NewReader(body), imports.CSVLoadOptions{
		DictateDataType: map[string]interface{}{
			"date": imports.Converter{
				ConcreteType: time.Time{},
				ConverterFunc: func(in interface{}) (interface{}, error) {
					dt, err := time.ParseInLocation("2006-01-02", in.(string), tz)
					if err != nil {
						return nil, err
					}
					return dt.Add(time.Hour * 16), nil
				},
			},
			"open":    floatConverter,
			"close":   floatConverter,
			"divCash": floatConverter,
		},
	})
	if err != nil {
		return nil, err
	}

	records := make([]*DailyRecord, 0, df.NRows())
	iterator := df.ValuesIterator(dataframe.ValuesOptions{InitialRow: 0, Step: 1, DontReadLock: true})
	for {
		row, vals, _ := iterator(dataframe.SeriesName)
		if row == nil {
			break
		}

		dt, ok := vals["date"].(time.Time)
		if !ok {
			return nil, fmt.Errorf("%w: row %d has no date", ErrMalformedRow, *row)
		}

		records = append(records, &DailyRecord{
			Date:     dt,
			Open:     floatOrNaN(vals["open"]),
			Close:    floatOrNaN(vals["close"]),
			Dividend: floatOrZero(vals["divCash"]),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	return records, nil
}

func floatOrNaN(v interface{}) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return math.NaN()
}

// floatOrZero treats a missing dividend as no distribution
func floatOrZero(v interface{}) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}
