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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/penny-vault/drip-api/common"
)

const msgMissingFields = "Missing required fields: starting_cash, start_year, end_year, tickers"

// Request is a validated simulation request. Tickers are kept exactly as they were
// given; normalization happens per ticker during the simulation.
type Request struct {
	StartingCash float64  `json:"starting_cash"`
	StartYear    int      `json:"start_year"`
	EndYear      int      `json:"end_year"`
	Tickers      []string `json:"tickers"`
}

// ParseRequest decodes and validates a JSON simulation request. Numeric fields may be
// given as JSON numbers or as strings holding a number. Every failure matches
// ErrBadRequest.
func ParseRequest(body []byte) (*Request, error) {
	fields := make(map[string]interface{})
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, badRequest("request body must be a JSON object")
	}

	rawCash, hasCash := present(fields, "starting_cash")
	rawStart, hasStart := present(fields, "start_year")
	rawEnd, hasEnd := present(fields, "end_year")
	rawTickers, hasTickers := present(fields, "tickers")
	if !hasCash || !hasStart || !hasEnd || !hasTickers {
		return nil, badRequest(msgMissingFields)
	}

	tickers, ok := toStrings(rawTickers)
	if !ok {
		return nil, badRequest("tickers must be a list of strings")
	}
	if len(tickers) == 0 {
		return nil, badRequest(msgMissingFields)
	}

	cash, ok := toFloat(rawCash)
	if !ok {
		return nil, badRequest("starting_cash must be a number")
	}

	startYear, ok := toInt(rawStart)
	if !ok {
		return nil, badRequest("start_year must be an integer")
	}

	endYear, ok := toInt(rawEnd)
	if !ok {
		return nil, badRequest("end_year must be an integer")
	}

	req := &Request{
		StartingCash: cash,
		StartYear:    startYear,
		EndYear:      endYear,
		Tickers:      tickers,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks the request invariants; it is called by ParseRequest and Simulate
func (r *Request) Validate() error {
	if len(r.Tickers) == 0 {
		return badRequest(msgMissingFields)
	}

	if math.IsNaN(r.StartingCash) || math.IsInf(r.StartingCash, 0) || r.StartingCash <= 0 {
		return badRequest("starting_cash must be positive")
	}

	if r.StartYear > r.EndYear {
		return badRequest("start_year must be <= end_year")
	}

	return nil
}

// Window returns the first and last calendar day covered by the request
func (r *Request) Window() (begin, end time.Time) {
	tz := common.GetTimezone()
	begin = time.Date(r.StartYear, time.January, 1, 0, 0, 0, 0, tz)
	end = time.Date(r.EndYear, time.December, 31, 0, 0, 0, 0, tz)
	return
}

// CashPerTicker is the equal split of starting cash; duplicate tickers are counted
func (r *Request) CashPerTicker() float64 {
	return r.StartingCash / float64(len(r.Tickers))
}

// present treats a JSON null the same as a missing field
func present(fields map[string]interface{}, key string) (interface{}, bool) {
	val, ok := fields[key]
	if !ok || val == nil {
		return nil, false
	}
	return val, true
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// toInt accepts integral numbers and strings holding a base 10 integer
func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) || math.Abs(val) > math.MaxInt32 {
			return 0, false
		}
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		return n, err == nil
	default:
		return 0, false
	}
}

func toStrings(v interface{}) ([]string, bool) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, false
	}

	res := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		res = append(res, s)
	}
	return res, true
}
