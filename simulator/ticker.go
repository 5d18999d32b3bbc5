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
	"fmt"
	"math"

	"github.com/penny-vault/drip-api/data"
)

// position is the running state carried through the reinvestment fold
type position struct {
	shares    float64
	dividends float64
}

// reinvest applies a single day to the position. A dividend is paid on the shares held
// at that point, so earlier reinvestments compound into later payouts. The dividend
// cash is tracked even when a non-positive close prevents buying shares with it.
func reinvest(pos position, rec *data.DailyRecord) position {
	if rec.Dividend <= 0 {
		return pos
	}

	cash := pos.shares * rec.Dividend
	if rec.Close > 0 {
		pos.shares += cash / rec.Close
	}
	pos.dividends += cash
	return pos
}

func foldRecords(records []*data.DailyRecord, init position, fn func(position, *data.DailyRecord) position) position {
	acc := init
	for _, rec := range records {
		acc = fn(acc, rec)
	}
	return acc
}

// SimulateTicker buys cash worth of symbol at the open of the first record, reinvests
// every dividend at that day's close, and sells at the close of the last record.
// records must be ordered ascending by date.
func SimulateTicker(symbol string, cash float64, records []*data.DailyRecord) (*TickerOutcome, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	first := records[0]
	if first == nil {
		return nil, fmt.Errorf("%w: record 0 is missing", ErrMalformedRecord)
	}

	if !(first.Open > 0) || math.IsInf(first.Open, 0) {
		return nil, ErrInvalidBuyPrice
	}

	if err := checkRecords(records); err != nil {
		return nil, err
	}

	last := records[len(records)-1]

	final := foldRecords(records, position{shares: cash / first.Open}, reinvest)

	if last.Close < 0 {
		return nil, fmt.Errorf("%w: negative sell price on %s", ErrMalformedRecord, last.Date.Format("2006-01-02"))
	}

	proceeds := final.shares * last.Close
	if math.IsNaN(proceeds) || math.IsInf(proceeds, 0) {
		return nil, fmt.Errorf("%w: proceeds are not a finite number", ErrMalformedRecord)
	}

	return &TickerOutcome{
		Symbol:              symbol,
		BuyDate:             first.Date,
		BuyPrice:            first.Open,
		SellDate:            last.Date,
		SellPrice:           last.Close,
		FinalShares:         final.shares,
		DividendsReinvested: final.dividends,
		InitialInvestment:   cash,
		FinalValue:          proceeds,
		ROI:                 (proceeds - cash) / cash,
	}, nil
}

// checkRecords rejects series the fold cannot interpret: missing records, dates out
// of order, and non-finite or negative values where the algorithm reads them
func checkRecords(records []*data.DailyRecord) error {
	for idx, rec := range records {
		if rec == nil {
			return fmt.Errorf("%w: record %d is missing", ErrMalformedRecord, idx)
		}

		day := rec.Date.Format("2006-01-02")

		if idx > 0 && rec.Date.Before(records[idx-1].Date) {
			return fmt.Errorf("%w: %s is out of order", ErrMalformedRecord, day)
		}

		if math.IsNaN(rec.Dividend) || math.IsInf(rec.Dividend, 0) || rec.Dividend < 0 {
			return fmt.Errorf("%w: invalid dividend on %s", ErrMalformedRecord, day)
		}

		if rec.Dividend > 0 && (math.IsNaN(rec.Close) || math.IsInf(rec.Close, 0)) {
			return fmt.Errorf("%w: invalid close on dividend day %s", ErrMalformedRecord, day)
		}
	}

	last := records[len(records)-1]
	if math.IsNaN(last.Close) || math.IsInf(last.Close, 0) {
		return fmt.Errorf("%w: invalid sell price on %s", ErrMalformedRecord, last.Date.Format("2006-01-02"))
	}

	return nil
}
