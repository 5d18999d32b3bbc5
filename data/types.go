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
	"context"
	"time"
)

// DailyRecord is a single trading day of end-of-day data for one security. Dividend
// is the cash distributed per share with an ex-date on Date, zero otherwise.
type DailyRecord struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	Close    float64   `json:"close"`
	Dividend float64   `json:"dividend"`
}

// Provider returns daily records for a symbol over the closed interval [begin, end],
// ordered ascending by date. An unknown or delisted symbol yields an empty slice and a
// nil error; errors are reserved for transport and data-format failures.
type Provider interface {
	DataType() string
	Fetch(ctx context.Context, symbol string, begin, end time.Time) ([]*DailyRecord, error)
}
