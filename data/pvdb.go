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

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/penny-vault/drip-api/common"
	"github.com/penny-vault/drip-api/data/database"
	"github.com/penny-vault/drip-api/observability/opentelemetry"
)

const pvdbRole = "pvuser"

const eodSQL = `SELECT event_date, open, close, COALESCE(dividend, 0.0) FROM eod WHERE ticker=$1 AND event_date BETWEEN $2 AND $3 ORDER BY event_date`

// PvDb reads end-of-day prices from the eod table of a penny vault database
type PvDb struct {
}

// NewPvDb Create a new PVDB data provider
func NewPvDb() *PvDb {
	return &PvDb{}
}

func (p *PvDb) DataType() string {
	return "pvdb"
}

func (p *PvDb) Fetch(ctx context.Context, symbol string, begin, end time.Time) ([]*DailyRecord, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pvdb.Fetch")
	defer span.End()

	span.SetAttributes(attribute.String("Symbol", symbol))

	subLog := log.With().Str("Symbol", symbol).Time("Begin", begin).Time("End", end).Logger()

	if end.Before(begin) {
		subLog.Warn().Msg("end before begin in call to Fetch")
		return nil, ErrInvalidTimeRange
	}

	trx, err := database.TrxForRole(ctx, pvdbRole)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load eod prices -- could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	rows, err := trx.Query(ctx, eodSQL, symbol, begin, end)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load eod prices -- db query failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Str("SQL", eodSQL).Msg(msg)
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}
	defer rows.Close()

	tz := common.GetTimezone()
	records := make([]*DailyRecord, 0, 252)
	for rows.Next() {
		var eventDate time.Time
		rec := &DailyRecord{}
		if err := rows.Scan(&eventDate, &rec.Open, &rec.Close, &rec.Dividend); err != nil {
			span.RecordError(err)
			subLog.Error().Stack().Err(err).Msg("failed to load eod prices -- db query scan failed")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}

		rec.Date = time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 16, 0, 0, 0, tz)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		subLog.Error().Stack().Err(err).Msg("failed to load eod prices -- row iteration failed")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("error committing transaction")
	}

	return records, nil
}
