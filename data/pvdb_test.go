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

package data_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"

	"github.com/penny-vault/drip-api/common"
	"github.com/penny-vault/drip-api/data"
	"github.com/penny-vault/drip-api/data/database"
	"github.com/penny-vault/drip-api/pgxmockhelper"
)

var _ = Describe("PvDb", func() {
	var (
		ctx    context.Context
		dbPool pgxmock.PgxConnIface
		pvdb   *data.PvDb
		tz     *time.Location
		begin  time.Time
		end    time.Time
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		tz = common.GetTimezone()
		begin = time.Date(2020, 1, 1, 0, 0, 0, 0, tz)
		end = time.Date(2020, 12, 31, 0, 0, 0, 0, tz)

		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)

		pvdb = data.NewPvDb()
	})

	AfterEach(func() {
		dbPool.Close(context.Background())
	})

	It("returns the records in the requested range", func() {
		pgxmockhelper.MockDBEodQuery(dbPool, "../testdata/eod_aaa.csv", "AAA", begin, end)

		records, err := pvdb.Fetch(ctx, "AAA", begin, end)
		Expect(err).To(BeNil())
		Expect(records).To(HaveLen(5))

		Expect(records[0].Date).To(Equal(time.Date(2020, 1, 2, 16, 0, 0, 0, tz)))
		Expect(records[0].Open).To(BeNumerically("~", 10.0))
		Expect(records[3].Dividend).To(BeNumerically("~", 1.0))
		Expect(records[4].Date).To(Equal(time.Date(2020, 12, 31, 16, 0, 0, 0, tz)))
		Expect(records[4].Close).To(BeNumerically("~", 15.0))

		Expect(dbPool.ExpectationsWereMet()).To(Succeed())
	})

	It("returns no records for an unknown ticker", func() {
		dbPool.ExpectBegin()
		dbPool.ExpectExec("SET ROLE").WillReturnResult(pgxmock.NewResult("SET", 0))
		dbPool.ExpectQuery("SELECT event_date").WithArgs("ZZZZ", begin, end).
			WillReturnRows(pgxmock.NewRows([]string{"event_date", "open", "close", "dividend"}))
		dbPool.ExpectCommit()

		records, err := pvdb.Fetch(ctx, "ZZZZ", begin, end)
		Expect(err).To(BeNil())
		Expect(records).To(BeEmpty())
		Expect(dbPool.ExpectationsWereMet()).To(Succeed())
	})

	It("rolls back when the query fails", func() {
		queryErr := errors.New("relation \"eod\" does not exist")

		dbPool.ExpectBegin()
		dbPool.ExpectExec("SET ROLE").WillReturnResult(pgxmock.NewResult("SET", 0))
		dbPool.ExpectQuery("SELECT event_date").WillReturnError(queryErr)
		dbPool.ExpectRollback()

		_, err := pvdb.Fetch(ctx, "AAA", begin, end)
		Expect(err).To(MatchError(queryErr))
		Expect(dbPool.ExpectationsWereMet()).To(Succeed())
	})

	It("fails when the role cannot be assumed", func() {
		dbPool.ExpectBegin()
		dbPool.ExpectExec("SET ROLE").WillReturnError(errors.New("role does not exist"))
		dbPool.ExpectRollback()

		_, err := pvdb.Fetch(ctx, "AAA", begin, end)
		Expect(err).ToNot(BeNil())
		Expect(dbPool.ExpectationsWereMet()).To(Succeed())
	})
})
