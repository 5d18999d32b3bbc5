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
	"os"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/drip-api/common"
	"github.com/penny-vault/drip-api/data"
)

const tiingoAAA = "https://api.tiingo.com/tiingo/daily/AAA/prices?startDate=2020-01-01&endDate=2020-12-31&format=csv&resampleFreq=daily&token=TEST"

var _ = Describe("Tiingo", func() {
	var (
		ctx    context.Context
		tiingo *data.Tiingo
		begin  time.Time
		end    time.Time
	)

	BeforeEach(func() {
		httpmock.Activate()

		ctx = context.Background()
		tz := common.GetTimezone()
		begin = time.Date(2020, 1, 1, 0, 0, 0, 0, tz)
		end = time.Date(2020, 12, 31, 0, 0, 0, 0, tz)
		tiingo = data.NewTiingo("TEST")
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	Context("when the symbol has data", func() {
		BeforeEach(func() {
			content, err := os.ReadFile("../testdata/tiingo_aaa.csv")
			Expect(err).To(BeNil())
			httpmock.RegisterResponder("GET", tiingoAAA, httpmock.NewBytesResponder(200, content))
		})

		It("returns every trading day in date order", func() {
			records, err := tiingo.Fetch(ctx, "AAA", begin, end)
			Expect(err).To(BeNil())
			Expect(records).To(HaveLen(3))

			Expect(records[0].Date.Format("2006-01-02")).To(Equal("2020-01-02"))
			Expect(records[1].Date.Format("2006-01-02")).To(Equal("2020-06-15"))
			Expect(records[2].Date.Format("2006-01-02")).To(Equal("2020-12-31"))
		})

		It("uses unadjusted open, close, and the cash dividend", func() {
			records, err := tiingo.Fetch(ctx, "AAA", begin, end)
			Expect(err).To(BeNil())

			Expect(records[0].Open).To(BeNumerically("~", 10.0))
			Expect(records[0].Close).To(BeNumerically("~", 10.0))
			Expect(records[0].Dividend).To(BeNumerically("==", 0))

			Expect(records[1].Close).To(BeNumerically("~", 12.0))
			Expect(records[1].Dividend).To(BeNumerically("~", 1.0))

			Expect(records[2].Close).To(BeNumerically("~", 15.0))
		})

		It("makes exactly one request", func() {
			_, err := tiingo.Fetch(ctx, "AAA", begin, end)
			Expect(err).To(BeNil())
			Expect(httpmock.GetTotalCallCount()).To(Equal(1))
		})
	})

	Context("when tiingo does not know the symbol", func() {
		BeforeEach(func() {
			httpmock.RegisterResponder("GET", tiingoAAA,
				httpmock.NewStringResponder(404, `{"detail":"Error: Ticker 'AAA' not found"}`))
		})

		It("returns no records and no error", func() {
			records, err := tiingo.Fetch(ctx, "AAA", begin, end)
			Expect(err).To(BeNil())
			Expect(records).To(BeEmpty())
		})
	})

	Context("when the range has no trading days", func() {
		BeforeEach(func() {
			httpmock.RegisterResponder("GET", tiingoAAA,
				httpmock.NewStringResponder(200, "date,close,high,low,open,volume,adjClose,adjHigh,adjLow,adjOpen,adjVolume,divCash,splitFactor\n"))
		})

		It("returns no records and no error", func() {
			records, err := tiingo.Fetch(ctx, "AAA", begin, end)
			Expect(err).To(BeNil())
			Expect(records).To(BeEmpty())
		})
	})

	Context("when tiingo fails", func() {
		It("returns an error for a server error", func() {
			httpmock.RegisterResponder("GET", tiingoAAA, httpmock.NewStringResponder(500, "oops"))

			_, err := tiingo.Fetch(ctx, "AAA", begin, end)
			Expect(errors.Is(err, data.ErrInvalidStatus)).To(BeTrue())
		})

		It("returns an error when the connection fails", func() {
			httpmock.RegisterResponder("GET", tiingoAAA, httpmock.NewErrorResponder(errors.New("connection reset")))

			_, err := tiingo.Fetch(ctx, "AAA", begin, end)
			Expect(err).ToNot(BeNil())
		})

		It("returns an error when a required column is missing", func() {
			httpmock.RegisterResponder("GET", tiingoAAA,
				httpmock.NewStringResponder(200, "date,close\n2020-01-02,10.0\n"))

			_, err := tiingo.Fetch(ctx, "AAA", begin, end)
			Expect(errors.Is(err, data.ErrMissingColumn)).To(BeTrue())
		})
	})

	It("rejects an inverted range without calling tiingo", func() {
		_, err := tiingo.Fetch(ctx, "AAA", end, begin)
		Expect(err).To(MatchError(data.ErrInvalidTimeRange))
		Expect(httpmock.GetTotalCallCount()).To(Equal(0))
	})
})
