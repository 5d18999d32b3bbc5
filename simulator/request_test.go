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

package simulator_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/drip-api/simulator"
)

var _ = Describe("Request", func() {
	It("parses a complete request", func() {
		req, err := simulator.ParseRequest([]byte(`{"starting_cash": 10000, "start_year": 2020, "end_year": 2021, "tickers": ["AAA", "bbb"]}`))
		Expect(err).To(BeNil())
		Expect(req.StartingCash).To(BeNumerically("==", 10_000))
		Expect(req.StartYear).To(Equal(2020))
		Expect(req.EndYear).To(Equal(2021))
		Expect(req.Tickers).To(Equal([]string{"AAA", "bbb"}))
	})

	It("accepts numbers sent as strings", func() {
		req, err := simulator.ParseRequest([]byte(`{"starting_cash": "2500.50", "start_year": "2019", "end_year": " 2020 ", "tickers": ["AAA"]}`))
		Expect(err).To(BeNil())
		Expect(req.StartingCash).To(BeNumerically("==", 2500.50))
		Expect(req.StartYear).To(Equal(2019))
		Expect(req.EndYear).To(Equal(2020))
	})

	DescribeTable("rejects bad requests",
		func(body string, msg string) {
			req, err := simulator.ParseRequest([]byte(body))
			Expect(req).To(BeNil())
			Expect(errors.Is(err, simulator.ErrBadRequest)).To(BeTrue())
			Expect(err.Error()).To(Equal(msg))
		},
		Entry("not json", `starting_cash=100`, "request body must be a JSON object"),
		Entry("json array", `[1, 2, 3]`, "request body must be a JSON object"),
		Entry("missing tickers", `{"starting_cash": 100, "start_year": 2020, "end_year": 2020}`,
			"Missing required fields: starting_cash, start_year, end_year, tickers"),
		Entry("null cash", `{"starting_cash": null, "start_year": 2020, "end_year": 2020, "tickers": ["AAA"]}`,
			"Missing required fields: starting_cash, start_year, end_year, tickers"),
		Entry("empty tickers", `{"starting_cash": 100, "start_year": 2020, "end_year": 2020, "tickers": []}`,
			"Missing required fields: starting_cash, start_year, end_year, tickers"),
		Entry("tickers is a string", `{"starting_cash": 100, "start_year": 2020, "end_year": 2020, "tickers": "AAA"}`,
			"tickers must be a list of strings"),
		Entry("ticker is a number", `{"starting_cash": 100, "start_year": 2020, "end_year": 2020, "tickers": ["AAA", 7]}`,
			"tickers must be a list of strings"),
		Entry("cash is not numeric", `{"starting_cash": "lots", "start_year": 2020, "end_year": 2020, "tickers": ["AAA"]}`,
			"starting_cash must be a number"),
		Entry("fractional year", `{"starting_cash": 100, "start_year": 2020.5, "end_year": 2021, "tickers": ["AAA"]}`,
			"start_year must be an integer"),
		Entry("boolean year", `{"starting_cash": 100, "start_year": 2020, "end_year": true, "tickers": ["AAA"]}`,
			"end_year must be an integer"),
		Entry("zero cash", `{"starting_cash": 0, "start_year": 2020, "end_year": 2020, "tickers": ["AAA"]}`,
			"starting_cash must be positive"),
		Entry("inverted years", `{"starting_cash": 100, "start_year": 2021, "end_year": 2020, "tickers": ["AAA"]}`,
			"start_year must be <= end_year"),
	)

	It("places no bounds on the years beyond their order", func() {
		req, err := simulator.ParseRequest([]byte(`{"starting_cash": 100, "start_year": 0, "end_year": 10000, "tickers": ["AAA"]}`))
		Expect(err).To(BeNil())
		Expect(req.StartYear).To(Equal(0))
		Expect(req.EndYear).To(Equal(10000))
	})

	It("splits cash evenly between tickers", func() {
		req := &simulator.Request{StartingCash: 900, StartYear: 2020, EndYear: 2020, Tickers: []string{"A", "B", "C"}}
		Expect(req.CashPerTicker()).To(BeNumerically("==", 300))
	})

	It("covers whole calendar years", func() {
		req := &simulator.Request{StartingCash: 900, StartYear: 2019, EndYear: 2020, Tickers: []string{"A"}}
		begin, end := req.Window()
		Expect(begin.Year()).To(Equal(2019))
		Expect(begin.Month()).To(Equal(time.January))
		Expect(begin.Day()).To(Equal(1))
		Expect(end.Year()).To(Equal(2020))
		Expect(end.Month()).To(Equal(time.December))
		Expect(end.Day()).To(Equal(31))
	})
})
