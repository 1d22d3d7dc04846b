// Copyright 2025
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
package yfinance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ZhishenZ/Taro/yfinance"
)

// chartPayload mirrors the subset of the chart api response the client
// reads. Fields are pointers in the quote arrays so tests can inject
// the nulls yahoo emits for days it has no usable data for.
type chartPayload struct {
	FirstTradeDate int64
	Timestamps     []int64
	Open           []*float64
	High           []*float64
	Low            []*float64
	Close          []*float64
	Volume         []*int64
}

func (payload *chartPayload) body() []byte {
	quote := map[string]any{
		"open":   payload.Open,
		"high":   payload.High,
		"low":    payload.Low,
		"close":  payload.Close,
		"volume": payload.Volume,
	}
	doc := map[string]any{
		"chart": map[string]any{
			"result": []any{
				map[string]any{
					"meta":       map[string]any{"firstTradeDate": payload.FirstTradeDate},
					"timestamp":  payload.Timestamps,
					"indicators": map[string]any{"quote": []any{quote}},
				},
			},
			"error": nil,
		},
	}
	out, err := json.Marshal(doc)
	Expect(err).To(BeNil())
	return out
}

func fptr(v float64) *float64 { return &v }
func iptr(v int64) *int64     { return &v }

// openTS is the market open on the given date, expressed in UTC. The
// dates used here fall in eastern standard time, when the 09:30 New
// York open is 14:30 UTC.
func openTS(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 14, 30, 0, 0, time.UTC).Unix()
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addBar appends one fully-populated day to the payload
func (payload *chartPayload) addBar(y int, m time.Month, d int, px float64, vol int64) {
	payload.Timestamps = append(payload.Timestamps, openTS(y, m, d))
	payload.Open = append(payload.Open, fptr(px))
	payload.High = append(payload.High, fptr(px+1))
	payload.Low = append(payload.Low, fptr(px-1))
	payload.Close = append(payload.Close, fptr(px+0.5))
	payload.Volume = append(payload.Volume, iptr(vol))
}

// addNullBar appends a day whose close price is null
func (payload *chartPayload) addNullBar(y int, m time.Month, d int) {
	payload.Timestamps = append(payload.Timestamps, openTS(y, m, d))
	payload.Open = append(payload.Open, fptr(1))
	payload.High = append(payload.High, fptr(2))
	payload.Low = append(payload.Low, fptr(0.5))
	payload.Close = append(payload.Close, nil)
	payload.Volume = append(payload.Volume, iptr(100))
}

var _ = Describe("Client", func() {
	var (
		ctx     context.Context
		client  *yfinance.Client
		server  *httptest.Server
		handler http.HandlerFunc
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		client = yfinance.New()
		client.SetBaseURL(server.URL)
	})

	AfterEach(func() {
		server.Close()
	})

	serve := func(payload *chartPayload) {
		body := payload.body()
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
		}
	}

	Describe("FetchHistory", func() {
		It("returns bars in ascending trade date order", func() {
			payload := &chartPayload{}
			payload.addBar(2024, time.March, 6, 104, 3000)
			payload.addBar(2024, time.March, 4, 100, 1000)
			payload.addBar(2024, time.March, 5, 102, 2000)
			serve(payload)

			bars, err := client.FetchHistory(ctx, "GOOGL", utcDay(2024, time.March, 4), utcDay(2024, time.March, 9))
			Expect(err).To(BeNil())
			Expect(bars).To(HaveLen(3))
			Expect(bars[0].TradeDate).To(Equal(utcDay(2024, time.March, 4)))
			Expect(bars[1].TradeDate).To(Equal(utcDay(2024, time.March, 5)))
			Expect(bars[2].TradeDate).To(Equal(utcDay(2024, time.March, 6)))
			Expect(bars[0].Ticker).To(Equal("GOOGL"))
			Expect(bars[0].Open).To(Equal(100.0))
			Expect(bars[0].Volume).To(Equal(int64(1000)))
		})

		It("excludes the end date of the half-open range", func() {
			payload := &chartPayload{}
			payload.addBar(2024, time.March, 4, 100, 1000)
			payload.addBar(2024, time.March, 5, 102, 2000)
			serve(payload)

			bars, err := client.FetchHistory(ctx, "GOOGL", utcDay(2024, time.March, 4), utcDay(2024, time.March, 5))
			Expect(err).To(BeNil())
			Expect(bars).To(HaveLen(1))
			Expect(bars[0].TradeDate).To(Equal(utcDay(2024, time.March, 4)))
		})

		It("drops bars with a null field", func() {
			payload := &chartPayload{}
			payload.addBar(2024, time.March, 4, 100, 1000)
			payload.addNullBar(2024, time.March, 5)
			payload.addBar(2024, time.March, 6, 104, 3000)
			serve(payload)

			bars, err := client.FetchHistory(ctx, "GOOGL", utcDay(2024, time.March, 4), utcDay(2024, time.March, 9))
			Expect(err).To(BeNil())
			Expect(bars).To(HaveLen(2))
			Expect(bars[0].TradeDate).To(Equal(utcDay(2024, time.March, 4)))
			Expect(bars[1].TradeDate).To(Equal(utcDay(2024, time.March, 6)))
		})

		It("keeps the first bar when the provider repeats a date", func() {
			payload := &chartPayload{}
			payload.addBar(2024, time.March, 4, 100, 1000)
			payload.addBar(2024, time.March, 4, 999, 9999)
			serve(payload)

			bars, err := client.FetchHistory(ctx, "GOOGL", utcDay(2024, time.March, 4), utcDay(2024, time.March, 5))
			Expect(err).To(BeNil())
			Expect(bars).To(HaveLen(1))
			Expect(bars[0].Open).To(Equal(100.0))
		})

		It("returns ErrNoData when every bar falls outside the range", func() {
			payload := &chartPayload{}
			payload.addBar(2024, time.March, 4, 100, 1000)
			serve(payload)

			_, err := client.FetchHistory(ctx, "GOOGL", utcDay(2024, time.June, 1), utcDay(2024, time.June, 8))
			Expect(err).To(MatchError(yfinance.ErrNoData))
		})

		It("returns ErrNoData on an application-level chart error", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
			}

			_, err := client.FetchHistory(ctx, "NOSUCH", utcDay(2024, time.March, 4), utcDay(2024, time.March, 9))
			Expect(err).To(MatchError(yfinance.ErrNoData))
		})

		It("returns ErrNoData on a non-2xx status", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}

			_, err := client.FetchHistory(ctx, "NOSUCH", utcDay(2024, time.March, 4), utcDay(2024, time.March, 9))
			Expect(err).To(MatchError(yfinance.ErrNoData))
		})

		It("returns ErrNoData on a malformed body", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>upstream error</html>`))
			}

			_, err := client.FetchHistory(ctx, "GOOGL", utcDay(2024, time.March, 4), utcDay(2024, time.March, 9))
			Expect(err).To(MatchError(yfinance.ErrNoData))
		})
	})

	Describe("FetchSingleDay", func() {
		It("returns the bar for the requested date", func() {
			payload := &chartPayload{}
			payload.addBar(2024, time.March, 5, 102, 2000)
			serve(payload)

			bar, err := client.FetchSingleDay(ctx, "GOOGL", utcDay(2024, time.March, 5))
			Expect(err).To(BeNil())
			Expect(bar.TradeDate).To(Equal(utcDay(2024, time.March, 5)))
			Expect(bar.Close).To(Equal(102.5))
		})

		It("returns ErrNoData for a non-trading day", func() {
			payload := &chartPayload{}
			payload.addBar(2024, time.March, 8, 104, 3000)
			serve(payload)

			// saturday
			_, err := client.FetchSingleDay(ctx, "GOOGL", utcDay(2024, time.March, 9))
			Expect(err).To(MatchError(yfinance.ErrNoData))
		})
	})

	Describe("EarliestDate", func() {
		It("reads the first trade date from the chart metadata", func() {
			payload := &chartPayload{FirstTradeDate: openTS(2004, time.August, 19)}
			payload.addBar(2024, time.March, 4, 100, 1000)
			serve(payload)

			earliest, err := client.EarliestDate(ctx, "GOOGL")
			Expect(err).To(BeNil())
			Expect(earliest).To(Equal(utcDay(2004, time.August, 19)))
		})

		It("returns ErrNoData when the metadata has no first trade date", func() {
			payload := &chartPayload{}
			payload.addBar(2024, time.March, 4, 100, 1000)
			serve(payload)

			_, err := client.EarliestDate(ctx, "GOOGL")
			Expect(err).To(MatchError(yfinance.ErrNoData))
		})
	})
})
