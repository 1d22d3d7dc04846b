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
package ingest_test

import (
	"context"
	"time"

	"github.com/ZhishenZ/Taro/data"
)

// memStore is an in-memory Store that mirrors the upsert semantics of
// the relational layer: get-or-create lookups by natural key and an
// insert-if-absent fundamentals table keyed by daily metrics id.
type memStore struct {
	companies    map[string]int64
	tradeDates   map[string]int64
	dailyMetrics map[[2]int64]int64
	fundamentals map[int64]*data.Bar

	// failDates trips an error inside InsertFundamentalsIfAbsent for
	// the listed trade dates
	failDates map[string]error

	nextID int64
}

func newMemStore() *memStore {
	return &memStore{
		companies:    make(map[string]int64),
		tradeDates:   make(map[string]int64),
		dailyMetrics: make(map[[2]int64]int64),
		fundamentals: make(map[int64]*data.Bar),
		failDates:    make(map[string]error),
	}
}

func (store *memStore) id() int64 {
	store.nextID++
	return store.nextID
}

func (store *memStore) GetOrCreateCompany(_ context.Context, ticker string) (int64, error) {
	if id, ok := store.companies[ticker]; ok {
		return id, nil
	}
	id := store.id()
	store.companies[ticker] = id
	return id, nil
}

func (store *memStore) GetOrCreateTradeDate(_ context.Context, date time.Time) (int64, error) {
	key := date.Format(time.DateOnly)
	if id, ok := store.tradeDates[key]; ok {
		return id, nil
	}
	id := store.id()
	store.tradeDates[key] = id
	return id, nil
}

func (store *memStore) GetOrCreateDailyMetrics(_ context.Context, companyID, tradeDateID int64) (int64, error) {
	key := [2]int64{companyID, tradeDateID}
	if id, ok := store.dailyMetrics[key]; ok {
		return id, nil
	}
	id := store.id()
	store.dailyMetrics[key] = id
	return id, nil
}

func (store *memStore) InsertFundamentalsIfAbsent(_ context.Context, dailyMetricsID int64, bar *data.Bar) (bool, error) {
	if err, ok := store.failDates[bar.TradeDate.Format(time.DateOnly)]; ok {
		return false, err
	}
	if _, ok := store.fundamentals[dailyMetricsID]; ok {
		return false, nil
	}
	store.fundamentals[dailyMetricsID] = bar
	return true, nil
}

// memClient serves canned history from memory
type memClient struct {
	bars     []*data.Bar
	earliest time.Time

	historyErr  error
	earliestErr error

	// the range the last FetchHistory call asked for
	gotStart time.Time
	gotEnd   time.Time
}

func (client *memClient) FetchHistory(_ context.Context, _ string, startDate, endDate time.Time) ([]*data.Bar, error) {
	client.gotStart = startDate
	client.gotEnd = endDate
	if client.historyErr != nil {
		return nil, client.historyErr
	}
	var out []*data.Bar
	for _, bar := range client.bars {
		if !bar.TradeDate.Before(startDate) && bar.TradeDate.Before(endDate) {
			out = append(out, bar)
		}
	}
	return out, nil
}

func (client *memClient) EarliestDate(_ context.Context, _ string) (time.Time, error) {
	if client.earliestErr != nil {
		return time.Time{}, client.earliestErr
	}
	return client.earliest, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func barsFor(ticker string, dates ...time.Time) []*data.Bar {
	bars := make([]*data.Bar, 0, len(dates))
	for i, date := range dates {
		bars = append(bars, &data.Bar{
			TradeDate: date,
			Ticker:    ticker,
			Open:      100 + float64(i),
			High:      101 + float64(i),
			Low:       99 + float64(i),
			Close:     100.5 + float64(i),
			Volume:    1_000_000 + int64(i),
		})
	}
	return bars
}
