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
package ingest

import (
	"context"
	"time"

	"github.com/ZhishenZ/Taro/data"
)

// Store is the slice of the repository layer the reconciler drives. It
// is satisfied by *library.Session.
type Store interface {
	GetOrCreateCompany(ctx context.Context, ticker string) (int64, error)
	GetOrCreateTradeDate(ctx context.Context, date time.Time) (int64, error)
	GetOrCreateDailyMetrics(ctx context.Context, companyID, tradeDateID int64) (int64, error)
	InsertFundamentalsIfAbsent(ctx context.Context, dailyMetricsID int64, bar *data.Bar) (bool, error)
}

// MarketClient supplies daily bars over half-open date ranges. It is
// satisfied by *yfinance.Client.
type MarketClient interface {
	FetchHistory(ctx context.Context, ticker string, startDate, endDate time.Time) ([]*data.Bar, error)
	EarliestDate(ctx context.Context, ticker string) (time.Time, error)
}

// Reconcile maps one (ticker, date, bar) data point onto the normalized
// schema. Each step depends on the previous step's id; the final
// insert-if-absent is the idempotence boundary. Returns true when a new
// fundamentals row was written, false when the day was already
// recorded. Storage errors propagate unmasked.
func Reconcile(ctx context.Context, store Store, ticker string, bar *data.Bar) (bool, error) {
	companyID, err := store.GetOrCreateCompany(ctx, ticker)
	if err != nil {
		return false, err
	}

	tradeDateID, err := store.GetOrCreateTradeDate(ctx, bar.TradeDate)
	if err != nil {
		return false, err
	}

	dailyMetricsID, err := store.GetOrCreateDailyMetrics(ctx, companyID, tradeDateID)
	if err != nil {
		return false, err
	}

	return store.InsertFundamentalsIfAbsent(ctx, dailyMetricsID, bar)
}
