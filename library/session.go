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
package library

import (
	"context"
	"time"

	"github.com/ZhishenZ/Taro/data"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Session holds one pooled connection for a whole unit of work. A
// backfill run performs its entire per-day sequence over a single
// session instead of opening a connection per day.
type Session struct {
	library *Library
	conn    *pgxpool.Conn
}

// NewSession acquires a connection from the pool. Callers must Release
// the session when the unit of work is done.
func (myLibrary *Library) NewSession(ctx context.Context) (*Session, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	return &Session{library: myLibrary, conn: conn}, nil
}

// Release returns the session's connection to the pool
func (session *Session) Release() {
	session.conn.Release()
}

// GetOrCreateCompany looks up a company by ticker, inserting it on
// first reference. The insert-on-conflict-do-nothing plus select makes
// the operation safe under concurrent first-seen races.
func (session *Session) GetOrCreateCompany(ctx context.Context, ticker string) (int64, error) {
	if id, ok := session.library.companyIDs().Get(ticker); ok {
		return id, nil
	}

	_, err := session.conn.Exec(ctx,
		`INSERT INTO companies (company_ticker) VALUES ($1) ON CONFLICT (company_ticker) DO NOTHING`,
		ticker)
	if err != nil {
		return 0, err
	}

	var id int64
	err = session.conn.QueryRow(ctx,
		`SELECT company_id FROM companies WHERE company_ticker = $1`, ticker).Scan(&id)
	if err != nil {
		return 0, err
	}

	session.library.companyIDs().Set(ticker, id)

	return id, nil
}

// GetOrCreateTradeDate looks up a trading day by calendar date,
// inserting it on first reference. Trade dates are independent of any
// ticker.
func (session *Session) GetOrCreateTradeDate(ctx context.Context, date time.Time) (int64, error) {
	_, err := session.conn.Exec(ctx,
		`INSERT INTO trade_dates (trade_date) VALUES ($1) ON CONFLICT (trade_date) DO NOTHING`,
		date)
	if err != nil {
		return 0, err
	}

	var id int64
	err = session.conn.QueryRow(ctx,
		`SELECT trade_date_id FROM trade_dates WHERE trade_date = $1`, date).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetOrCreateDailyMetrics looks up the (company, trading day) pair,
// inserting it on first reference. The unique constraint on the pair
// guarantees at most one row per company per day.
func (session *Session) GetOrCreateDailyMetrics(ctx context.Context, companyID, tradeDateID int64) (int64, error) {
	_, err := session.conn.Exec(ctx,
		`INSERT INTO daily_metrics (trade_date_id, company_id) VALUES ($1, $2)
		 ON CONFLICT (trade_date_id, company_id) DO NOTHING`,
		tradeDateID, companyID)
	if err != nil {
		return 0, err
	}

	var id int64
	err = session.conn.QueryRow(ctx,
		`SELECT id FROM daily_metrics WHERE trade_date_id = $1 AND company_id = $2`,
		tradeDateID, companyID).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// InsertFundamentalsIfAbsent writes the OHLCV values for a daily
// metrics row exactly once. Re-running an ingestion for a day that was
// already recorded is a no-op that returns false.
func (session *Session) InsertFundamentalsIfAbsent(ctx context.Context, dailyMetricsID int64, bar *data.Bar) (bool, error) {
	tag, err := session.conn.Exec(ctx,
		`INSERT INTO fundamentals (
			"daily_metrics_id",
			"open_price",
			"high_price",
			"low_price",
			"close_price",
			"volume"
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) ON CONFLICT (daily_metrics_id) DO NOTHING`,
		dailyMetricsID,
		decimal.NewFromFloat(bar.Open),
		decimal.NewFromFloat(bar.High),
		decimal.NewFromFloat(bar.Low),
		decimal.NewFromFloat(bar.Close),
		decimal.NewFromInt(bar.Volume))
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
