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

	"github.com/jackc/pgx/v5/pgxpool"
)

// Library is a handle to the taro stock database. The pool is created
// once per invocation; units of work acquire a Session that holds a
// single connection for their whole run.
type Library struct {
	DBUrl string

	Pool *pgxpool.Pool
}

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, myLibrary.DBUrl)
	if err != nil {
		return err
	}
	myLibrary.Pool = pool

	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	myLibrary.Pool.Close()
}

// New creates a library handle and verifies the database is reachable
func New(ctx context.Context, dbURL string) (*Library, error) {
	myLibrary := &Library{DBUrl: dbURL}
	if err := myLibrary.Connect(ctx); err != nil {
		return nil, err
	}

	if err := myLibrary.Pool.Ping(ctx); err != nil {
		myLibrary.Pool.Close()
		return nil, err
	}

	return myLibrary, nil
}

// NumCompanies returns the number of tickers tracked in the library
func (myLibrary *Library) NumCompanies(ctx context.Context) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, "SELECT count(*) FROM companies").Scan(&count)
	return count, err
}

// NumTradingDays returns the number of distinct trading days recorded
func (myLibrary *Library) NumTradingDays(ctx context.Context) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, "SELECT count(*) FROM trade_dates").Scan(&count)
	return count, err
}

// TotalRecords returns the total number of fundamentals rows in the library
func (myLibrary *Library) TotalRecords(ctx context.Context) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, "SELECT count(*) FROM fundamentals").Scan(&count)
	return count, err
}

// LastTradeDate returns the most recent trading day recorded, or the
// zero time when the library is empty
func (myLibrary *Library) LastTradeDate(ctx context.Context) (time.Time, error) {
	var lastDate time.Time
	err := myLibrary.Pool.QueryRow(ctx,
		"SELECT coalesce(max(trade_date), '0001-01-01'::date) FROM trade_dates").Scan(&lastDate)
	if err != nil {
		return time.Time{}, err
	}

	if lastDate.Year() == 1 {
		return time.Time{}, nil
	}

	return lastDate, nil
}

// Tickers returns all tracked tickers in alphabetical order
func (myLibrary *Library) Tickers(ctx context.Context) ([]string, error) {
	rows, err := myLibrary.Pool.Query(ctx,
		"SELECT company_ticker FROM companies ORDER BY company_ticker")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, err
		}
		tickers = append(tickers, ticker)
	}

	return tickers, rows.Err()
}

// DropTables removes the full taro schema, including the migration
// version table. This is the only destructive operation in the system.
func (myLibrary *Library) DropTables(ctx context.Context) error {
	stmts := []string{
		"DROP TABLE IF EXISTS fundamentals CASCADE",
		"DROP TABLE IF EXISTS daily_metrics CASCADE",
		"DROP TABLE IF EXISTS trade_dates CASCADE",
		"DROP TABLE IF EXISTS companies CASCADE",
		"DROP TABLE IF EXISTS schema_migrations CASCADE",
	}

	for _, stmt := range stmts {
		if _, err := myLibrary.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
