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
	"errors"
	"fmt"
	"time"

	"github.com/ZhishenZ/Taro/data"
	"github.com/georgysavva/scany/v2/pgxscan"
)

var (
	ErrTickerNotFound = errors.New("ticker not found in library")
)

// QueryMetrics reads back the OHLCV history for a ticker, joined across
// all four tables and ordered by trade date ascending. Nil start/end
// leave that side of the range unbounded. Returns ErrTickerNotFound
// when the company has never been ingested.
func (myLibrary *Library) QueryMetrics(ctx context.Context, ticker string, startDate, endDate *time.Time) ([]*data.MetricRow, error) {
	exists := false
	err := myLibrary.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM companies WHERE company_ticker = $1)`, ticker).Scan(&exists)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	sql := `SELECT td.trade_date, f.open_price, f.high_price, f.low_price, f.close_price, f.volume
FROM fundamentals f
JOIN daily_metrics dm ON dm.id = f.daily_metrics_id
JOIN trade_dates td ON td.trade_date_id = dm.trade_date_id
JOIN companies c ON c.company_id = dm.company_id
WHERE c.company_ticker = $1`

	args := []any{ticker}
	if startDate != nil {
		args = append(args, *startDate)
		sql += fmt.Sprintf(" AND td.trade_date >= $%d", len(args))
	}
	if endDate != nil {
		args = append(args, *endDate)
		sql += fmt.Sprintf(" AND td.trade_date <= $%d", len(args))
	}

	sql += " ORDER BY td.trade_date"

	var rows []*data.MetricRow
	if err := pgxscan.Select(ctx, myLibrary.Pool, &rows, sql, args...); err != nil {
		return nil, err
	}

	return rows, nil
}
