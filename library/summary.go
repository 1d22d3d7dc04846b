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
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString("# Taro Stock Library\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	// Database connection string
	if _, err := builder.WriteString(fmt.Sprintf("Database: %s\n\n", myLibrary.DBUrl)); err != nil {
		return "", err
	}

	// Number of companies tracked
	numCompanies, err := myLibrary.NumCompanies(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Companies Tracked: %d\n", numCompanies)); err != nil {
		return "", err
	}

	// Distinct trading days
	numTradingDays, err := myLibrary.NumTradingDays(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Trading Days: %d\n", numTradingDays)); err != nil {
		return "", err
	}

	// Total fundamentals rows
	totalRecords, err := myLibrary.TotalRecords(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Total Records: %d\n\n", totalRecords)); err != nil {
		return "", err
	}

	// Most recent trading day recorded
	lastDate, err := myLibrary.LastTradeDate(ctx)
	if err != nil {
		return "", err
	}

	if lastDate.Equal(time.Time{}) {
		if _, err := builder.WriteString("Last Trade Date: Never\n\n"); err != nil {
			return "", err
		}
	} else {
		age := timeago.English.Format(lastDate)
		if _, err := builder.WriteString(fmt.Sprintf("Last Trade Date: %s (%s)\n\n", age, lastDate.Format("01/02/2006"))); err != nil {
			return "", err
		}
	}

	// Per-company coverage
	if _, err := builder.WriteString("## Companies\n\n"); err != nil {
		return "", err
	}

	coverage, err := myLibrary.Coverage(ctx)
	if err != nil {
		return "", err
	}

	for _, cov := range coverage {
		if _, err := builder.WriteString(p.Sprintf("  * %s (%s - %s) %d records\n", cov.Ticker,
			cov.FirstDate.Format("Jan 2006"), cov.LastDate.Format("Jan 2006"), cov.NumRecords)); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}

// CompanyCoverage describes the recorded date range for one ticker
type CompanyCoverage struct {
	Ticker     string    `db:"company_ticker"`
	FirstDate  time.Time `db:"first_date"`
	LastDate   time.Time `db:"last_date"`
	NumRecords int       `db:"num_records"`
}

// Coverage returns the recorded date range and record count per ticker
func (myLibrary *Library) Coverage(ctx context.Context) ([]*CompanyCoverage, error) {
	rows, err := myLibrary.Pool.Query(ctx,
		`SELECT c.company_ticker, min(td.trade_date) AS first_date, max(td.trade_date) AS last_date,
count(f.id) AS num_records
FROM companies c
JOIN daily_metrics dm ON dm.company_id = c.company_id
JOIN trade_dates td ON td.trade_date_id = dm.trade_date_id
JOIN fundamentals f ON f.daily_metrics_id = dm.id
GROUP BY c.company_ticker
ORDER BY c.company_ticker`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coverage []*CompanyCoverage
	for rows.Next() {
		cov := &CompanyCoverage{}
		if err := rows.Scan(&cov.Ticker, &cov.FirstDate, &cov.LastDate, &cov.NumRecords); err != nil {
			return nil, err
		}
		coverage = append(coverage, cov)
	}

	return coverage, rows.Err()
}
