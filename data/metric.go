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
package data

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// MetricRow is one row of the joined query result: a company's OHLCV
// values for a single trading day. Column order matches the CSV export
// format.
type MetricRow struct {
	TradeDate  DateOnly        `db:"trade_date" csv:"trade_date" json:"trade_date"`
	OpenPrice  decimal.Decimal `db:"open_price" csv:"open_price" json:"open_price"`
	HighPrice  decimal.Decimal `db:"high_price" csv:"high_price" json:"high_price"`
	LowPrice   decimal.Decimal `db:"low_price" csv:"low_price" json:"low_price"`
	ClosePrice decimal.Decimal `db:"close_price" csv:"close_price" json:"close_price"`
	Volume     decimal.Decimal `db:"volume" csv:"volume" json:"volume"`
}

// DateOnly renders a calendar date as YYYY-MM-DD in CSV and JSON output.
type DateOnly struct {
	time.Time
}

func (d DateOnly) MarshalCSV() (string, error) {
	return d.Format("2006-01-02"), nil
}

func (d *DateOnly) UnmarshalCSV(csv string) error {
	t, err := time.Parse("2006-01-02", csv)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// Scan implements sql.Scanner so DATE columns can be read directly into
// a DateOnly field.
func (d *DateOnly) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v
		return nil
	case string:
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	case nil:
		d.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into DateOnly", src)
}

// WriteMetricsCSV writes metric rows in the canonical export format:
// trade_date, open_price, high_price, low_price, close_price, volume
// ordered as given (callers query ordered by trade_date ascending).
func WriteMetricsCSV(rows []*MetricRow, out io.Writer) error {
	return gocsv.Marshal(rows, out)
}
