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
	"time"

	"github.com/rs/zerolog"
)

// Bar is one day's OHLCV record for a ticker as returned by the market
// data provider. Prices are quoted in the listing currency.
type Bar struct {
	TradeDate time.Time `json:"trade_date"`
	Ticker    string    `json:"ticker"`
	Open      float64   `json:"open_price"`
	High      float64   `json:"high_price"`
	Low       float64   `json:"low_price"`
	Close     float64   `json:"close_price"`
	Volume    int64     `json:"volume"`
}

func (bar *Bar) MarshalZerologObject(e *zerolog.Event) {
	e.Time("TradeDate", bar.TradeDate)
	e.Str("Ticker", bar.Ticker)
	e.Float64("Open", bar.Open)
	e.Float64("High", bar.High)
	e.Float64("Low", bar.Low)
	e.Float64("Close", bar.Close)
	e.Int64("Volume", bar.Volume)
}
