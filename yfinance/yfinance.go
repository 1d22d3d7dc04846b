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
package yfinance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ZhishenZ/Taro/data"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultRateLimit = 60 // requests per minute
	userAgent        = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"
)

// ErrNoData is returned for every provider-level failure: transport
// errors, bad status codes and empty responses all collapse into the
// same "absent" result. Callers cannot distinguish a holiday from a
// delisted or invalid ticker.
var ErrNoData = errors.New("no data available for ticker")

// Client fetches daily bars from the Yahoo Finance chart API
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// New constructs a rate-limited Yahoo Finance client
func New() *Client {
	rateLimit := viper.GetInt("yfinance.rate_limit")
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}

	return &Client{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetHeader("User-Agent", userAgent),
		limiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(61)), 1),
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (client *Client) SetBaseURL(baseURL string) {
	client.http.SetBaseURL(baseURL)
}

// private interface

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				FirstTradeDate int64 `json:"firstTradeDate"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (client *Client) chart(ctx context.Context, ticker string, params map[string]string) (*chartResponse, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := client.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(fmt.Sprintf("/v8/finance/chart/%s", ticker))
	if err != nil {
		log.Error().Err(err).Str("Ticker", ticker).Msg("resty returned an error when querying the chart api")
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	if resp.StatusCode() >= 300 {
		log.Error().Int("StatusCode", resp.StatusCode()).Str("Ticker", ticker).
			Str("URL", resp.Request.URL).Msg("yahoo returned an invalid HTTP response")
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	respContent := &chartResponse{}
	if err := json.Unmarshal(resp.Body(), respContent); err != nil {
		log.Error().Err(err).Str("Ticker", ticker).Msg("could not parse chart response")
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	if respContent.Chart.Error != nil {
		log.Warn().Str("Ticker", ticker).Str("Code", respContent.Chart.Error.Code).
			Str("Description", respContent.Chart.Error.Description).Msg("chart api returned an application error")
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	if len(respContent.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	return respContent, nil
}

// FetchHistory returns daily bars for the half-open range [startDate,
// endDate), in ascending trade date order with one bar per distinct
// date. Bars with any missing OHLCV field are silently dropped. All
// provider failures, including an entirely empty range, return
// ErrNoData.
func (client *Client) FetchHistory(ctx context.Context, ticker string, startDate, endDate time.Time) ([]*data.Bar, error) {
	respContent, err := client.chart(ctx, ticker, map[string]string{
		"period1":        fmt.Sprintf("%d", startDate.Unix()),
		"period2":        fmt.Sprintf("%d", endDate.Unix()),
		"interval":       "1d",
		"includePrePost": "false",
		"events":         "div,split",
	})
	if err != nil {
		return nil, err
	}

	result := respContent.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	quote := result.Indicators.Quote[0]

	nyc, err := time.LoadLocation("America/New_York")
	if err != nil {
		log.Error().Err(err).Msg("could not load new york timezone")
		return nil, err
	}

	startDay := tradingDay(startDate.In(time.UTC))
	endDay := tradingDay(endDate.In(time.UTC))

	seen := make(map[time.Time]bool, len(result.Timestamp))
	bars := make([]*data.Bar, 0, len(result.Timestamp))
	for idx, ts := range result.Timestamp {
		if idx >= len(quote.Open) || idx >= len(quote.High) || idx >= len(quote.Low) ||
			idx >= len(quote.Close) || idx >= len(quote.Volume) {
			break
		}

		// a null in any field means yahoo has no usable data for the
		// day; drop the bar rather than surface a per-field error
		if quote.Open[idx] == nil || quote.High[idx] == nil || quote.Low[idx] == nil ||
			quote.Close[idx] == nil || quote.Volume[idx] == nil {
			continue
		}

		// the bar timestamp is the market open in exchange time; the
		// trade date is its calendar day in New York
		tradeDate := tradingDay(time.Unix(ts, 0).In(nyc))

		// enforce the half-open range, yahoo is not consistent about
		// the exclusivity of period2
		if tradeDate.Before(startDay) || !tradeDate.Before(endDay) {
			continue
		}

		if seen[tradeDate] {
			continue
		}
		seen[tradeDate] = true

		bars = append(bars, &data.Bar{
			TradeDate: tradeDate,
			Ticker:    ticker,
			Open:      *quote.Open[idx],
			High:      *quote.High[idx],
			Low:       *quote.Low[idx],
			Close:     *quote.Close[idx],
			Volume:    *quote.Volume[idx],
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].TradeDate.Before(bars[j].TradeDate)
	})

	return bars, nil
}

// FetchSingleDay fetches one day's bar via a one-day history window.
// Returns ErrNoData when the date is not a trading day for the ticker.
func (client *Client) FetchSingleDay(ctx context.Context, ticker string, date time.Time) (*data.Bar, error) {
	day := tradingDay(date)

	bars, err := client.FetchHistory(ctx, ticker, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	for _, bar := range bars {
		if bar.TradeDate.Equal(day) {
			return bar, nil
		}
	}

	return nil, fmt.Errorf("%w: %s on %s", ErrNoData, ticker, day.Format("2006-01-02"))
}

// EarliestDate returns the first date yahoo has any history for the
// ticker, from the chart metadata
func (client *Client) EarliestDate(ctx context.Context, ticker string) (time.Time, error) {
	respContent, err := client.chart(ctx, ticker, map[string]string{
		"interval": "1d",
		"range":    "1d",
	})
	if err != nil {
		return time.Time{}, err
	}

	firstTrade := respContent.Chart.Result[0].Meta.FirstTradeDate
	if firstTrade == 0 {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	return tradingDay(time.Unix(firstTrade, 0).UTC()), nil
}

// tradingDay truncates a timestamp to its calendar date at UTC midnight
func tradingDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
