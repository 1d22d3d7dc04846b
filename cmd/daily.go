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
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ZhishenZ/Taro/ingest"
	"github.com/ZhishenZ/Taro/library"
	"github.com/ZhishenZ/Taro/yfinance"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dailyTicker string
	dailyDate   string
	dailyUpdate bool
)

// dailyCmd represents the daily command
var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Fetch one day's bar for a ticker",
	Long: `The daily sub-command fetches a single day's OHLCV bar and prints it.
With --update-database the bar is also reconciled into the database
using the same upsert sequence as backfill. When no date is given the
most recent completed trading day is used.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		var date time.Time
		if dailyDate == "" {
			date = marketDate(time.Now())
		} else {
			var err error
			date, err = time.Parse("2006-01-02", dailyDate)
			if err != nil {
				log.Fatal().Err(err).Str("Date", dailyDate).Msg("invalid date, expected YYYY-MM-DD")
			}
		}

		client := yfinance.New()
		bar, err := client.FetchSingleDay(ctx, dailyTicker, date)
		if err != nil {
			log.Fatal().Err(err).Str("Ticker", dailyTicker).Time("Date", date).
				Msg("no trading data (possibly a holiday or invalid symbol)")
		}

		fmt.Printf("%s %s  open=%.2f high=%.2f low=%.2f close=%.2f volume=%d\n",
			bar.Ticker, bar.TradeDate.Format("2006-01-02"),
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)

		if !dailyUpdate {
			return
		}

		myLibrary, err := library.New(ctx, library.DatabaseURL())
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		session, err := myLibrary.NewSession(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not acquire database session")
		}
		defer session.Release()

		inserted, err := ingest.Reconcile(ctx, session, dailyTicker, bar)
		if err != nil {
			log.Fatal().Err(err).Str("Ticker", dailyTicker).Msg("could not save bar to database")
		}

		if inserted {
			fmt.Println("Data inserted")
		} else {
			fmt.Println("Data already exists, skipped")
		}
	},
}

func init() {
	rootCmd.AddCommand(dailyCmd)

	dailyCmd.Flags().StringVarP(&dailyTicker, "ticker", "t", "GOOGL", "stock ticker symbol")
	dailyCmd.Flags().StringVarP(&dailyDate, "date", "d", "", "date to fetch (YYYY-MM-DD), default: last completed trading day")
	dailyCmd.Flags().BoolVarP(&dailyUpdate, "update-database", "u", false, "save the fetched bar to the database")
}

// marketDate returns today's UTC date, or yesterday's when the market
// has not closed yet
func marketDate(now time.Time) time.Time {
	utc := now.UTC()
	closeHour := viper.GetFloat64("close_utc_hour")

	date := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	if float64(utc.Hour())+float64(utc.Minute())/60 < closeHour+0.1 {
		date = date.AddDate(0, 0, -1)
	}

	return date
}
