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
	"strings"
	"time"

	"github.com/ZhishenZ/Taro/ingest"
	"github.com/ZhishenZ/Taro/library"
	"github.com/ZhishenZ/Taro/yfinance"
	"github.com/hako/durafmt"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	backfillTicker string
	backfillStart  string
	backfillEnd    string
)

// backfillCmd represents the backfill command
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Load historical daily prices for a ticker",
	Long: `The backfill sub-command downloads the full price history for a ticker
and reconciles it into the database day by day. Days already present
are skipped; days that fail to insert are counted and the run
continues. A final tally of received/inserted/skipped/failed days is
always printed once the download succeeds.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		startDate, err := parseDateFlag(backfillStart)
		if err != nil {
			log.Fatal().Err(err).Str("Start", backfillStart).Msg("invalid start date, expected YYYY-MM-DD")
		}

		endDate, err := parseDateFlag(backfillEnd)
		if err != nil {
			log.Fatal().Err(err).Str("End", backfillEnd).Msg("invalid end date, expected YYYY-MM-DD")
		}

		myLibrary, err := library.New(ctx, library.DatabaseURL())
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		// one connection for the whole run
		session, err := myLibrary.NewSession(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not acquire database session")
		}
		defer session.Release()

		backfill := &ingest.Backfill{
			Client: yfinance.New(),
			Store:  session,
		}

		startTime := time.Now()
		tally, err := backfill.Run(ctx, backfillTicker, startDate, endDate)
		if err != nil {
			log.Fatal().Err(err).Str("Ticker", backfillTicker).Msg("backfill aborted")
		}

		runTime := time.Since(startTime)

		fmt.Println(strings.Repeat("=", 50))
		fmt.Printf("Backfill completed for %s in %s\n", backfillTicker, durafmt.Parse(runTime).LimitFirstN(2))
		fmt.Printf("Total trading days received: %d\n", tally.Received)
		fmt.Printf("Successfully inserted: %d\n", tally.Inserted)
		fmt.Printf("Skipped (already exists): %d\n", tally.Skipped)
		fmt.Printf("Failed (database error): %d\n", tally.Failed)
		fmt.Println(strings.Repeat("=", 50))
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().StringVarP(&backfillTicker, "ticker", "t", "", "stock ticker symbol (e.g. GOOGL)")
	backfillCmd.Flags().StringVarP(&backfillStart, "start", "s", "", "start date (YYYY-MM-DD), default: earliest available date for ticker")
	backfillCmd.Flags().StringVarP(&backfillEnd, "end", "e", "", "end date (YYYY-MM-DD), default: yesterday")

	if err := backfillCmd.MarkFlagRequired("ticker"); err != nil {
		log.Panic().Err(err).Msg("MarkFlagRequired for ticker failed")
	}
}

// parseDateFlag turns an optional YYYY-MM-DD flag into a date pointer
func parseDateFlag(val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}

	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
