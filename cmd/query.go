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
	"errors"
	"fmt"
	"os"

	"github.com/ZhishenZ/Taro/backblaze"
	"github.com/ZhishenZ/Taro/data"
	"github.com/ZhishenZ/Taro/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	queryTicker  string
	queryStart   string
	queryEnd     string
	queryOutput  string
	queryVerbose bool
	queryUpload  bool
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Read back stored prices for a ticker",
	Long: `The query sub-command reads a ticker's stored history, optionally
filtered by date, ordered by trade date ascending. Results are printed
to the console or exported as CSV with the columns
trade_date, open_price, high_price, low_price, close_price, volume.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		startDate, err := parseDateFlag(queryStart)
		if err != nil {
			log.Fatal().Err(err).Str("Start", queryStart).Msg("invalid start date, expected YYYY-MM-DD")
		}

		endDate, err := parseDateFlag(queryEnd)
		if err != nil {
			log.Fatal().Err(err).Str("End", queryEnd).Msg("invalid end date, expected YYYY-MM-DD")
		}

		myLibrary, err := library.New(ctx, library.DatabaseURL())
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		rows, err := myLibrary.QueryMetrics(ctx, queryTicker, startDate, endDate)
		if err != nil {
			if errors.Is(err, library.ErrTickerNotFound) {
				fmt.Printf("Error: Ticker '%s' not found in database or no data available.\n", queryTicker)
				fmt.Printf("Please run backfill first: taro backfill -t %s\n", queryTicker)
				os.Exit(1)
			}
			log.Fatal().Err(err).Str("Ticker", queryTicker).Msg("query failed")
		}

		if len(rows) == 0 {
			fmt.Printf("No data found for ticker '%s'\n", queryTicker)
			if queryStart != "" || queryEnd != "" {
				fmt.Printf("Date range: %s to %s\n", orDefault(queryStart, "earliest"), orDefault(queryEnd, "latest"))
			}
			return
		}

		if queryOutput != "" {
			exportCSV(rows)
			return
		}

		printRows(rows)
	},
}

func exportCSV(rows []*data.MetricRow) {
	out, err := os.Create(queryOutput)
	if err != nil {
		log.Fatal().Err(err).Str("FileName", queryOutput).Msg("could not create output file")
	}

	if err := data.WriteMetricsCSV(rows, out); err != nil {
		out.Close()
		log.Fatal().Err(err).Str("FileName", queryOutput).Msg("could not write csv")
	}

	if err := out.Close(); err != nil {
		log.Fatal().Err(err).Str("FileName", queryOutput).Msg("could not close output file")
	}

	fmt.Printf("Data saved to %s\n", queryOutput)
	fmt.Printf("Total records: %d\n", len(rows))

	if queryVerbose {
		fmt.Println("\nFirst few rows:")
		printHead(rows, 10)
	}

	if queryUpload {
		if err := backblaze.UploadExport(queryOutput, queryTicker); err != nil {
			log.Fatal().Err(err).Str("FileName", queryOutput).Msg("could not upload export")
		}
	}
}

func printRows(rows []*data.MetricRow) {
	fmt.Printf("\nData for %s:\n", queryTicker)

	if queryVerbose {
		printHead(rows, len(rows))
		fmt.Printf("Total records: %d\n", len(rows))
		return
	}

	fmt.Printf("Total records: %d\n", len(rows))
	fmt.Printf("Date range: %s to %s\n",
		rows[0].TradeDate.Format("2006-01-02"),
		rows[len(rows)-1].TradeDate.Format("2006-01-02"))

	fmt.Println("\nFirst 5 rows:")
	printHead(rows, 5)

	if len(rows) > 5 {
		fmt.Println("\nLast 5 rows:")
		printHead(rows[max(0, len(rows)-5):], 5)
	}

	fmt.Println("\nUse --verbose flag to see the full table")
}

func printHead(rows []*data.MetricRow, n int) {
	fmt.Printf("%-12s %12s %12s %12s %12s %14s\n",
		"trade_date", "open_price", "high_price", "low_price", "close_price", "volume")
	for idx, row := range rows {
		if idx >= n {
			break
		}
		fmt.Printf("%-12s %12s %12s %12s %12s %14s\n",
			row.TradeDate.Format("2006-01-02"),
			row.OpenPrice.StringFixed(2), row.HighPrice.StringFixed(2),
			row.LowPrice.StringFixed(2), row.ClosePrice.StringFixed(2),
			row.Volume.StringFixed(0))
	}
}

func orDefault(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVarP(&queryTicker, "ticker", "t", "", "stock ticker symbol (e.g. GOOGL)")
	queryCmd.Flags().StringVarP(&queryStart, "start", "s", "", "start date filter (YYYY-MM-DD)")
	queryCmd.Flags().StringVarP(&queryEnd, "end", "e", "", "end date filter (YYYY-MM-DD)")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "", "output CSV file path, prints to console when omitted")
	queryCmd.Flags().BoolVarP(&queryVerbose, "verbose", "v", false, "show the full table")
	queryCmd.Flags().BoolVar(&queryUpload, "upload", false, "upload the exported CSV to the configured backblaze bucket")

	if err := queryCmd.MarkFlagRequired("ticker"); err != nil {
		log.Panic().Err(err).Msg("MarkFlagRequired for ticker failed")
	}
}
