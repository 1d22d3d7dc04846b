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
	"os"
	"path/filepath"
	"time"

	"github.com/ZhishenZ/Taro/healthcheck"
	"github.com/ZhishenZ/Taro/ingest"
	"github.com/ZhishenZ/Taro/library"
	"github.com/ZhishenZ/Taro/yfinance"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var daemonTest bool

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the daily fetch once per day",
	Long: `The daemon sub-command sleeps until the configured UTC hour, then runs
the daily fetch-and-store routine for every configured ticker. A run
log is written per ticker and day; an optional healthchecks.io ping
signals run health.`,
	Run: func(cmd *cobra.Command, args []string) {
		if daemonTest {
			runDailyRoutine()
			return
		}

		taskHour := viper.GetInt("daemon.task_utc_hour")
		sleepTime := time.Duration(viper.GetInt("daemon.sleep_seconds")) * time.Second

		log.Info().Int("TaskUTCHour", taskHour).Msg("taro daemon started")

		prevHour := taskHour - 1
		for {
			time.Sleep(sleepTime)

			currHour := time.Now().UTC().Hour()
			if prevHour == taskHour-1 && currHour == taskHour {
				log.Info().Msg("daemon triggering daily routine")
				runDailyRoutine()
			}
			prevHour = currHour
		}
	},
}

// runDailyRoutine fetches and stores the last completed trading day for
// every configured ticker. Per-ticker failures do not stop the routine.
func runDailyRoutine() {
	ctx := context.Background()
	tickers := viper.GetStringSlice("daemon.tickers")
	date := marketDate(time.Now())

	myLibrary, err := library.New(ctx, library.DatabaseURL())
	if err != nil {
		log.Error().Err(err).Msg("could not connect to database")
		if err := healthcheck.PingFailure(); err != nil {
			log.Error().Err(err).Msg("could not ping healthcheck")
		}
		return
	}
	defer myLibrary.Close()

	session, err := myLibrary.NewSession(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not acquire database session")
		return
	}
	defer session.Release()

	client := yfinance.New()
	failures := 0

	for _, ticker := range tickers {
		result := "inserted"

		bar, err := client.FetchSingleDay(ctx, ticker, date)
		switch {
		case err != nil:
			result = fmt.Sprintf("no data: %v", err)
		default:
			inserted, err := ingest.Reconcile(ctx, session, ticker, bar)
			if err != nil {
				failures++
				result = fmt.Sprintf("failed: %v", err)
				log.Error().Err(err).Str("Ticker", ticker).Msg("could not save daily bar")
			} else if !inserted {
				result = "already exists, skipped"
			}
		}

		writeRoutineLog(ticker, date, result)
	}

	if failures > 0 {
		err = healthcheck.PingFailure()
	} else {
		err = healthcheck.Ping()
	}
	if err != nil {
		log.Error().Err(err).Msg("could not ping healthcheck")
	}
}

// writeRoutineLog records one ticker's daily outcome under the
// configured log directory
func writeRoutineLog(ticker string, date time.Time, result string) {
	logDir := viper.GetString("daemon.log_dir")
	if logDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Error().Err(err).Msg("could not determine user home directory")
			return
		}
		logDir = filepath.Join(home, "taro_logs")
	}

	dir := filepath.Join(logDir, date.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error().Err(err).Str("Dir", dir).Msg("could not create log directory")
		return
	}

	fn := filepath.Join(dir, slug.Make(ticker)+".log")
	line := fmt.Sprintf("%s %s %s\n", time.Now().UTC().Format(time.RFC3339), ticker, result)

	if err := os.WriteFile(fn, []byte(line), 0644); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not write routine log")
	}
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().BoolVarP(&daemonTest, "test", "T", false, "run the daily routine once and exit")
}
