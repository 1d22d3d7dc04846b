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
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ZhishenZ/Taro/library"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Tally is the per-run accounting of the backfill loop. After a run
// completes, Received == Inserted + Skipped + Failed.
type Tally struct {
	Received int
	Inserted int
	Skipped  int
	Failed   int
}

func (tally *Tally) MarshalZerologObject(e *zerolog.Event) {
	e.Int("Received", tally.Received)
	e.Int("Inserted", tally.Inserted)
	e.Int("Skipped", tally.Skipped)
	e.Int("Failed", tally.Failed)
}

// Backfill drives the reconciler across a date range for one ticker
type Backfill struct {
	Client MarketClient
	Store  Store

	// Now is the clock used to default the end date; tests override it
	Now func() time.Time
}

// Run resolves the date range, performs one bulk fetch, then reconciles
// each returned day in order. A nil startDate means "earliest available
// for the ticker"; a nil endDate defaults to yesterday in UTC.
//
// The two upfront conditions -- no earliest date, no data for the whole
// range -- abort the run with an error before any row is written.
// Per-day storage failures are counted and logged but never abort the
// loop; the terminal tally is always reached once the bulk fetch
// succeeds.
func (backfill *Backfill) Run(ctx context.Context, ticker string, startDate, endDate *time.Time) (*Tally, error) {
	now := backfill.Now
	if now == nil {
		now = time.Now
	}

	runID := uuid.New()
	logger := log.With().Str("Ticker", ticker).Str("RunID", runID.String()[:8]).Logger()

	var start time.Time
	if startDate != nil {
		start = *startDate
	} else {
		logger.Info().Msg("resolving earliest available date")
		earliest, err := backfill.Client.EarliestDate(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("could not determine earliest date for %s: %w", ticker, err)
		}
		start = earliest
		logger.Info().Time("EarliestDate", start).Msg("resolved earliest available date")
	}

	var end time.Time
	if endDate != nil {
		end = *endDate
	} else {
		utc := now().UTC()
		end = time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	}

	// the provider treats the range end as exclusive; add one day so
	// the user-supplied inclusive end date is part of the fetch
	logger.Info().Time("StartDate", start).Time("EndDate", end).Msg("downloading historical data")
	bars, err := backfill.Client.FetchHistory(ctx, ticker, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("could not fetch historical data for %s: %w", ticker, err)
	}

	tally := &Tally{Received: len(bars)}
	logger.Info().Int("TradingDays", tally.Received).Msg("downloaded historical data")

	for _, bar := range bars {
		inserted, err := Reconcile(ctx, backfill.Store, ticker, bar)
		switch {
		case err != nil:
			tally.Failed++
			logger.Error().Err(err).Time("TradeDate", bar.TradeDate).
				Bool("IntegrityViolation", library.IsIntegrityViolation(err)).
				Msg("failed to insert day")
		case inserted:
			tally.Inserted++
			logger.Debug().Time("TradeDate", bar.TradeDate).Msg("data inserted")
		default:
			tally.Skipped++
			logger.Debug().Time("TradeDate", bar.TradeDate).Msg("data already exists, skipped")
		}
	}

	logger.Info().Object("Tally", tally).Msg("backfill completed")

	return tally, nil
}
