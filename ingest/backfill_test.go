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
package ingest_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ZhishenZ/Taro/ingest"
)

var _ = Describe("Backfill", func() {
	var (
		ctx      context.Context
		store    *memStore
		client   *memClient
		backfill *ingest.Backfill
		week     []time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemStore()
		week = []time.Time{
			day(2024, time.March, 4),
			day(2024, time.March, 5),
			day(2024, time.March, 6),
			day(2024, time.March, 7),
			day(2024, time.March, 8),
		}
		client = &memClient{
			bars:     barsFor("GOOGL", week...),
			earliest: week[0],
		}
		backfill = &ingest.Backfill{
			Client: client,
			Store:  store,
			Now:    func() time.Time { return day(2024, time.March, 10).Add(15 * time.Hour) },
		}
	})

	run := func(start, end *time.Time) *ingest.Tally {
		tally, err := backfill.Run(ctx, "GOOGL", start, end)
		Expect(err).To(BeNil())
		return tally
	}

	Context("against an empty database", func() {
		It("inserts every received day", func() {
			tally := run(&week[0], &week[4])
			Expect(tally.Received).To(Equal(5))
			Expect(tally.Inserted).To(Equal(5))
			Expect(tally.Skipped).To(BeZero())
			Expect(tally.Failed).To(BeZero())
		})

		It("stores one fundamentals row per trading day", func() {
			run(&week[0], &week[4])
			Expect(store.fundamentals).To(HaveLen(5))
			Expect(store.companies).To(HaveLen(1))
			Expect(store.tradeDates).To(HaveLen(5))
		})

		It("fetches an inclusive range by widening the end by one day", func() {
			run(&week[0], &week[4])
			Expect(client.gotStart).To(Equal(week[0]))
			Expect(client.gotEnd).To(Equal(week[4].AddDate(0, 0, 1)))
		})
	})

	Context("re-running the same range", func() {
		It("skips every day and inserts nothing new", func() {
			run(&week[0], &week[4])
			tally := run(&week[0], &week[4])
			Expect(tally.Received).To(Equal(5))
			Expect(tally.Inserted).To(BeZero())
			Expect(tally.Skipped).To(Equal(5))
			Expect(tally.Failed).To(BeZero())
			Expect(store.fundamentals).To(HaveLen(5))
		})
	})

	Context("overlapping ranges", func() {
		It("inserts only the days not yet recorded", func() {
			run(&week[0], &week[2])
			tally := run(&week[1], &week[4])
			Expect(tally.Inserted).To(Equal(2))
			Expect(tally.Skipped).To(Equal(2))
			Expect(store.fundamentals).To(HaveLen(5))
		})
	})

	Context("when a single day fails to store", func() {
		BeforeEach(func() {
			store.failDates[week[2].Format(time.DateOnly)] = errors.New("duplicate key value violates unique constraint")
		})

		It("counts the failure and keeps processing the remaining days", func() {
			tally := run(&week[0], &week[4])
			Expect(tally.Received).To(Equal(5))
			Expect(tally.Inserted).To(Equal(4))
			Expect(tally.Failed).To(Equal(1))
			Expect(store.fundamentals).To(HaveLen(4))
		})

		It("keeps Received equal to Inserted + Skipped + Failed", func() {
			tally := run(&week[0], &week[4])
			Expect(tally.Received).To(Equal(tally.Inserted + tally.Skipped + tally.Failed))
		})
	})

	Context("date range defaulting", func() {
		It("resolves a nil start from the provider's earliest date", func() {
			run(nil, &week[4])
			Expect(client.gotStart).To(Equal(week[0]))
		})

		It("defaults a nil end to yesterday in UTC", func() {
			run(&week[0], nil)
			Expect(client.gotEnd).To(Equal(day(2024, time.March, 10)))
		})
	})

	Context("upfront failures", func() {
		It("aborts without a tally when the earliest date cannot be resolved", func() {
			client.earliestErr = errors.New("no data available for ticker")
			tally, err := backfill.Run(ctx, "GOOGL", nil, &week[4])
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("could not determine earliest date"))
			Expect(tally).To(BeNil())
			Expect(store.fundamentals).To(BeEmpty())
		})

		It("aborts without a tally when the bulk fetch fails", func() {
			client.historyErr = errors.New("no data available for ticker")
			tally, err := backfill.Run(ctx, "GOOGL", &week[0], &week[4])
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("could not fetch historical data"))
			Expect(tally).To(BeNil())
			Expect(store.fundamentals).To(BeEmpty())
		})
	})

	Context("an empty range", func() {
		It("completes with an all-zero tally", func() {
			start := day(2024, time.June, 1)
			end := day(2024, time.June, 2)
			tally := run(&start, &end)
			Expect(tally.Received).To(BeZero())
			Expect(tally.Inserted).To(BeZero())
			Expect(tally.Skipped).To(BeZero())
			Expect(tally.Failed).To(BeZero())
		})
	})
})
