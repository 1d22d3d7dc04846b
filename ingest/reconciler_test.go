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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ZhishenZ/Taro/data"
	"github.com/ZhishenZ/Taro/ingest"
)

var _ = Describe("Reconcile", func() {
	var (
		ctx   context.Context
		store *memStore
		bar   *data.Bar
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemStore()
		bar = barsFor("MSFT", day(2024, time.January, 2))[0]
	})

	It("inserts a new day and reports it as inserted", func() {
		inserted, err := ingest.Reconcile(ctx, store, "MSFT", bar)
		Expect(err).To(BeNil())
		Expect(inserted).To(BeTrue())
	})

	It("reports an already-recorded day as skipped", func() {
		_, err := ingest.Reconcile(ctx, store, "MSFT", bar)
		Expect(err).To(BeNil())

		inserted, err := ingest.Reconcile(ctx, store, "MSFT", bar)
		Expect(err).To(BeNil())
		Expect(inserted).To(BeFalse())
		Expect(store.fundamentals).To(HaveLen(1))
	})

	It("reuses the company and trade date rows across days and tickers", func() {
		second := barsFor("MSFT", day(2024, time.January, 3))[0]
		other := barsFor("AAPL", day(2024, time.January, 2))[0]

		for _, item := range []struct {
			ticker string
			bar    *data.Bar
		}{{"MSFT", bar}, {"MSFT", second}, {"AAPL", other}} {
			_, err := ingest.Reconcile(ctx, store, item.ticker, item.bar)
			Expect(err).To(BeNil())
		}

		Expect(store.companies).To(HaveLen(2))
		Expect(store.tradeDates).To(HaveLen(2))
		Expect(store.fundamentals).To(HaveLen(3))
	})

	It("keeps two tickers on the same date distinct", func() {
		other := barsFor("AAPL", day(2024, time.January, 2))[0]

		insertedA, err := ingest.Reconcile(ctx, store, "MSFT", bar)
		Expect(err).To(BeNil())
		insertedB, err := ingest.Reconcile(ctx, store, "AAPL", other)
		Expect(err).To(BeNil())

		Expect(insertedA).To(BeTrue())
		Expect(insertedB).To(BeTrue())
		Expect(store.fundamentals).To(HaveLen(2))
	})

	It("propagates storage errors unmasked", func() {
		boom := context.DeadlineExceeded
		store.failDates[bar.TradeDate.Format(time.DateOnly)] = boom

		inserted, err := ingest.Reconcile(ctx, store, "MSFT", bar)
		Expect(err).To(MatchError(boom))
		Expect(inserted).To(BeFalse())
	})
})
