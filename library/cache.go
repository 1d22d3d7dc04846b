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
package library

import (
	"sync"

	"github.com/alphadose/haxmap"
)

// ticker -> company_id lookups repeat once per day during a backfill;
// companies are append-only so cached ids never go stale.
var (
	companyIDMap  *haxmap.Map[string, int64]
	companyIDOnce sync.Once
)

func (myLibrary *Library) companyIDs() *haxmap.Map[string, int64] {
	companyIDOnce.Do(func() {
		companyIDMap = haxmap.New[string, int64]()
	})
	return companyIDMap
}
