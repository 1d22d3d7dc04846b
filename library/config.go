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
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

// DatabaseURL resolves the database connection string. A full
// DATABASE_URL wins; otherwise the URL is assembled from the discrete
// DB_HOST / DB_PORT / DB_NAME / DB_USER / DB_PASSWORD settings and
// their defaults.
func DatabaseURL() string {
	if dbURL := viper.GetString("database_url"); dbURL != "" {
		return dbURL
	}

	host := stringOr("db_host", "postgres")
	port := stringOr("db_port", "5432")
	name := stringOr("db_name", "taro_stock")
	user := stringOr("db_user", "taro_user")
	password := stringOr("db_password", "taro_password")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(user), url.QueryEscape(password), host, port, name)
}

func stringOr(key, fallback string) string {
	if val := viper.GetString(key); val != "" {
		return val
	}
	return fallback
}
