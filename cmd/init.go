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
	"os"
	"path/filepath"

	"github.com/ZhishenZ/Taro/db"
	"github.com/ZhishenZ/Taro/library"
	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather database configuration and setup schema",
	Run: func(cmd *cobra.Command, args []string) {
		dbURL := viper.GetString("database_url")

		// no connection string configured -- ask for one
		if dbURL == "" && os.Getenv("DB_HOST") == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname])").
						Value(&dbURL).
						Validate(func(dsn string) error {
							_, err := pgx.ParseConfig(dsn)
							return err
						}),
				),
			)

			if err := form.Run(); err != nil {
				log.Fatal().Err(err).Msg("error gathering database settings")
			}

			viper.Set("database_url", dbURL)
		}

		if dbURL == "" {
			dbURL = library.DatabaseURL()
		}

		log.Info().Msg("creating database tables")

		if err := db.Migrate(dbURL); err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")

		// save database settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".taro.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving database connection info to config file")

		configData, err := toml.Marshal(map[string]string{"database_url": dbURL})
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		if err := os.WriteFile(configFN, configData, 0600); err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your stock library has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
