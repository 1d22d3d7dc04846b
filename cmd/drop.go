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

	"github.com/ZhishenZ/Taro/library"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var dropYes bool

// dropCmd represents the drop command
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop all taro tables from the database",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		dbURL := library.DatabaseURL()

		if !dropYes {
			confirmed := false
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title("This will drop all taro tables from the database.").
						Description(fmt.Sprintf("Database: %s", dbURL)).
						Affirmative("Drop tables").
						Negative("Cancel").
						Value(&confirmed),
				),
			)

			if err := form.Run(); err != nil {
				log.Fatal().Err(err).Msg("error gathering confirmation")
			}

			if !confirmed {
				fmt.Println("Operation cancelled.")
				return
			}
		}

		myLibrary, err := library.New(ctx, dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		log.Info().Msg("dropping all tables")

		if err := myLibrary.DropTables(ctx); err != nil {
			log.Fatal().Err(err).Msg("error dropping tables")
		}

		fmt.Println("All tables dropped successfully (including schema_migrations).")
		fmt.Println("Database is now empty.")
	},
}

func init() {
	rootCmd.AddCommand(dropCmd)

	dropCmd.Flags().BoolVarP(&dropYes, "yes", "y", false, "skip confirmation prompt and proceed with drop")
}
