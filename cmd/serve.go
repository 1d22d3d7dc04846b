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

	"github.com/ZhishenZ/Taro/library"
	"github.com/ZhishenZ/Taro/web"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query interface over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary, err := library.New(ctx, library.DatabaseURL())
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		address := viper.GetString("web.address")
		log.Info().Str("Address", address).Msg("starting web server")

		server := web.NewServer(myLibrary)
		if err := server.Start(address); err != nil {
			log.Fatal().Err(err).Msg("web server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("address", "", "listen address (default :8080)")
	if err := viper.BindPFlag("web.address", serveCmd.Flags().Lookup("address")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for address failed")
	}
}
