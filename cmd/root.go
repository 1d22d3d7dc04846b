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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taro",
	Short: "taro maintains a database of daily stock prices",
	Long: `taro is a command line utility for building and querying a database of
daily OHLCV (open/high/low/close/volume) stock prices. Prices are
fetched from Yahoo Finance, normalized into a small relational schema,
and can be read back as CSV or served over HTTP.

Typical usage:

	taro init                         # create the database schema
	taro backfill -t GOOGL            # load full price history
	taro daily -t GOOGL -u            # fetch and store yesterday's bar
	taro query -t GOOGL -o googl.csv  # export history to CSV`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.taro.toml)")
	rootCmd.PersistentFlags().String("dbUrl", "", "database connection string")
	if err := viper.BindPFlag("database_url", rootCmd.PersistentFlags().Lookup("dbUrl")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for dbUrl failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// a local .env mirrors the docker development setup
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".taro" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".taro")
	}

	viper.SetDefault("close_utc_hour", 21)
	viper.SetDefault("daemon.task_utc_hour", 22)
	viper.SetDefault("daemon.sleep_seconds", 10)
	viper.SetDefault("daemon.tickers", []string{"GOOGL"})
	viper.SetDefault("web.address", ":8080")

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
