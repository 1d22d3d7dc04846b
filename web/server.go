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

// Package web exposes the query path over HTTP. It is a pure consumer
// of the library's read interface and introduces no new invariants.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/ZhishenZ/Taro/library"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	library *library.Library
	echo    *echo.Echo
}

func NewServer(myLibrary *library.Library) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	server := &Server{library: myLibrary, echo: e}

	e.GET("/healthz", server.health)
	e.GET("/api/v1/companies", server.companies)
	e.GET("/api/v1/metrics/:ticker", server.metrics)

	return server
}

// Start blocks serving HTTP on the given address
func (server *Server) Start(address string) error {
	return server.echo.Start(address)
}

func (server *Server) health(c echo.Context) error {
	if err := server.library.Pool.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (server *Server) companies(c echo.Context) error {
	tickers, err := server.library.Tickers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if tickers == nil {
		tickers = []string{}
	}
	return c.JSON(http.StatusOK, tickers)
}

func (server *Server) metrics(c echo.Context) error {
	ticker := c.Param("ticker")

	startDate, err := parseDateParam(c.QueryParam("start"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start must be YYYY-MM-DD")
	}

	endDate, err := parseDateParam(c.QueryParam("end"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "end must be YYYY-MM-DD")
	}

	rows, err := server.library.QueryMetrics(c.Request().Context(), ticker, startDate, endDate)
	if err != nil {
		if errors.Is(err, library.ErrTickerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, rows)
}

func parseDateParam(val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}

	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
