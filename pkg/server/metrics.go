//
//  Copyright © Manetu Inc. All rights reserved.
//

package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ims_http_requests_total",
		Help: "HTTP requests served, by route, method, and status code.",
	}, []string{"route", "method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ims_http_request_duration_seconds",
		Help:    "HTTP request service time, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// observeRequests records per-route counters and latency for every request.
func observeRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(route, c.Request().Method,
			strconv.Itoa(c.Response().Status)).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

		return err
	}
}
