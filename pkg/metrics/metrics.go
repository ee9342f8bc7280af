/*
 * xtream-bridge is a project to expose an Xtream Codes IPTV catalog as a
 * standard M3U playlist and to proxy its media streams.
 * Copyright (C) 2025  Lucas Duport
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the bridge.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	upstreamErrors  prometheus.Counter
	activeForwards  prometheus.Gauge
	playlistEntries prometheus.Gauge
}

// New creates and registers the bridge instruments on a private registry so
// the /metrics endpoint only exposes what this service owns.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_requests_total",
		Help: "Total number of HTTP requests received, by route and status",
	}, []string{"route", "status"})
	upstreamErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_upstream_errors_total",
		Help: "Total number of failed portal requests",
	})
	activeForwards := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_active_forwards",
		Help: "Number of media forwards currently in flight",
	})
	playlistEntries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_playlist_entries",
		Help: "Number of entries in the most recently generated playlist",
	})

	registry.MustRegister(
		requestsTotal,
		upstreamErrors,
		activeForwards,
		playlistEntries,
	)

	return &Metrics{
		registry:        registry,
		requestsTotal:   requestsTotal,
		upstreamErrors:  upstreamErrors,
		activeForwards:  activeForwards,
		playlistEntries: playlistEntries,
	}
}

// ObserveRequest counts one finished request.
func (m *Metrics) ObserveRequest(route string, status int) {
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// IncUpstreamErrors counts one failed portal round trip.
func (m *Metrics) IncUpstreamErrors() {
	m.upstreamErrors.Inc()
}

// ForwardStarted marks a media forward as in flight until the returned
// function is called.
func (m *Metrics) ForwardStarted() func() {
	m.activeForwards.Inc()
	return m.activeForwards.Dec
}

// SetPlaylistEntries records the size of the last generated playlist.
func (m *Metrics) SetPlaylistEntries(n int) {
	m.playlistEntries.Set(float64(n))
}

// Handler returns the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
