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

package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	instanceid "github.com/satori/go.uuid"

	"github.com/lucasduport/xtream-bridge/pkg/config"
	"github.com/lucasduport/xtream-bridge/pkg/metrics"
	"github.com/lucasduport/xtream-bridge/pkg/utils"
	"github.com/lucasduport/xtream-bridge/pkg/xtream"
)

// Config represent the server configuration
type Config struct {
	*config.ProxyConfig

	client   *xtream.Client
	metrics  *metrics.Metrics
	started  time.Time
	instance string
}

// NewServer wires the catalog client and the metrics registry into a server.
func NewServer(conf *config.ProxyConfig) (*Config, error) {
	if !conf.HasUpstream() {
		return nil, utils.PrintErrorAndReturn(fmt.Errorf("xtream base URL, user and password are all required"))
	}

	client, err := xtream.New(conf.XtreamUser, conf.XtreamPassword, conf.XtreamBaseURL, conf.UserAgent, conf.CatalogTimeout)
	if err != nil {
		return nil, err
	}

	return &Config{
		ProxyConfig: conf,
		client:      client,
		metrics:     metrics.New(),
		started:     time.Now(),
		instance:    instanceid.NewV4().String(),
	}, nil
}

// Serve the xtream-bridge api
func (c *Config) Serve() error {
	utils.InfoLog("[xtream-bridge] Server is starting...")
	utils.InfoLog("Upstream portal: %s (user: %v)", utils.MaskURL(c.XtreamBaseURL), c.XtreamUser)

	// A failed handshake is worth knowing about at boot, but the portal may
	// just be down right now, so it does not stop the server.
	authCtx, cancel := context.WithTimeout(context.Background(), c.CatalogTimeout)
	defer cancel()
	if err := c.client.Authenticate(authCtx); err != nil {
		utils.WarnLog("Upstream authentication check failed: %v", err)
	} else {
		utils.InfoLog("Upstream authentication OK")
	}

	router := gin.Default()
	router.Use(cors.Default())
	router.Use(c.requestID())
	router.Use(c.observe())

	c.routes(router)

	utils.InfoLog("[xtream-bridge] Server is ready and listening on :%d", c.HostConfig.Port)
	return router.Run(fmt.Sprintf(":%d", c.HostConfig.Port))
}

func (c *Config) routes(router *gin.Engine) {
	router.GET("/categories", c.getCategories)
	router.GET("/playlist", c.getPlaylist)
	router.GET("/playlist.m3u", c.getPlaylist)
	router.GET("/play/segment", c.getSegment)
	router.GET("/play/:file", c.getMedia)
	router.GET("/status", c.getStatus)
	router.GET("/metrics", gin.WrapH(c.metrics.Handler()))
}

// requestID tags every request so log lines of one request can be grouped.
func (c *Config) requestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := uuid.NewString()
		ctx.Set("request_id", id)
		ctx.Header("X-Request-ID", id)
		ctx.Next()
	}
}

// observe feeds the per-route request counter after the handler ran.
func (c *Config) observe() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.metrics.ObserveRequest(route, ctx.Writer.Status())
	}
}
