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
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lucasduport/xtream-bridge/pkg/playlist"
	"github.com/lucasduport/xtream-bridge/pkg/types"
	"github.com/lucasduport/xtream-bridge/pkg/utils"
)

// getCategories lists the upstream categories of one catalog kind. Nameless
// categories are useless for grouping, so they are dropped here.
func (c *Config) getCategories(ctx *gin.Context) {
	kindParam := ctx.DefaultQuery("kind", string(types.KindLive))
	kind, err := types.ParseMediaKind(kindParam)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	cats, err := c.client.Categories(ctx.Request.Context(), kind)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	out := make([]gin.H, 0, len(cats))
	for _, cat := range cats {
		if cat.Name == "" {
			utils.WarnLog("Dropping nameless %s category %q", kind, cat.ID)
			continue
		}
		out = append(out, gin.H{"category_id": cat.ID, "category_name": cat.Name, "parent_id": cat.ParentID})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["category_name"].(string) < out[j]["category_name"].(string)
	})

	ctx.JSON(http.StatusOK, out)
}

// getPlaylist generates the proxified M3U playlist. All catalog fetches
// happen before the first body byte is written, so a portal failure midway
// yields a clean error response instead of a truncated playlist.
func (c *Config) getPlaylist(ctx *gin.Context) {
	kind, err := types.ParseMediaKind(ctx.Query("kind"))
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	var filter []string
	for _, id := range strings.Split(ctx.Query("category_id"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			filter = append(filter, id)
		}
	}
	opts := playlist.Options{CategoryFilter: filter}

	// A single-category filter can be pushed down to the portal; anything
	// else is filtered locally by the normalizer.
	upstreamCategory := ""
	if len(filter) == 1 {
		upstreamCategory = filter[0]
	}

	cats, err := c.client.Categories(ctx.Request.Context(), kind)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	records, err := c.client.Media(ctx.Request.Context(), kind, upstreamCategory)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	entries := playlist.Normalize(records, cats, opts)

	var buf bytes.Buffer
	if err := playlist.Render(&buf, entries, c.AdvertisedURL()); err != nil {
		c.respondError(ctx, err)
		return
	}
	c.metrics.SetPlaylistEntries(len(entries))
	utils.InfoLog("Generated playlist with %d entries", len(entries))

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, "playlist.m3u"))
	ctx.Data(http.StatusOK, "audio/x-mpegurl", buf.Bytes())
}

// getStatus reports liveness plus a credential-free upstream summary.
func (c *Config) getStatus(ctx *gin.Context) {
	upstreamHost := ""
	if u, err := url.Parse(c.XtreamBaseURL); err == nil {
		upstreamHost = u.Host
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"instance":       c.instance,
		"uptime_seconds": int(time.Since(c.started).Seconds()),
		"upstream_host":  upstreamHost,
		"advertised_url": c.AdvertisedURL().String(),
	})
}
