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
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lucasduport/xtream-bridge/pkg/types"
	"github.com/lucasduport/xtream-bridge/pkg/utils"
)

// respondError maps an error to a status code and a JSON body. Upstream
// failures get a generic message so nothing the portal knows about us, the
// credentials included, can bounce back to the caller.
func (c *Config) respondError(ctx *gin.Context, err error) {
	var upErr *types.UpstreamError

	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrAuthFailed):
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "upstream authentication failed"})
	case errors.Is(err, types.ErrNotFound):
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &upErr):
		utils.ErrorLog("Upstream failure: %v", err)
		c.metrics.IncUpstreamErrors()
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "upstream request failed"})
	default:
		utils.ErrorLog("Internal failure: %v", err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// contentTypeForExt maps a media extension to the Content-Type served when
// the upstream does not provide one.
func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case "m3u8":
		return "application/vnd.apple.mpegurl"
	case "ts":
		return "video/mp2t"
	case "mp4":
		return "video/mp4"
	case "mkv":
		return "video/x-matroska"
	default:
		return "application/octet-stream"
	}
}

// isManifestResponse reports whether an upstream response body is an HLS
// manifest rather than raw media. The requested path does not count as
// evidence: portals sometimes answer a manifest URL with raw media, and
// binary bytes must never reach the rewriter.
func isManifestResponse(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "mpegurl") {
		return true
	}
	return bytes.HasPrefix(body, []byte("#EXTM3U"))
}

// setNoBufferingHeaders keeps intermediaries from buffering a live stream.
func setNoBufferingHeaders(ctx *gin.Context, contentType string) {
	if contentType != "" {
		ctx.Header("Content-Type", contentType)
	}
	ctx.Header("Cache-Control", "no-store")
	ctx.Header("Pragma", "no-cache")
	ctx.Header("X-Accel-Buffering", "no")
}

type values []string

func (vs values) contains(s string) bool {
	for _, v := range vs {
		if v == s {
			return true
		}
	}
	return false
}

// mergeHttpHeader copies headers from src to dst without duplicating identical values.
func mergeHttpHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			if values(dst.Values(k)).contains(v) {
				continue
			}
			dst.Add(k, v)
		}
	}
}
