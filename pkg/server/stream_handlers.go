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
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lucasduport/xtream-bridge/pkg/hls"
	"github.com/lucasduport/xtream-bridge/pkg/types"
	"github.com/lucasduport/xtream-bridge/pkg/utils"
	"github.com/lucasduport/xtream-bridge/pkg/xtream"
)

// maxManifestSize caps how much of a manifest response gets buffered for
// rewriting.
const maxManifestSize = 8 * 1024 * 1024

// getMedia serves /play/{id}.{ext}. Live manifests get buffered and
// rewritten; everything else is forwarded as a raw byte stream.
func (c *Config) getMedia(ctx *gin.Context) {
	file := ctx.Param("file")
	dot := strings.LastIndex(file, ".")
	if dot <= 0 || dot == len(file)-1 {
		c.respondError(ctx, fmt.Errorf("%w: expected {id}.{ext}, got %q", types.ErrInvalidArgument, file))
		return
	}
	id, ext := file[:dot], file[dot+1:]

	// Without an explicit type the extension decides: HLS extensions mean a
	// live channel, container extensions mean a movie.
	var kind types.MediaKind
	switch ctx.Query("type") {
	case "":
		if ext == "m3u8" || ext == "ts" {
			kind = types.KindLive
		} else {
			kind = types.KindVod
		}
	case "movie":
		kind = types.KindVod
	case "series":
		kind = types.KindSeries
	default:
		c.respondError(ctx, fmt.Errorf("%w: unknown type %q", types.ErrInvalidArgument, ctx.Query("type")))
		return
	}

	target := xtream.UpstreamTarget{
		Origin:   c.XtreamBaseURL,
		Username: c.XtreamUser,
		Password: c.XtreamPassword,
		Kind:     kind,
		StreamID: id,
		Ext:      ext,
	}
	upstreamURL, err := target.URL()
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	if kind == types.KindLive && ext == "m3u8" {
		c.forwardManifest(ctx, target, upstreamURL)
		return
	}
	c.forwardMedia(ctx, upstreamURL, contentTypeForExt(ext))
}

// getSegment serves /play/segment?id=...&file=..., the URLs a rewritten
// manifest points players at. The upstream location is rebuilt from the two
// parameters; nothing is remembered between requests.
func (c *Config) getSegment(ctx *gin.Context) {
	id := ctx.Query("id")
	file := ctx.Query("file")
	if id == "" || file == "" {
		c.respondError(ctx, fmt.Errorf("%w: id and file are both required", types.ErrInvalidArgument))
		return
	}

	if strings.HasPrefix(file, "http://") || strings.HasPrefix(file, "https://") {
		// Absolute references only land here when the rewriter put them
		// there, which it only does under rewrite-absolute.
		if !c.RewriteAbsolute {
			c.respondError(ctx, fmt.Errorf("%w: absolute segment references are not accepted", types.ErrInvalidArgument))
			return
		}
		c.forwardMedia(ctx, file, "video/mp2t")
		return
	}
	if strings.Contains(file, "..") {
		c.respondError(ctx, fmt.Errorf("%w: segment reference must not traverse", types.ErrInvalidArgument))
		return
	}

	target := xtream.UpstreamTarget{
		Origin:   c.XtreamBaseURL,
		Username: c.XtreamUser,
		Password: c.XtreamPassword,
		Kind:     types.KindLive,
		StreamID: id,
	}
	upstreamURL, err := target.SegmentURL(file)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	c.forwardMedia(ctx, upstreamURL, "video/mp2t")
}

// forwardManifest fetches a live manifest, trying the legacy get.php form
// exactly once when the canonical URL does not answer, and serves it with
// every segment reference rewritten to come back through this service.
func (c *Config) forwardManifest(ctx *gin.Context, target xtream.UpstreamTarget, upstreamURL string) {
	client := &http.Client{Timeout: c.ManifestTimeout}

	resp, err := c.fetchManifest(ctx, client, upstreamURL)
	if err != nil || resp.StatusCode != http.StatusOK {
		if resp != nil {
			resp.Body.Close()
		}
		utils.DebugLog("Canonical manifest URL failed (err=%v), trying get.php fallback", err)
		resp, err = c.fetchManifest(ctx, client, target.FallbackURL())
		if err != nil {
			c.respondError(ctx, types.NewUpstreamError(0, fmt.Errorf("manifest request failed")))
			return
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.respondError(ctx, fmt.Errorf("%w: stream %s", types.ErrNotFound, target.StreamID))
		return
	}
	if resp.StatusCode != http.StatusOK {
		c.respondError(ctx, types.NewUpstreamError(resp.StatusCode, fmt.Errorf("manifest request returned HTTP %d", resp.StatusCode)))
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		c.respondError(ctx, types.NewUpstreamError(0, fmt.Errorf("manifest read failed")))
		return
	}

	if !isManifestResponse(resp.Header.Get("Content-Type"), body) {
		// Some portals answer a manifest URL with raw media. Pass it on
		// untouched rather than corrupting it with a rewrite.
		ctx.Data(http.StatusOK, resp.Header.Get("Content-Type"), body)
		return
	}

	rewritten := hls.Rewrite(string(body), hls.Context{
		StreamID:        target.StreamID,
		ProxyBase:       c.AdvertisedURL(),
		RewriteAbsolute: c.RewriteAbsolute,
	})
	ctx.Data(http.StatusOK, "application/vnd.apple.mpegurl", []byte(rewritten))
}

func (c *Config) fetchManifest(ctx *gin.Context, client *http.Client, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx.Request.Context(), http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.client.UserAgent)
	req.Header.Set("Accept", "*/*")
	resp, err := client.Do(req)
	if err != nil {
		// Transport errors embed the credentialed URL; keep only the cause.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return nil, uerr.Err
		}
		return nil, err
	}
	return resp, nil
}

// forwardMedia proxies a media URL to the client as an unmodified byte
// stream, flushing as data arrives. The copy stops as soon as the client
// goes away.
func (c *Config) forwardMedia(ctx *gin.Context, upstreamURL, fallbackContentType string) {
	done := c.metrics.ForwardStarted()
	defer done()

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: c.MediaTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// No global timeout; the stream runs as long as the client stays.
	client := &http.Client{Transport: transport}

	req, err := http.NewRequestWithContext(ctx.Request.Context(), http.MethodGet, upstreamURL, nil)
	if err != nil {
		c.respondError(ctx, utils.PrintErrorAndReturn(fmt.Errorf("building upstream request: %w", err)))
		return
	}
	if v := ctx.Request.Header.Get("Range"); v != "" {
		req.Header.Set("Range", v)
	}
	if v := ctx.Request.Header.Get("Accept"); v != "" {
		req.Header.Set("Accept", v)
	} else {
		req.Header.Set("Accept", "*/*")
	}
	req.Header.Set("User-Agent", c.client.UserAgent)
	req.Header.Set("Accept-Encoding", "identity")

	utils.DebugLog("-> Forwarding to upstream: %s", utils.MaskURL(upstreamURL))

	resp, err := client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		utils.ErrorLog("Upstream media request failed: %v", err)
		c.metrics.IncUpstreamErrors()
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "upstream request failed"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.respondError(ctx, fmt.Errorf("%w: upstream media", types.ErrNotFound))
		return
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.respondError(ctx, types.NewUpstreamError(resp.StatusCode, fmt.Errorf("media request returned HTTP %d", resp.StatusCode)))
		return
	}

	mergeHttpHeader(ctx.Writer.Header(), resp.Header)
	if resp.Header.Get("Content-Type") == "" {
		setNoBufferingHeaders(ctx, fallbackContentType)
	} else {
		setNoBufferingHeaders(ctx, "")
	}
	ctx.Status(resp.StatusCode)

	w := ctx.Writer
	buf := make([]byte, 64*1024)
	for {
		select {
		case <-ctx.Request.Context().Done():
			utils.DebugLog("Client cancelled stream for %s", ctx.Request.URL.Path)
			return
		default:
		}

		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				utils.DebugLog("Client write error: %v", werr)
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
		if rerr != nil {
			if rerr != io.EOF {
				utils.DebugLog("Upstream read error: %v", rerr)
			}
			return
		}
	}
}
