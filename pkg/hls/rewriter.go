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

// Package hls rewrites HLS manifests so segment requests come back through
// the proxy instead of hitting the portal with embedded credentials.
package hls

import (
	"net/url"
	"strings"
)

// Context carries what a rewrite needs to know about the stream being
// served. StreamID lets the segment endpoint rebuild the upstream location
// without any per-request state on the server.
type Context struct {
	StreamID        string
	ProxyBase       *url.URL
	RewriteAbsolute bool
}

// Rewrite transforms a manifest line by line. Tag and comment lines (leading
// '#') and blank lines pass through untouched. Relative segment references
// are replaced with proxy segment URLs. Absolute references stay as they are
// unless RewriteAbsolute is set. Line count, order and terminators are all
// preserved.
func Rewrite(manifest string, rc Context) string {
	lines := strings.Split(manifest, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSuffix(line, "\r")
		terminator := line[len(trimmed):]

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if isAbsolute(trimmed) && !rc.RewriteAbsolute {
			continue
		}

		lines[i] = rc.segmentURL(trimmed) + terminator
	}
	return strings.Join(lines, "\n")
}

// segmentURL builds the proxy URL serving one segment reference.
func (rc Context) segmentURL(ref string) string {
	params := url.Values{}
	params.Set("file", ref)
	params.Set("id", rc.StreamID)
	return strings.TrimRight(rc.ProxyBase.String(), "/") + "/play/segment?" + params.Encode()
}

func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
