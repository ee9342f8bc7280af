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

package xtream

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lucasduport/xtream-bridge/pkg/config"
	"github.com/lucasduport/xtream-bridge/pkg/types"
)

// UpstreamTarget identifies one playable resource on the portal. It is the
// only place upstream media URLs are assembled, so credential handling stays
// in one spot.
type UpstreamTarget struct {
	Origin   string
	Username config.CredentialString
	Password config.CredentialString
	Kind     types.MediaKind
	StreamID string
	Ext      string
}

// pathPrefix maps a media kind to the portal's URL path family.
func (t UpstreamTarget) pathPrefix() (string, error) {
	switch t.Kind {
	case types.KindLive:
		return "live", nil
	case types.KindVod:
		return "movie", nil
	case types.KindSeries, types.KindEpisode:
		return "series", nil
	}
	return "", fmt.Errorf("%w: no upstream path for kind %q", types.ErrInvalidArgument, t.Kind)
}

// URL builds the direct media URL on the portal, with credentials embedded
// as path segments the way Xtream portals expect.
func (t UpstreamTarget) URL() (string, error) {
	prefix, err := t.pathPrefix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s.%s",
		strings.TrimRight(t.Origin, "/"),
		prefix,
		t.Username.PathEscape(),
		t.Password.PathEscape(),
		url.PathEscape(t.StreamID),
		url.PathEscape(t.Ext),
	), nil
}

// FallbackURL builds the legacy get.php form of a live manifest URL. Some
// portals only serve HLS through this endpoint.
func (t UpstreamTarget) FallbackURL() string {
	params := url.Values{}
	params.Set("username", t.Username.String())
	params.Set("password", t.Password.String())
	params.Set("type", "m3u_plus")
	params.Set("output", "ts")
	params.Set("streamid", t.StreamID)
	return strings.TrimRight(t.Origin, "/") + "/get.php?" + params.Encode()
}

// SegmentURL resolves a segment reference taken from a rewritten manifest.
// Relative references resolve against the manifest's own directory on the
// portal; file is kept verbatim because it can carry its own query string.
func (t UpstreamTarget) SegmentURL(file string) (string, error) {
	prefix, err := t.pathPrefix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		strings.TrimRight(t.Origin, "/"),
		prefix,
		t.Username.PathEscape(),
		t.Password.PathEscape(),
		file,
	), nil
}
