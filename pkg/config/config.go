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

package config

import (
	"fmt"
	"net/url"
	"time"
)

// HostConfiguration holds the listening host parameters.
type HostConfiguration struct {
	Hostname string
	Port     int
}

// CredentialString is a string carrying an upstream secret. Formatting a
// CredentialString with the fmt verbs prints a mask, so an accidental %v in a
// log line cannot leak it; callers that really need the value use String()
// or PathEscape() explicitly.
type CredentialString string

// String returns the raw credential value.
func (s CredentialString) String() string {
	return string(s)
}

// PathEscape returns the credential escaped for use in a URL path segment.
func (s CredentialString) PathEscape() string {
	return url.PathEscape(string(s))
}

// Format implements fmt.Formatter and always prints a mask.
func (s CredentialString) Format(f fmt.State, verb rune) {
	fmt.Fprint(f, "********")
}

// ProxyConfig holds the whole bridge configuration. Credentials live here and
// are handed to the catalog client and stream forwarder at construction time;
// no package reads them from the environment on its own.
type ProxyConfig struct {
	HostConfig *HostConfiguration

	XtreamBaseURL  string
	XtreamUser     CredentialString
	XtreamPassword CredentialString

	// AdvertisedPort and HTTPS shape the URLs written into generated
	// playlists and rewritten manifests (for reverse-proxy deployments).
	AdvertisedPort int
	HTTPS          bool

	UserAgent string

	// RewriteAbsolute makes the manifest rewriter route absolute segment
	// URLs through the proxy as well, instead of leaving them untouched.
	RewriteAbsolute bool

	CatalogTimeout  time.Duration
	ManifestTimeout time.Duration
	MediaTimeout    time.Duration
}

// AdvertisedURL returns the origin this service tells players to come back
// to: scheme://hostname:advertised-port.
func (c *ProxyConfig) AdvertisedURL() *url.URL {
	protocol := "http"
	if c.HTTPS {
		protocol = "https"
	}
	return &url.URL{
		Scheme: protocol,
		Host:   fmt.Sprintf("%s:%d", c.HostConfig.Hostname, c.AdvertisedPort),
	}
}

// HasUpstream reports whether the upstream origin and credentials are all set.
func (c *ProxyConfig) HasUpstream() bool {
	return c.XtreamBaseURL != "" && c.XtreamUser != "" && c.XtreamPassword != ""
}
