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

package utils

import "os"

const defaultUserAgent = "IPTVSmartersPro"

// GetIPTVUserAgent returns the User-Agent to present to the upstream portal.
// Some portals refuse requests from generic Go clients, so we default to a
// common player identity. Override with the USER_AGENT environment variable.
func GetIPTVUserAgent() string {
	if ua := os.Getenv("USER_AGENT"); ua != "" {
		return ua
	}
	return defaultUserAgent
}
