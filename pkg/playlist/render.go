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

package playlist

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/jamesnetherton/m3u"

	"github.com/lucasduport/xtream-bridge/pkg/types"
	"github.com/lucasduport/xtream-bridge/pkg/utils"
)

// Render writes entries as an extended M3U playlist. base is the advertised
// origin of this service; every URI in the output points back at it. Entries
// whose fields contain CR or LF would corrupt the line format, so they are
// dropped with a warning instead of being written.
func Render(w io.Writer, entries []types.PlaylistEntry, base *url.URL) error {
	if _, err := io.WriteString(w, "#EXTM3U\n"); err != nil {
		return err
	}

	origin := strings.TrimRight(base.String(), "/")
	for _, entry := range entries {
		if hasLineBreak(entry) {
			utils.WarnLog("Dropping playlist entry %q: field contains a line break", entry.DisplayName)
			continue
		}

		track := m3u.Track{Name: entry.DisplayName, Length: -1, URI: origin + entry.ProxyPath}
		if entry.EPGChannelID != "" {
			track.Tags = append(track.Tags, m3u.Tag{Name: "tvg-id", Value: entry.EPGChannelID})
		}
		track.Tags = append(track.Tags, m3u.Tag{Name: "tvg-name", Value: entry.DisplayName})
		if entry.LogoURL != "" {
			track.Tags = append(track.Tags, m3u.Tag{Name: "tvg-logo", Value: entry.LogoURL})
		}
		track.Tags = append(track.Tags, m3u.Tag{Name: "group-title", Value: entry.GroupTitle})

		if _, err := io.WriteString(w, marshallTrack(track)); err != nil {
			return err
		}
	}
	return nil
}

// marshallTrack renders one track as its two playlist lines.
func marshallTrack(track m3u.Track) string {
	var buffer bytes.Buffer

	buffer.WriteString(fmt.Sprintf("#EXTINF:%d ", track.Length))
	for i := range track.Tags {
		if i == len(track.Tags)-1 {
			buffer.WriteString(fmt.Sprintf("%s=%q", track.Tags[i].Name, track.Tags[i].Value))
			continue
		}
		buffer.WriteString(fmt.Sprintf("%s=%q ", track.Tags[i].Name, track.Tags[i].Value))
	}
	buffer.WriteString(fmt.Sprintf(",%s\n%s\n", track.Name, track.URI))

	return buffer.String()
}

func hasLineBreak(entry types.PlaylistEntry) bool {
	for _, field := range []string{entry.DisplayName, entry.LogoURL, entry.GroupTitle, entry.EPGChannelID, entry.ProxyPath} {
		if strings.ContainsAny(field, "\r\n") {
			return true
		}
	}
	return false
}
