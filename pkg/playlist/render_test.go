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
	"net/url"
	"strings"
	"testing"

	"github.com/lucasduport/xtream-bridge/pkg/types"
)

func advertised(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("http://bridge.local:8080")
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestRenderFullEntry(t *testing.T) {
	entries := []types.PlaylistEntry{{
		DisplayName:  "BBC",
		LogoURL:      "http://logo/bbc.png",
		GroupTitle:   "News",
		EPGChannelID: "bbc.uk",
		ProxyPath:    "/play/42.m3u8",
		Kind:         types.KindLive,
	}}

	var buf bytes.Buffer
	if err := Render(&buf, entries, advertised(t)); err != nil {
		t.Fatal(err)
	}

	want := "#EXTM3U\n" +
		`#EXTINF:-1 tvg-id="bbc.uk" tvg-name="BBC" tvg-logo="http://logo/bbc.png" group-title="News",BBC` + "\n" +
		"http://bridge.local:8080/play/42.m3u8\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRenderOmitsEmptyOptionalTags(t *testing.T) {
	entries := []types.PlaylistEntry{{
		DisplayName: "Movie",
		GroupTitle:  "Movies",
		ProxyPath:   "/play/10.mp4?type=movie",
		Kind:        types.KindVod,
	}}

	var buf bytes.Buffer
	if err := Render(&buf, entries, advertised(t)); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if strings.Contains(out, "tvg-id=") {
		t.Errorf("empty tvg-id must be omitted:\n%s", out)
	}
	if strings.Contains(out, "tvg-logo=") {
		t.Errorf("empty tvg-logo must be omitted:\n%s", out)
	}
	if !strings.Contains(out, `group-title="Movies"`) {
		t.Errorf("group-title missing:\n%s", out)
	}
}

func TestRenderDropsEntriesWithLineBreaks(t *testing.T) {
	entries := []types.PlaylistEntry{
		{DisplayName: "Bad\nName", GroupTitle: "Live", ProxyPath: "/play/1.m3u8"},
		{DisplayName: "Carriage\rName", GroupTitle: "Live", ProxyPath: "/play/2.m3u8"},
		{DisplayName: "Good", GroupTitle: "Live", ProxyPath: "/play/3.m3u8"},
	}

	var buf bytes.Buffer
	if err := Render(&buf, entries, advertised(t)); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if strings.Contains(out, "Bad") || strings.Contains(out, "Carriage") {
		t.Errorf("entries with line breaks must be dropped:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("expected header plus one entry (3 lines), got %d:\n%s", len(lines), out)
	}
}

func TestRenderEmptyCatalog(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, nil, advertised(t)); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "#EXTM3U\n" {
		t.Errorf("empty catalog must render just the header, got %q", buf.String())
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	entries := []types.PlaylistEntry{{
		DisplayName: "BBC",
		GroupTitle:  "News",
		ProxyPath:   "/play/42.m3u8",
	}}

	var first, second bytes.Buffer
	if err := Render(&first, entries, advertised(t)); err != nil {
		t.Fatal(err)
	}
	if err := Render(&second, entries, advertised(t)); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Errorf("two renders of the same entries differ:\n%s\n---\n%s", first.String(), second.String())
	}
}
