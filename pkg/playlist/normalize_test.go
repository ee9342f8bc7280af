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
	"testing"

	"github.com/lucasduport/xtream-bridge/pkg/types"
)

func TestNormalizeLive(t *testing.T) {
	categories := []types.Category{
		{ID: "5", Name: "News"},
	}
	records := []types.RawMediaRecord{
		{Kind: types.KindLive, Live: &types.LiveRecord{
			StreamID: 42, Name: "BBC", Icon: "http://logo/bbc.png", EPGChannelID: "bbc.uk", CategoryID: "5",
		}},
	}

	entries := Normalize(records, categories, Options{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.DisplayName != "BBC" {
		t.Errorf("DisplayName = %q, want BBC", e.DisplayName)
	}
	if e.GroupTitle != "News" {
		t.Errorf("GroupTitle = %q, want News", e.GroupTitle)
	}
	if e.ProxyPath != "/play/42.m3u8" {
		t.Errorf("ProxyPath = %q, want /play/42.m3u8", e.ProxyPath)
	}
	if e.EPGChannelID != "bbc.uk" {
		t.Errorf("EPGChannelID = %q, want bbc.uk", e.EPGChannelID)
	}
}

func TestNormalizeNameAndGroupFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		record    types.RawMediaRecord
		opts      Options
		wantName  string
		wantGroup string
	}{
		{
			name:      "live without name or known category",
			record:    types.RawMediaRecord{Kind: types.KindLive, Live: &types.LiveRecord{StreamID: 7, CategoryID: "99"}},
			wantName:  "Channel 7",
			wantGroup: "Live",
		},
		{
			name:      "movie without name",
			record:    types.RawMediaRecord{Kind: types.KindVod, Vod: &types.VodRecord{StreamID: 8}},
			wantName:  "Movie 8",
			wantGroup: "Movies",
		},
		{
			name:      "explicit group fallback wins over default",
			record:    types.RawMediaRecord{Kind: types.KindLive, Live: &types.LiveRecord{StreamID: 7, Name: "Chan"}},
			opts:      Options{GroupFallback: "Uncategorized"},
			wantName:  "Chan",
			wantGroup: "Uncategorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := Normalize([]types.RawMediaRecord{tt.record}, nil, tt.opts)
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			if entries[0].DisplayName != tt.wantName {
				t.Errorf("DisplayName = %q, want %q", entries[0].DisplayName, tt.wantName)
			}
			if entries[0].GroupTitle != tt.wantGroup {
				t.Errorf("GroupTitle = %q, want %q", entries[0].GroupTitle, tt.wantGroup)
			}
		})
	}
}

func TestNormalizeCategoryFilter(t *testing.T) {
	records := []types.RawMediaRecord{
		{Kind: types.KindLive, Live: &types.LiveRecord{StreamID: 1, Name: "First", CategoryID: "5"}},
		{Kind: types.KindLive, Live: &types.LiveRecord{StreamID: 2, Name: "Dropped", CategoryID: "6"}},
		{Kind: types.KindLive, Live: &types.LiveRecord{StreamID: 3, Name: "Second", CategoryID: "7"}},
	}

	entries := Normalize(records, nil, Options{CategoryFilter: []string{"5", "7"}})
	if len(entries) != 2 {
		t.Fatalf("filter kept wrong entries: %+v", entries)
	}
	// Filtered output is a subset of unfiltered output in original order.
	if entries[0].DisplayName != "First" || entries[1].DisplayName != "Second" {
		t.Errorf("relative order not preserved: %+v", entries)
	}
}

func TestNormalizeVodContainerExtension(t *testing.T) {
	records := []types.RawMediaRecord{
		{Kind: types.KindVod, Vod: &types.VodRecord{StreamID: 10, Name: "A Movie", ContainerExt: "mkv"}},
		{Kind: types.KindVod, Vod: &types.VodRecord{StreamID: 11, Name: "B Movie"}},
	}

	entries := Normalize(records, nil, Options{})
	if entries[0].ProxyPath != "/play/10.mkv?type=movie" {
		t.Errorf("ProxyPath = %q, want /play/10.mkv?type=movie", entries[0].ProxyPath)
	}
	if entries[1].ProxyPath != "/play/11.mp4?type=movie" {
		t.Errorf("missing container must default to mp4, got %q", entries[1].ProxyPath)
	}
}

func TestNormalizeSeriesFanOut(t *testing.T) {
	records := []types.RawMediaRecord{
		{Kind: types.KindSeries, Series: &types.SeriesRecord{
			SeriesID: 3, Name: "Show", Cover: "http://logo/show.png", CategoryID: "9",
			EpisodesBySeason: map[int][]types.Episode{
				2: {{ID: "201", Num: 1, ContainerExt: "mkv"}},
				1: {{ID: "101", Num: 1}, {ID: "102", Num: 2}},
			},
		}},
	}

	entries := Normalize(records, []types.Category{{ID: "9", Name: "Drama"}}, Options{})
	if len(entries) != 3 {
		t.Fatalf("expected 3 episode entries, got %d", len(entries))
	}

	wantNames := []string{"Show S01E01", "Show S01E02", "Show S02E01"}
	wantPaths := []string{"/play/101.mp4?type=series", "/play/102.mp4?type=series", "/play/201.mkv?type=series"}
	for i, e := range entries {
		if e.DisplayName != wantNames[i] {
			t.Errorf("entry %d DisplayName = %q, want %q", i, e.DisplayName, wantNames[i])
		}
		if e.ProxyPath != wantPaths[i] {
			t.Errorf("entry %d ProxyPath = %q, want %q", i, e.ProxyPath, wantPaths[i])
		}
		if e.GroupTitle != "Drama" {
			t.Errorf("entry %d GroupTitle = %q, want Drama", i, e.GroupTitle)
		}
		if e.Kind != types.KindEpisode {
			t.Errorf("entry %d Kind = %q, want episode", i, e.Kind)
		}
		if e.LogoURL != "http://logo/show.png" {
			t.Errorf("entry %d LogoURL = %q, want series cover", i, e.LogoURL)
		}
	}
}

func TestNormalizeSkipsEpisodesWithoutID(t *testing.T) {
	records := []types.RawMediaRecord{
		{Kind: types.KindSeries, Series: &types.SeriesRecord{
			SeriesID: 3, Name: "Show",
			EpisodesBySeason: map[int][]types.Episode{
				1: {{ID: "", Num: 1}, {ID: "102", Num: 2}},
			},
		}},
	}

	entries := Normalize(records, nil, Options{})
	if len(entries) != 1 {
		t.Fatalf("expected only the playable episode, got %d entries", len(entries))
	}
}
