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
	"fmt"
	"net/url"
	"sort"

	"github.com/lucasduport/xtream-bridge/pkg/types"
)

// Options controls normalization. CategoryFilter keeps only records whose
// category id is listed (empty keeps everything); GroupFallback overrides the
// per-kind default group title for records whose category is unknown.
type Options struct {
	CategoryFilter []string
	GroupFallback  string
}

func (o Options) keeps(categoryID string) bool {
	if len(o.CategoryFilter) == 0 {
		return true
	}
	for _, id := range o.CategoryFilter {
		if id == categoryID {
			return true
		}
	}
	return false
}

func defaultGroup(kind types.MediaKind) string {
	switch kind {
	case types.KindLive:
		return "Live"
	case types.KindVod:
		return "Movies"
	default:
		return "Series"
	}
}

// Normalize flattens raw catalog records into playlist entries. Series fan
// out to one entry per episode, seasons ascending. Every entry carries a
// non-empty display name and a proxy path; upstream URLs never appear here.
func Normalize(records []types.RawMediaRecord, categories []types.Category, opts Options) []types.PlaylistEntry {
	groupByID := make(map[string]string, len(categories))
	for _, cat := range categories {
		groupByID[cat.ID] = cat.Name
	}

	entries := make([]types.PlaylistEntry, 0, len(records))
	for _, r := range records {
		if !opts.keeps(r.CategoryID()) {
			continue
		}

		group := groupByID[r.CategoryID()]
		if group == "" {
			group = opts.GroupFallback
		}
		if group == "" {
			group = defaultGroup(r.Kind)
		}

		switch r.Kind {
		case types.KindLive:
			if r.Live == nil {
				continue
			}
			name := r.Live.Name
			if name == "" {
				name = fmt.Sprintf("Channel %d", r.Live.StreamID)
			}
			entries = append(entries, types.PlaylistEntry{
				DisplayName:  name,
				LogoURL:      r.Live.Icon,
				GroupTitle:   group,
				EPGChannelID: r.Live.EPGChannelID,
				ProxyPath:    fmt.Sprintf("/play/%d.m3u8", r.Live.StreamID),
				Kind:         types.KindLive,
			})

		case types.KindVod:
			if r.Vod == nil {
				continue
			}
			name := r.Vod.Name
			if name == "" {
				name = fmt.Sprintf("Movie %d", r.Vod.StreamID)
			}
			ext := r.Vod.ContainerExt
			if ext == "" {
				ext = "mp4"
			}
			entries = append(entries, types.PlaylistEntry{
				DisplayName: name,
				LogoURL:     r.Vod.Icon,
				GroupTitle:  group,
				ProxyPath:   fmt.Sprintf("/play/%d.%s?type=movie", r.Vod.StreamID, ext),
				Kind:        types.KindVod,
			})

		case types.KindSeries:
			if r.Series == nil {
				continue
			}
			entries = append(entries, fanOutSeries(r.Series, group)...)
		}
	}
	return entries
}

// fanOutSeries turns one series record into per-episode entries, ordered by
// (season, episode number).
func fanOutSeries(s *types.SeriesRecord, group string) []types.PlaylistEntry {
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("Series %d", s.SeriesID)
	}

	seasons := make([]int, 0, len(s.EpisodesBySeason))
	for season := range s.EpisodesBySeason {
		seasons = append(seasons, season)
	}
	sort.Ints(seasons)

	var entries []types.PlaylistEntry
	for _, season := range seasons {
		for _, ep := range s.EpisodesBySeason[season] {
			if ep.ID == "" {
				continue
			}
			ext := ep.ContainerExt
			if ext == "" {
				ext = "mp4"
			}
			entries = append(entries, types.PlaylistEntry{
				DisplayName: fmt.Sprintf("%s S%02dE%02d", name, season, ep.Num),
				LogoURL:     s.Cover,
				GroupTitle:  group,
				ProxyPath:   fmt.Sprintf("/play/%s.%s?type=series", url.PathEscape(ep.ID), ext),
				Kind:        types.KindEpisode,
			})
		}
	}
	return entries
}
