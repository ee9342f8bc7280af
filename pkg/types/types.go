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

package types

import "fmt"

// MediaKind discriminates the three catalog kinds plus the per-episode kind
// a normalized playlist entry can carry.
type MediaKind string

const (
	KindLive    MediaKind = "live"
	KindVod     MediaKind = "vod"
	KindSeries  MediaKind = "series"
	KindEpisode MediaKind = "episode"
)

// ParseMediaKind validates a kind coming from a request parameter. Only the
// three catalog kinds are accepted.
func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(s) {
	case KindLive, KindVod, KindSeries:
		return MediaKind(s), nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidArgument, s)
}

// Category is one upstream catalog category. ID is unique within a catalog
// snapshot and only ever used for lookup.
type Category struct {
	ID       string `json:"category_id"`
	Name     string `json:"category_name"`
	ParentID int    `json:"parent_id"`
}

// LiveRecord is a raw live channel as the upstream reports it.
type LiveRecord struct {
	StreamID     int
	Name         string
	Icon         string
	EPGChannelID string
	CategoryID   string
}

// VodRecord is a raw movie entry.
type VodRecord struct {
	StreamID     int
	Name         string
	Icon         string
	CategoryID   string
	ContainerExt string
}

// Episode is one episode of a series, already resolved to a playable id.
type Episode struct {
	ID           string
	Num          int
	Title        string
	ContainerExt string
}

// SeriesRecord is a raw series listing with its episodes grouped by season.
type SeriesRecord struct {
	SeriesID         int
	Name             string
	Cover            string
	CategoryID       string
	EpisodesBySeason map[int][]Episode
}

// RawMediaRecord is the tagged variant the normalizer consumes: exactly one
// of Live, Vod, Series is non-nil, matching Kind.
type RawMediaRecord struct {
	Kind   MediaKind
	Live   *LiveRecord
	Vod    *VodRecord
	Series *SeriesRecord
}

// CategoryID returns the category id of whichever variant is set.
func (r RawMediaRecord) CategoryID() string {
	switch r.Kind {
	case KindLive:
		if r.Live != nil {
			return r.Live.CategoryID
		}
	case KindVod:
		if r.Vod != nil {
			return r.Vod.CategoryID
		}
	case KindSeries:
		if r.Series != nil {
			return r.Series.CategoryID
		}
	}
	return ""
}

// PlaylistEntry is one playable item normalized for rendering. DisplayName is
// never empty and ProxyPath always points at this service, never upstream.
type PlaylistEntry struct {
	DisplayName  string
	LogoURL      string
	GroupTitle   string
	EPGChannelID string
	ProxyPath    string
	Kind         MediaKind
}
