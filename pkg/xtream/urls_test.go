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
	"errors"
	"testing"

	"github.com/lucasduport/xtream-bridge/pkg/types"
)

func TestUpstreamTargetURL(t *testing.T) {
	tests := []struct {
		name   string
		target UpstreamTarget
		want   string
	}{
		{
			name:   "live",
			target: UpstreamTarget{Origin: "http://portal:8000", Username: "u", Password: "p", Kind: types.KindLive, StreamID: "42", Ext: "m3u8"},
			want:   "http://portal:8000/live/u/p/42.m3u8",
		},
		{
			name:   "movie",
			target: UpstreamTarget{Origin: "http://portal:8000/", Username: "u", Password: "p", Kind: types.KindVod, StreamID: "10", Ext: "mkv"},
			want:   "http://portal:8000/movie/u/p/10.mkv",
		},
		{
			name:   "episode uses series path",
			target: UpstreamTarget{Origin: "http://portal:8000", Username: "u", Password: "p", Kind: types.KindEpisode, StreamID: "101", Ext: "mp4"},
			want:   "http://portal:8000/series/u/p/101.mp4",
		},
		{
			name:   "credentials are path escaped",
			target: UpstreamTarget{Origin: "http://portal:8000", Username: "us/er", Password: "p?w", Kind: types.KindLive, StreamID: "1", Ext: "ts"},
			want:   "http://portal:8000/live/us%2Fer/p%3Fw/1.ts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.target.URL()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpstreamTargetURLRejectsUnknownKind(t *testing.T) {
	target := UpstreamTarget{Origin: "http://portal", Kind: types.MediaKind("bogus")}
	if _, err := target.URL(); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestFallbackURL(t *testing.T) {
	target := UpstreamTarget{Origin: "http://portal:8000", Username: "u", Password: "p", Kind: types.KindLive, StreamID: "42"}
	want := "http://portal:8000/get.php?output=ts&password=p&streamid=42&type=m3u_plus&username=u"
	if got := target.FallbackURL(); got != want {
		t.Errorf("FallbackURL() = %q, want %q", got, want)
	}
}

func TestSegmentURL(t *testing.T) {
	target := UpstreamTarget{Origin: "http://portal:8000", Username: "u", Password: "p", Kind: types.KindLive, StreamID: "42"}
	got, err := target.SegmentURL("seg1.ts?token=abc")
	if err != nil {
		t.Fatal(err)
	}
	want := "http://portal:8000/live/u/p/seg1.ts?token=abc"
	if got != want {
		t.Errorf("SegmentURL() = %q, want %q", got, want)
	}
}
