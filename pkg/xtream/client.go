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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"github.com/lucasduport/xtream-bridge/pkg/config"
	"github.com/lucasduport/xtream-bridge/pkg/types"
	"github.com/lucasduport/xtream-bridge/pkg/utils"
)

// player_api.php actions
const (
	getLiveCategories   = "get_live_categories"
	getLiveStreams      = "get_live_streams"
	getVodCategories    = "get_vod_categories"
	getVodStreams       = "get_vod_streams"
	getSeriesCategories = "get_series_categories"
	getSeries           = "get_series"
	getSeriesInfo       = "get_series_info"
)

// maxResponseSize caps how much of a catalog response we are willing to read.
const maxResponseSize = 10 * 1024 * 1024

// Client talks to an Xtream Codes portal through its player_api endpoint.
// It is stateless; every call hits the upstream directly.
type Client struct {
	Username  config.CredentialString
	Password  config.CredentialString
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// New creates a catalog client for the given portal origin.
func New(user, password config.CredentialString, baseURL, userAgent string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, utils.PrintErrorAndReturn(fmt.Errorf("invalid base URL: %w", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, utils.PrintErrorAndReturn(fmt.Errorf("%w: base URL must be http or https", types.ErrInvalidArgument))
	}
	if userAgent == "" {
		userAgent = utils.GetIPTVUserAgent()
	}
	return &Client{
		Username:  user,
		Password:  password,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
	}, nil
}

// apiURL builds the player_api.php URL for an action. Extra parameters come
// after the credentials; the query is the only place credentials appear.
func (c *Client) apiURL(action string, extra url.Values) string {
	params := url.Values{}
	params.Set("username", c.Username.String())
	params.Set("password", c.Password.String())
	if action != "" {
		params.Set("action", action)
	}
	for k, vs := range extra {
		for _, v := range vs {
			if v != "" {
				params.Add(k, v)
			}
		}
	}
	return c.BaseURL + "/player_api.php?" + params.Encode()
}

// call performs one player_api request and returns the raw JSON body.
func (c *Client) call(ctx context.Context, action string, extra url.Values) ([]byte, error) {
	utils.DebugLog("Catalog request action=%s extra=%v", action, extra)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL(action, extra), nil)
	if err != nil {
		return nil, utils.PrintErrorAndReturn(err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.Client.Do(req)
	if err != nil {
		// A transport error carries the full request URL, credentials
		// included. Unwrap it so the query never reaches a caller.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, types.NewUpstreamError(0, fmt.Errorf("portal request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewUpstreamError(resp.StatusCode, fmt.Errorf("portal returned HTTP %d for action %s", resp.StatusCode, action))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, types.NewUpstreamError(0, err)
	}

	trim := bytes.TrimSpace(b)
	if len(trim) > 0 && trim[0] == '<' {
		// Portals answer with an HTML error page when they are unhappy.
		return nil, types.NewUpstreamError(resp.StatusCode, fmt.Errorf("portal returned HTML instead of JSON for action %s", action))
	}

	// Rejected credentials come back as HTTP 200 with a user_info object
	// in place of the requested payload, whatever the action was.
	if len(trim) > 0 && trim[0] == '{' {
		if _, _, _, userInfoErr := jsonparser.Get(trim, "user_info"); userInfoErr == nil {
			if flexInt(trim, "user_info", "auth") != 1 {
				return nil, fmt.Errorf("%w: portal rejected credentials", types.ErrAuthFailed)
			}
		}
	}
	return trim, nil
}

// Authenticate performs the credential handshake (player_api without an
// action) and fails with ErrAuthFailed unless user_info.auth is 1.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := c.call(ctx, "", nil)
	if err != nil {
		return err
	}
	if flexInt(body, "user_info", "auth") != 1 {
		return fmt.Errorf("%w: portal rejected credentials", types.ErrAuthFailed)
	}
	return nil
}

func categoryAction(kind types.MediaKind) (string, error) {
	switch kind {
	case types.KindLive:
		return getLiveCategories, nil
	case types.KindVod:
		return getVodCategories, nil
	case types.KindSeries:
		return getSeriesCategories, nil
	}
	return "", fmt.Errorf("%w: no category action for kind %q", types.ErrInvalidArgument, kind)
}

func mediaAction(kind types.MediaKind) (string, error) {
	switch kind {
	case types.KindLive:
		return getLiveStreams, nil
	case types.KindVod:
		return getVodStreams, nil
	case types.KindSeries:
		return getSeries, nil
	}
	return "", fmt.Errorf("%w: no media action for kind %q", types.ErrInvalidArgument, kind)
}

// Categories fetches the category list for one catalog kind.
func (c *Client) Categories(ctx context.Context, kind types.MediaKind) ([]types.Category, error) {
	action, err := categoryAction(kind)
	if err != nil {
		return nil, err
	}
	body, err := c.call(ctx, action, nil)
	if err != nil {
		return nil, err
	}

	var cats []types.Category
	_, err = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		cats = append(cats, types.Category{
			ID:       flexString(value, "category_id"),
			Name:     flexString(value, "category_name"),
			ParentID: flexInt(value, "parent_id"),
		})
	})
	if err != nil {
		return nil, types.NewUpstreamError(0, fmt.Errorf("malformed category payload: %w", err))
	}
	utils.DebugLog("Fetched %d %s categories", len(cats), kind)
	return cats, nil
}

// Media fetches the media records for one catalog kind, optionally scoped to
// a single category. Series records come back with their episodes resolved,
// which costs one extra portal round trip per series.
func (c *Client) Media(ctx context.Context, kind types.MediaKind, categoryID string) ([]types.RawMediaRecord, error) {
	action, err := mediaAction(kind)
	if err != nil {
		return nil, err
	}
	extra := url.Values{}
	if categoryID != "" {
		extra.Set("category_id", categoryID)
	}
	body, err := c.call(ctx, action, extra)
	if err != nil {
		return nil, err
	}

	var records []types.RawMediaRecord
	_, err = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		switch kind {
		case types.KindLive:
			records = append(records, types.RawMediaRecord{Kind: kind, Live: &types.LiveRecord{
				StreamID:     flexInt(value, "stream_id"),
				Name:         flexString(value, "name"),
				Icon:         flexString(value, "stream_icon"),
				EPGChannelID: flexString(value, "epg_channel_id"),
				CategoryID:   flexString(value, "category_id"),
			}})
		case types.KindVod:
			records = append(records, types.RawMediaRecord{Kind: kind, Vod: &types.VodRecord{
				StreamID:     flexInt(value, "stream_id"),
				Name:         flexString(value, "name"),
				Icon:         flexString(value, "stream_icon"),
				CategoryID:   flexString(value, "category_id"),
				ContainerExt: flexString(value, "container_extension"),
			}})
		case types.KindSeries:
			records = append(records, types.RawMediaRecord{Kind: kind, Series: &types.SeriesRecord{
				SeriesID:   flexInt(value, "series_id"),
				Name:       flexString(value, "name"),
				Cover:      flexString(value, "cover"),
				CategoryID: flexString(value, "category_id"),
			}})
		}
	})
	if err != nil {
		return nil, types.NewUpstreamError(0, fmt.Errorf("malformed media payload: %w", err))
	}

	if kind == types.KindSeries {
		for _, r := range records {
			if err := c.fillEpisodes(ctx, r.Series); err != nil {
				return nil, err
			}
		}
	}

	utils.DebugLog("Fetched %d %s records (category=%q)", len(records), kind, categoryID)
	return records, nil
}

// fillEpisodes resolves a series to its playable episodes via
// get_series_info. The episodes object maps season numbers to arrays.
func (c *Client) fillEpisodes(ctx context.Context, s *types.SeriesRecord) error {
	extra := url.Values{}
	extra.Set("series_id", strconv.Itoa(s.SeriesID))
	body, err := c.call(ctx, getSeriesInfo, extra)
	if err != nil {
		return err
	}

	s.EpisodesBySeason = map[int][]types.Episode{}
	episodes, dataType, _, err := jsonparser.Get(body, "episodes")
	if err != nil || dataType != jsonparser.Object {
		// A series without episodes yet is not an error.
		utils.DebugLog("Series %d has no episodes object", s.SeriesID)
		return nil
	}

	return jsonparser.ObjectEach(episodes, func(key []byte, value []byte, _ jsonparser.ValueType, _ int) error {
		season, convErr := strconv.Atoi(string(key))
		if convErr != nil {
			utils.WarnLog("Skipping season key %q of series %d", string(key), s.SeriesID)
			return nil
		}
		_, arrErr := jsonparser.ArrayEach(value, func(ep []byte, _ jsonparser.ValueType, _ int, _ error) {
			s.EpisodesBySeason[season] = append(s.EpisodesBySeason[season], types.Episode{
				ID:           flexString(ep, "id"),
				Num:          flexInt(ep, "episode_num"),
				Title:        flexString(ep, "title"),
				ContainerExt: flexString(ep, "container_extension"),
			})
		})
		if arrErr != nil {
			utils.WarnLog("Skipping malformed season %d of series %d: %v", season, s.SeriesID, arrErr)
		}
		sort.Slice(s.EpisodesBySeason[season], func(i, j int) bool {
			return s.EpisodesBySeason[season][i].Num < s.EpisodesBySeason[season][j].Num
		})
		return nil
	})
}

// flexString reads a field that portals serve as either a string or a number.
func flexString(data []byte, keys ...string) string {
	v, dataType, _, err := jsonparser.Get(data, keys...)
	if err != nil {
		return ""
	}
	switch dataType {
	case jsonparser.String:
		s, _ := jsonparser.ParseString(v)
		return s
	case jsonparser.Number:
		return string(v)
	}
	return ""
}

// flexInt reads a field that portals serve as either a number, a numeric
// string, or a boolean; anything unparseable comes back as 0.
func flexInt(data []byte, keys ...string) int {
	v, dataType, _, err := jsonparser.Get(data, keys...)
	if err != nil {
		return 0
	}
	switch dataType {
	case jsonparser.Number:
		i, convErr := strconv.Atoi(string(v))
		if convErr != nil {
			return 0
		}
		return i
	case jsonparser.String:
		s, _ := jsonparser.ParseString(v)
		i, convErr := strconv.Atoi(strings.TrimSpace(s))
		if convErr != nil {
			utils.DebugLog("Cannot convert %q to integer, defaulting to 0", s)
			return 0
		}
		return i
	case jsonparser.Boolean:
		if string(v) == "true" {
			return 1
		}
	}
	return 0
}
