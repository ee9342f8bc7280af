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

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the catalog client, the stream forwarder and the
// HTTP layer, which maps each class onto a status code.
var (
	// ErrInvalidArgument marks missing or malformed request parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAuthFailed means the upstream rejected our credentials.
	ErrAuthFailed = errors.New("upstream rejected credentials")

	// ErrNotFound means the upstream explicitly reported the resource absent.
	ErrNotFound = errors.New("not found at upstream")
)

// UpstreamError wraps any network failure, timeout or unexpected status from
// the upstream. Status is zero when no HTTP response was received.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream unavailable (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream unavailable: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError builds an UpstreamError from a status code, with a
// default message when err is nil.
func NewUpstreamError(status int, err error) *UpstreamError {
	if err == nil {
		err = fmt.Errorf("HTTP status %d", status)
	}
	return &UpstreamError{Status: status, Err: err}
}
