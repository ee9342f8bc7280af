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
	"strings"
	"testing"
)

func TestCredentialStringMasksFormattingVerbs(t *testing.T) {
	secret := CredentialString("supersecret")

	for _, verb := range []string{"%v", "%s", "%+v", "%q"} {
		out := fmt.Sprintf(verb, secret)
		if strings.Contains(out, "supersecret") {
			t.Errorf("verb %s leaks the credential: %q", verb, out)
		}
	}
}

func TestCredentialStringExplicitAccess(t *testing.T) {
	secret := CredentialString("p/w")
	if secret.String() != "p/w" {
		t.Errorf("String() = %q, want raw value", secret.String())
	}
	if secret.PathEscape() != "p%2Fw" {
		t.Errorf("PathEscape() = %q, want p%%2Fw", secret.PathEscape())
	}
}

func TestAdvertisedURL(t *testing.T) {
	tests := []struct {
		name string
		conf ProxyConfig
		want string
	}{
		{
			name: "http",
			conf: ProxyConfig{HostConfig: &HostConfiguration{Hostname: "bridge.local", Port: 8080}, AdvertisedPort: 8080},
			want: "http://bridge.local:8080",
		},
		{
			name: "https behind reverse proxy",
			conf: ProxyConfig{HostConfig: &HostConfiguration{Hostname: "bridge.local", Port: 8080}, AdvertisedPort: 443, HTTPS: true},
			want: "https://bridge.local:443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conf.AdvertisedURL().String(); got != tt.want {
				t.Errorf("AdvertisedURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasUpstream(t *testing.T) {
	conf := ProxyConfig{XtreamBaseURL: "http://portal", XtreamUser: "u", XtreamPassword: "p"}
	if !conf.HasUpstream() {
		t.Error("expected HasUpstream to be true")
	}
	conf.XtreamPassword = ""
	if conf.HasUpstream() {
		t.Error("expected HasUpstream to be false without a password")
	}
}
