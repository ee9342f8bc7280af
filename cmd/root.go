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

package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucasduport/xtream-bridge/pkg/config"
	"github.com/lucasduport/xtream-bridge/pkg/server"
	"github.com/lucasduport/xtream-bridge/pkg/utils"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xtream-bridge",
	Short: "Expose an Xtream Codes catalog as M3U behind a credential-hiding proxy",
	Long: `xtream-bridge converts an Xtream Codes provider catalog into standard
M3U playlists and re-exposes the provider's live, VOD and series streams
through a same-origin proxy, so the upstream credentials never appear in
anything a player receives.

It supports:
- Catalog listing and M3U generation for live, VOD and series content
- HLS manifest rewriting so every segment routes back through this service
- Streaming passthrough with a single documented live-manifest fallback`,

	Run: func(cmd *cobra.Command, args []string) {
		log.Printf("[xtream-bridge] Server is starting...")

		baseURL := strings.TrimRight(viper.GetString("xtream-base-url"), "/")
		if baseURL == "" {
			utils.WarnLog("No xtream-base-url configured; catalog and stream requests will be rejected")
		}

		hostname := viper.GetString("hostname")
		if hostname == "" {
			hostname = "localhost"
		}

		conf := &config.ProxyConfig{
			HostConfig: &config.HostConfiguration{
				Hostname: hostname,
				Port:     viper.GetInt("port"),
			},
			XtreamBaseURL:   baseURL,
			XtreamUser:      config.CredentialString(viper.GetString("xtream-user")),
			XtreamPassword:  config.CredentialString(viper.GetString("xtream-password")),
			AdvertisedPort:  viper.GetInt("advertised-port"),
			HTTPS:           viper.GetBool("https"),
			UserAgent:       viper.GetString("user-agent"),
			RewriteAbsolute: viper.GetBool("rewrite-absolute"),
			CatalogTimeout:  time.Duration(viper.GetInt("catalog-timeout")) * time.Second,
			ManifestTimeout: time.Duration(viper.GetInt("manifest-timeout")) * time.Second,
			MediaTimeout:    time.Duration(viper.GetInt("media-timeout")) * time.Second,
		}

		// Use port if advertised port is not specified
		if conf.AdvertisedPort == 0 {
			conf.AdvertisedPort = conf.HostConfig.Port
		}

		srv, err := server.NewServer(conf)
		if err != nil {
			log.Fatal(err)
		}

		if err := srv.Serve(); err != nil {
			log.Fatal(err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Config file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.xtream-bridge.yaml)")

	// Server flags
	rootCmd.Flags().Int("port", 8080, "Listening port")
	rootCmd.Flags().Int("advertised-port", 0, "Port to use in generated URLs (for reverse proxy)")
	rootCmd.Flags().String("hostname", "", "Hostname to use in generated URLs")
	rootCmd.Flags().BoolP("https", "", false, "Use HTTPS for generated URLs")

	// Upstream flags
	rootCmd.Flags().String("xtream-user", "", "Xtream API username")
	rootCmd.Flags().String("xtream-password", "", "Xtream API password")
	rootCmd.Flags().String("xtream-base-url", "", "Xtream API base URL")
	rootCmd.Flags().String("user-agent", "", "User-Agent sent to the upstream (default IPTVSmartersPro)")

	// Proxy behaviour flags
	rootCmd.Flags().Bool("rewrite-absolute", false, "Also rewrite absolute segment URLs in HLS manifests")
	rootCmd.Flags().Int("catalog-timeout", 15, "Catalog request timeout in seconds")
	rootCmd.Flags().Int("manifest-timeout", 15, "Manifest fetch timeout in seconds")
	rootCmd.Flags().Int("media-timeout", 30, "Media connect/header timeout in seconds")

	// Bind all flags to viper
	if err := viper.BindPFlags(rootCmd.Flags()); err != nil {
		log.Fatal("Error binding PFlags to viper")
	}
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	// Load a local .env first so AutomaticEnv can pick its values up
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env")
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory and current directory
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".xtream-bridge")
	}

	// Replace hyphens with underscores in environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Read environment variables
	viper.AutomaticEnv()

	// Read in config file if found
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
