package conf

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	HTTPPort int
	BasePath string
	Debug    bool
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL                   string
	MaxConns              int32
	AcquireTimeoutSeconds int
}

// CacheConfig holds the optional remote tile-cache settings.
type CacheConfig struct {
	URL            string
	ControlHeader  string
	DisableApi     bool
	ApiKey         string
	LocalMaxItems  int
	LocalMaxMemory int
}

// CORSConfig holds the allowed-origins list for cross-origin requests.
type CORSConfig struct {
	AllowedOrigins []string
}

// CompressionConfig controls response gzip compression.
type CompressionConfig struct {
	DisableGzip bool
}

// Config is the top-level application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	CORS        CORSConfig
	Compression CompressionConfig
}

// Configuration is the process-wide resolved configuration, populated by InitConfig.
var Configuration Config

// InitConfig loads configuration from an optional TOML file, then applies environment
// variable overrides under the MVT_ env prefix (a single underscore separates nesting,
// e.g. MVT_DATABASE_URL). Environment variables always win over the config file.
func InitConfig(configFile string, debug bool) error {
	viper.SetDefault("Server.HTTPPort", 9000)
	viper.SetDefault("Server.BasePath", "")
	viper.SetDefault("Server.Debug", false)

	viper.SetDefault("Database.URL", "")
	viper.SetDefault("Database.MaxConns", 10)
	viper.SetDefault("Database.AcquireTimeoutSeconds", 3)

	viper.SetDefault("Cache.URL", "")
	viper.SetDefault("Cache.ControlHeader", "private, max-age=300")
	viper.SetDefault("Cache.DisableApi", false)
	viper.SetDefault("Cache.ApiKey", "")
	viper.SetDefault("Cache.LocalMaxItems", 4096)
	viper.SetDefault("Cache.LocalMaxMemory", 256)

	viper.SetDefault("CORS.AllowedOrigins", []string{"*"})
	viper.SetDefault("Compression.DisableGzip", false)

	if configFile != "" {
		viper.SetConfigFile(configFile)
		viper.SetConfigType("toml")
		if err := viper.ReadInConfig(); err != nil {
			log.Warnf("Could not read config file %s: %v", configFile, err)
		}
	}

	viper.SetEnvPrefix(AppConfig.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnv("Database.URL", "DATABASE_URL")
	bindEnv("Cache.URL", "CACHE_URL")
	bindEnv("Cache.ControlHeader", "CACHE_CONTROL_HEADER")
	bindEnv("CORS.AllowedOrigins", "ALLOWED_ORIGINS")
	bindEnv("Compression.DisableGzip", "DISABLE_GZIP")

	if err := viper.Unmarshal(&Configuration); err != nil {
		return err
	}

	if raw := viper.GetString("CORS.AllowedOrigins"); raw != "" {
		Configuration.CORS.AllowedOrigins = strings.Fields(raw)
	}

	if debug || Configuration.Server.Debug {
		Configuration.Server.Debug = true
	}

	return nil
}

// bindEnv binds a nested viper key directly to the unprefixed upstream-style env var
// named in spec.md §6 (DATABASE_URL, CACHE_URL, CACHE_CONTROL_HEADER, ALLOWED_ORIGINS,
// DISABLE_GZIP), in addition to the MVT_-prefixed nested form AutomaticEnv already covers.
func bindEnv(key, envVar string) {
	_ = viper.BindEnv(key, envVar)
}

// DumpConfig logs the resolved configuration at Info level, redacting the database DSN.
func DumpConfig() {
	log.Infof("Server: port=%d basePath=%q debug=%v", Configuration.Server.HTTPPort, Configuration.Server.BasePath, Configuration.Server.Debug)
	log.Infof("Database: configured=%v maxConns=%d acquireTimeoutSeconds=%d", Configuration.Database.URL != "", Configuration.Database.MaxConns, Configuration.Database.AcquireTimeoutSeconds)
	log.Infof("Cache: remoteConfigured=%v disableApi=%v controlHeader=%q", Configuration.Cache.URL != "", Configuration.Cache.DisableApi, Configuration.Cache.ControlHeader)
	log.Infof("CORS: allowedOrigins=%v", Configuration.CORS.AllowedOrigins)
	log.Infof("Compression: disableGzip=%v", Configuration.Compression.DisableGzip)
}
