//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package config provides configuration management for the search engine
// using [Viper] for flexible configuration sources.
//
// Configuration can be provided via:
//   - YAML configuration files
//   - Environment variables with the IMS_ prefix
//   - Programmatic defaults
//
// # Configuration File
//
// By default, the engine looks for ims-config.yaml in the current directory.
// Override the location using environment variables:
//
//	IMS_CONFIG_PATH=/etc/iamsearch
//	IMS_CONFIG_FILENAME=production-config
//
// Example configuration file:
//
//	log:
//	  level: ".:info"
//	search:
//	  threshold: 0.2
//	server:
//	  hosts: "localhost,127.0.0.1"
//	  origin: "*"
//	audit:
//	  env:
//	    pod: HOSTNAME
//	    region: AWS_REGION
//
// # Environment Variables
//
// All configuration keys can be set via environment variables with the IMS_
// prefix. Dots in key names become underscores:
//
//	IMS_LOG_LEVEL=.:debug
//	IMS_SEARCH_THRESHOLD=0.3
//	IMS_SERVER_HOSTS=gcpiam.com,www.gcpiam.com
//
// # Configuration Keys
//
// Available configuration options:
//   - log.level: Log level configuration (default: ".:info")
//   - search.threshold: Fuzzy-match similarity threshold (default: 0.2)
//   - search.limit: Maximum results per query (default: 20)
//   - server.hosts: Comma-separated host allow-list for the HTTP server
//   - server.origin: CORS allow-origin header value (default: "*")
//   - server.baseurl: Public base URL for sitemap links (default: derived from server.hosts)
//   - collector.endpoint: Upstream IAM roles API endpoint
//   - collector.pagesize: Upstream page size (default: 1000)
//   - audit.env: Map of query log metadata keys to environment variable names
//
// [Viper]: https://github.com/spf13/viper
package config

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/manetu/iamsearch/internal/logging"
	"github.com/spf13/viper"
)

// Environment variable and default path constants for configuration loading.
const (
	// EnvVarPrefix is the prefix for all search engine environment variables.
	// For example, the key "log.level" becomes IMS_LOG_LEVEL.
	EnvVarPrefix string = "IMS"

	// ConfigPathEnv is the environment variable that specifies the directory
	// containing the configuration file.
	ConfigPathEnv string = "IMS_CONFIG_PATH"

	// ConfigFileNameEnv is the environment variable that specifies the
	// configuration file name (without extension).
	ConfigFileNameEnv string = "IMS_CONFIG_FILENAME"

	// ConfigDefaultPath is the default directory to search for config files.
	ConfigDefaultPath string = "."

	// ConfigDefaultFilename is the default configuration file name (without extension).
	ConfigDefaultFilename string = "ims-config"
)

// Configuration key constants for use with [VConfig].
const (
	logLevel string = "log.level"

	// SearchThreshold is the minimum trigram similarity a fuzzy match must
	// reach to be considered a hit.
	//
	// Default: 0.2
	// Set via environment: IMS_SEARCH_THRESHOLD=0.3
	SearchThreshold string = "search.threshold"

	// SearchLimit is the maximum number of results a single query returns
	// per entity kind.
	//
	// Default: 20
	SearchLimit string = "search.limit"

	// ServerHosts is a comma-separated allow-list of Host header values the
	// HTTP server accepts. Requests from other hosts receive 403. An empty
	// list disables the check.
	//
	// Set via environment: IMS_SERVER_HOSTS=gcpiam.com,www.gcpiam.com
	ServerHosts string = "server.hosts"

	// ServerOrigin is the Access-Control-Allow-Origin value for API
	// responses.
	//
	// Default: "*"
	ServerOrigin string = "server.origin"

	// ServerBaseURL is the absolute public base URL used when generating
	// sitemap links.  When empty, the first entry of [ServerHosts] is used
	// with an https scheme.
	//
	// Set via environment: IMS_SERVER_BASEURL=https://gcpiam.com
	ServerBaseURL string = "server.baseurl"

	// CollectorEndpoint is the upstream IAM roles listing endpoint.
	//
	// Default: https://iam.googleapis.com/v1/roles
	CollectorEndpoint string = "collector.endpoint"

	// CollectorPageSize is the page size requested from the upstream API.
	//
	// Default: 1000
	CollectorPageSize string = "collector.pagesize"

	// AuditEnv defines a mapping from query log metadata keys to environment
	// variable names. The values of the specified environment variables are
	// included in every query log record.
	//
	// Example config:
	//
	//	audit:
	//	  env:
	//	    pod: HOSTNAME
	//	    region: AWS_REGION
	AuditEnv string = "audit.env"
)

// DefaultCollectorEndpoint is the production IAM roles listing URL.
const DefaultCollectorEndpoint = "https://iam.googleapis.com/v1/roles"

var (
	once     sync.Once
	loadOnce sync.Once
	loadErr  error

	// VConfig is the global Viper configuration instance for the search engine.
	//
	// VConfig provides access to all configuration values. Use the configuration
	// key constants ([SearchThreshold], [ServerHosts], etc.) to access specific
	// settings:
	//
	//	threshold := config.VConfig.GetFloat64(config.SearchThreshold)
	//
	// VConfig is initialized automatically when [Load] or [Init] is called.
	VConfig *viper.Viper
	logger  = logging.GetLogger("iamsearch.config")
)

// Init initializes the configuration system without loading config files.
//
// Init sets up Viper with:
//   - Configuration file paths and names
//   - Environment variable handling (IMS_ prefix)
//   - Default values for all configuration keys
//
// This function is safe to call multiple times; subsequent calls are no-ops.
// Most applications don't need to call Init directly; it's called automatically
// by [Load], which runs when an engine is constructed.
//
// Call Init explicitly only if you need to set Viper defaults before [Load]
// reads the configuration file.
func Init() {
	once.Do(func() {
		doInitialize()
	})
}

func getConfigPath() string {
	configPath, ok := os.LookupEnv(ConfigPathEnv)
	if ok {
		return configPath
	}

	return ConfigDefaultPath
}

func getConfigFileName() string {
	configName, ok := os.LookupEnv(ConfigFileNameEnv)
	if ok {
		return configName
	}

	return ConfigDefaultFilename
}

func doInitialize() {
	VConfig = viper.New()

	// set up config-file loading:  default is './ims-config.yaml' but can be overridden with $(IMS_CONFIG_PATH)/$(IMS_CONFIG_FILENAME).yaml
	VConfig.AddConfigPath(getConfigPath())
	VConfig.SetConfigName(getConfigFileName())
	VConfig.SetConfigType("yaml")

	// set up envvar handling:  keys such as 'log.level' become 'IMS_LOG_LEVEL'
	VConfig.SetEnvPrefix(EnvVarPrefix)
	VConfig.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	VConfig.AutomaticEnv()

	// set up VConfig defaults
	VConfig.SetDefault(logLevel, ".:info")
	VConfig.SetDefault(SearchThreshold, 0.2)
	VConfig.SetDefault(SearchLimit, 20)
	VConfig.SetDefault(ServerHosts, "localhost,127.0.0.1")
	VConfig.SetDefault(ServerOrigin, "*")
	VConfig.SetDefault(ServerBaseURL, "")
	VConfig.SetDefault(CollectorEndpoint, DefaultCollectorEndpoint)
	VConfig.SetDefault(CollectorPageSize, 1000)
}

// Load initializes configuration and loads settings from files and environment.
//
// Load performs the following steps:
//  1. Calls [Init] if not already called
//  2. Reads the configuration file (if present; missing files are not an error)
//  3. Applies environment variable overrides
//  4. Updates log levels based on configuration
//
// This function is safe to call concurrently from multiple goroutines.
// Subsequent calls after the first successful load are no-ops that return nil.
//
// Returns an error if log level configuration is invalid.
func Load() error {
	loadOnce.Do(func() {
		Init()

		// Early log level update from environment variable allows us to debug the config loading.
		earlyLoglevel := os.Getenv("IMS_LOG_LEVEL")
		if earlyLoglevel != "" {
			if err := logging.UpdateLogLevels(earlyLoglevel); err != nil {
				logger.SysErrorf("Failed updating early log level %s: %+v", earlyLoglevel, err)
				loadErr = err
				return
			}
		}

		logger.SysDebugf("Loading configuration from %s/%s.yaml", getConfigPath(), getConfigFileName())
		err := VConfig.ReadInConfig()
		if err != nil {
			// Only log if it's an actual error, not just a missing config file
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				logger.SysWarnf("error reading config; using defaults: %+v", err)
			}
			// fall through to continue loading
			logger.SysDebugf("No config file found at %s/%s.yaml", getConfigPath(), getConfigFileName())
		}

		// Update log levels based on final configuration
		loglevel := VConfig.GetString(logLevel)
		if err := logging.UpdateLogLevels(loglevel); err != nil {
			logger.SysErrorf("Failed updating log level %s: %+v", loglevel, err)
			loadErr = err
			return
		}

		if logger.IsDebugEnabled() {
			VConfig.DebugTo(logger.Out())
		}
	})

	return loadErr
}

// ResetConfig clears all configuration and reinitializes with defaults.
//
// WARNING: This function is intended for testing only. It resets the global
// configuration state, which can cause race conditions in concurrent code.
//
// After calling ResetConfig, the configuration system is reinitialized with
// default values. Any previously loaded configuration file or environment
// variable overrides are discarded.
func ResetConfig() {
	VConfig = nil
	once = sync.Once{}     // reset the sync.Once to allow re-initialization
	loadOnce = sync.Once{} // reset the loadOnce to allow re-loading
	loadErr = nil          // reset any previous load error
	Init()
	// ignore any reset errors
	_ = Load()
}

// GetAuditEnv returns resolved audit environment metadata for query log records.
//
// This function reads the audit.env configuration section and resolves each
// configured environment variable to its current value. The result is a map
// suitable for inclusion in query log records as metadata.
//
// Configuration format:
//
//	audit:
//	  env:
//	    pod: HOSTNAME
//	    region: AWS_REGION
//
// With HOSTNAME=pod-123 and AWS_REGION=us-east-1, this returns:
//
//	{"pod": "pod-123", "region": "us-east-1"}
//
// Environment variables that are not set will have empty string values in the
// result. Returns an empty map if no audit.env configuration is present.
func GetAuditEnv() map[string]string {
	result := make(map[string]string)

	envConfig := VConfig.GetStringMapString(AuditEnv)
	if envConfig == nil {
		return result
	}

	for key, envVarName := range envConfig {
		result[key] = os.Getenv(envVarName)
	}

	return result
}

// Hosts returns the parsed server host allow-list, with whitespace trimmed
// and empty entries removed.
func Hosts() []string {
	raw := VConfig.GetString(ServerHosts)
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
