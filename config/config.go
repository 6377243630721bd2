// Package config carries the application's runtime settings, grounded
// on the teacher's config package (config/config.go): a package-level
// cfg loaded through viper, defaults expanded against the user's home
// directory via go-homedir, and env vars bound under a single prefix.
package config

import (
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// AppName names the config file, env var prefix and default data dir.
const AppName = "gitsocial"

// AppEnvPrefix is the prefix viper binds environment variables under
// (e.g. GITSOCIAL_MAXCACHESIZE).
const AppEnvPrefix = AppName

// DefaultDataDir is where mirrors, lists and logs live absent an
// explicit override.
var DefaultDataDir = os.ExpandEnv("$HOME/." + AppName)

// DefaultMaxCacheSize is the post cache's default capacity (spec §4.6).
const DefaultMaxCacheSize = 100000

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	// Workdir is the working tree the Cache Controller reads local
	// commits from.
	Workdir string

	// DataDir holds mirrors (DataDir/mirrors), lists
	// (DataDir/lists.yml) and logs (DataDir/logs).
	DataDir string

	// MaxCacheSize bounds the in-memory LRU post cache.
	MaxCacheSize int

	// LogLevel is one of the logrus level names.
	LogLevel string

	// NoColor disables ANSI color in CLI output.
	NoColor bool
}

// MirrorsDir returns the directory mirrors are cloned into.
func (c AppConfig) MirrorsDir() string { return filepath.Join(c.DataDir, "mirrors") }

// ListsFile returns the path to the YAML-backed list store.
func (c AppConfig) ListsFile() string { return filepath.Join(c.DataDir, "lists.yml") }

// LogDir returns the directory rotated logs are written to.
func (c AppConfig) LogDir() string { return filepath.Join(c.DataDir, "logs") }

var cfg = defaultConfig()

func defaultConfig() AppConfig {
	return AppConfig{
		DataDir:      DefaultDataDir,
		MaxCacheSize: DefaultMaxCacheSize,
		LogLevel:     "info",
	}
}

// Load reads configuration from (in ascending priority) baked-in
// defaults, a config file (gitsocial.yml) under the user's home
// directory or the current directory, and GITSOCIAL_-prefixed
// environment variables,
// then resolves workdir (defaulting to the current directory) and
// stores the result for GetConfig.
func Load(workdir string) (*AppConfig, error) {
	v := viper.GetViper()
	v.SetEnvPrefix(AppEnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("datadir", DefaultDataDir)
	v.SetDefault("maxcachesize", DefaultMaxCacheSize)
	v.SetDefault("loglevel", "info")
	v.SetDefault("nocolor", false)

	home, err := homedir.Dir()
	if err != nil {
		home = DefaultDataDir
	}

	v.SetConfigName("gitsocial")
	v.SetConfigType("yaml")
	v.AddConfigPath(home)
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, errors.Wrap(err, "config: read config file")
		}
	}

	if workdir == "" {
		if wd, err := os.Getwd(); err == nil {
			workdir = wd
		}
	}

	resolved := AppConfig{
		Workdir:      workdir,
		DataDir:      cast.ToString(v.Get("datadir")),
		MaxCacheSize: cast.ToInt(v.Get("maxcachesize")),
		LogLevel:     cast.ToString(v.Get("loglevel")),
		NoColor:      cast.ToBool(v.Get("nocolor")),
	}
	cfg = resolved
	return &cfg, nil
}

// GetConfig returns the process-wide configuration last established
// by Load, or baked-in defaults if Load was never called.
func GetConfig() *AppConfig {
	return &cfg
}

// SinceDefaultLookback returns how far back initial ingestion reaches
// when no prior cache state exists (spec §4.7's Monday-of-current-week
// default is computed in cachectl; this is a coarse upper bound, and
// nothing in this module calls it).
func SinceDefaultLookback() time.Duration {
	return 30 * 24 * time.Hour
}
