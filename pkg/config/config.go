package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for navkit. It is loaded once per command
// and passed by value into each job; nothing reads it from package state.
type Config struct {
	Paths PathsConfig `mapstructure:"paths"`
	Icons IconsConfig `mapstructure:"icons"`
	Split SplitConfig `mapstructure:"split"`
	Prune PruneConfig `mapstructure:"prune"`
	Fetch FetchConfig `mapstructure:"fetch"`
}

// PathsConfig locates the site trees navkit operates on
type PathsConfig struct {
	Icons       string `mapstructure:"icons"`
	Content     string `mapstructure:"content"`
	Nav         string `mapstructure:"nav"`
	SplitSource string `mapstructure:"split_source"`
	SplitTarget string `mapstructure:"split_target"`
	Backup      string `mapstructure:"backup"`
	Report      string `mapstructure:"report"`
}

// IconsConfig describes how icons are stored and referenced
type IconsConfig struct {
	// Prefix is the public URL path icons are served under, e.g. /images/logos.
	Prefix        string        `mapstructure:"prefix"`
	Patterns      []string      `mapstructure:"patterns"`
	GenericMarker string        `mapstructure:"generic_marker"`
	Generic       []GenericIcon `mapstructure:"generic"`
}

// GenericIcon is a shared fallback icon for one external source type.
type GenericIcon struct {
	Key          string `mapstructure:"key" json:"key"`
	Filename     string `mapstructure:"filename" json:"filename"`
	SourceDomain string `mapstructure:"source_domain" json:"source_domain"`
	Description  string `mapstructure:"description" json:"description"`
}

// SplitConfig lists the page documents `navkit split` converts
type SplitConfig struct {
	Files []string `mapstructure:"files"`
}

// PruneConfig lists legacy fields `navkit prune` strips
type PruneConfig struct {
	Fields []string `mapstructure:"fields"`
}

// FetchConfig configures calls to the icon-resolution endpoint
type FetchConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Endpoint         string        `mapstructure:"endpoint"`
	Workers          int           `mapstructure:"workers"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryCount       int           `mapstructure:"retry_count"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	PreflightTimeout time.Duration `mapstructure:"preflight_timeout"`
}

var defaultGenericIcons = []GenericIcon{
	{
		Key:          "github",
		Filename:     "github-default.webp",
		SourceDomain: "github.com",
		Description:  "GitHub fallback icon, used when an owner avatar cannot be fetched",
	},
	{
		Key:          "googleplay",
		Filename:     "googleplay-default.webp",
		SourceDomain: "play.google.com",
		Description:  "Google Play fallback icon, used when an app icon cannot be fetched",
	},
}

var defaultConfig = Config{
	Paths: PathsConfig{
		Icons:       "public/images/logos",
		Content:     "src/content/nav-groups",
		Nav:         "src/data/nav",
		SplitSource: "src/data/nav",
		SplitTarget: "src/data/nav_new",
		Backup:      "icon_cleanup_backup",
		Report:      "icon_dedupe_report.json",
	},
	Icons: IconsConfig{
		Prefix:        "/images/logos",
		Patterns:      []string{"*.webp"},
		GenericMarker: "default",
		Generic:       defaultGenericIcons,
	},
	Split: SplitConfig{
		Files: []string{"home.json", "sub1.json"},
	},
	Prune: PruneConfig{
		Fields: []string{"badge_list"},
	},
	Fetch: FetchConfig{
		BaseURL:          "http://localhost:4321",
		Endpoint:         "/api/icon-resolve",
		Workers:          5,
		Timeout:          30 * time.Second,
		RetryCount:       2,
		RetryDelay:       time.Second,
		PreflightTimeout: 5 * time.Second,
	},
}

// Default returns a copy of the built-in configuration.
func Default() Config {
	cfg := defaultConfig
	cfg.Icons.Patterns = append([]string(nil), defaultConfig.Icons.Patterns...)
	cfg.Icons.Generic = append([]GenericIcon(nil), defaultConfig.Icons.Generic...)
	cfg.Split.Files = append([]string(nil), defaultConfig.Split.Files...)
	cfg.Prune.Fields = append([]string(nil), defaultConfig.Prune.Fields...)
	return cfg
}

// NewViper returns a viper instance with navkit defaults and NAVKIT_* environment
// overrides wired up.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("paths.icons", defaultConfig.Paths.Icons)
	v.SetDefault("paths.content", defaultConfig.Paths.Content)
	v.SetDefault("paths.nav", defaultConfig.Paths.Nav)
	v.SetDefault("paths.split_source", defaultConfig.Paths.SplitSource)
	v.SetDefault("paths.split_target", defaultConfig.Paths.SplitTarget)
	v.SetDefault("paths.backup", defaultConfig.Paths.Backup)
	v.SetDefault("paths.report", defaultConfig.Paths.Report)

	v.SetDefault("icons.prefix", defaultConfig.Icons.Prefix)
	v.SetDefault("icons.patterns", defaultConfig.Icons.Patterns)
	v.SetDefault("icons.generic_marker", defaultConfig.Icons.GenericMarker)
	generic := make([]map[string]interface{}, 0, len(defaultGenericIcons))
	for _, g := range defaultGenericIcons {
		generic = append(generic, map[string]interface{}{
			"key":           g.Key,
			"filename":      g.Filename,
			"source_domain": g.SourceDomain,
			"description":   g.Description,
		})
	}
	v.SetDefault("icons.generic", generic)

	v.SetDefault("split.files", defaultConfig.Split.Files)
	v.SetDefault("prune.fields", defaultConfig.Prune.Fields)

	v.SetDefault("fetch.base_url", defaultConfig.Fetch.BaseURL)
	v.SetDefault("fetch.endpoint", defaultConfig.Fetch.Endpoint)
	v.SetDefault("fetch.workers", defaultConfig.Fetch.Workers)
	v.SetDefault("fetch.timeout", defaultConfig.Fetch.Timeout)
	v.SetDefault("fetch.retry_count", defaultConfig.Fetch.RetryCount)
	v.SetDefault("fetch.retry_delay", defaultConfig.Fetch.RetryDelay)
	v.SetDefault("fetch.preflight_timeout", defaultConfig.Fetch.PreflightTimeout)

	v.SetEnvPrefix("NAVKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configuration into v and decodes it. An explicit file must exist;
// otherwise navkit.{yaml,yml,json,toml} is looked up in the working directory
// and ~/.navkit, and its absence is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, &PreconditionError{What: "config file", Path: file, Err: err}
		}
	} else {
		v.SetConfigName("navkit")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", ".navkit"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Icons.Prefix = strings.TrimRight(cfg.Icons.Prefix, "/")
	cfg.Fetch.BaseURL = strings.TrimRight(cfg.Fetch.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BindFlags binds command flags to config keys, keyed by config key. Flags the
// command does not define are skipped so commands can share one table.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, bindings map[string]string) error {
	for key, flagName := range bindings {
		f := fs.Lookup(flagName)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s to %s: %w", flagName, key, err)
		}
	}
	return nil
}

// Validate rejects settings no job can run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Icons.Prefix == "" || !strings.HasPrefix(c.Icons.Prefix, "/") {
		problems = append(problems, "icons.prefix must be an absolute URL path such as /images/logos")
	}
	if len(c.Icons.Patterns) == 0 {
		problems = append(problems, "icons.patterns must list at least one pattern")
	}
	if c.Fetch.Workers <= 0 {
		problems = append(problems, "fetch.workers must be positive")
	}
	if c.Fetch.RetryCount <= 0 {
		problems = append(problems, "fetch.retry_count must be positive")
	}
	if c.Fetch.Timeout <= 0 {
		problems = append(problems, "fetch.timeout must be positive")
	}
	if c.Fetch.RetryDelay < 0 {
		problems = append(problems, "fetch.retry_delay must not be negative")
	}
	for i, g := range c.Icons.Generic {
		if g.Filename == "" {
			problems = append(problems, fmt.Sprintf("icons.generic[%d] has no filename", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GenericFilenames returns the configured fallback icon filenames.
func (c IconsConfig) GenericFilenames() []string {
	out := make([]string, 0, len(c.Generic))
	for _, g := range c.Generic {
		out = append(out, g.Filename)
	}
	return out
}

// FindGeneric looks up a fallback icon by key.
func (c IconsConfig) FindGeneric(key string) (GenericIcon, bool) {
	for _, g := range c.Generic {
		if strings.EqualFold(g.Key, key) {
			return g, true
		}
	}
	return GenericIcon{}, false
}
