// Package config loads the runtime configuration from command-line flags,
// FEATUREFLAGS_* environment variables and an optional YAML file, in that
// order of precedence.
package config

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/remote"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "FEATUREFLAGS"

// Configuration keys. Each is also the name of a command-line flag.
const (
	KeyConfigFile = "config"
	KeyAPIBaseURL = "api-base-url"
	KeyHTTPAddr   = "http-addr"
	KeyHydrate    = "hydrate"
	KeyPrecedence = "precedence"
	KeyTimeout    = "timeout"
	KeyLogLevel   = "log-level"
	KeyOverrides  = "overrides"
)

// Defaults.
const (
	DefaultAPIBaseURL = "http://localhost:5000"
	DefaultHTTPAddr   = ":8080"
	DefaultTimeout    = 5 * time.Second
	DefaultLogLevel   = "info"
)

// Config is the resolved configuration.
type Config struct {
	APIBaseURL string
	HTTPAddr   string
	Hydrate    bool
	Precedence remote.Precedence
	Timeout    time.Duration
	LogLevel   string
	// Overrides holds initial flag values, keyed by catalog identifier.
	Overrides flags.State
}

// AddFlags registers every configuration key on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(KeyConfigFile, "", "path to a YAML configuration file")
	fs.String(KeyAPIBaseURL, DefaultAPIBaseURL, "base URL of the feature flag and authorization backend")
	fs.String(KeyHTTPAddr, DefaultHTTPAddr, "HTTP listen address")
	fs.Bool(KeyHydrate, true, "load flag values from the backend at startup")
	fs.String(KeyPrecedence, string(remote.PrecedenceHydration), "which side wins when hydration and overrides name the same flag (hydration|overrides)")
	fs.Duration(KeyTimeout, DefaultTimeout, "timeout of backend requests")
	fs.String(KeyLogLevel, DefaultLogLevel, "log level (debug|info|warn|error)")
	fs.StringToString(KeyOverrides, nil, "initial flag values, e.g. EnhancedRbac=true,MfaEnforcement=false")
}

// NewViper returns a viper instance bound to fs and the environment.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "binding flags")
	}
	return v, nil
}

// Load resolves the configuration held by v, reading the configuration file
// if one is named. Override keys are matched to flag identifiers ignoring
// case; unknown keys are dropped with a warning.
func Load(v *viper.Viper, logger log.Logger) (Config, error) {
	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config file %s", path)
		}
		level.Debug(logger).Log("msg", "using config file", "path", v.ConfigFileUsed())
	}

	c := Config{
		APIBaseURL: strings.TrimRight(v.GetString(KeyAPIBaseURL), "/"),
		HTTPAddr:   v.GetString(KeyHTTPAddr),
		Hydrate:    v.GetBool(KeyHydrate),
		Precedence: remote.Precedence(strings.ToLower(v.GetString(KeyPrecedence))),
		Timeout:    v.GetDuration(KeyTimeout),
		LogLevel:   strings.ToLower(v.GetString(KeyLogLevel)),
	}

	raw, err := rawOverrides(v.Get(KeyOverrides))
	if err != nil {
		return Config{}, err
	}
	overrides, err := resolveOverrides(raw, logger)
	if err != nil {
		return Config{}, err
	}
	c.Overrides = overrides

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first invalid setting of c.
func (c Config) Validate() error {
	if !c.Precedence.Valid() {
		return errors.Errorf("invalid %s %q", KeyPrecedence, c.Precedence)
	}
	if c.Timeout <= 0 {
		return errors.Errorf("invalid %s %v: must be positive", KeyTimeout, c.Timeout)
	}
	if _, err := c.LevelOption(); err != nil {
		return err
	}
	if c.APIBaseURL != "" {
		u, err := url.Parse(c.APIBaseURL)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", KeyAPIBaseURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.Errorf("invalid %s %q: scheme must be http or https", KeyAPIBaseURL, c.APIBaseURL)
		}
	}
	return nil
}

// LevelOption returns the level filter matching c.LogLevel.
func (c Config) LevelOption() (level.Option, error) {
	switch c.LogLevel {
	case "debug":
		return level.AllowDebug(), nil
	case "info", "":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	}
	return nil, errors.Errorf("invalid %s %q", KeyLogLevel, c.LogLevel)
}

// rawOverrides normalizes overrides as they come from a flag, the
// environment ("k=v,k=v") or a YAML mapping.
func rawOverrides(v interface{}) (map[string]interface{}, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		out := map[string]interface{}{}
		for _, pair := range strings.Split(v, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			k, val, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, errors.Errorf("invalid %s entry %q: want name=bool", KeyOverrides, pair)
			}
			out[strings.TrimSpace(k)] = strings.TrimSpace(val)
		}
		return out, nil
	default:
		m, err := cast.ToStringMapE(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", KeyOverrides)
		}
		return m, nil
	}
}

func resolveOverrides(raw map[string]interface{}, logger log.Logger) (flags.State, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := flags.State{}
	for _, k := range keys {
		d, ok := flags.Authorization.LookupFold(k)
		if !ok {
			level.Warn(logger).Log("msg", "ignoring unknown override", "flag", k)
			continue
		}
		b, err := parseBool(raw[k])
		if err != nil {
			return nil, errors.Wrapf(err, "override %s", k)
		}
		out[d.Name] = b
	}
	return out, nil
}

func parseBool(v interface{}) (bool, error) {
	if s, ok := v.(string); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return false, errors.Errorf("%q is not a boolean", s)
		}
		return b, nil
	}
	return cast.ToBoolE(v)
}
