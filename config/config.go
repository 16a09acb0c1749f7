// Package config loads the reader configuration.
//
// Values from an optional YAML file are superimposed on the embedded
// defaults, then sanitized and validated.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rupor-github/gencfg"
	"go.uber.org/multierr"
	yaml "gopkg.in/yaml.v3"

	"github.com/ganymede-app/guidemark/transform"
)

//go:embed config.yaml
var defaultConfig []byte

const (
	PlatformAuto  = "auto"
	PlatformMac   = "mac"
	PlatformOther = "other"
)

type (
	GuidesConfig struct {
		Dir   string `yaml:"dir" sanitize:"path_clean" validate:"required"`
		Watch bool   `yaml:"watch"`
	}

	ProgressConfig struct {
		Database string `yaml:"database" sanitize:"path_clean" validate:"required"`
		Profile  string `yaml:"profile" validate:"required"`
	}

	APIConfig struct {
		BaseURL           string        `yaml:"base_url" validate:"required,url"`
		Key               SecretString  `yaml:"key"`
		RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gt=0"`
		Burst             int           `yaml:"burst" validate:"min=1"`
		Timeout           time.Duration `yaml:"timeout" validate:"gte=0"`
	}

	ReaderConfig struct {
		Whitelist      []string `yaml:"whitelist"`
		AutoTravelCopy bool     `yaml:"auto_travel_copy"`
		Platform       string   `yaml:"platform" validate:"oneof=auto mac other"`
		MappingFile    string   `yaml:"mapping_file"`
	}

	Config struct {
		Version  int              `yaml:"version" validate:"eq=1"`
		Guides   GuidesConfig     `yaml:"guides"`
		Progress ProgressConfig   `yaml:"progress"`
		API      APIConfig        `yaml:"api"`
		Reader   ReaderConfig     `yaml:"reader"`
		Engine   transform.Config `yaml:"engine"`
		Logging  LoggingConfig    `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are accepted
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of the embedded defaults and performs
// validation. An empty path yields the defaults.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(defaultConfig, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Validate performs the checks struct tags cannot express. All problems are
// reported at once.
func (c *Config) Validate() error {
	var err error
	for _, origin := range c.Reader.Whitelist {
		if o, ok := transform.Origin(origin); !ok || o != normalizeOrigin(origin) {
			err = multierr.Append(err, fmt.Errorf("reader.whitelist: %q is not an origin (scheme://host)", origin))
		}
	}
	if c.Logging.FileLogger.Level != "none" && c.Logging.FileLogger.Destination == "" {
		err = multierr.Append(err, fmt.Errorf("logging.file: destination is required when level is %q", c.Logging.FileLogger.Level))
	}
	if _, e := transform.New(c.Engine); e != nil {
		err = multierr.Append(err, fmt.Errorf("engine: %w", e))
	}
	return err
}

// Platform resolves the configured platform against the running OS.
func (c *Config) Platform() transform.Platform {
	switch c.Reader.Platform {
	case PlatformMac:
		return transform.Platform{IsMac: true}
	case PlatformOther:
		return transform.Platform{}
	default:
		return transform.Platform{IsMac: runtime.GOOS == "darwin"}
	}
}

// TrustedOrigins returns the built-in whitelist extended by the configured
// origins.
func (c *Config) TrustedOrigins() transform.Whitelist {
	return transform.NewWhitelist(append(DefaultOrigins(), c.Reader.Whitelist...)...)
}

// Dump returns the active configuration as YAML. Secrets are masked.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// Prepare returns the embedded default configuration.
func Prepare() ([]byte, error) {
	return gencfg.Process(defaultConfig)
}
