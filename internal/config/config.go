// Package config loads covideda settings from defaults, an optional YAML file,
// a .env file, COVIDEDA_* environment variables and command-line flags.
//
// Precedence: flags > env > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. COVIDEDA_STORAGE_DSN.
const EnvPrefix = "COVIDEDA"

// Config is the full application configuration.
type Config struct {
	Job     string  `mapstructure:"job" yaml:"job"`
	Verbose bool    `mapstructure:"verbose" yaml:"verbose"`
	Storage Storage `mapstructure:"storage" yaml:"storage"`
	Source  Source  `mapstructure:"source" yaml:"source"`
	Loader  Loader  `mapstructure:"loader" yaml:"loader"`
	Census  Census  `mapstructure:"census" yaml:"census"`
	Metrics Metrics `mapstructure:"metrics" yaml:"metrics"`
}

// Storage selects the backend holding the case table.
type Storage struct {
	Kind  string `mapstructure:"kind" yaml:"kind"`
	DSN   string `mapstructure:"dsn" yaml:"dsn"`
	Table string `mapstructure:"table" yaml:"table"`
}

// Source describes the case CSV.
type Source struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Comma string `mapstructure:"comma" yaml:"comma"`
}

// CommaRune returns the configured delimiter, ',' when unset.
func (s Source) CommaRune() rune {
	if s.Comma == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(s.Comma)
	return r
}

// Loader tunes the bulk load pipeline.
type Loader struct {
	BatchSize     int `mapstructure:"batch_size" yaml:"batch_size"`
	ChannelBuffer int `mapstructure:"channel_buffer" yaml:"channel_buffer"`
}

// Census points at the population reference files. Both may name the same
// file when it carries a sexo column.
type Census struct {
	ProvincePath string `mapstructure:"province_path" yaml:"province_path"`
	SexPath      string `mapstructure:"sex_path" yaml:"sex_path"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string `mapstructure:"backend" yaml:"backend"`
	PushgatewayURL string `mapstructure:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string `mapstructure:"datadog_addr" yaml:"datadog_addr"`
}

// FlagKeys maps command-line flag names to config keys. Only flags that were
// set explicitly override lower layers.
var FlagKeys = map[string]string{
	"storage":         "storage.kind",
	"dsn":             "storage.dsn",
	"verbose":         "verbose",
	"metrics-backend": "metrics.backend",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("job", "covideda")
	v.SetDefault("verbose", false)
	v.SetDefault("storage.kind", "sqlite")
	v.SetDefault("storage.dsn", "covid.db")
	v.SetDefault("storage.table", "casos")
	v.SetDefault("source.path", "Covid19Casos.csv")
	v.SetDefault("source.comma", ",")
	v.SetDefault("loader.batch_size", 5000)
	v.SetDefault("loader.channel_buffer", 1024)
	v.SetDefault("census.province_path", "censo2022.csv")
	v.SetDefault("census.sex_path", "censo2022.csv")
	v.SetDefault("metrics.backend", "none")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.datadog_addr", "")
}

// Options controls where Load looks for configuration.
type Options struct {
	// File is an explicit YAML config path. When empty, ./covideda.yaml is
	// read if present.
	File string

	// EnvFile is a dotenv file loaded into the process environment before
	// reading COVIDEDA_* variables. A missing file is ignored. Existing
	// environment variables are never overwritten.
	EnvFile string

	// Flags, when non-nil, are bound according to FlagKeys.
	Flags *pflag.FlagSet
}

// Load builds a Config from every layer.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.File, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("covideda")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("config: read covideda.yaml: %w", err)
			}
		}
	}

	if opts.Flags != nil {
		for flag, key := range FlagKeys {
			if f := opts.Flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind flag --%s: %w", flag, err)
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	c.Storage.Kind = strings.ToLower(strings.TrimSpace(c.Storage.Kind))
	c.Metrics.Backend = strings.ToLower(strings.TrimSpace(c.Metrics.Backend))
	return &c, nil
}

// WriteYAML renders c as YAML.
func WriteYAML(w io.Writer, c *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode yaml: %w", err)
	}
	return enc.Close()
}
