package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/yurifrl/sheetload/pkg/models"
)

const (
	EnvPrefix = "SHEETLOAD"
	FileName  = "sheetload"
)

// Missing-table policies.
const (
	MissingTableFail   = "fail"
	MissingTableCreate = "create"
)

var ErrInvalidConfig = errors.New("invalid configuration")

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Source struct {
	Columns     models.Mapping `mapstructure:"columns" yaml:"columns"`
	DateLayouts []string       `mapstructure:"date_layouts" yaml:"date_layouts"`
	Charset     string         `mapstructure:"charset" yaml:"charset"`
}

type Store struct {
	Driver       string `mapstructure:"driver" yaml:"driver"`
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port,omitempty"`
	Database     string `mapstructure:"database" yaml:"database"`
	User         string `mapstructure:"user" yaml:"user"`
	Password     string `mapstructure:"password" yaml:"password,omitempty"`
	Table        string `mapstructure:"table" yaml:"table"`
	MissingTable string `mapstructure:"missing_table" yaml:"missing_table"`
	BatchSize    int    `mapstructure:"batch_size" yaml:"batch_size"`
}

type Config struct {
	Source Source `mapstructure:"source" yaml:"source"`
	Store  Store  `mapstructure:"store" yaml:"store"`
	Debug  bool   `mapstructure:"debug" yaml:"debug"`
}

// flagKeys maps config keys to the CLI flags that may override them.
var flagKeys = map[string]string{
	"store.driver":        "driver",
	"store.host":          "host",
	"store.port":          "port",
	"store.database":      "database",
	"store.user":          "user",
	"store.password":      "password",
	"store.table":         "table",
	"store.missing_table": "missing-table",
	"store.batch_size":    "batch-size",
	"debug":               "debug",
}

func setDefaults(v *viper.Viper) {
	mapping := models.DefaultMapping()
	v.SetDefault("source.columns.event_date", mapping.EventDate)
	v.SetDefault("source.columns.description", mapping.Description)
	v.SetDefault("source.columns.volume", mapping.Volume)
	v.SetDefault("source.date_layouts", models.DefaultDateLayouts)
	v.SetDefault("source.charset", "utf-8")

	v.SetDefault("store.driver", "mysql")
	v.SetDefault("store.host", "localhost")
	v.SetDefault("store.port", 0)
	v.SetDefault("store.database", "superset")
	v.SetDefault("store.user", "data_importer")
	v.SetDefault("store.password", "")
	v.SetDefault("store.table", "consumption")
	v.SetDefault("store.missing_table", MissingTableFail)
	v.SetDefault("store.batch_size", 500)

	v.SetDefault("debug", false)
}

// Default returns the built-in configuration without reading any file,
// environment variable or flag.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Build resolves the configuration from, in increasing priority: defaults,
// the config file, .env and SHEETLOAD_* environment variables, then flags.
// An explicit cfgFile must exist; the implicit sheetload.yaml is optional.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// A missing .env is the common case.
	_ = gotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, FileName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config: %v", ErrInvalidConfig, err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("%w: binding flag %s: %v", ErrInvalidConfig, name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.MissingTable {
	case MissingTableFail, MissingTableCreate:
	default:
		return fmt.Errorf("%w: missing_table must be %q or %q, got %q", ErrInvalidConfig, MissingTableFail, MissingTableCreate, c.Store.MissingTable)
	}
	if !identifier.MatchString(c.Store.Table) {
		return fmt.Errorf("%w: table name %q is not a plain identifier", ErrInvalidConfig, c.Store.Table)
	}
	if c.Store.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive", ErrInvalidConfig)
	}
	m := c.Source.Columns
	if m.EventDate == "" || m.Description == "" || m.Volume == "" {
		return fmt.Errorf("%w: every source column must be named", ErrInvalidConfig)
	}
	return nil
}

// YAML renders the configuration with the password redacted.
func (c *Config) YAML() ([]byte, error) {
	redacted := *c
	if redacted.Store.Password != "" {
		redacted.Store.Password = "********"
	}
	return yaml.Marshal(&redacted)
}
