package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"parsebench/bench"
	"parsebench/pool"
)

// EnvPrefix prefixes environment overrides, e.g. PARSEBENCH_POOL_MAX.
const EnvPrefix = "PARSEBENCH"

// Config is the complete run configuration.
type Config struct {
	Driver      string `mapstructure:"driver"`
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	PasswordEnv string `mapstructure:"password-env"`
	// Password is read from the variable named by PasswordEnv, never from
	// flags or files.
	Password string `mapstructure:"-"`

	PoolInitial    int           `mapstructure:"pool-initial"`
	PoolMin        int           `mapstructure:"pool-min"`
	PoolMax        int           `mapstructure:"pool-max"`
	AcquireTimeout time.Duration `mapstructure:"acquire-timeout"`

	TableName  string `mapstructure:"table"`
	IDColumn   string `mapstructure:"id-column"`
	NameColumn string `mapstructure:"name-column"`

	Iterations    int           `mapstructure:"iterations"`
	ProgressEvery int           `mapstructure:"progress-every"`
	Modes         []string      `mapstructure:"modes"`
	Runs          int           `mapstructure:"runs"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
	Seed          int64         `mapstructure:"seed"`
	ClientInfo    bool          `mapstructure:"client-info"`
	Module        string        `mapstructure:"module"`

	ReportFormat string `mapstructure:"report-format"`
	LogLevel     string `mapstructure:"log-level"`
	ConfigFile   string `mapstructure:"config"`
}

// RegisterFlags registers the connection and workload flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to configuration file (YAML or JSON)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	// Connection
	flags.String("driver", "oracle", "Database driver: "+strings.Join(pool.Drivers(), ", "))
	flags.String("url", "localhost:1522/freepdb1", "Database URL or host:port/service")
	flags.String("username", "demouser", "Database user")
	flags.String("password-env", "APP_USER_PASSWORD", "Environment variable holding the database password")
	flags.Int("pool-initial", 4, "Sessions opened when the pool starts")
	flags.Int("pool-min", 4, "Minimum pool size")
	flags.Int("pool-max", 4, "Maximum pool size")
	flags.Duration("acquire-timeout", 0, "Max wait for a pooled connection (0 waits forever)")

	// Table
	flags.String("table", bench.DefaultTable.Name, "Lookup table")
	flags.String("id-column", bench.DefaultTable.IDColumn, "Integer primary key column")
	flags.String("name-column", bench.DefaultTable.NameColumn, "Text column fetched by each lookup")

	// Workload
	flags.IntP("iterations", "n", 30000, "Lookups per pass")
	flags.Int("progress-every", bench.DefaultProgressEvery, "Log progress every N iterations")
	flags.StringSlice("modes", []string{"trouble", "normal"}, "Modes to run in order: trouble, normal")
	flags.Int("runs", 1, "Passes per mode; the median is reported")
	flags.Duration("cooldown", 3*time.Second, "Pause between repeated passes")
	flags.Int64("seed", 0, "Sampler seed (0 = time based)")
	flags.Bool("client-info", true, "Tag the benchmark session with module/action/client id")
	flags.String("module", bench.DefaultModule, "Client info module name")
	flags.String("report-format", bench.FormatText, "Report format: text, json, yaml")
}

// Load reads configuration with precedence flag > environment > file > default.
// flags must have been registered with RegisterFlags and parsed.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ReportFormat = strings.ToLower(strings.TrimSpace(cfg.ReportFormat))

	if cfg.PasswordEnv != "" {
		cfg.Password = os.Getenv(cfg.PasswordEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks everything that can be checked without a database.
func (c *Config) Validate() error {
	var errs []error
	if err := c.PoolConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.LookupTable().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", pool.ErrConfiguration, err))
	}
	if c.Iterations < 0 {
		errs = append(errs, fmt.Errorf("%w: iterations must not be negative", pool.ErrConfiguration))
	}
	if len(c.Modes) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one mode is required", pool.ErrConfiguration))
	}
	for _, m := range c.Modes {
		if _, err := bench.ParseMode(m); err != nil {
			errs = append(errs, err)
		}
	}
	switch c.ReportFormat {
	case bench.FormatText, bench.FormatJSON, bench.FormatYAML:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown report format %q", pool.ErrConfiguration, c.ReportFormat))
	}
	return multierr.Combine(errs...)
}

// PoolConfig returns the pool section of the configuration.
func (c *Config) PoolConfig() pool.Config {
	return pool.Config{
		Driver:         c.Driver,
		URL:            c.URL,
		Username:       c.Username,
		Password:       c.Password,
		InitialSize:    c.PoolInitial,
		MinSize:        c.PoolMin,
		MaxSize:        c.PoolMax,
		AcquireTimeout: c.AcquireTimeout,
	}
}

// LookupTable returns the table the workload reads from.
func (c *Config) LookupTable() bench.Table {
	return bench.Table{Name: c.TableName, IDColumn: c.IDColumn, NameColumn: c.NameColumn}
}

// Params returns the benchmark parameters.
func (c *Config) Params() bench.Params {
	return bench.Params{
		Table:         c.LookupTable(),
		Iterations:    c.Iterations,
		ProgressEvery: c.ProgressEvery,
		Seed:          c.Seed,
		ClientInfo:    c.ClientInfo,
		Module:        c.Module,
	}
}
