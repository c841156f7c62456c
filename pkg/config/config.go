// Package config loads bulkdock configuration from a YAML file and BULKDOCK_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable; "scheduler.partition" is
// read from BULKDOCK_SCHEDULER_PARTITION.
const EnvPrefix = "BULKDOCK"

// DefaultFileName is looked up in the working directory and the user config directory.
const DefaultFileName = "bulkdock.yaml"

// Config aggregates configuration for the application.
type Config struct {
	Dirs      DirsConfig      `mapstructure:"dirs"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Splitter  SplitterConfig  `mapstructure:"splitter"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Publish   PublishConfig   `mapstructure:"publish"`
}

// DirsConfig lists the working directories. Relative paths in a config file
// are taken relative to that file's directory.
type DirsConfig struct {
	Input   string `mapstructure:"input"`
	Target  string `mapstructure:"target"`
	Output  string `mapstructure:"output"`
	Results string `mapstructure:"results"`
	Scratch string `mapstructure:"scratch"`
	Logs    string `mapstructure:"logs"`
}

// SchedulerConfig describes how jobs are submitted and listed.
type SchedulerConfig struct {
	SubmitCommand string        `mapstructure:"submit_command"`
	ListCommand   string        `mapstructure:"list_command"`
	User          string        `mapstructure:"user"`
	Launcher      string        `mapstructure:"launcher"`
	Partition     string        `mapstructure:"partition"`
	MailUser      string        `mapstructure:"mail_user"`
	MailType      string        `mapstructure:"mail_type"`
	ExtraArgs     []string      `mapstructure:"extra_args"`
	JobPrefix     string        `mapstructure:"job_prefix"`
	Stagger       time.Duration `mapstructure:"stagger"`
	AuditLog      string        `mapstructure:"audit_log"`
}

// SplitterConfig controls batching.
type SplitterConfig struct {
	PayloadColumn string `mapstructure:"payload_column"`
	BatchSize     int    `mapstructure:"batch_size"`
}

// WorkerConfig controls the per-item placement inside worker jobs.
type WorkerConfig struct {
	Command         string        `mapstructure:"command"`
	Args            []string      `mapstructure:"args"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	RejectExitCodes []int         `mapstructure:"reject_exit_codes"`
}

// StoreConfig enables the job-state store.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// PublishConfig enables uploading merged artifacts to S3.
type PublishConfig struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Dirs: DirsConfig{
			Input:   "inputs",
			Target:  "targets",
			Output:  "outputs",
			Results: "results",
			Scratch: "scratch",
			Logs:    "logs",
		},
		Scheduler: SchedulerConfig{
			SubmitCommand: "sbatch",
			ListCommand:   "squeue",
			Launcher:      "run_bulkdock.sh",
			MailType:      "END,FAIL",
			JobPrefix:     "BulkDock",
			Stagger:       0,
		},
		Splitter: SplitterConfig{
			PayloadColumn: "smiles",
			BatchSize:     0,
		},
		Worker: WorkerConfig{
			Timeout:     30 * time.Minute,
			MaxAttempts: 3,
		},
		Store: StoreConfig{
			DSN: "bulkdock.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from path (or bulkdock.yaml in the working and
// user config directories when path is empty) and the environment.
// Environment variables use the prefix "BULKDOCK" and the dot character in
// keys is replaced by an underscore.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := newViper()
	bindEnvs(v, cfg)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFileName, filepath.Ext(DefaultFileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "bulkdock"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		cfg.Dirs.resolve(filepath.Dir(used))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Splitter.BatchSize < 0 {
		return fmt.Errorf("config: splitter.batch_size must not be negative, got %d", c.Splitter.BatchSize)
	}
	if c.Scheduler.Stagger < 0 {
		return fmt.Errorf("config: scheduler.stagger must not be negative, got %s", c.Scheduler.Stagger)
	}
	if c.Worker.MaxAttempts < 1 {
		return fmt.Errorf("config: worker.max_attempts must be at least 1, got %d", c.Worker.MaxAttempts)
	}
	if strings.ContainsAny(c.Scheduler.JobPrefix, ".: ") || c.Scheduler.JobPrefix == "" {
		return fmt.Errorf("config: scheduler.job_prefix %q must be non-empty without '.', ':' or spaces", c.Scheduler.JobPrefix)
	}
	if c.Store.Enabled && c.Store.DSN == "" {
		return errors.New("config: store.dsn is required when the store is enabled")
	}
	return nil
}

// Directories returns the working directories in a stable order.
func (c *Config) Directories() []string {
	return []string{c.Dirs.Input, c.Dirs.Target, c.Dirs.Output, c.Dirs.Results, c.Dirs.Scratch, c.Dirs.Logs}
}

// resolve anchors relative directories at base so every command sees the
// same paths whatever its working directory.
func (d *DirsConfig) resolve(base string) {
	for _, p := range []*string{&d.Input, &d.Target, &d.Output, &d.Results, &d.Scratch, &d.Logs} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Keys lists every settable key, sorted.
func Keys() []string {
	var keys []string
	walkKeys(reflect.TypeOf(Config{}), nil, func(key string) { keys = append(keys, key) })
	sort.Strings(keys)
	return keys
}

// Set writes key=value into the YAML file at path, creating it if needed.
func Set(path, key, value string) error {
	if !slices.Contains(Keys(), key) {
		return fmt.Errorf("config: unknown key %q", key)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	v.Set(key, value)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any) {
	walkKeys(reflect.TypeOf(cfg), nil, func(key string) {
		_ = v.BindEnv(key)
	})
}

func walkKeys(typ reflect.Type, parts []string, fn func(string)) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			walkKeys(f.Type, key, fn)
			continue
		}
		fn(strings.Join(key, "."))
	}
}
