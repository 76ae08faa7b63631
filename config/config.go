// Package config defines the settings of the node decoding tools and how they are loaded.
package config

import (
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/ept/ept"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "EPT"

// Config describes where a dataset lives and how its nodes are decoded.
type Config struct {
	// Root is the dataset directory or an http(s) URL holding ept.json.
	Root     string   `mapstructure:"root"`
	Workers  int      `mapstructure:"workers"`
	Queue    int      `mapstructure:"queue"`
	Channels []string `mapstructure:"channels"`

	Misaligned ept.MisalignedPolicy `mapstructure:"misaligned"`

	// Retries bounds how often a failed HTTP fetch is attempted again.
	Retries uint64        `mapstructure:"retries"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", "")
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("queue", 64)
	v.SetDefault("channels", []string{})
	v.SetDefault("misaligned", ept.MisalignedReject.String())
	v.SetDefault("retries", 3)
	v.SetDefault("timeout", 30*time.Second)
}

var misalignedPolicyType = reflect.TypeOf(ept.MisalignedReject)

// misalignedPolicyHook decodes policy names into an ept.MisalignedPolicy.
func misalignedPolicyHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != misalignedPolicyType {
		return data, nil
	}
	return ept.ParseMisalignedPolicy(data.(string))
}

// Load reads the config file at path from fs, if path is set, and overlays EPT_ prefixed
// environment variables on top of it.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "cannot read config %q", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		misalignedPolicyHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Wrap(err, "cannot decode config")
	}
	return &cfg, nil
}

// Validate reports every problem with the config.
func (c *Config) Validate(path string) error {
	var errs error
	if c.Root == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "root"))
	}
	if c.Workers < 1 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("workers must be at least 1, got %d", c.Workers)))
	}
	if c.Queue < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("queue cannot be negative, got %d", c.Queue)))
	}
	if c.Timeout < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("timeout cannot be negative, got %s", c.Timeout)))
	}
	for _, name := range lo.FindDuplicates(c.Channels) {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("channel %q requested more than once", name)))
	}
	if lo.Contains(c.Channels, "") {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("empty channel name")))
	}
	return errs
}

// IsRemote reports whether Root is fetched over HTTP.
func (c *Config) IsRemote() bool {
	return strings.HasPrefix(c.Root, "http://") || strings.HasPrefix(c.Root, "https://")
}
