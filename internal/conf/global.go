package conf

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix = "SEALOS_NM_BYTECOUNT_"
	// nested keys are separated by a double underscore in the environment,
	// e.g. SEALOS_NM_BYTECOUNT_AGGREGATOR__CACHE_SIZE
	envDelim = "__"

	defaultIface = "eth0"
)

type GlobalUserConfig struct {
	DevMode                 bool   `koanf:"dev_mode"`
	Iface                   string `koanf:"iface"`
	BytecountUserConfig     `koanf:"bytecount"`
	AggregatorUserConfig    `koanf:"aggregator"`
	ExporterUserConfig      `koanf:"exporter"`
	PublisherUserConfig     `koanf:"publisher"`
	DeviceWatcherUserConfig `koanf:"device_watcher"`
}

// NewGlobalUserConfig holds the defaults that only a config can switch off.
// Everything else is defaulted by the component configs.
func NewGlobalUserConfig() GlobalUserConfig {
	cfg := GlobalUserConfig{
		Iface: defaultIface,
	}
	cfg.ExporterUserConfig.Enabled = true
	return cfg
}

// ReadGlobalConfig reads the yaml file at path, then overlays the
// environment. A missing file leaves the defaults in place.
func ReadGlobalConfig(path string) (GlobalUserConfig, error) {
	globalConfig := NewGlobalUserConfig()
	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return globalConfig, errors.Join(ErrReadingConfigFile, err)
			}
		} else if !os.IsNotExist(err) {
			return globalConfig, errors.Join(ErrReadingConfigFile, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return globalConfig, errors.Join(ErrReadingEnv, err)
	}
	if err := k.Unmarshal("", &globalConfig); err != nil {
		return globalConfig, errors.Join(ErrUnmarshalingConfig, err)
	}
	return globalConfig, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, envDelim, ".")
}
