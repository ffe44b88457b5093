package conf

import (
	"reflect"
	"time"

	"github.com/dinoallo/sealos-nm-bytecount/exporter"
	"github.com/dinoallo/sealos-nm-bytecount/internal/aggregator"
	"github.com/dinoallo/sealos-nm-bytecount/internal/bpf/bytecount"
	"github.com/dinoallo/sealos-nm-bytecount/internal/node/network_device"
	"github.com/dinoallo/sealos-nm-bytecount/internal/portstat"
	"github.com/dinoallo/sealos-nm-bytecount/internal/publisher"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/bpf/common"
)

type BytecountUserConfig struct {
	ObjectPath              string `koanf:"object_path"`
	PinPath                 string `koanf:"pin_path"`
	AttachMode              string `koanf:"attach_mode"`
	FilterName              string `koanf:"filter_name"`
	MaxLoadRetries          uint64 `koanf:"max_load_retries"`
	LoadRetryIntervalMillis int    `koanf:"load_retry_interval_ms"`
}

func (c *BytecountUserConfig) ParseBytecountManagerConfig() (bytecount.BytecountManagerConfig, error) {
	cfg := bytecount.NewBytecountManagerConfig()
	if isSet(c.ObjectPath) {
		cfg.ObjectPath = c.ObjectPath
	}
	if isSet(c.PinPath) {
		cfg.PinPath = c.PinPath
	}
	mode, err := common.ParseAttachMode(c.AttachMode)
	if err != nil {
		return cfg, err
	}
	cfg.AttachMode = mode
	if isSet(c.FilterName) {
		cfg.FilterName = c.FilterName
	}
	if isSet(c.MaxLoadRetries) {
		cfg.MaxLoadRetries = c.MaxLoadRetries
	}
	if isSet(c.LoadRetryIntervalMillis) {
		cfg.LoadRetryInterval = time.Duration(c.LoadRetryIntervalMillis) * time.Millisecond
	}
	return cfg, nil
}

type AggregatorUserConfig struct {
	SampleIntervalMillis  int    `koanf:"sample_interval_ms"`
	SummaryIntervalMillis int    `koanf:"summary_interval_ms"`
	CacheSize             int    `koanf:"cache_size"`
	CPUCount              int    `koanf:"cpu_count"`
	EphemeralPortMin      uint16 `koanf:"ephemeral_port_min"`
	EphemeralPortMax      uint16 `koanf:"ephemeral_port_max"`
	PercentileMethod      string `koanf:"percentile_method"`
}

func (c *AggregatorUserConfig) ParseSampleLoopConfig() (aggregator.SampleLoopConfig, error) {
	cfg := aggregator.NewSampleLoopConfig()
	if isSet(c.SampleIntervalMillis) {
		cfg.SampleInterval = time.Duration(c.SampleIntervalMillis) * time.Millisecond
	}
	if isSet(c.SummaryIntervalMillis) {
		cfg.SummaryInterval = time.Duration(c.SummaryIntervalMillis) * time.Millisecond
	}
	if isSet(c.CacheSize) {
		cfg.EntrySize = c.CacheSize
	}
	if isSet(c.CPUCount) {
		cfg.CPUCount = c.CPUCount
	}
	if isSet(c.EphemeralPortMin) {
		cfg.EphemeralMin = c.EphemeralPortMin
	}
	if isSet(c.EphemeralPortMax) {
		cfg.EphemeralMax = c.EphemeralPortMax
	}
	if cfg.EphemeralMin > cfg.EphemeralMax || cfg.EphemeralMin == portstat.EphemeralBucket {
		return cfg, ErrInvalidPortRange
	}
	kind, err := portstat.ParseCumulantKind(c.PercentileMethod)
	if err != nil {
		return cfg, err
	}
	cfg.CumulantKind = kind
	return cfg, nil
}

type ExporterUserConfig struct {
	Enabled          bool   `koanf:"enabled"`
	Addr             string `koanf:"addr"`
	MetricsPath      string `koanf:"metrics_path"`
	NodeName         string `koanf:"node_name"`
	StaleAfterSecond int    `koanf:"stale_after_second"`
}

func (c *ExporterUserConfig) ParseExporterConfig() exporter.ExporterConfig {
	cfg := exporter.NewExporterConfig()
	if isSet(c.Addr) {
		cfg.Addr = c.Addr
	}
	if isSet(c.MetricsPath) {
		cfg.MetricsPath = c.MetricsPath
	}
	if isSet(c.NodeName) {
		cfg.NodeName = c.NodeName
	}
	if isSet(c.StaleAfterSecond) {
		cfg.StaleAfter = time.Duration(c.StaleAfterSecond) * time.Second
	}
	return cfg
}

type PublisherUserConfig struct {
	Enabled             bool   `koanf:"enabled"`
	URL                 string `koanf:"url"`
	Subject             string `koanf:"subject"`
	NodeName            string `koanf:"node_name"`
	ReconnectWaitSecond int    `koanf:"reconnect_wait_second"`
	MaxReconnects       int    `koanf:"max_reconnects"`
}

func (c *PublisherUserConfig) ParseNATSPublisherConfig() publisher.NATSPublisherConfig {
	cfg := publisher.NewNATSPublisherConfig()
	if isSet(c.URL) {
		cfg.URL = c.URL
	}
	if isSet(c.Subject) {
		cfg.Subject = c.Subject
	}
	if isSet(c.NodeName) {
		cfg.NodeName = c.NodeName
	}
	if isSet(c.ReconnectWaitSecond) {
		cfg.ReconnectWait = time.Duration(c.ReconnectWaitSecond) * time.Second
	}
	if isSet(c.MaxReconnects) {
		cfg.MaxReconnects = c.MaxReconnects
	}
	return cfg
}

type DeviceWatcherUserConfig struct {
	Enabled                bool     `koanf:"enabled"`
	SyncPeriodSecond       int      `koanf:"sync_period_second"`
	HostDeviceRegexes      []string `koanf:"host_device_regexes"`
	ExcludedDevicePrefixes []string `koanf:"excluded_device_prefixes"`
}

func (c *DeviceWatcherUserConfig) ParseNetworkDeviceWatcherConfig() network_device.NetworkDeviceWatcherConfig {
	cfg := network_device.NewNetworkDeviceWatcherConfig()
	if isSet(c.SyncPeriodSecond) {
		cfg.SyncPeriod = time.Duration(c.SyncPeriodSecond) * time.Second
	}
	if isSet(c.HostDeviceRegexes) {
		cfg.HostDeviceRegexes = c.HostDeviceRegexes
	}
	if isSet(c.ExcludedDevicePrefixes) {
		cfg.ExcludedDevicePrefixes = c.ExcludedDevicePrefixes
	}
	return cfg
}

func isSet(_v any) bool {
	v := reflect.ValueOf(_v)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0
	case reflect.String:
		return v.String() != ""
	case reflect.Slice:
		return v.Len() != 0
	default:
		return true
	}
}
