package conf

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dinoallo/sealos-nm-bytecount/internal/portstat"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/bpf/common"
	zaplog "github.com/dinoallo/sealos-nm-bytecount/pkg/log/zap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	configPath = "./test.yml"
)

func TestConfigReadingAndParsing(t *testing.T) {
	var globalConfig GlobalUserConfig
	var err error
	t.Run("read the config", func(t *testing.T) {
		globalConfig, err = ReadGlobalConfig(configPath)
		require.NoError(t, err)
		assert.True(t, globalConfig.DevMode)
		assert.Equal(t, "ens4", globalConfig.Iface)
	})
	t.Run("parse bytecount", func(t *testing.T) {
		cfg, err := globalConfig.ParseBytecountManagerConfig()
		if assert.NoError(t, err) {
			assert.Equal(t, "/opt/bytecount/tc_byte_count.o", cfg.ObjectPath)
			assert.Equal(t, common.ATTACH_MODE_TC, cfg.AttachMode)
			assert.Equal(t, 100*time.Millisecond, cfg.LoadRetryInterval)
			assert.Equal(t, uint64(5), cfg.MaxLoadRetries)
		}
	})
	t.Run("parse aggregator", func(t *testing.T) {
		cfg, err := globalConfig.ParseSampleLoopConfig()
		if assert.NoError(t, err) {
			assert.Equal(t, 50*time.Millisecond, cfg.SampleInterval)
			assert.Equal(t, 2*time.Second, cfg.SummaryInterval)
			assert.Equal(t, 4096, cfg.EntrySize)
			assert.Equal(t, 0, cfg.CPUCount)
			assert.Equal(t, portstat.EphemeralPortMin, cfg.EphemeralMin)
			assert.Equal(t, portstat.EphemeralPortMax, cfg.EphemeralMax)
			assert.Equal(t, stat.Empirical, cfg.CumulantKind)
		}
	})
	t.Run("parse exporter", func(t *testing.T) {
		assert.True(t, globalConfig.ExporterUserConfig.Enabled)
		cfg := globalConfig.ParseExporterConfig()
		assert.Equal(t, ":9200", cfg.Addr)
		assert.Equal(t, "/metrics", cfg.MetricsPath)
		assert.Equal(t, "node-a", cfg.NodeName)
		assert.Equal(t, time.Minute, cfg.StaleAfter)
	})
	t.Run("parse publisher", func(t *testing.T) {
		assert.True(t, globalConfig.PublisherUserConfig.Enabled)
		cfg := globalConfig.ParseNATSPublisherConfig()
		assert.Equal(t, "nats://nats.sealos-nm-system:4222", cfg.URL)
		assert.Equal(t, "sealos.nm.bytecount.summary", cfg.Subject)
	})
	t.Run("parse device watcher", func(t *testing.T) {
		assert.True(t, globalConfig.DeviceWatcherUserConfig.Enabled)
		cfg := globalConfig.ParseNetworkDeviceWatcherConfig()
		assert.Equal(t, 30*time.Second, cfg.SyncPeriod)
		assert.Equal(t, []string{"^eth", "^bond"}, cfg.HostDeviceRegexes)
		assert.Equal(t, []string{"cilium_", "lo", "docker", "veth"}, cfg.ExcludedDevicePrefixes)
	})
}

func TestFallbackConfig(t *testing.T) {
	globalConfig, err := ReadGlobalConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, NewGlobalUserConfig(), globalConfig)
	cfg, err := globalConfig.ParseSampleLoopConfig()
	if assert.NoError(t, err) {
		assert.Equal(t, 20*time.Millisecond, cfg.SampleInterval)
		assert.Equal(t, time.Second, cfg.SummaryInterval)
		assert.Equal(t, 1000, cfg.EntrySize)
		assert.Equal(t, stat.LinInterp, cfg.CumulantKind)
	}
	assert.False(t, globalConfig.PublisherUserConfig.Enabled)
	assert.False(t, globalConfig.DeviceWatcherUserConfig.Enabled)
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("SEALOS_NM_BYTECOUNT_IFACE", "eth1")
	t.Setenv("SEALOS_NM_BYTECOUNT_AGGREGATOR__CACHE_SIZE", "64")
	t.Setenv("SEALOS_NM_BYTECOUNT_EXPORTER__ENABLED", "false")
	globalConfig, err := ReadGlobalConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "eth1", globalConfig.Iface)
	assert.Equal(t, 64, globalConfig.CacheSize)
	// untouched keys keep the file's values
	assert.Equal(t, 50, globalConfig.SampleIntervalMillis)
	assert.False(t, globalConfig.ExporterUserConfig.Enabled)
}

func TestInvalidConfig(t *testing.T) {
	t.Run("attach mode", func(t *testing.T) {
		c := BytecountUserConfig{AttachMode: "xdp"}
		_, err := c.ParseBytecountManagerConfig()
		assert.ErrorIs(t, err, common.ErrUnknownAttachMode)
	})
	t.Run("percentile method", func(t *testing.T) {
		c := AggregatorUserConfig{PercentileMethod: "nearest"}
		_, err := c.ParseSampleLoopConfig()
		assert.ErrorIs(t, err, portstat.ErrUnknownCumulantKind)
	})
	t.Run("port range", func(t *testing.T) {
		c := AggregatorUserConfig{EphemeralPortMin: 60000, EphemeralPortMax: 50000}
		_, err := c.ParseSampleLoopConfig()
		assert.ErrorIs(t, err, ErrInvalidPortRange)
	})
}

func TestPrintConfig(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zaplog.NewZapFromLogger(zap.New(core))
	require.NoError(t, PrintConfig(logger, NewGlobalUserConfig()))
	var lines []string
	for _, entry := range logs.All() {
		lines = append(lines, entry.Message)
	}
	assert.Contains(t, lines, "iface: eth0")
	assert.Contains(t, lines, "exporter.enabled: true")
	assert.Contains(t, lines, "aggregator.cache_size: 0")
	assert.ErrorIs(t, PrintConfig(logger, 42), ErrNotAStruct)
}
