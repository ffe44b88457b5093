package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cilium/ebpf/rlimit"
	"github.com/dinoallo/sealos-nm-bytecount/exporter"
	"github.com/dinoallo/sealos-nm-bytecount/internal/aggregator"
	"github.com/dinoallo/sealos-nm-bytecount/internal/bpf/bytecount"
	"github.com/dinoallo/sealos-nm-bytecount/internal/conf"
	"github.com/dinoallo/sealos-nm-bytecount/internal/node/network_device"
	"github.com/dinoallo/sealos-nm-bytecount/internal/publisher"
	"github.com/dinoallo/sealos-nm-bytecount/internal/summary"
	"github.com/dinoallo/sealos-nm-bytecount/modules"
	zaplog "github.com/dinoallo/sealos-nm-bytecount/pkg/log/zap"
	netlib "github.com/dinoallo/sealos-nm-bytecount/pkg/net"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConfigPath = "/etc/sealos-nm-bytecount/config/config.yml"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path of the config file")
	iface := flag.String("iface", "", "the interface to attach the byte counters to (overrides the config)")
	flag.Parse()

	globalConfig, err := conf.ReadGlobalConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to read the config: %v\n", err)
		os.Exit(1)
	}
	if *iface != "" {
		globalConfig.Iface = *iface
	}
	logger, err := zaplog.NewZap(globalConfig.DevMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to create the logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	if err := conf.PrintConfig(logger, globalConfig); err != nil {
		logger.Warn(err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	mainCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := <-sigs
		logger.Infof("received %v, exiting...", sig)
		cancel()
	}()

	if err := rlimit.RemoveMemlock(); err != nil {
		logger.Error(err)
		return
	}
	// load the byte count objects and attach them
	bmConfig, err := globalConfig.ParseBytecountManagerConfig()
	if err != nil {
		logger.Error(err)
		return
	}
	bytecountManager, err := bytecount.NewBytecountManager(bytecount.BytecountManagerParams{
		ParentLogger:           logger,
		BytecountManagerConfig: bmConfig,
	})
	if err != nil {
		logger.Error(err)
		return
	}
	defer bytecountManager.Close()
	var deviceWatcher *network_device.NetworkDeviceWatcher
	switch {
	case bmConfig.PinPath != "":
		logger.Infof("the counter tables are pinned at %v; attaching is left to their loader", bmConfig.PinPath)
	case globalConfig.DeviceWatcherUserConfig.Enabled:
		deviceWatcher, err = network_device.NewNetworkDeviceWatcher(network_device.NetworkDeviceWatcherParams{
			ParentLogger:               logger,
			NetworkDeviceWatcherConfig: globalConfig.ParseNetworkDeviceWatcherConfig(),
			BPFByteCountModule:         bytecountManager,
			NetLib:                     netlib.NewGoNetLib(),
		})
		if err != nil {
			logger.Error(err)
			return
		}
	default:
		if err := bytecountManager.SubscribeToDevice(globalConfig.Iface); err != nil {
			logger.Errorf("unable to attach to %v: %v", globalConfig.Iface, err)
			return
		}
	}

	// summary sinks
	logSink, err := summary.NewLogSink(summary.LogSinkParams{
		ParentLogger: logger,
	})
	if err != nil {
		logger.Error(err)
		return
	}
	sinks := []modules.SummarySink{logSink}
	var metricsExporter *exporter.Exporter
	if globalConfig.ExporterUserConfig.Enabled {
		metricsExporter, err = exporter.NewExporter(exporter.ExporterParams{
			ParentLogger:   logger,
			ExporterConfig: globalConfig.ParseExporterConfig(),
		})
		if err != nil {
			logger.Error(err)
			return
		}
		sinks = append(sinks, metricsExporter)
	}
	if globalConfig.PublisherUserConfig.Enabled {
		natsPublisher, err := publisher.NewNATSPublisher(publisher.NATSPublisherParams{
			ParentLogger:        logger,
			NATSPublisherConfig: globalConfig.ParseNATSPublisherConfig(),
		})
		if err != nil {
			logger.Error(err)
			return
		}
		defer natsPublisher.Close()
		sinks = append(sinks, natsPublisher)
	}

	// the sample loop
	slConfig, err := globalConfig.ParseSampleLoopConfig()
	if err != nil {
		logger.Error(err)
		return
	}
	sampleLoop, err := aggregator.NewSampleLoop(aggregator.SampleLoopParams{
		ParentLogger:     logger,
		SampleLoopConfig: slConfig,
		Ingress:          bytecountManager.IngressTable(),
		Egress:           bytecountManager.EgressTable(),
		SummarySink:      summary.NewMultiSink(sinks...),
	})
	if err != nil {
		logger.Error(err)
		return
	}

	mainEg, egCtx := errgroup.WithContext(mainCtx)
	mainEg.Go(func() error {
		return sampleLoop.Run(egCtx)
	})
	if deviceWatcher != nil {
		mainEg.Go(func() error {
			return deviceWatcher.Run(egCtx)
		})
	}
	if metricsExporter != nil {
		metricsExporter.Stats = sampleLoop
		mainEg.Go(func() error {
			return metricsExporter.Run(egCtx)
		})
	}
	logger.Info("starting to gather telemetry...")
	if err := mainEg.Wait(); err != nil {
		logger.Error(err)
	}
	logger.Info("exiting...")
}
