// Copyright 2018 The Prometheus Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package exporter

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dinoallo/sealos-nm-bytecount/internal/aggregator"
	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/bpf/common"
	errutil "github.com/dinoallo/sealos-nm-bytecount/pkg/errors/util"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/host"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/promlog"
	"github.com/prometheus/exporter-toolkit/web"
	"github.com/puzpuzpuz/xsync"
	"k8s.io/utils/clock"
)

const (
	namespace = "sealos_nm_bytecount" // For Prometheus metrics.
)

var (
	portQuantileLabelNames = []string{"port", "direction", "quantile"}
	portLabelNames         = []string{"port", "direction"}
	loopLabelNames         = []string{}

	quantiles = []struct {
		label string
		value func(structs.DirectionSummary) float64
	}{
		{"0.5", func(s structs.DirectionSummary) float64 { return s.P50 }},
		{"0.75", func(s structs.DirectionSummary) float64 { return s.P75 }},
		{"0.9", func(s structs.DirectionSummary) float64 { return s.P90 }},
		{"1", func(s structs.DirectionSummary) float64 { return s.P100 }},
	}
)

type metricInfo struct {
	Desc *prometheus.Desc
	Type prometheus.ValueType
}

func newMetric(subsystem, metricName, docString string, t prometheus.ValueType, labelNames []string, constLabels prometheus.Labels) metricInfo {
	return metricInfo{
		Desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, metricName),
			docString,
			labelNames,
			constLabels,
		),
		Type: t,
	}
}

type exporterMetrics struct {
	portBytes        metricInfo
	portBytesTotal   metricInfo
	portSamples      metricInfo
	loopTicks        metricInfo
	loopSummaries    metricInfo
	loopReadErrors   metricInfo
	loopMismatches   metricInfo
	loopSubmitErrors metricInfo
	cacheSize        metricInfo
	cacheEvictions   metricInfo
}

func newExporterMetrics(constLabels prometheus.Labels) exporterMetrics {
	return exporterMetrics{
		portBytes:        newMetric("port", "bytes", "Quantiles of the bytes seen per sample tick during the last summary interval.", prometheus.GaugeValue, portQuantileLabelNames, constLabels),
		portBytesTotal:   newMetric("port", "bytes_total", "The bytes seen on a port since the exporter started.", prometheus.CounterValue, portLabelNames, constLabels),
		portSamples:      newMetric("port", "samples", "The sample ticks observed during the last summary interval.", prometheus.GaugeValue, portLabelNames, constLabels),
		loopTicks:        newMetric("loop", "ticks_total", "Sample ticks completed.", prometheus.CounterValue, loopLabelNames, constLabels),
		loopSummaries:    newMetric("loop", "summaries_total", "Summaries handed to the sinks.", prometheus.CounterValue, loopLabelNames, constLabels),
		loopReadErrors:   newMetric("loop", "read_errors_total", "Counter records or tables that could not be read.", prometheus.CounterValue, loopLabelNames, constLabels),
		loopMismatches:   newMetric("loop", "config_mismatches_total", "Samples rejected for carrying an unexpected number of per-cpu values.", prometheus.CounterValue, loopLabelNames, constLabels),
		loopSubmitErrors: newMetric("loop", "submit_errors_total", "Summaries the sinks failed to accept.", prometheus.CounterValue, loopLabelNames, constLabels),
		cacheSize:        newMetric("cache", "entries", "Ports resident in the flow cache.", prometheus.GaugeValue, loopLabelNames, constLabels),
		cacheEvictions:   newMetric("cache", "evictions_total", "Ports evicted from the flow cache.", prometheus.CounterValue, loopLabelNames, constLabels),
	}
}

func (m exporterMetrics) all() []metricInfo {
	return []metricInfo{
		m.portBytes, m.portBytesTotal, m.portSamples,
		m.loopTicks, m.loopSummaries, m.loopReadErrors, m.loopMismatches, m.loopSubmitErrors,
		m.cacheSize, m.cacheEvictions,
	}
}

type LoopStatsProvider interface {
	Stats() aggregator.LoopStats
}

type ExporterConfig struct {
	Addr        string
	MetricsPath string
	// NodeName is attached to every metric; empty means the host name
	NodeName string
	// ports not summarized for this long are no longer exported
	StaleAfter time.Duration
}

func NewExporterConfig() ExporterConfig {
	return ExporterConfig{
		Addr:        ":9101",
		MetricsPath: "/metrics",
		StaleAfter:  5 * time.Minute,
	}
}

type ExporterParams struct {
	ParentLogger log.Logger
	ExporterConfig
	// Stats is optional
	Stats LoopStatsProvider
	Clock clock.PassiveClock
}

type portEntry struct {
	mu      sync.Mutex
	last    structs.Summary
	rxTotal structs.ByteTotal
	txTotal structs.ByteTotal
	updated time.Time
	// set when the entry is evicted; a late submission must go to a new entry
	evicted bool
}

// record folds summary into the entry. It reports false when the entry was
// evicted in the meantime.
func (p *portEntry) record(summary structs.Summary, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.evicted {
		return false
	}
	p.last = summary
	p.rxTotal = p.rxTotal.AddTotal(summary.Rx.Total)
	p.txTotal = p.txTotal.AddTotal(summary.Tx.Total)
	p.updated = now
	return true
}

// Exporter keeps the latest summary of every port and exports it using
// the prometheus metrics package.
type Exporter struct {
	logger   log.Logger
	clock    clock.PassiveClock
	metrics  exporterMetrics
	ports    *xsync.MapOf[string, *portEntry]
	registry *prometheus.Registry
	ExporterParams
}

// NewExporter returns an initialized Exporter.
func NewExporter(params ExporterParams) (*Exporter, error) {
	logger, err := params.ParentLogger.WithCompName("exporter")
	if err != nil {
		return nil, errutil.Err(ErrCreatingLogger, err)
	}
	nodeName := params.NodeName
	if nodeName == "" {
		if nodeName, err = host.GetName(); err != nil {
			return nil, errutil.Err(ErrGettingNodeName, err)
		}
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	e := &Exporter{
		logger:         logger,
		clock:          clk,
		metrics:        newExporterMetrics(prometheus.Labels{"node": nodeName}),
		ports:          xsync.NewMapOf[*portEntry](),
		registry:       prometheus.NewRegistry(),
		ExporterParams: params,
	}
	if err := e.registry.Register(e); err != nil {
		return nil, errutil.Err(ErrRegisteringCollector, err)
	}
	if err := e.registry.Register(versioncollector.NewCollector("sealos_nm_bytecount")); err != nil {
		return nil, errutil.Err(ErrRegisteringCollector, err)
	}
	return e, nil
}

// Submit records the summary of a port. It implements modules.SummarySink.
func (e *Exporter) Submit(ctx context.Context, summary structs.Summary) error {
	key := strconv.FormatUint(uint64(summary.Port), 10)
	now := e.clock.Now()
	for {
		entry, _ := e.ports.LoadOrStore(key, &portEntry{updated: now})
		if entry.record(summary, now) {
			return nil
		}
	}
}

// Describe describes all the metrics ever exported by the exporter. It
// implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range e.metrics.all() {
		ch <- m.Desc
	}
}

// Collect delivers the latest summaries and the loop counters as Prometheus
// metrics. It implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	now := e.clock.Now()
	e.ports.Range(func(port string, entry *portEntry) bool {
		entry.mu.Lock()
		defer entry.mu.Unlock()
		if entry.evicted {
			// another collection already removed it
			return true
		}
		if e.StaleAfter > 0 && now.Sub(entry.updated) > e.StaleAfter {
			entry.evicted = true
			e.ports.Delete(port)
			return true
		}
		e.collectDirection(ch, port, common.TRAFFIC_DIR_INGRESS, entry.last.Rx, entry.rxTotal)
		e.collectDirection(ch, port, common.TRAFFIC_DIR_EGRESS, entry.last.Tx, entry.txTotal)
		return true
	})
	if e.Stats == nil {
		return
	}
	stats := e.Stats.Stats()
	m := e.metrics
	ch <- prometheus.MustNewConstMetric(m.loopTicks.Desc, m.loopTicks.Type, float64(stats.Ticks))
	ch <- prometheus.MustNewConstMetric(m.loopSummaries.Desc, m.loopSummaries.Type, float64(stats.Summaries))
	ch <- prometheus.MustNewConstMetric(m.loopReadErrors.Desc, m.loopReadErrors.Type, float64(stats.ReadErrors))
	ch <- prometheus.MustNewConstMetric(m.loopMismatches.Desc, m.loopMismatches.Type, float64(stats.ConfigMismatches))
	ch <- prometheus.MustNewConstMetric(m.loopSubmitErrors.Desc, m.loopSubmitErrors.Type, float64(stats.SubmitErrors))
	ch <- prometheus.MustNewConstMetric(m.cacheSize.Desc, m.cacheSize.Type, float64(stats.CacheSize))
	ch <- prometheus.MustNewConstMetric(m.cacheEvictions.Desc, m.cacheEvictions.Type, float64(stats.CacheEvictions))
}

func (e *Exporter) collectDirection(ch chan<- prometheus.Metric, port string, dir common.TrafficDirection, s structs.DirectionSummary, total structs.ByteTotal) {
	m := e.metrics
	direction := dir.String()
	for _, q := range quantiles {
		ch <- prometheus.MustNewConstMetric(m.portBytes.Desc, m.portBytes.Type, q.value(s), port, direction, q.label)
	}
	ch <- prometheus.MustNewConstMetric(m.portBytesTotal.Desc, m.portBytesTotal.Type, total.Float64(), port, direction)
	ch <- prometheus.MustNewConstMetric(m.portSamples.Desc, m.portSamples.Type, float64(s.Samples), port, direction)
}

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Run serves the metrics until ctx is done.
func (e *Exporter) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(e.MetricsPath, e.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>
             <head><title>Sealos NetworkManager ByteCount Exporter</title></head>
             <body>
             <h1>Exporter</h1>
             <p><a href='` + e.MetricsPath + `'>Metrics</a></p>
             </body>
             </html>`))
	})
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	listenAddrs := []string{e.Addr}
	systemdSocket := false
	webConfigFile := ""
	webConfig := web.FlagConfig{
		WebListenAddresses: &listenAddrs,
		WebSystemdSocket:   &systemdSocket,
		WebConfigFile:      &webConfigFile,
	}
	promLogger := promlog.New(&promlog.Config{})
	serveErr := make(chan error, 1)
	go func() {
		e.logger.Infof("prometheus exporter is listening on %v", e.Addr)
		serveErr <- web.ListenAndServe(srv, &webConfig, promLogger)
	}()
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errutil.Err(ErrServingMetrics, err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		e.logger.Warnf("failed to shut down the exporter: %v", err)
	}
	return nil
}
