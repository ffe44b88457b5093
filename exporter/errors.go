package exporter

import "errors"

var (
	ErrCreatingLogger       = errors.New("failed to create a logger")
	ErrGettingNodeName      = errors.New("failed to get the node name")
	ErrRegisteringCollector = errors.New("failed to register the collector")
	ErrServingMetrics       = errors.New("failed to serve the metrics")
)
