package summary

import (
	"context"
	"errors"

	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
	"github.com/dinoallo/sealos-nm-bytecount/modules"
)

// MultiSink hands every summary to all of its sinks, in order. One failing
// sink does not keep the summary from the others.
type MultiSink []modules.SummarySink

func NewMultiSink(sinks ...modules.SummarySink) MultiSink {
	var ms MultiSink
	for _, sink := range sinks {
		if sink != nil {
			ms = append(ms, sink)
		}
	}
	return ms
}

func (ms MultiSink) Submit(ctx context.Context, summary structs.Summary) error {
	var errs []error
	for _, sink := range ms {
		if err := sink.Submit(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
