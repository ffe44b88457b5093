package summary

import (
	"context"

	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
	errutil "github.com/dinoallo/sealos-nm-bytecount/pkg/errors/util"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/log"
)

type LogSinkParams struct {
	ParentLogger log.Logger
}

// LogSink prints one line per summary.
type LogSink struct {
	logger log.Logger
}

func NewLogSink(params LogSinkParams) (*LogSink, error) {
	logger, err := params.ParentLogger.WithCompName("summary")
	if err != nil {
		return nil, errutil.Err(ErrCreatingLogger, err)
	}
	return &LogSink{
		logger: logger,
	}, nil
}

func (s *LogSink) Submit(ctx context.Context, summary structs.Summary) error {
	rx, tx := summary.Rx, summary.Tx
	s.logger.Infof("port: %v - rxt:%v, rx50:%.0f, rx75:%.0f, rx90:%.0f, rx100:%.0f - txt:%v, tx50:%.0f, tx75:%.0f, tx90:%.0f, tx100:%.0f",
		summary.Port,
		rx.Total, rx.P50, rx.P75, rx.P90, rx.P100,
		tx.Total, tx.P50, tx.P75, tx.P90, tx.P100,
	)
	return nil
}
