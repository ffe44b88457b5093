package publisher

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
	loglib "github.com/dinoallo/sealos-nm-bytecount/pkg/log"
	zaplog "github.com/dinoallo/sealos-nm-bytecount/pkg/log/zap"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var globalLogger loglib.Logger

type testingConn struct {
	msgs    []*nats.Msg
	err     error
	drained int
}

func (c *testingConn) PublishMsg(msg *nats.Msg) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *testingConn) Drain() error {
	c.drained++
	return nil
}

func newTestingPublisher(conn *testingConn) *NATSPublisher {
	cfg := NewNATSPublisherConfig()
	cfg.NodeName = "node-a"
	return newNATSPublisher(globalLogger, conn, NATSPublisherParams{
		ParentLogger:        globalLogger,
		NATSPublisherConfig: cfg,
	})
}

func TestSubmit(t *testing.T) {
	conn := &testingConn{}
	p := newTestingPublisher(conn)
	summary := structs.Summary{
		Port:          443,
		IntervalStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IntervalEnd:   time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC),
		Rx: structs.DirectionSummary{
			Total:       structs.NewByteTotal(200),
			Samples:     2,
			Percentiles: structs.Percentiles{P50: 50, P75: 100, P90: 130, P100: 150},
		},
	}
	require.NoError(t, p.Submit(context.Background(), summary))
	require.Len(t, conn.msgs, 1)
	msg := conn.msgs[0]
	assert.Equal(t, "sealos.nm.bytecount.summary", msg.Subject)
	assert.Equal(t, "node-a", msg.Header.Get(nodeHeader))
	assert.JSONEq(t, `{
		"node": "node-a",
		"port": 443,
		"interval_start": "2024-01-01T00:00:00Z",
		"interval_end": "2024-01-01T00:00:01Z",
		"rx": {"total": 200, "samples": 2, "p50": 50, "p75": 100, "p90": 130, "p100": 150},
		"tx": {"total": 0, "samples": 0, "p50": 0, "p75": 0, "p90": 0, "p100": 0}
	}`, string(msg.Data))
	t.Run("close drains once", func(t *testing.T) {
		assert.NoError(t, p.Close())
		assert.NoError(t, p.Close())
		assert.Equal(t, 1, conn.drained)
	})
}

func TestSubmitFailure(t *testing.T) {
	errClosed := errors.New("connection closed")
	p := newTestingPublisher(&testingConn{err: errClosed})
	err := p.Submit(context.Background(), structs.Summary{Port: 22})
	assert.ErrorIs(t, err, ErrPublishingSummary)
	assert.ErrorIs(t, err, errClosed)
}

func TestConnectFailure(t *testing.T) {
	cfg := NewNATSPublisherConfig()
	cfg.URL = "nats://127.0.0.1:1"
	_, err := NewNATSPublisher(NATSPublisherParams{
		ParentLogger:        globalLogger,
		NATSPublisherConfig: cfg,
	})
	assert.ErrorIs(t, err, ErrConnectingToNATS)
}

func TestMain(m *testing.M) {
	logger, err := zaplog.NewZap(true)
	if err != nil {
		log.Printf("could not setup log: %v", err)
		os.Exit(1)
	}
	globalLogger = logger
	os.Exit(m.Run())
}
