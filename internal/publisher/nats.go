package publisher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
	errutil "github.com/dinoallo/sealos-nm-bytecount/pkg/errors/util"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/log"
	"github.com/nats-io/nats.go"
)

const nodeHeader = "Sealos-Nm-Node"

type NATSPublisherConfig struct {
	URL     string
	Subject string
	// NodeName tags every message so that several agents can share a subject
	NodeName      string
	ReconnectWait time.Duration
	MaxReconnects int
}

func NewNATSPublisherConfig() NATSPublisherConfig {
	return NATSPublisherConfig{
		URL:           nats.DefaultURL,
		Subject:       "sealos.nm.bytecount.summary",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

type NATSPublisherParams struct {
	ParentLogger log.Logger
	NATSPublisherConfig
}

type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	Drain() error
}

// message is the wire form of a summary
type message struct {
	Node string `json:"node,omitempty"`
	structs.Summary
}

// NATSPublisher publishes every summary as a JSON message.
type NATSPublisher struct {
	logger log.Logger
	nc     natsConn
	close  sync.Once
	NATSPublisherParams
}

func NewNATSPublisher(params NATSPublisherParams) (*NATSPublisher, error) {
	logger, err := params.ParentLogger.WithCompName("nats_publisher")
	if err != nil {
		return nil, errutil.Err(ErrCreatingLogger, err)
	}
	nc, err := nats.Connect(params.URL,
		nats.Name("sealos-nm-bytecount"),
		nats.ReconnectWait(params.ReconnectWait),
		nats.MaxReconnects(params.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warnf("disconnected from nats: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Infof("reconnected to nats at %v", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errutil.Err(ErrConnectingToNATS, err)
	}
	logger.Infof("connected to nats at %v, publishing to %v", params.URL, params.Subject)
	return newNATSPublisher(logger, nc, params), nil
}

func newNATSPublisher(logger log.Logger, nc natsConn, params NATSPublisherParams) *NATSPublisher {
	return &NATSPublisher{
		logger:              logger,
		nc:                  nc,
		NATSPublisherParams: params,
	}
}

// Submit implements modules.SummarySink. Publishing is asynchronous: nil means
// the message was buffered by the client, not that it was delivered.
func (p *NATSPublisher) Submit(ctx context.Context, summary structs.Summary) error {
	msg, err := p.encode(summary)
	if err != nil {
		return errutil.Err(ErrEncodingSummary, err)
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return errutil.Err(ErrPublishingSummary, err)
	}
	return nil
}

func (p *NATSPublisher) encode(summary structs.Summary) (*nats.Msg, error) {
	data, err := json.Marshal(message{
		Node:    p.NodeName,
		Summary: summary,
	})
	if err != nil {
		return nil, err
	}
	msg := nats.NewMsg(p.Subject)
	msg.Data = data
	if p.NodeName != "" {
		msg.Header.Set(nodeHeader, p.NodeName)
	}
	return msg, nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	var err error
	p.close.Do(func() {
		err = p.nc.Drain()
	})
	return err
}
