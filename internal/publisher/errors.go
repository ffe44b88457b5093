package publisher

import "errors"

var (
	ErrCreatingLogger    = errors.New("failed to create a logger")
	ErrConnectingToNATS  = errors.New("failed to connect to the nats server")
	ErrEncodingSummary   = errors.New("failed to encode the summary")
	ErrPublishingSummary = errors.New("failed to publish the summary")
)
