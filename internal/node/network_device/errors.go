package network_device

import "errors"

var (
	ErrCreatingLogger         = errors.New("failed to create a logger")
	ErrInvalidSyncPeriod      = errors.New("the sync period must be positive")
	ErrCompilingDeviceRegex   = errors.New("failed to compile the host device regex")
	ErrByteCountModuleMissing = errors.New("a byte count module is required")
	ErrNetLibMissing          = errors.New("a net lib is required")
	ErrUpdateDevices          = errors.New("failed to update devices")
	ErrSubscribingToDevice    = errors.New("failed to subscribe to the device")
	ErrUnsubscribingDevice    = errors.New("failed to unsubscribe from the device")
)
