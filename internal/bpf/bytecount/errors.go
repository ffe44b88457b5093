package bytecount

import "errors"

var (
	ErrCreatingLogger         = errors.New("failed to create a logger")
	ErrLoadingBPFObjects      = errors.New("failed to load bpf objects")
	ErrCreatingCounterTable   = errors.New("failed to create a counter table")
	ErrCreatingDeviceHooker   = errors.New("failed to create a device hooker")
	ErrClosingDeviceHooker    = errors.New("failed to close the device hooker")
	ErrAttachingFilter        = errors.New("failed to attach the byte count filters")
	ErrProgramsUnavailable    = errors.New("the classifier programs are owned by an external loader")
	ErrBytecountManagerClosed = errors.New("the byte count manager is closed")
)
