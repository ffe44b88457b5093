package hooker

import "errors"

var (
	ErrGettingInterfaceName = errors.New("failed to get the interface by name")
	ErrEstablishingSocket   = errors.New("failed to establish a RTNETLINK socket for traffic control")
	ErrSettingExtAck        = errors.New("failed to set the extend ack option")
	ErrClosingSocket        = errors.New("failed to close the RTNETLINK socket")
	ErrGettingParentHandle  = errors.New("failed to get the parent handle of the filter")
	ErrSettingUpQdisc       = errors.New("failed to set up the clsact qdisc for this interface")
	ErrQdiscInvalid         = errors.New("the clsact handle is taken by another qdisc")
	ErrAddingFilter         = errors.New("failed to add a filter")
	ErrDeletingFilter       = errors.New("failed to delete a filter")
	ErrFilterExists         = errors.New("a filter with this name already exists")
	ErrProgramHookInvalid   = errors.New("a valid program hook is required")
	ErrHookerNotInitialized = errors.New("the hooker is not initialized")
	ErrGettingByteOrder     = errors.New("failed to get the byte order of the host")
	ErrAttachingLink        = errors.New("failed to attach the tcx link")
	ErrDetachingLink        = errors.New("failed to detach the tcx link")
)
