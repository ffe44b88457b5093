package common

import "strings"

// AttachMode selects how classifier programs are attached to a device.
type AttachMode uint32

const (
	ATTACH_MODE_AUTO AttachMode = iota
	// clsact qdisc + bpf filter over rtnetlink
	ATTACH_MODE_TC
	// bpf links, kernel 6.6 and later
	ATTACH_MODE_TCX
)

func ParseAttachMode(s string) (AttachMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ATTACH_MODE_AUTO, nil
	case "tc", "netlink":
		return ATTACH_MODE_TC, nil
	case "tcx":
		return ATTACH_MODE_TCX, nil
	}
	return ATTACH_MODE_AUTO, ErrUnknownAttachMode
}

func (m AttachMode) String() string {
	switch m {
	case ATTACH_MODE_TC:
		return "tc"
	case ATTACH_MODE_TCX:
		return "tcx"
	default:
		return "auto"
	}
}
