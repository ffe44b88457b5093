package common

type TCDirection uint32
type TrafficDirection uint32

const (
	BPFFSRoot = "/sys/fs/bpf"
)

const (
	TRAFFIC_DIR_UNKNOWN TrafficDirection = iota
	TRAFFIC_DIR_INGRESS
	TRAFFIC_DIR_EGRESS
)

const (
	TC_DIR_UNKNOWN TCDirection = iota
	TC_DIR_INGRESS
	TC_DIR_EGRESS
)

func (d TrafficDirection) String() string {
	switch d {
	case TRAFFIC_DIR_INGRESS:
		return "ingress"
	case TRAFFIC_DIR_EGRESS:
		return "egress"
	default:
		return "unknown"
	}
}

// TC returns the tc attach point that observes traffic of this direction.
func (d TrafficDirection) TC() (TCDirection, error) {
	switch d {
	case TRAFFIC_DIR_INGRESS:
		return TC_DIR_INGRESS, nil
	case TRAFFIC_DIR_EGRESS:
		return TC_DIR_EGRESS, nil
	}
	return TC_DIR_UNKNOWN, ErrUnknownTrafficDirection
}

func (d TCDirection) String() string {
	switch d {
	case TC_DIR_INGRESS:
		return "ingress"
	case TC_DIR_EGRESS:
		return "egress"
	default:
		return "unknown"
	}
}
