package hooker

import (
	"github.com/cilium/ebpf"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/bpf/common"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/host"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/log"
)

// Hooker attaches tc programs to one network interface. Filters are named so
// that they can be removed individually; Close removes every filter left.
type Hooker interface {
	Init() error
	AddFilter(filterName string, hook *ebpf.Program, dir common.TCDirection) error
	RemoveFilter(filterName string) error
	Close() error
}

// NewHooker builds the hooker of the given mode for iface. In auto mode, tcx
// is used on kernels that support it and netlink tc filters otherwise.
func NewHooker(mode common.AttachMode, iface string, logger log.Logger) (Hooker, error) {
	switch mode {
	case common.ATTACH_MODE_TC:
		return NewDeviceHooker(iface, logger)
	case common.ATTACH_MODE_TCX:
		return NewTCXHooker(iface, logger)
	case common.ATTACH_MODE_AUTO:
		kv, err := host.GetKernelVersion()
		if err != nil {
			logger.Warnf("unable to detect the kernel version, falling back to tc filters: %v", err)
			return NewDeviceHooker(iface, logger)
		}
		if kv.SupportsTCX() {
			logger.Debugf("kernel %v supports tcx", kv)
			return NewTCXHooker(iface, logger)
		}
		return NewDeviceHooker(iface, logger)
	}
	return nil, common.ErrUnknownAttachMode
}
