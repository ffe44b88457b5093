package hooker

import (
	"net"
	"sync"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/bpf/common"
	errutil "github.com/dinoallo/sealos-nm-bytecount/pkg/errors/util"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/log"
	"github.com/puzpuzpuz/xsync"
)

// TCXHooker attaches programs through tcx bpf links. Links are owned by this
// process and go away with it.
type TCXHooker struct {
	iface  string
	logger log.Logger
	links  *xsync.MapOf[string, link.Link]
	devID  *net.Interface
	close  *sync.Once
}

func NewTCXHooker(iface string, logger log.Logger) (*TCXHooker, error) {
	return &TCXHooker{
		iface:  iface,
		logger: logger,
		links:  xsync.NewMapOf[link.Link](),
		close:  &sync.Once{},
	}, nil
}

func (h *TCXHooker) Init() error {
	devID, err := net.InterfaceByName(h.iface)
	if err != nil {
		return errutil.Err(ErrGettingInterfaceName, err)
	}
	h.devID = devID
	return nil
}

func (h *TCXHooker) AddFilter(filterName string, hook *ebpf.Program, dir common.TCDirection) error {
	if hook == nil {
		return ErrProgramHookInvalid
	}
	if h.devID == nil {
		return ErrHookerNotInitialized
	}
	if _, exists := h.links.Load(filterName); exists {
		return ErrFilterExists
	}
	attach, err := getAttachType(dir)
	if err != nil {
		return errutil.Err(ErrGettingParentHandle, err)
	}
	l, err := link.AttachTCX(link.TCXOptions{
		Interface: h.devID.Index,
		Program:   hook,
		Attach:    attach,
	})
	if err != nil {
		return errutil.Err(ErrAttachingLink, err)
	}
	h.links.Store(filterName, l)
	h.logger.Debugf("tcx link %v attached on %v at %v", filterName, h.iface, dir)
	return nil
}

func getAttachType(dir common.TCDirection) (ebpf.AttachType, error) {
	switch dir {
	case common.TC_DIR_INGRESS:
		return ebpf.AttachTCXIngress, nil
	case common.TC_DIR_EGRESS:
		return ebpf.AttachTCXEgress, nil
	}
	return ebpf.AttachNone, common.ErrUnknownTCDirection
}

func (h *TCXHooker) RemoveFilter(filterName string) error {
	l, loaded := h.links.LoadAndDelete(filterName)
	if !loaded {
		return nil
	}
	if err := l.Close(); err != nil {
		return errutil.Err(ErrDetachingLink, err)
	}
	return nil
}

func (h *TCXHooker) Close() error {
	h.close.Do(func() {
		closeLink := func(filterName string, l link.Link) bool {
			if err := l.Close(); err != nil {
				h.logger.Errorf("failed to detach link %v on %v: %v", filterName, h.iface, err)
			}
			h.links.Delete(filterName)
			return true
		}
		h.links.Range(closeLink)
	})
	return nil
}
