package hooker

import (
	"encoding/binary"
	"net"
	"sync"

	"github.com/cilium/ebpf"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/bpf/common"
	errutil "github.com/dinoallo/sealos-nm-bytecount/pkg/errors/util"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/host"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/log"
	"github.com/florianl/go-tc"
	"github.com/florianl/go-tc/core"
	"github.com/mdlayher/netlink"
	"github.com/puzpuzpuz/xsync"
	"golang.org/x/sys/unix"
)

const (
	defaultFilterPrio uint32 = 42
	// direct action: the program's return code is the tc verdict
	directActionFlag uint32 = 0x1
)

var (
	clsActQdiscHandle uint32 = core.BuildHandle(tc.HandleRoot, 0)
)

// DeviceHooker attaches programs as direct-action bpf filters under a clsact
// qdisc, over rtnetlink.
type DeviceHooker struct {
	iface   string
	logger  log.Logger
	filters *xsync.MapOf[string, *tc.Object]
	tcnl    *tc.Tc
	devID   *net.Interface
	close   *sync.Once
}

func NewDeviceHooker(iface string, logger log.Logger) (*DeviceHooker, error) {
	return &DeviceHooker{
		iface:   iface,
		logger:  logger,
		filters: xsync.NewMapOf[*tc.Object](),
		close:   &sync.Once{},
	}, nil
}

// Init resolves the interface, opens the netlink socket and makes sure a
// clsact qdisc exists. Please call this function before calling any of the others.
func (h *DeviceHooker) Init() error {
	devID, err := net.InterfaceByName(h.iface)
	if err != nil {
		return errutil.Err(ErrGettingInterfaceName, err)
	}
	h.devID = devID
	tcnl, err := tc.Open(&tc.Config{})
	if err != nil {
		return errutil.Err(ErrEstablishingSocket, err)
	}
	// set option `NETLINK_EXT_ACK`
	if err := tcnl.SetOption(netlink.ExtendedAcknowledge, true); err != nil {
		closeTCNL(tcnl)
		return errutil.Err(ErrSettingExtAck, err)
	}
	if _, err := setUpClsActQdisc(tcnl, devID); err != nil {
		closeTCNL(tcnl)
		return errutil.Err(ErrSettingUpQdisc, err)
	}
	h.tcnl = tcnl
	return nil
}

func newClsActQdisc(devID *net.Interface, handle uint32) *tc.Object {
	return &tc.Object{
		Msg: tc.Msg{
			Family:  unix.AF_UNSPEC,
			Ifindex: uint32(devID.Index),
			Handle:  handle,
			Parent:  tc.HandleIngress,
			Info:    0,
		},
		Attribute: tc.Attribute{
			Kind: "clsact",
		},
	}
}

// setUpClsActQdisc is idempotent: an existing clsact qdisc on the interface
// is reused and nil is returned for it.
func setUpClsActQdisc(tcnl *tc.Tc, devID *net.Interface) (*tc.Object, error) {
	existingQdiscs, err := tcnl.Qdisc().Get()
	if err != nil {
		return nil, err
	}
	for _, qdisc := range existingQdiscs {
		if qdisc.Msg.Ifindex != uint32(devID.Index) || qdisc.Msg.Handle != clsActQdiscHandle {
			continue
		}
		if qdisc.Attribute.Kind == "clsact" {
			return nil, nil
		}
		return nil, ErrQdiscInvalid
	}
	clsActQdisc := newClsActQdisc(devID, clsActQdiscHandle)
	if err := tcnl.Qdisc().Add(clsActQdisc); err != nil {
		return nil, err
	}
	return clsActQdisc, nil
}

func (h *DeviceHooker) AddFilter(filterName string, hook *ebpf.Program, dir common.TCDirection) error {
	if hook == nil || hook.FD() < 0 {
		return ErrProgramHookInvalid
	}
	if h.tcnl == nil || h.devID == nil {
		return ErrHookerNotInitialized
	}
	if _, exists := h.filters.Load(filterName); exists {
		return ErrFilterExists
	}
	parent, err := getParent(dir)
	if err != nil {
		return errutil.Err(ErrGettingParentHandle, err)
	}
	protocol, err := htons(unix.ETH_P_ALL)
	if err != nil {
		return errutil.Err(ErrGettingByteOrder, err)
	}
	fd := uint32(hook.FD())
	flags := directActionFlag
	name := filterName
	filter := tc.Object{
		Msg: tc.Msg{
			Family:  unix.AF_UNSPEC,
			Ifindex: uint32(h.devID.Index),
			Parent:  parent,
			Info:    core.BuildHandle(defaultFilterPrio, uint32(protocol)), // (prio << 16) | protocol
		},
		Attribute: tc.Attribute{
			Kind: "bpf",
			BPF: &tc.Bpf{
				FD:    &fd,
				Name:  &name,
				Flags: &flags,
			},
		},
	}
	if err := h.tcnl.Filter().Add(&filter); err != nil {
		return errutil.Err(ErrAddingFilter, err)
	}
	h.filters.Store(filterName, &filter)
	h.logger.Debugf("filter %v added on %v at %v", filterName, h.iface, dir)
	return nil
}

func getParent(dir common.TCDirection) (uint32, error) {
	switch dir {
	case common.TC_DIR_INGRESS:
		return core.BuildHandle(tc.HandleRoot, tc.HandleMinIngress), nil
	case common.TC_DIR_EGRESS:
		return core.BuildHandle(tc.HandleRoot, tc.HandleMinEgress), nil
	}
	return 0, common.ErrUnknownTCDirection
}

func (h *DeviceHooker) RemoveFilter(filterName string) error {
	filter, loaded := h.filters.LoadAndDelete(filterName)
	if !loaded {
		return nil
	}
	if err := h.tcnl.Filter().Delete(filter); err != nil {
		return errutil.Err(ErrDeletingFilter, err)
	}
	return nil
}

// Close removes the filters added by this hooker. The clsact qdisc is left in
// place since other programs may hang off it.
func (h *DeviceHooker) Close() error {
	h.close.Do(func() {
		if h.tcnl == nil {
			return
		}
		removeFilter := func(filterName string, filter *tc.Object) bool {
			if err := h.tcnl.Filter().Delete(filter); err != nil {
				h.logger.Errorf("failed to remove filter %v on %v: %v", filterName, h.iface, err)
			}
			h.filters.Delete(filterName)
			return true
		}
		h.filters.Range(removeFilter)
		if err := closeTCNL(h.tcnl); err != nil {
			h.logger.Error(errutil.Err(ErrClosingSocket, err))
		}
	})
	return nil
}

func closeTCNL(tcnl *tc.Tc) error {
	return tcnl.Close()
}

// htons converts v to network byte order.
func htons(v uint16) (uint16, error) {
	order, err := host.GetEndian()
	if err != nil {
		return 0, err
	}
	if order == binary.BigEndian {
		return v, nil
	}
	return (v>>8)&0x00ff | (v<<8)&0xff00, nil
}
