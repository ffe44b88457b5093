package bytecount

import (
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cilium/ebpf"
	"github.com/dinoallo/sealos-nm-bytecount/internal/counter"
	"github.com/dinoallo/sealos-nm-bytecount/modules"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/bpf/common"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/bpf/hooker"
	errutil "github.com/dinoallo/sealos-nm-bytecount/pkg/errors/util"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/log"
	"github.com/puzpuzpuz/xsync"
)

const (
	defaultObjectPath = "/usr/lib/sealos-nm-bytecount/tc_byte_count.o"
	defaultFilterName = "sealos_nm_bytecount"
)

type BytecountManagerConfig struct {
	// ObjectPath is the ELF object carrying the classifier programs and the counter tables
	ObjectPath string
	// PinPath, when set, opens the counter tables pinned there instead of loading ObjectPath
	PinPath           string
	AttachMode        common.AttachMode
	FilterName        string
	MaxLoadRetries    uint64
	LoadRetryInterval time.Duration
}

func NewBytecountManagerConfig() BytecountManagerConfig {
	return BytecountManagerConfig{
		ObjectPath:        defaultObjectPath,
		PinPath:           "",
		AttachMode:        common.ATTACH_MODE_AUTO,
		FilterName:        defaultFilterName,
		MaxLoadRetries:    5,
		LoadRetryInterval: 500 * time.Millisecond,
	}
}

type BytecountManagerParams struct {
	ParentLogger log.Logger
	BytecountManagerConfig
}

// BytecountManager owns the byte count objects in the kernel and the hooks
// that attach its programs to network devices.
type BytecountManager struct {
	logger  log.Logger
	objs    bytecountObjects
	ingress *counter.BPFCounterTable
	egress  *counter.BPFCounterTable
	hookers *xsync.MapOf[string, hooker.Hooker]
	closed  bool
	mu      sync.RWMutex
	BytecountManagerParams
}

func NewBytecountManager(params BytecountManagerParams) (*BytecountManager, error) {
	logger, err := params.ParentLogger.WithCompName("bytecount_manager")
	if err != nil {
		return nil, errutil.Err(ErrCreatingLogger, err)
	}
	m := &BytecountManager{
		logger:                 logger,
		hookers:                xsync.NewMapOf[hooker.Hooker](),
		BytecountManagerParams: params,
	}
	if err := m.loadObjects(); err != nil {
		return nil, errutil.Err(ErrLoadingBPFObjects, err)
	}
	if m.ingress, err = counter.NewBPFCounterTable(ingressMapName, m.objs.Ingress); err != nil {
		m.objs.Close()
		return nil, errutil.Err(ErrCreatingCounterTable, err)
	}
	if m.egress, err = counter.NewBPFCounterTable(egressMapName, m.objs.Egress); err != nil {
		m.objs.Close()
		return nil, errutil.Err(ErrCreatingCounterTable, err)
	}
	return m, nil
}

func (m *BytecountManager) loadObjects() error {
	if m.PinPath != "" {
		m.logger.Infof("opening the counter tables pinned at %v...", m.PinPath)
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = m.LoadRetryInterval
		return loadPinnedBytecountMaps(m.PinPath, &m.objs.bytecountMaps, backoff.WithMaxRetries(b, m.MaxLoadRetries))
	}
	m.logger.Infof("loading bpf program objects from %v...", m.ObjectPath)
	return loadBytecountObjects(m.ObjectPath, &m.objs, nil)
}

// SubscribeToDevice attaches the ingress and egress programs to iface.
// Subscribing to the same device twice is a no-op.
func (m *BytecountManager) SubscribeToDevice(iface string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrBytecountManagerClosed
	}
	if m.objs.TcIngress == nil || m.objs.TcEgress == nil {
		return errutil.Err(ErrAttachingFilter, ErrProgramsUnavailable)
	}
	h, err := hooker.NewHooker(m.AttachMode, iface, m.logger)
	if err != nil {
		return errutil.Err(ErrCreatingDeviceHooker, err)
	}
	if _, loaded := m.hookers.LoadOrStore(iface, h); loaded {
		return nil
	}
	if err := m.attach(h); err != nil {
		m.hookers.Delete(iface)
		if closeErr := h.Close(); closeErr != nil {
			m.logger.Error(errutil.Err(ErrClosingDeviceHooker, closeErr))
		}
		return errutil.Err(ErrAttachingFilter, err)
	}
	m.logger.Infof("the byte count filters are attached to %v", iface)
	return nil
}

// UnsubscribeFromDevice detaches the programs from iface. Unknown devices are
// ignored.
func (m *BytecountManager) UnsubscribeFromDevice(iface string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrBytecountManagerClosed
	}
	h, loaded := m.hookers.LoadAndDelete(iface)
	if !loaded {
		return nil
	}
	if err := h.Close(); err != nil {
		return errutil.Err(ErrClosingDeviceHooker, err)
	}
	m.logger.Infof("the byte count filters are detached from %v", iface)
	return nil
}

func (m *BytecountManager) attach(h hooker.Hooker) error {
	if err := h.Init(); err != nil {
		return err
	}
	programs := map[common.TrafficDirection]*ebpf.Program{
		common.TRAFFIC_DIR_INGRESS: m.objs.TcIngress,
		common.TRAFFIC_DIR_EGRESS:  m.objs.TcEgress,
	}
	for _, dir := range []common.TrafficDirection{common.TRAFFIC_DIR_INGRESS, common.TRAFFIC_DIR_EGRESS} {
		tcDir, err := dir.TC()
		if err != nil {
			return err
		}
		filterName := fmt.Sprintf("%v_%v", m.FilterName, tcDir)
		if err := h.AddFilter(filterName, programs[dir], tcDir); err != nil {
			return err
		}
	}
	return nil
}

func (m *BytecountManager) IngressTable() modules.CounterTable {
	return m.ingress
}

func (m *BytecountManager) EgressTable() modules.CounterTable {
	return m.egress
}

// Close detaches every hook and releases the objects.
func (m *BytecountManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.hookers.Range(func(iface string, h hooker.Hooker) bool {
		if err := h.Close(); err != nil {
			m.logger.Errorf("%v: %v", iface, errutil.Err(ErrClosingDeviceHooker, err))
		}
		m.hookers.Delete(iface)
		return true
	})
	return m.objs.Close()
}
