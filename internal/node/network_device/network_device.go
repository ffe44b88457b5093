package network_device

import (
	"context"
	"net"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dinoallo/sealos-nm-bytecount/modules"
	errutil "github.com/dinoallo/sealos-nm-bytecount/pkg/errors/util"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/log"
	netlib "github.com/dinoallo/sealos-nm-bytecount/pkg/net"
	"github.com/puzpuzpuz/xsync"
	"k8s.io/utils/clock"
)

var (
	defaultHostDeviceRegexes      = []string{"^(eth|ens|enp|eno)"}
	defaultExcludedDevicePrefixes = []string{"cilium_", "lo", "docker", "veth"}
)

type NetworkDeviceWatcherConfig struct {
	SyncPeriod time.Duration
	// only devices matching one of these are subscribed
	HostDeviceRegexes      []string
	ExcludedDevicePrefixes []string
}

func NewNetworkDeviceWatcherConfig() NetworkDeviceWatcherConfig {
	return NetworkDeviceWatcherConfig{
		SyncPeriod:             10 * time.Second,
		HostDeviceRegexes:      append([]string(nil), defaultHostDeviceRegexes...),
		ExcludedDevicePrefixes: append([]string(nil), defaultExcludedDevicePrefixes...),
	}
}

type NetworkDeviceWatcherParams struct {
	ParentLogger log.Logger
	NetworkDeviceWatcherConfig
	modules.BPFByteCountModule
	netlib.NetLib
	Clock clock.WithTicker
}

// NetworkDeviceWatcher keeps the byte count programs attached to every viable
// host device, following devices as they come and go.
type NetworkDeviceWatcher struct {
	logger            log.Logger
	hostDeviceRegexes []*regexp.Regexp
	// subscribed device name -> interface index
	devices *xsync.MapOf[string, int]
	NetworkDeviceWatcherParams
}

func NewNetworkDeviceWatcher(params NetworkDeviceWatcherParams) (*NetworkDeviceWatcher, error) {
	if params.SyncPeriod <= 0 {
		return nil, ErrInvalidSyncPeriod
	}
	if params.BPFByteCountModule == nil {
		return nil, ErrByteCountModuleMissing
	}
	if params.NetLib == nil {
		return nil, ErrNetLibMissing
	}
	regexes := make([]*regexp.Regexp, 0, len(params.HostDeviceRegexes))
	for _, expr := range params.HostDeviceRegexes {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, errutil.Err(ErrCompilingDeviceRegex, err)
		}
		regexes = append(regexes, re)
	}
	logger, err := params.ParentLogger.WithCompName("network_device_watcher")
	if err != nil {
		return nil, errutil.Err(ErrCreatingLogger, err)
	}
	if params.Clock == nil {
		params.Clock = clock.RealClock{}
	}
	return &NetworkDeviceWatcher{
		logger:                     logger,
		hostDeviceRegexes:          regexes,
		devices:                    xsync.NewMapOf[int](),
		NetworkDeviceWatcherParams: params,
	}, nil
}

// Run syncs the devices once and then every sync period until ctx is done.
// A failed sync is logged and retried on the next period.
func (w *NetworkDeviceWatcher) Run(ctx context.Context) error {
	if err := w.updateDevices(); err != nil {
		w.logger.Error(errutil.Err(ErrUpdateDevices, err))
	}
	ticker := w.Clock.NewTicker(w.SyncPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			if err := w.updateDevices(); err != nil {
				w.logger.Error(errutil.Err(ErrUpdateDevices, err))
			}
		}
	}
}

func (w *NetworkDeviceWatcher) updateDevices() error {
	ifaces, err := w.Interfaces()
	if err != nil {
		return err
	}
	viable := make(map[string]int)
	for _, iface := range ifaces {
		if w.isViableDevice(iface) {
			viable[iface.Name] = iface.Index
		}
	}
	// a device recreated under the same name gets a new index and is resubscribed
	w.devices.Range(func(name string, index int) bool {
		if newIndex, ok := viable[name]; ok && newIndex == index {
			return true
		}
		w.devices.Delete(name)
		if err := w.UnsubscribeFromDevice(name); err != nil {
			w.logger.Errorf("%v: %v", name, errutil.Err(ErrUnsubscribingDevice, err))
		}
		return true
	})
	for name, index := range viable {
		if _, loaded := w.devices.Load(name); loaded {
			continue
		}
		if err := w.SubscribeToDevice(name); err != nil {
			w.logger.Errorf("%v: %v", name, errutil.Err(ErrSubscribingToDevice, err))
			continue
		}
		w.devices.Store(name, index)
	}
	return nil
}

func (w *NetworkDeviceWatcher) isViableDevice(iface net.Interface) bool {
	if netlib.IsLoopback(iface) {
		return false
	}
	for _, prefix := range w.ExcludedDevicePrefixes {
		if strings.HasPrefix(iface.Name, prefix) {
			return false
		}
	}
	for _, re := range w.hostDeviceRegexes {
		if re.MatchString(iface.Name) {
			return true
		}
	}
	return false
}

// Devices returns the names of the subscribed devices, sorted.
func (w *NetworkDeviceWatcher) Devices() []string {
	var names []string
	w.devices.Range(func(name string, _ int) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}
