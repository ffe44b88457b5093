package mock

import (
	"sync"

	"github.com/dinoallo/sealos-nm-bytecount/modules"
)

// this implementation is only used for testing
type DummyBPFByteCountModule struct {
	Ingress *TestingCounterTable
	Egress  *TestingCounterTable

	mu          sync.Mutex
	subscribed  []string
	SubscribeFn func(iface string) error
}

func NewDummyBPFByteCountModule() *DummyBPFByteCountModule {
	return &DummyBPFByteCountModule{
		Ingress: NewTestingCounterTable(),
		Egress:  NewTestingCounterTable(),
	}
}

func (m *DummyBPFByteCountModule) SubscribeToDevice(iface string) error {
	if m.SubscribeFn != nil {
		if err := m.SubscribeFn(iface); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, subscribed := range m.subscribed {
		if subscribed == iface {
			return nil
		}
	}
	m.subscribed = append(m.subscribed, iface)
	return nil
}

func (m *DummyBPFByteCountModule) UnsubscribeFromDevice(iface string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, subscribed := range m.subscribed {
		if subscribed == iface {
			m.subscribed = append(m.subscribed[:i], m.subscribed[i+1:]...)
			return nil
		}
	}
	return nil
}

// Subscribed returns the devices currently subscribed in subscription order.
func (m *DummyBPFByteCountModule) Subscribed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subscribed...)
}

func (m *DummyBPFByteCountModule) IngressTable() modules.CounterTable {
	return m.Ingress
}

func (m *DummyBPFByteCountModule) EgressTable() modules.CounterTable {
	return m.Egress
}
