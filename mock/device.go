package mock

import (
	"math/rand"
	"net"
	"sync"
)

var (
	deviceSet = []string{
		"eth42",
		"eth24",
		"ens42",
		"ens24",
		"lxc42",
		"lxc24",
		"dummy42",
		"dummy24",
		"veth42",
		"veth24",
		"docker0",
		"cilium_host",
		"lo",
	}
)

// TestingNetLib serves a device listing that tests can replace at will.
type TestingNetLib struct {
	interfaces  []net.Interface
	err         error
	interfaceMu sync.RWMutex
}

func NewTestingNetLib() *TestingNetLib {
	return &TestingNetLib{
		interfaces: randInterfaces(),
	}
}

func randInterfaces() []net.Interface {
	var interfaces []net.Interface
	upperbound := len(deviceSet)
	for upperbound > 0 {
		i := rand.Intn(upperbound)
		interfaces = append(interfaces, newInterface(i+1, deviceSet[i]))
		upperbound = i
	}
	return interfaces
}

func newInterface(index int, name string) net.Interface {
	iface := net.Interface{
		Index: index,
		Name:  name,
		Flags: net.FlagUp,
	}
	if name == "lo" {
		iface.Flags |= net.FlagLoopback
	}
	return iface
}

func (m *TestingNetLib) Interfaces() ([]net.Interface, error) {
	m.interfaceMu.RLock()
	defer m.interfaceMu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	interfacesCopy := make([]net.Interface, len(m.interfaces))
	copy(interfacesCopy, m.interfaces)
	return interfacesCopy, nil
}

// SetInterfaces replaces the listing with one device per name, indexed from 1.
func (m *TestingNetLib) SetInterfaces(names ...string) {
	interfaces := make([]net.Interface, 0, len(names))
	for i, name := range names {
		interfaces = append(interfaces, newInterface(i+1, name))
	}
	m.interfaceMu.Lock()
	defer m.interfaceMu.Unlock()
	m.interfaces = interfaces
}

// SetErr makes every listing fail with err until it is cleared with nil.
func (m *TestingNetLib) SetErr(err error) {
	m.interfaceMu.Lock()
	defer m.interfaceMu.Unlock()
	m.err = err
}

func (m *TestingNetLib) Update() error {
	interfaces := randInterfaces()
	m.interfaceMu.Lock()
	defer m.interfaceMu.Unlock()
	m.interfaces = interfaces
	return nil
}
