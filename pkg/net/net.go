package net

import "net"

// NetLib lists the network devices of the host.
type NetLib interface {
	Interfaces() ([]net.Interface, error)
}

type GoNetLib struct {
}

func NewGoNetLib() *GoNetLib {
	return &GoNetLib{}
}

func (l *GoNetLib) Interfaces() ([]net.Interface, error) {
	return net.Interfaces()
}

func IsLoopback(iface net.Interface) bool {
	return iface.Flags&net.FlagLoopback != 0
}

// InterfaceNames returns the device names reported by lib in listing order.
func InterfaceNames(lib NetLib) ([]string, error) {
	ifaces, err := lib.Interfaces()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		names = append(names, iface.Name)
	}
	return names, nil
}
