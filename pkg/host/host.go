package host

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/shirou/gopsutil/v3/host"
)

var GetName = sync.OnceValues[string, error](func() (string, error) {
	return getHostName()
})

var GetKernelVersion = sync.OnceValues[KernelVersion, error](func() (KernelVersion, error) {
	return getKernelVersion()
})

var GetEndian = sync.OnceValues[binary.ByteOrder, error](func() (binary.ByteOrder, error) {
	return getHostEndian()
})

func getHostName() (string, error) {
	info, err := host.Info()
	if err != nil {
		return "", err
	}
	return info.Hostname, nil
}

func getKernelVersion() (KernelVersion, error) {
	release, err := host.KernelVersion()
	if err != nil {
		return KernelVersion{}, err
	}
	return ParseKernelVersion(release)
}

func getHostEndian() (binary.ByteOrder, error) {
	buf := [2]byte{}
	*(*uint16)(unsafe.Pointer(&buf[0])) = uint16(0xABCD)

	switch buf {
	case [2]byte{0xCD, 0xAB}:
		return binary.LittleEndian, nil
	case [2]byte{0xAB, 0xCD}:
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("could not determine native endianness")
	}
}
