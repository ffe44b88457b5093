package modules

type BPFByteCountModule interface {
	SubscribeToDevice(iface string) error
	UnsubscribeFromDevice(iface string) error
	IngressTable() CounterTable
	EgressTable() CounterTable
}
