package bytecount

import (
	"errors"

	"github.com/cilium/ebpf"
)

const (
	ingressMapName = "INGRESS"
	egressMapName  = "EGRESS"
)

type bytecountPrograms struct {
	TcIngress *ebpf.Program `ebpf:"tc_ingress"`
	TcEgress  *ebpf.Program `ebpf:"tc_egress"`
}

func (p *bytecountPrograms) Close() error {
	return closeAll(p.TcIngress, p.TcEgress)
}

type bytecountMaps struct {
	Ingress *ebpf.Map `ebpf:"INGRESS"`
	Egress  *ebpf.Map `ebpf:"EGRESS"`
}

func (m *bytecountMaps) Close() error {
	return closeAll(m.Ingress, m.Egress)
}

type bytecountObjects struct {
	bytecountPrograms
	bytecountMaps
}

func (o *bytecountObjects) Close() error {
	return errors.Join(o.bytecountPrograms.Close(), o.bytecountMaps.Close())
}

// closeAll relies on Close of both maps and programs accepting a nil receiver.
func closeAll[T interface{ Close() error }](closers ...T) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
