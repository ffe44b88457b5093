package bytecount

import (
	"path/filepath"

	"github.com/cenkalti/backoff/v4"
	"github.com/cilium/ebpf"
)

func loadBytecountObjects(objectPath string, objs *bytecountObjects, opts *ebpf.CollectionOptions) error {
	spec, err := ebpf.LoadCollectionSpec(objectPath)
	if err != nil {
		return err
	}
	return spec.LoadAndAssign(objs, opts)
}

// loadPinnedBytecountMaps opens the counter tables pinned under pinPath by an
// external loader. The loader may still be starting, so opening is retried.
func loadPinnedBytecountMaps(pinPath string, maps *bytecountMaps, b backoff.BackOff) error {
	open := func() error {
		ingress, err := ebpf.LoadPinnedMap(filepath.Join(pinPath, ingressMapName), nil)
		if err != nil {
			return err
		}
		egress, err := ebpf.LoadPinnedMap(filepath.Join(pinPath, egressMapName), nil)
		if err != nil {
			ingress.Close()
			return err
		}
		maps.Ingress = ingress
		maps.Egress = egress
		return nil
	}
	return backoff.Retry(open, b)
}
