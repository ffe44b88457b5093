package counter

import (
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
	errutil "github.com/dinoallo/sealos-nm-bytecount/pkg/errors/util"
)

// BPFCounterTable reads a per-cpu hash map of byte counters keyed by the
// remote port. The kernel keeps writing while the table is walked, so a
// snapshot is only consistent per key.
type BPFCounterTable struct {
	name string
	m    *ebpf.Map
}

func NewBPFCounterTable(name string, m *ebpf.Map) (*BPFCounterTable, error) {
	if m == nil {
		return nil, ErrCounterTableInvalid
	}
	switch m.Type() {
	case ebpf.PerCPUHash, ebpf.LRUCPUHash:
	default:
		return nil, errutil.Err(ErrCounterTableInvalid, fmt.Errorf("table %v has map type %v", name, m.Type()))
	}
	if m.KeySize() != 2 || m.ValueSize() != 8 {
		return nil, errutil.Err(ErrCounterTableInvalid, fmt.Errorf("table %v has key size %v and value size %v", name, m.KeySize(), m.ValueSize()))
	}
	return &BPFCounterTable{
		name: name,
		m:    m,
	}, nil
}

func (t *BPFCounterTable) Name() string {
	return t.name
}

// ForEach calls fn once for every port present in the table. A port that
// vanished or could not be read between the walk and the lookup is reported
// to fn with ErrLookingUpCounter; only a failed walk aborts the whole read.
func (t *BPFCounterTable) ForEach(fn func(structs.PortCounter, error)) error {
	ports, err := t.ports()
	if err != nil {
		return errutil.Err(ErrReadingCounterTable, err)
	}
	for _, port := range ports {
		var values []uint64
		if err := t.m.Lookup(&port, &values); err != nil {
			fn(structs.PortCounter{Port: port}, errutil.Err(ErrLookingUpCounter, err))
			continue
		}
		fn(structs.PortCounter{Port: port, Values: values}, nil)
	}
	return nil
}

// ports walks the keys of the table. LRU maps may drop or reorder keys
// during the walk; the walk is bounded by the table size and keys are
// deduplicated so one port is never reported twice in a snapshot.
func (t *BPFCounterTable) ports() ([]uint16, error) {
	maxEntries := int(t.m.MaxEntries())
	ports := make([]uint16, 0, 64)
	seen := make(map[uint16]struct{})
	var (
		key     uint16
		nextKey uint16
		prevKey any
	)
	for i := 0; i < maxEntries; i++ {
		if err := t.m.NextKey(prevKey, &nextKey); err != nil {
			if errors.Is(err, ebpf.ErrKeyNotExist) {
				break
			}
			return nil, err
		}
		if _, ok := seen[nextKey]; !ok {
			seen[nextKey] = struct{}{}
			ports = append(ports, nextKey)
		}
		key = nextKey
		prevKey = &key
	}
	return ports, nil
}
