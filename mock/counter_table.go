package mock

import (
	"sync"

	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
)

// TestingCounterTable replays scripted snapshots, one per ForEach call. Once
// the script runs out, the last snapshot is repeated.
type TestingCounterTable struct {
	mu        sync.Mutex
	snapshots []TestingSnapshot
	reads     int
}

type TestingSnapshot struct {
	Counters []structs.PortCounter
	// RecordErrs are reported for the port instead of its values
	RecordErrs map[uint16]error
	// Err fails the whole read
	Err error
}

func NewTestingCounterTable(snapshots ...TestingSnapshot) *TestingCounterTable {
	return &TestingCounterTable{
		snapshots: snapshots,
	}
}

// Push appends a snapshot to the script.
func (t *TestingCounterTable) Push(snapshot TestingSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshots = append(t.snapshots, snapshot)
}

func (t *TestingCounterTable) Reads() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reads
}

func (t *TestingCounterTable) ForEach(fn func(structs.PortCounter, error)) error {
	t.mu.Lock()
	if len(t.snapshots) == 0 {
		t.reads++
		t.mu.Unlock()
		return nil
	}
	i := t.reads
	if i >= len(t.snapshots) {
		i = len(t.snapshots) - 1
	}
	snapshot := t.snapshots[i]
	t.reads++
	t.mu.Unlock()

	if snapshot.Err != nil {
		return snapshot.Err
	}
	for port, err := range snapshot.RecordErrs {
		fn(structs.PortCounter{Port: port}, err)
	}
	for _, c := range snapshot.Counters {
		values := make([]uint64, len(c.Values))
		copy(values, c.Values)
		fn(structs.PortCounter{Port: c.Port, Values: values}, nil)
	}
	return nil
}
