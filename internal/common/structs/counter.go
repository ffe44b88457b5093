package structs

// PortCounter is one row of a per-CPU counter table: the raw, monotonically
// increasing byte counters of a port, one value per possible CPU.
type PortCounter struct {
	Port   uint16
	Values []uint64
}
