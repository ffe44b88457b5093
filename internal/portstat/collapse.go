package portstat

const (
	EphemeralPortMin uint16 = 32768
	EphemeralPortMax uint16 = 65535

	// EphemeralBucket is the port every ephemeral port is accounted under
	EphemeralBucket uint16 = 0
)

// PortCollapser bounds the key space of the flow cache: ports in the
// ephemeral range share one bucket, every other port is tracked by itself.
type PortCollapser struct {
	EphemeralMin uint16
	EphemeralMax uint16
}

func NewPortCollapser() PortCollapser {
	return PortCollapser{
		EphemeralMin: EphemeralPortMin,
		EphemeralMax: EphemeralPortMax,
	}
}

func (c PortCollapser) Collapse(port uint16) uint16 {
	if port >= c.EphemeralMin && port <= c.EphemeralMax {
		return EphemeralBucket
	}
	return port
}
