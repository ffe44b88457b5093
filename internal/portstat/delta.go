package portstat

// Delta returns how much a monotonic per-CPU counter grew between two samples.
// A current value below the previous one means the counter was reset, so only
// the post-reset part (current) is reported instead of a wrapped difference.
func Delta(previous, current uint64) uint64 {
	if current < previous {
		return current
	}
	return current - previous
}
