//go:build !linux

package probe

// No portable free-memory reading; the planner skips the memory cap on 0.
func availableMemoryMB() uint64 {
	return 0
}
