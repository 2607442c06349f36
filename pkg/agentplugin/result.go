// Package agentplugin provides helper functions for WASM plugin units.
package agentplugin

// PackResult combines a pointer and a length into a single uint64 result.
func PackResult(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}

// UnpackResult splits a packed uint64 result into pointer and length.
func UnpackResult(packed uint64) (ptr, length uint32) {
	return uint32(packed >> 32), uint32(packed)
}

// Buffer is a packed pointer/length pair referring to guest linear memory.
type Buffer uint64

// AddressSize returns the pointer and length the buffer refers to.
func (b Buffer) AddressSize() (ptr, length uint32) {
	return UnpackResult(uint64(b))
}
