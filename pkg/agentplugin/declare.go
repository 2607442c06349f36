// Package agentplugin provides helper functions for WASM plugin units.
package agentplugin

import "encoding/json"

// Input returns the byte slice a packed argument refers to. Tool functions
// receive their input buffer as a single packed uint64 parameter.
func Input(packed uint64) []byte {
	ptr, length := UnpackResult(packed)
	if length == 0 {
		return nil
	}

	return ReadBytes(ptr, length)
}

// ReturnBytes copies data into freshly allocated guest memory and returns
// the packed pointer/length result the host expects.
func ReturnBytes(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}

	ptr := Alloc(uint32(len(data)))
	WriteBytes(ptr, data)

	return PackResult(ptr, uint32(len(data)))
}

// ReturnString returns s to the host as a packed result.
func ReturnString(s string) uint64 {
	return ReturnBytes([]byte(s))
}

// ReturnJSON marshals v and returns it to the host as a packed result.
// The module_info and module_exports declarations use this shape.
func ReturnJSON(v any) uint64 {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}

	return ReturnBytes(data)
}
