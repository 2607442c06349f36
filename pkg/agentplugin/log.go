// Package agentplugin provides helper functions for WASM plugin units.
package agentplugin

// LogToHost logs a message from a WASM plugin to the host.
//
//go:wasm-module env
//export log_debug
func LogToHost(string) {}

// LogInfo logs an informational message to the host.
//
//go:wasm-module env
//export log_info
func LogInfo(string) {}

// LogError logs an error message to the host.
//
//go:wasm-module env
//export log_error
func LogError(string) {}
