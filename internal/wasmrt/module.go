package wasmrt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/agentlink/agentlink/internal/registry"
	"github.com/agentlink/agentlink/pkg/agentplugin"
)

// Exported symbols every unit must or may carry.
const (
	infoSymbol    = "module_info"
	exportsSymbol = "module_exports"
	initSymbol    = "init"
)

// unitModule wraps one instantiated wasm module behind registry.UnitModule.
// Guest linear memory is single-threaded; the mutex serializes every call
// into the module.
type unitModule struct {
	id    string
	mod   api.Module
	alloc api.Function
	mu    sync.Mutex
}

// Info returns the unit's module_info declaration.
func (m *unitModule) Info(ctx context.Context) ([]byte, error) {
	return m.declaration(ctx, infoSymbol)
}

// Exports returns the unit's module_exports declaration.
func (m *unitModule) Exports(ctx context.Context) ([]byte, error) {
	return m.declaration(ctx, exportsSymbol)
}

// declaration calls a zero-argument export returning a packed buffer and
// reads it out of guest memory.
func (m *unitModule) declaration(ctx context.Context, symbol string) ([]byte, error) {
	fn := m.mod.ExportedFunction(symbol)
	if fn == nil {
		return nil, fmt.Errorf("unit does not declare %s", symbol)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	results, err := fn.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", symbol, err)
	}
	if len(results) < 1 {
		return nil, fmt.Errorf("%s returned no result", symbol)
	}

	data, err := readBuffer(m.mod, agentplugin.Buffer(results[0]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	return data, nil
}

// Tool resolves a declared tool name to its exported function. Only exports
// with the tool calling convention (one packed u64 in, one packed u64 out)
// are callable; anything else reports false so the loader skips it.
func (m *unitModule) Tool(name string) (registry.ToolFunc, bool) {
	fn := m.mod.ExportedFunction(name)
	if fn == nil {
		return nil, false
	}

	def := fn.Definition()
	params, results := def.ParamTypes(), def.ResultTypes()
	if len(params) != 1 || params[0] != api.ValueTypeI64 ||
		len(results) != 1 || results[0] != api.ValueTypeI64 {
		return nil, false
	}

	return func(ctx context.Context, input []byte) ([]byte, error) {
		return m.call(ctx, fn, input)
	}, true
}

// InitHook resolves the optional zero-argument lifecycle hook.
func (m *unitModule) InitHook() (func(ctx context.Context) error, bool) {
	fn := m.mod.ExportedFunction(initSymbol)
	if fn == nil {
		return nil, false
	}
	if len(fn.Definition().ParamTypes()) != 0 {
		return nil, false
	}

	return func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()

		if _, err := fn.Call(ctx); err != nil {
			return fmt.Errorf("init failed: %w", err)
		}

		return nil
	}, true
}

// call writes input into guest memory, invokes the tool function and reads
// the response buffer back out.
func (m *unitModule) call(ctx context.Context, fn api.Function, input []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ptr uint32
	if len(input) > 0 {
		var err error
		ptr, err = allocBuffer(ctx, m.mod, m.alloc, input)
		if err != nil {
			return nil, err
		}
	}

	results, err := fn.Call(ctx, agentplugin.PackResult(ptr, uint32(len(input))))
	if err != nil {
		return nil, fmt.Errorf("tool execution error: %w", err)
	}
	if len(results) < 1 {
		return nil, errors.New("invalid tool execution result")
	}

	if results[0] == 0 {
		return nil, nil
	}

	return readBuffer(m.mod, agentplugin.Buffer(results[0]))
}

// Close releases the module instance and any filesystem mount scoped to it.
func (m *unitModule) Close(ctx context.Context) error {
	return m.mod.Close(ctx)
}

// allocBuffer allocates guest memory via the wasm Alloc export and writes
// the given host-side data slice into the guest's linear memory, returning
// the pointer address.
func allocBuffer(
	ctx context.Context,
	mod api.Module,
	alloc api.Function,
	data []byte,
) (uint32, error) {
	length := uint32(len(data))
	if length == 0 {
		return 0, errors.New("buffer length is zero")
	}

	results, err := alloc.Call(ctx, uint64(length))
	if err != nil {
		return 0, fmt.Errorf("alloc failed: %w", err)
	}
	if len(results) < 1 {
		return 0, errors.New("alloc returned no results")
	}

	ptr := api.DecodeU32(results[0])

	if !mod.Memory().Write(ptr, data) {
		return 0, errors.New("memory write failed: bounds exceeded")
	}

	return ptr, nil
}

// readBuffer reads bytes from guest memory at the address represented by
// buf and returns them as a byte slice.
func readBuffer(mod api.Module, buf agentplugin.Buffer) ([]byte, error) {
	ptr, length := buf.AddressSize()
	if length == 0 {
		return nil, nil
	}

	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return nil, errors.New("memory read failed: bounds exceeded")
	}

	return append([]byte(nil), data...), nil
}
