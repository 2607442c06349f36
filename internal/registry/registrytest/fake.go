// Package registrytest provides an in-memory unit runtime so registry and
// aggregator behavior can be tested without compiled wasm artifacts.
package registrytest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentlink/agentlink/internal/registry"
)

// FakeUnit describes one in-memory unit served by a FakeRuntime.
type FakeUnit struct {
	Info    string // raw module_info JSON; empty means undeclared
	Exports string // raw module_exports JSON; empty means undeclared
	Tools   map[string]registry.ToolFunc
	Init    func(ctx context.Context) error // nil means no hook
	LoadErr error                           // non-nil fails instantiation
}

// FakeRuntime implements registry.UnitRuntime over a map of fake units
// keyed by unit identifier.
type FakeRuntime struct {
	Units        map[string]FakeUnit
	Instantiated []string // unit IDs in instantiation order
	Closed       bool
}

// Factory adapts the fake to the registry.RuntimeFactory signature.
func (f *FakeRuntime) Factory() registry.RuntimeFactory {
	return func(_ context.Context, _ string) (registry.UnitRuntime, error) {
		return f, nil
	}
}

// Instantiate serves the fake unit registered under the candidate's ID.
func (f *FakeRuntime) Instantiate(_ context.Context, unit registry.Unit) (registry.UnitModule, error) {
	f.Instantiated = append(f.Instantiated, unit.ID)

	u, ok := f.Units[unit.ID]
	if !ok {
		return nil, errors.New("no such unit")
	}
	if u.LoadErr != nil {
		return nil, u.LoadErr
	}

	return &fakeModule{unit: u}, nil
}

// Close marks the runtime closed.
func (f *FakeRuntime) Close(_ context.Context) error {
	f.Closed = true
	return nil
}

type fakeModule struct {
	unit   FakeUnit
	closed bool
}

func (m *fakeModule) Info(_ context.Context) ([]byte, error) {
	if m.unit.Info == "" {
		return nil, errors.New("unit does not declare module_info")
	}

	return []byte(m.unit.Info), nil
}

func (m *fakeModule) Exports(_ context.Context) ([]byte, error) {
	if m.unit.Exports == "" {
		return nil, errors.New("unit does not declare module_exports")
	}

	return []byte(m.unit.Exports), nil
}

func (m *fakeModule) Tool(name string) (registry.ToolFunc, bool) {
	fn, ok := m.unit.Tools[name]
	if !ok || fn == nil {
		return nil, false
	}

	return fn, true
}

func (m *fakeModule) InitHook() (func(ctx context.Context) error, bool) {
	if m.unit.Init == nil {
		return nil, false
	}

	return m.unit.Init, true
}

func (m *fakeModule) Close(_ context.Context) error {
	m.closed = true
	return nil
}

// WriteUnitFile creates an empty single-file unit artifact so discovery
// enumerates the given identifier.
func WriteUnitFile(t *testing.T, root, id string) {
	t.Helper()

	path := filepath.Join(root, id+registry.UnitExt)
	if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
		t.Fatalf("failed to write unit file: %v", err)
	}
}

// WriteUnitDir creates a directory-shaped unit artifact with an empty entry
// file for the given identifier.
func WriteUnitDir(t *testing.T, root, id string) {
	t.Helper()

	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create unit dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, registry.EntryFileName), []byte{}, 0o644); err != nil {
		t.Fatalf("failed to write unit entry file: %v", err)
	}
}

// EchoTool returns a tool function that echoes its input back.
func EchoTool() registry.ToolFunc {
	return func(_ context.Context, input []byte) ([]byte, error) {
		return input, nil
	}
}

// WellFormedInfo returns a minimal valid module_info document for tests.
func WellFormedInfo(name string) string {
	return `{
		"name": "` + name + `",
		"description": "test plugin",
		"author": "tester",
		"version": "1.0.0",
		"platform": "any",
		"runtime_requires": "",
		"dependencies": [],
		"environment_variables": {}
	}`
}
