package registry

import "context"

// Unit is one candidate plugin artifact found during discovery: a single
// wasm file, or a directory with an entry file.
type Unit struct {
	ID   string // unit identifier, the file stem or directory name
	Path string // path to the wasm entry file
	Root string // unit directory for directory-shaped units, empty otherwise
}

// UnitModule is a single plugin unit instantiated in its own isolated scope.
// The two declaration accessors mirror the unit contract: every loadable
// unit must expose a module_info and a module_exports declaration.
type UnitModule interface {
	// Info returns the raw module_info declaration, or an error when the
	// unit does not declare one.
	Info(ctx context.Context) ([]byte, error)

	// Exports returns the raw module_exports declaration, or an error when
	// the unit does not declare one.
	Exports(ctx context.Context) ([]byte, error)

	// Tool resolves a declared tool name to a callable. A name with no
	// matching export, or an export with the wrong shape, reports false.
	Tool(name string) (ToolFunc, bool)

	// InitHook resolves the optional lifecycle hook.
	InitHook() (func(ctx context.Context) error, bool)

	// Close releases the module instance. Admitted modules stay open for
	// the registry's lifetime; rejected ones are closed immediately.
	Close(ctx context.Context) error
}

// UnitRuntime instantiates unit modules. One runtime backs one discovery
// pass; a fresh runtime per pass guarantees repeated passes observe code
// changes instead of a cached prior instantiation.
type UnitRuntime interface {
	Instantiate(ctx context.Context, unit Unit) (UnitModule, error)
	Close(ctx context.Context) error
}

// RuntimeFactory creates the runtime backing a single discovery pass.
type RuntimeFactory func(ctx context.Context, root string) (UnitRuntime, error)
