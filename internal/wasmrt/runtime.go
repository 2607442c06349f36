// Package wasmrt backs the registry's unit loader with a wazero runtime.
// Every discovery pass gets its own runtime; every unit is instantiated as
// its own module, so unit state never leaks between loads or passes.
package wasmrt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/agentlink/agentlink/internal/registry"
)

// Runtime implements registry.UnitRuntime on top of wazero.
type Runtime struct {
	rt    wazero.Runtime
	cache wazero.CompilationCache
	seq   int
}

// New creates the runtime for one discovery pass over the given plugins
// root. Compiled modules are cached under the root's cache directory, which
// discovery itself skips. The signature matches registry.RuntimeFactory.
func New(ctx context.Context, root string) (registry.UnitRuntime, error) {
	cfg := wazero.NewRuntimeConfig()

	var cache wazero.CompilationCache
	if root != "" {
		c, err := wazero.NewCompilationCacheWithDir(filepath.Join(root, registry.CacheDirName))
		if err != nil {
			log.Debug().Err(err).Msg("compilation cache unavailable, compiling without it")
		} else {
			cache = c
			cfg = cfg.WithCompilationCache(c)
		}
	}

	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	// Host env module with the logging functions the unit contract offers
	// to plugin code.
	envBuilder := rt.NewHostModuleBuilder("env")
	for name, level := range map[string]string{
		"log_debug": "debug",
		"log_info":  "info",
		"log_error": "error",
	} {
		level := level
		envBuilder.NewFunctionBuilder().
			WithFunc(func(_ context.Context, m api.Module, ptr, length uint32) {
				data, ok := m.Memory().Read(ptr, length)
				if !ok {
					log.Error().Str("unit", m.Name()).Msg("failed to read plugin log message")
					return
				}
				event := log.Debug()
				switch level {
				case "info":
					event = log.Info()
				case "error":
					event = log.Error()
				}
				event.Str("unit", m.Name()).Str("plugin_msg", string(data)).Msg("plugin message")
			}).
			Export(name)
	}
	if _, err := envBuilder.Instantiate(ctx); err != nil {
		if cerr := rt.Close(ctx); cerr != nil {
			log.Error().Err(cerr).Msg("failed to close runtime after env module error")
		}

		return nil, fmt.Errorf("failed to instantiate env module: %w", err)
	}

	return &Runtime{rt: rt, cache: cache}, nil
}

// Instantiate compiles and instantiates one unit module. Directory-shaped
// units get their own directory mounted as the module filesystem, scoped to
// this instance and released when the module closes.
func (r *Runtime) Instantiate(ctx context.Context, unit registry.Unit) (registry.UnitModule, error) {
	wasmBytes, err := os.ReadFile(unit.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read unit file: %w", err)
	}

	compiled, err := r.rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile unit module: %w", err)
	}

	// Instance names carry a sequence number so a unit identifier seen
	// twice in one pass still instantiates fresh.
	r.seq++
	cfg := wazero.NewModuleConfig().
		WithName(fmt.Sprintf("%s@%d", unit.ID, r.seq)).
		WithStartFunctions() // do not run any start functions

	if unit.Root != "" {
		cfg = cfg.WithFSConfig(wazero.NewFSConfig().WithDirMount(unit.Root, "/"))
	}

	mod, err := r.rt.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate unit module: %w", err)
	}

	allocFn := mod.ExportedFunction("Alloc")
	if allocFn == nil {
		if cerr := mod.Close(ctx); cerr != nil {
			log.Debug().Err(cerr).Str("unit", unit.ID).Msg("failed to close module")
		}

		return nil, fmt.Errorf("unit does not export the Alloc function")
	}

	return &unitModule{id: unit.ID, mod: mod, alloc: allocFn}, nil
}

// Close releases the runtime and every module instantiated from it.
func (r *Runtime) Close(ctx context.Context) error {
	err := r.rt.Close(ctx)
	if r.cache != nil {
		if cerr := r.cache.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}
