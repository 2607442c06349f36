package registry

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// UnitExt is the file extension of single-file plugin units.
	UnitExt = ".wasm"

	// EntryFileName is the entry file of directory-shaped units.
	EntryFileName = "plugin.wasm"

	// reservedPrefix marks names excluded from discovery.
	reservedPrefix = "__"
)

// CacheDirName is the compilation-cache directory a runtime may keep inside
// the plugins root; discovery never treats it as a unit.
const CacheDirName = "wazero-cache"

// Registry owns the admitted plugin metadata and registered tools for one
// plugins root. It is populated by Discover and immutable between passes;
// queries are pure reads. At most one pass runs at a time, enforced by the
// registry mutex.
type Registry struct {
	root       string
	newRuntime RuntimeFactory
	host       HostInfo

	mu          sync.RWMutex
	rt          UnitRuntime
	plugins     map[string]Metadata
	pluginOrder []string
	tools       map[string]Tool
	toolOrder   []string
	diags       []Diagnostic
}

// Option adjusts registry construction.
type Option func(*Registry)

// WithHost overrides the host info used by the compatibility gate.
// Tests use it to exercise platform admission on any build machine.
func WithHost(host HostInfo) Option {
	return func(r *Registry) { r.host = host }
}

// New returns an empty registry for the given plugins root. Call Discover
// to populate it.
func New(root string, factory RuntimeFactory, opts ...Option) *Registry {
	r := &Registry{
		root:       root,
		newRuntime: factory,
		host:       CurrentHost(),
		plugins:    make(map[string]Metadata),
		tools:      make(map[string]Tool),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Discover runs one synchronous discovery pass over the plugins root and
// replaces the registry contents with the result. A missing root yields zero
// plugins and no error. Per-unit failures never abort the pass; they are
// returned (and retained) as diagnostics. The error return is reserved for
// the unit runtime itself being unavailable.
func (r *Registry) Discover(ctx context.Context) (int, []Diagnostic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	passID := uuid.NewString()
	log.Info().Str("pass_id", passID).Str("root", r.root).Msg("discovering plugins")

	r.plugins = make(map[string]Metadata)
	r.pluginOrder = nil
	r.tools = make(map[string]Tool)
	r.toolOrder = nil
	r.diags = nil

	units, ok, err := enumerateUnits(r.root)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		log.Info().Str("pass_id", passID).Str("root", r.root).Msg("plugins root does not exist")
		return 0, nil, nil
	}

	// A fresh runtime per pass: repeated passes must observe code changes,
	// never a cached prior instantiation.
	rt, err := r.newRuntime(ctx, r.root)
	if err != nil {
		return 0, nil, err
	}
	if r.rt != nil {
		if cerr := r.rt.Close(ctx); cerr != nil {
			log.Error().Err(cerr).Msg("failed to close previous unit runtime")
		}
	}
	r.rt = rt

	admitted := 0
	for _, unit := range units {
		if r.loadUnit(ctx, rt, unit) {
			admitted++
		}
	}

	log.Info().
		Str("pass_id", passID).
		Int("admitted", admitted).
		Int("rejected", len(units)-admitted).
		Int("tools", len(r.tools)).
		Msg("discovery pass complete")

	return admitted, append([]Diagnostic(nil), r.diags...), nil
}

// enumerateUnits lists candidate units under root in two disjoint sorted
// passes: single-file units first, then directory-shaped units. Names with
// the reserved prefix and the runtime cache directory are never candidates.
// The boolean reports whether the root exists.
func enumerateUnits(root string) ([]Unit, bool, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, err
	}

	var files, dirs []Unit
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, reservedPrefix) {
			continue
		}

		if entry.IsDir() {
			if name == CacheDirName {
				continue
			}
			dirs = append(dirs, Unit{
				ID:   name,
				Path: filepath.Join(root, name, EntryFileName),
				Root: filepath.Join(root, name),
			})

			continue
		}

		if filepath.Ext(name) != UnitExt {
			continue
		}
		files = append(files, Unit{
			ID:   strings.TrimSuffix(name, UnitExt),
			Path: filepath.Join(root, name),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].ID < dirs[j].ID })

	return append(files, dirs...), true, nil
}

// registerPlugin records metadata under its unit identifier. A later unit
// with the same identifier overwrites the earlier one.
func (r *Registry) registerPlugin(id string, md Metadata) {
	if _, ok := r.plugins[id]; !ok {
		r.pluginOrder = append(r.pluginOrder, id)
	}
	r.plugins[id] = md
}

// registerTool records a tool under its qualified name, later wins.
func (r *Registry) registerTool(tool Tool) {
	if _, ok := r.tools[tool.QualifiedName]; !ok {
		r.toolOrder = append(r.toolOrder, tool.QualifiedName)
	}
	r.tools[tool.QualifiedName] = tool
}

// GetTool looks up a tool by qualified name.
func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]

	return tool, ok
}

// ListToolNames returns all qualified tool names in registration order.
func (r *Registry) ListToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.toolOrder...)
}

// AllTools returns every registered tool in registration order.
func (r *Registry) AllTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		tools = append(tools, r.tools[name])
	}

	return tools
}

// ListPlugins returns a copy of the admitted metadata keyed by identifier.
func (r *Registry) ListPlugins() map[string]Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugins := make(map[string]Metadata, len(r.plugins))
	for id, md := range r.plugins {
		plugins[id] = md
	}

	return plugins
}

// PluginIDs returns admitted plugin identifiers in encounter order.
func (r *Registry) PluginIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.pluginOrder...)
}

// Plugin returns the metadata of one admitted plugin.
func (r *Registry) Plugin(id string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	md, ok := r.plugins[id]

	return md, ok
}

// Diagnostics returns the rejections and warnings of the last pass.
func (r *Registry) Diagnostics() []Diagnostic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Diagnostic(nil), r.diags...)
}

// Close releases the unit runtime and every module it instantiated.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rt == nil {
		return nil
	}
	rt := r.rt
	r.rt = nil

	return rt.Close(ctx)
}
