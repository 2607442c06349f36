package registry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// loadUnit runs the full admission path for one candidate unit against the
// given runtime. Every failure is confined to this unit: the module is
// closed, a diagnostic is recorded and discovery moves on. On admission the
// module stays open because registered tools call into it.
func (r *Registry) loadUnit(ctx context.Context, rt UnitRuntime, unit Unit) bool {
	mod, err := rt.Instantiate(ctx, unit)
	if err != nil {
		r.reject(unit.ID, StageLoad, err.Error())
		return false
	}

	infoRaw, err := mod.Info(ctx)
	if err != nil {
		r.reject(unit.ID, StageMetadata, err.Error())
		r.closeModule(ctx, unit.ID, mod)

		return false
	}

	md, err := ParseMetadata(infoRaw)
	if err != nil {
		r.reject(unit.ID, StageMetadata, err.Error())
		r.closeModule(ctx, unit.ID, mod)

		return false
	}

	exportsRaw, err := mod.Exports(ctx)
	if err != nil {
		r.reject(unit.ID, StageExports, err.Error())
		r.closeModule(ctx, unit.ID, mod)

		return false
	}

	exports, err := ParseExports(exportsRaw)
	if err != nil {
		r.reject(unit.ID, StageExports, err.Error())
		r.closeModule(ctx, unit.ID, mod)

		return false
	}

	if !Compatible(md, r.host) {
		r.reject(unit.ID, StageCompat, fmt.Sprintf(
			"not compatible with host %s (go %s): declared platform %v, runtime_requires %q",
			r.host.Platform, r.host.RuntimeVersion, md.Platform, md.RuntimeRequires))
		r.closeModule(ctx, unit.ID, mod)

		return false
	}

	r.registerPlugin(unit.ID, md)

	registered := 0
	for _, name := range exports.Tools {
		fn, ok := mod.Tool(name)
		if !ok {
			// Declared but not callable: skipped without a diagnostic.
			continue
		}
		r.registerTool(NewTool(unit.ID, name, fn))
		registered++
	}

	// The init hook runs exactly once, immediately after registration. A
	// failure here is recorded but does not un-admit the plugin: partial
	// capability beats total exclusion.
	if exports.Init {
		if hook, ok := mod.InitHook(); ok {
			if err := hook(ctx); err != nil {
				r.warn(unit.ID, StageInit, fmt.Sprintf("init hook failed: %v", err))
			}
		}
	}

	log.Info().
		Str("unit", unit.ID).
		Str("plugin", md.Name).
		Str("version", md.Version).
		Int("tools", registered).
		Msg("loaded plugin")

	return true
}

func (r *Registry) reject(unit, stage, reason string) {
	r.diags = append(r.diags, Diagnostic{Unit: unit, Stage: stage, Reason: reason})
	log.Warn().Str("unit", unit).Str("stage", stage).Msg(reason)
}

// warn records a non-rejecting diagnostic; the unit stays admitted.
func (r *Registry) warn(unit, stage, reason string) {
	r.diags = append(r.diags, Diagnostic{Unit: unit, Stage: stage, Reason: reason})
	log.Warn().Str("unit", unit).Str("stage", stage).Msg(reason)
}

func (r *Registry) closeModule(ctx context.Context, unit string, mod UnitModule) {
	if err := mod.Close(ctx); err != nil {
		log.Debug().Err(err).Str("unit", unit).Msg("failed to close rejected module")
	}
}
