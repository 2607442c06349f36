// Package envreport derives configuration views from a populated registry:
// the merged set of declared environment variables, the missing required
// ones, and a documented template file for operators.
package envreport

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/agentlink/agentlink/internal/registry"
)

// VarInfo is one declared environment variable with its owning plugin
// attached. Views are rebuilt on demand from registry state, never cached.
type VarInfo struct {
	registry.EnvVar

	Plugin            string // owning plugin identifier
	PluginDisplayName string
}

// EnvReader reports the live value of an environment variable.
// os.LookupEnv satisfies it; tests inject a snapshot instead.
type EnvReader func(name string) (string, bool)

// OSEnv is the EnvReader over the process environment.
func OSEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Missing is one required variable that is unset in the live environment.
type Missing struct {
	Name              string
	PluginDisplayName string
}

// Collect merges every admitted plugin's declared variables into one view.
// When two plugins declare the same variable name, the later one in plugin
// encounter order wins the merged spec.
func Collect(reg *registry.Registry) map[string]VarInfo {
	merged := make(map[string]VarInfo)
	for _, id := range reg.PluginIDs() {
		md, ok := reg.Plugin(id)
		if !ok {
			continue
		}
		for name, spec := range md.EnvVars {
			merged[name] = VarInfo{
				EnvVar:            spec,
				Plugin:            id,
				PluginDisplayName: md.Name,
			}
		}
	}

	return merged
}

// MissingRequired returns every merged variable marked required that the
// reader reports empty or absent, ordered by plugin encounter order and
// variable name within a plugin.
func MissingRequired(reg *registry.Registry, read EnvReader) []Missing {
	merged := Collect(reg)

	var missing []Missing
	for _, id := range reg.PluginIDs() {
		md, ok := reg.Plugin(id)
		if !ok {
			continue
		}
		for _, name := range sortedVarNames(md.EnvVars) {
			info := merged[name]
			if info.Plugin != id || !info.Required {
				continue
			}
			if value, ok := read(name); !ok || value == "" {
				missing = append(missing, Missing{
					Name:              name,
					PluginDisplayName: info.PluginDisplayName,
				})
			}
		}
	}

	return missing
}

const sectionRule = "# -----------------------------------------------------------------------------"

// RenderTemplate produces the documented template for every declared
// variable, grouped per plugin in encounter order. Output is byte-identical
// across calls against an unchanged registry.
func RenderTemplate(reg *registry.Registry) string {
	var b strings.Builder

	b.WriteString("# =============================================================================\n")
	b.WriteString("# PLUGIN ENVIRONMENT VARIABLES TEMPLATE\n")
	b.WriteString("# =============================================================================\n")
	b.WriteString("# This file was auto-generated from plugin metadata.\n")
	b.WriteString("# Copy to .env and customize as needed.\n")
	b.WriteString("#\n")
	b.WriteString("\n")

	for _, id := range reg.PluginIDs() {
		md, ok := reg.Plugin(id)
		if !ok || len(md.EnvVars) == 0 {
			continue
		}

		fmt.Fprintf(&b, "%s\n# %s (%s)\n%s\n", sectionRule, md.Name, id, sectionRule)

		for _, name := range sortedVarNames(md.EnvVars) {
			spec := md.EnvVars[name]
			description := spec.Description
			if description == "" {
				description = "No description"
			}
			fmt.Fprintf(&b, "# %s\n", description)
			if spec.Required {
				b.WriteString("# REQUIRED\n")
				fmt.Fprintf(&b, "%s=\n", name)
			} else {
				fmt.Fprintf(&b, "# Optional (default: %s)\n", spec.Default)
				fmt.Fprintf(&b, "# %s=%s\n", name, spec.Default)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// WriteTemplate renders the template and writes it to path.
func WriteTemplate(reg *registry.Registry, path string) error {
	if err := os.WriteFile(path, []byte(RenderTemplate(reg)), 0o644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}

	return nil
}

// DetectNamingConflicts flags distinct variable names sharing the same final
// underscore-separated segment. Advisory only; never blocks anything.
func DetectNamingConflicts(reg *registry.Registry) []string {
	merged := Collect(reg)

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[string]string)
	var conflicts []string
	for _, name := range names {
		parts := strings.Split(name, "_")
		if len(parts) < 2 {
			continue
		}
		base := parts[len(parts)-1]
		if prior, ok := seen[base]; ok {
			conflicts = append(conflicts, fmt.Sprintf(
				"Potential conflict: %s and %s both end with %q", name, prior, base))
		} else {
			seen[base] = name
		}
	}

	return conflicts
}

func sortedVarNames(vars map[string]registry.EnvVar) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
