// Package registry discovers plugin units, validates their self-description
// and aggregates the admitted capabilities into a queryable view.
package registry

import (
	"encoding/json"
	"fmt"
)

// Platform names accepted in a unit's metadata.
const (
	PlatformAny     = "any"
	PlatformLinux   = "linux"
	PlatformWindows = "windows"
	PlatformMacOS   = "macos"
)

// EnvVar describes one configuration variable declared by a plugin.
type EnvVar struct {
	Description string `json:"description"`
	Default     string `json:"default"`
	Required    bool   `json:"required"`
}

// PlatformSet is the set of platforms a plugin declares support for.
// It decodes from either a single JSON string or a list of strings.
type PlatformSet []string

// UnmarshalJSON accepts "any", "linux" or ["linux","macos"] forms.
func (p *PlatformSet) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*p = PlatformSet{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("platform must be a string or list of strings: %w", err)
	}
	*p = PlatformSet(list)

	return nil
}

// MarshalJSON renders a single-element set as a plain string, matching the
// most common declaration form.
func (p PlatformSet) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(p[0])
	}

	return json.Marshal([]string(p))
}

// Metadata is the immutable self-description record of one admitted plugin.
type Metadata struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Author          string            `json:"author"`
	Version         string            `json:"version"`
	Platform        PlatformSet       `json:"platform"`
	RuntimeRequires string            `json:"runtime_requires"`
	Dependencies    []string          `json:"dependencies"`
	EnvVars         map[string]EnvVar `json:"environment_variables"`
}

// metadataFields are the declarations a well-formed unit must carry.
// A missing field is a load rejection, never a silent default.
var metadataFields = []string{
	"name",
	"description",
	"author",
	"version",
	"platform",
	"runtime_requires",
	"dependencies",
	"environment_variables",
}

// ParseMetadata decodes and validates a unit's module_info declaration.
func ParseMetadata(data []byte) (Metadata, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Metadata{}, fmt.Errorf("module_info is not a valid JSON object: %w", err)
	}

	for _, field := range metadataFields {
		if _, ok := raw[field]; !ok {
			return Metadata{}, fmt.Errorf("module_info is missing required field %q", field)
		}
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return Metadata{}, fmt.Errorf("module_info decode failed: %w", err)
	}

	return md, nil
}

// Exports is a unit's module_exports declaration: the tool names it offers
// and whether it carries an init hook.
type Exports struct {
	Tools []string `json:"tools"`
	Init  bool     `json:"init"`
}

// ParseExports decodes a unit's module_exports declaration. The tools list
// must be present; init defaults to false.
func ParseExports(data []byte) (Exports, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Exports{}, fmt.Errorf("module_exports is not a valid JSON object: %w", err)
	}

	if _, ok := raw["tools"]; !ok {
		return Exports{}, fmt.Errorf("module_exports is missing required field %q", "tools")
	}

	var ex Exports
	if err := json.Unmarshal(data, &ex); err != nil {
		return Exports{}, fmt.Errorf("module_exports decode failed: %w", err)
	}

	return ex, nil
}
