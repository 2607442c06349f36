package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlink/agentlink/internal/registry"
	"github.com/agentlink/agentlink/internal/registry/registrytest"
)

func TestDiscoverSingleUnit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	registrytest.WriteUnitFile(t, root, "letter_counter")

	rt := &registrytest.FakeRuntime{Units: map[string]registrytest.FakeUnit{
		"letter_counter": {
			Info:    registrytest.WellFormedInfo("Letter Counter"),
			Exports: `{"tools": ["count", "shout"]}`,
			Tools: map[string]registry.ToolFunc{
				"count": registrytest.EchoTool(),
				"shout": registrytest.EchoTool(),
			},
		},
	}}

	reg := registry.New(root, rt.Factory())
	admitted, diags, err := reg.Discover(context.Background())
	require.NoError(t, err)
	require.Empty(t, diags)
	assert.Equal(t, 1, admitted)

	assert.Equal(t, []string{"letter_counter.count", "letter_counter.shout"}, reg.ListToolNames())

	tool, ok := reg.GetTool("letter_counter.count")
	require.True(t, ok)
	assert.Equal(t, "letter_counter", tool.PluginID)
	assert.Equal(t, "count", tool.Name)

	out, err := tool.Call(context.Background(), []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)

	md, ok := reg.Plugin("letter_counter")
	require.True(t, ok)
	assert.Equal(t, "Letter Counter", md.Name)
}

func TestDiscoverMissingRoot(t *testing.T) {
	t.Parallel()

	rt := &registrytest.FakeRuntime{}
	reg := registry.New("/nonexistent/plugins/root", rt.Factory())

	admitted, diags, err := reg.Discover(context.Background())
	require.NoError(t, err)
	assert.Zero(t, admitted)
	assert.Empty(t, diags)
	assert.Empty(t, rt.Instantiated)
}

func TestDiscoverMissingMetadataDeclaration(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	registrytest.WriteUnitFile(t, root, "broken")

	rt := &registrytest.FakeRuntime{Units: map[string]registrytest.FakeUnit{
		"broken": {
			Exports: `{"tools": ["x"]}`,
			Tools:   map[string]registry.ToolFunc{"x": registrytest.EchoTool()},
		},
	}}

	reg := registry.New(root, rt.Factory())
	admitted, diags, err := reg.Discover(context.Background())
	require.NoError(t, err)

	assert.Zero(t, admitted)
	require.Len(t, diags, 1)
	assert.Equal(t, "broken", diags[0].Unit)
	assert.Equal(t, registry.StageMetadata, diags[0].Stage)

	assert.Empty(t, reg.ListToolNames())
	_, ok := reg.GetTool("broken.x")
	assert.False(t, ok)
}

func TestDiscoverIncompleteMetadata(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	registrytest.WriteUnitFile(t, root, "partial")

	rt := &registrytest.FakeRuntime{Units: map[string]registrytest.FakeUnit{
		"partial": {
			// No author, version, platform...: not well-formed.
			Info:    `{"name": "Partial", "description": "missing fields"}`,
			Exports: `{"tools": []}`,
		},
	}}

	reg := registry.New(root, rt.Factory())
	admitted, diags, err := reg.Discover(context.Background())
	require.NoError(t, err)

	assert.Zero(t, admitted)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Reason, "missing required field")
}

func TestDiscoverPlatformGate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	registrytest.WriteUnitFile(t, root, "windows_only")
	registrytest.WriteUnitFile(t, root, "portable")

	info := func(name, platform string) string {
		return `{
			"name": "` + name + `",
			"description": "d",
			"author": "a",
			"version": "1.0.0",
			"platform": "` + platform + `",
			"runtime_requires": "",
			"dependencies": [],
			"environment_variables": {}
		}`
	}

	rt := &registrytest.FakeRuntime{Units: map[string]registrytest.FakeUnit{
		"windows_only": {
			Info:    info("Windows Only", "windows"),
			Exports: `{"tools": ["t"]}`,
			Tools:   map[string]registry.ToolFunc{"t": registrytest.EchoTool()},
		},
		"portable": {
			Info:    info("Portable", "any"),
			Exports: `{"tools": ["t"]}`,
			Tools:   map[string]registry.ToolFunc{"t": registrytest.EchoTool()},
		},
	}}

	host := registry.HostInfo{Platform: "linux", RuntimeVersion: "1.24.4"}
	reg := registry.New(root, rt.Factory(), registry.WithHost(host))
	admitted, diags, err := reg.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, admitted)
	require.Len(t, diags, 1)
	assert.Equal(t, "windows_only", diags[0].Unit)
	assert.Equal(t, registry.StageCompat, diags[0].Stage)

	assert.Equal(t, []string{"portable.t"}, reg.ListToolNames())
}

func TestDiscoverInitFailureKeepsPluginAdmitted(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	registrytest.WriteUnitFile(t, root, "flaky")
	registrytest.WriteUnitFile(t, root, "steady")

	initCalls := 0
	rt := &registrytest.FakeRuntime{Units: map[string]registrytest.FakeUnit{
		"flaky": {
			Info:    registrytest.WellFormedInfo("Flaky"),
			Exports: `{"tools": ["work"], "init": true}`,
			Tools:   map[string]registry.ToolFunc{"work": registrytest.EchoTool()},
			Init: func(_ context.Context) error {
				initCalls++
				return errors.New("init exploded")
			},
		},
		"steady": {
			Info:    registrytest.WellFormedInfo("Steady"),
			Exports: `{"tools": ["work"]}`,
			Tools:   map[string]registry.ToolFunc{"work": registrytest.EchoTool()},
		},
	}}

	reg := registry.New(root, rt.Factory())
	admitted, diags, err := reg.Discover(context.Background())
	require.NoError(t, err)

	// Both stay admitted, the init failure is only a diagnostic.
	assert.Equal(t, 2, admitted)
	assert.Equal(t, 1, initCalls)
	require.Len(t, diags, 1)
	assert.Equal(t, "flaky", diags[0].Unit)
	assert.Equal(t, registry.StageInit, diags[0].Stage)

	_, ok := reg.GetTool("flaky.work")
	assert.True(t, ok)
	_, ok = reg.GetTool("steady.work")
	assert.True(t, ok)
}

func TestDiscoverSkipsUncallableTools(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	registrytest.WriteUnitFile(t, root, "mixed")

	rt := &registrytest.FakeRuntime{Units: map[string]registrytest.FakeUnit{
		"mixed": {
			Info:    registrytest.WellFormedInfo("Mixed"),
			Exports: `{"tools": ["real", "ghost"]}`,
			Tools:   map[string]registry.ToolFunc{"real": registrytest.EchoTool()},
		},
	}}

	reg := registry.New(root, rt.Factory())
	admitted, diags, err := reg.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, admitted)
	// Uncallable entries are skipped without a diagnostic.
	assert.Empty(t, diags)
	assert.Equal(t, []string{"mixed.real"}, reg.ListToolNames())
}

func TestDiscoverExecutionFailureSkipsUnitOnly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	registrytest.WriteUnitFile(t, root, "crasher")
	registrytest.WriteUnitFile(t, root, "healthy")

	rt := &registrytest.FakeRuntime{Units: map[string]registrytest.FakeUnit{
		"crasher": {LoadErr: errors.New("trap: unreachable")},
		"healthy": {
			Info:    registrytest.WellFormedInfo("Healthy"),
			Exports: `{"tools": ["ping"]}`,
			Tools:   map[string]registry.ToolFunc{"ping": registrytest.EchoTool()},
		},
	}}

	reg := registry.New(root, rt.Factory())
	admitted, diags, err := reg.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, admitted)
	require.Len(t, diags, 1)
	assert.Equal(t, "crasher", diags[0].Unit)
	assert.Equal(t, registry.StageLoad, diags[0].Stage)
	assert.Equal(t, []string{"healthy.ping"}, reg.ListToolNames())
}

func TestDiscoverEnumerationOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	// Files enumerate before directories, each pass sorted by name.
	registrytest.WriteUnitFile(t, root, "zeta")
	registrytest.WriteUnitFile(t, root, "alpha")
	registrytest.WriteUnitDir(t, root, "beta")
	registrytest.WriteUnitDir(t, root, "__reserved")
	registrytest.WriteUnitFile(t, root, "__hidden")

	unit := func(name string) registrytest.FakeUnit {
		return registrytest.FakeUnit{
			Info:    registrytest.WellFormedInfo(name),
			Exports: `{"tools": ["t"]}`,
			Tools:   map[string]registry.ToolFunc{"t": registrytest.EchoTool()},
		}
	}

	rt := &registrytest.FakeRuntime{Units: map[string]registrytest.FakeUnit{
		"zeta":  unit("Zeta"),
		"alpha": unit("Alpha"),
		"beta":  unit("Beta"),
	}}

	reg := registry.New(root, rt.Factory())
	admitted, diags, err := reg.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, admitted)
	assert.Empty(t, diags)
	assert.Equal(t, []string{"alpha", "zeta", "beta"}, rt.Instantiated)
	assert.Equal(t, []string{"alpha.t", "zeta.t", "beta.t"}, reg.ListToolNames())
	assert.Equal(t, []string{"alpha", "zeta", "beta"}, reg.PluginIDs())
}

func TestRediscoverReplacesState(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	registrytest.WriteUnitFile(t, root, "one")

	rt := &registrytest.FakeRuntime{Units: map[string]registrytest.FakeUnit{
		"one": {
			Info:    registrytest.WellFormedInfo("One"),
			Exports: `{"tools": ["t"]}`,
			Tools:   map[string]registry.ToolFunc{"t": registrytest.EchoTool()},
		},
	}}

	reg := registry.New(root, rt.Factory())
	_, _, err := reg.Discover(context.Background())
	require.NoError(t, err)

	registrytest.WriteUnitFile(t, root, "two")
	rt.Units["two"] = registrytest.FakeUnit{
		Info:    registrytest.WellFormedInfo("Two"),
		Exports: `{"tools": ["t"]}`,
		Tools:   map[string]registry.ToolFunc{"t": registrytest.EchoTool()},
	}

	admitted, _, err := reg.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, admitted)
	assert.Equal(t, []string{"one.t", "two.t"}, reg.ListToolNames())
}

func TestDiscoverScenarioTwoUnits(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	registrytest.WriteUnitFile(t, root, "A")
	registrytest.WriteUnitFile(t, root, "B")

	rt := &registrytest.FakeRuntime{Units: map[string]registrytest.FakeUnit{
		"A": {
			Info:    registrytest.WellFormedInfo("Unit A"),
			Exports: `{"tools": ["add"]}`,
			Tools:   map[string]registry.ToolFunc{"add": registrytest.EchoTool()},
		},
		"B": {
			Info: `{
				"name": "Unit B",
				"description": "d",
				"author": "a",
				"version": "1.0.0",
				"platform": "any",
				"runtime_requires": "",
				"dependencies": [],
				"environment_variables": {
					"API_KEY": {"description": "service key", "default": "", "required": true}
				}
			}`,
			Exports: `{"tools": ["count"]}`,
			Tools:   map[string]registry.ToolFunc{"count": registrytest.EchoTool()},
		},
	}}

	reg := registry.New(root, rt.Factory())
	admitted, diags, err := reg.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, admitted)
	assert.Empty(t, diags)
	assert.Equal(t, []string{"A.add", "B.count"}, reg.ListToolNames())
}
