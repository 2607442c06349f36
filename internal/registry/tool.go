package registry

import "context"

// ToolFunc is the host-side calling convention of a plugin tool: an input
// buffer in, an output buffer out.
type ToolFunc func(ctx context.Context, input []byte) ([]byte, error)

// Tool is one registered capability, keyed by its qualified name
// "<plugin_id>.<tool_name>".
type Tool struct {
	QualifiedName string
	Name          string // short name within the owning plugin
	PluginID      string
	fn            ToolFunc
}

// Call invokes the underlying plugin function.
func (t Tool) Call(ctx context.Context, input []byte) ([]byte, error) {
	return t.fn(ctx, input)
}

// NewTool builds a Tool; used by the loader and by tests that inject
// capabilities without a live unit runtime.
func NewTool(pluginID, name string, fn ToolFunc) Tool {
	return Tool{
		QualifiedName: pluginID + "." + name,
		Name:          name,
		PluginID:      pluginID,
		fn:            fn,
	}
}
