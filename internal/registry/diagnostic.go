package registry

import "fmt"

// Stages at which a unit can be rejected or warned about during discovery.
const (
	StageLoad     = "load"
	StageMetadata = "metadata"
	StageExports  = "exports"
	StageCompat   = "compat"
	StageInit     = "init"
)

// Diagnostic records one rejection or warning from a discovery pass. The
// registry exposes these as data so hosts decide their own reporting policy.
type Diagnostic struct {
	Unit   string // unit identifier the diagnostic refers to
	Stage  string
	Reason string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: [%s] %s", d.Unit, d.Stage, d.Reason)
}
