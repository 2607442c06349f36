package registry

import (
	"runtime"
	"strconv"
	"strings"
)

// HostInfo identifies the environment a unit is being admitted into.
type HostInfo struct {
	Platform       string // normalized platform name, e.g. "linux", "macos"
	RuntimeVersion string // dotted version of the Go runtime, e.g. "1.24.4"
}

// CurrentHost reports the platform and runtime version of this process.
func CurrentHost() HostInfo {
	platform := runtime.GOOS
	if platform == "darwin" {
		platform = PlatformMacOS
	}

	version := strings.TrimPrefix(runtime.Version(), "go")

	return HostInfo{Platform: platform, RuntimeVersion: version}
}

// Compatible reports whether a unit's declared constraints admit it on the
// given host. It is a total predicate: a malformed runtime_requires string is
// treated as no constraint rather than a rejection, so a bad constraint can
// never block an otherwise valid plugin.
func Compatible(md Metadata, host HostInfo) bool {
	if !platformAllowed(md.Platform, host.Platform) {
		return false
	}

	return runtimeSatisfied(md.RuntimeRequires, host.RuntimeVersion)
}

func platformAllowed(declared PlatformSet, hostPlatform string) bool {
	if len(declared) == 0 {
		return true
	}

	host := strings.ToLower(hostPlatform)
	for _, p := range declared {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == PlatformAny || p == host {
			return true
		}
	}

	return false
}

// runtimeSatisfied enforces only the ">=" comparator form; anything else,
// including unparsable version components, fails open.
func runtimeSatisfied(requires, hostVersion string) bool {
	requires = strings.TrimSpace(requires)
	if !strings.HasPrefix(requires, ">=") {
		return true
	}

	required, ok := parseVersion(strings.TrimSpace(strings.TrimPrefix(requires, ">=")))
	if !ok {
		return true
	}

	host, ok := parseVersion(hostVersion)
	if !ok {
		return true
	}

	// Compare component-wise, host truncated to the required precision.
	for i, want := range required {
		have := 0
		if i < len(host) {
			have = host[i]
		}
		if have != want {
			return have > want
		}
	}

	return true
}

func parseVersion(s string) ([]int, bool) {
	if s == "" {
		return nil, false
	}

	parts := strings.Split(s, ".")
	version := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, false
		}
		version = append(version, n)
	}

	return version, true
}
