package registry

import "testing"

func TestCompatible(t *testing.T) {
	t.Parallel()

	host := HostInfo{Platform: "linux", RuntimeVersion: "1.24.4"}

	tests := []struct {
		name     string
		platform PlatformSet
		requires string
		want     bool
	}{
		{
			name:     "any platform always passes",
			platform: PlatformSet{"any"},
			want:     true,
		},
		{
			name:     "matching platform",
			platform: PlatformSet{"linux"},
			want:     true,
		},
		{
			name:     "matching platform in set",
			platform: PlatformSet{"windows", "linux"},
			want:     true,
		},
		{
			name:     "case insensitive platform",
			platform: PlatformSet{"Linux"},
			want:     true,
		},
		{
			name:     "mismatched platform",
			platform: PlatformSet{"windows"},
			want:     false,
		},
		{
			name:     "mismatched set",
			platform: PlatformSet{"windows", "macos"},
			want:     false,
		},
		{
			name:     "empty set treated as unconstrained",
			platform: PlatformSet{},
			want:     true,
		},
		{
			name:     "runtime satisfied",
			platform: PlatformSet{"any"},
			requires: ">=1.21",
			want:     true,
		},
		{
			name:     "runtime exactly satisfied",
			platform: PlatformSet{"any"},
			requires: ">=1.24.4",
			want:     true,
		},
		{
			name:     "runtime too new for host",
			platform: PlatformSet{"any"},
			requires: ">=1.30",
			want:     false,
		},
		{
			name:     "runtime with deeper precision than host",
			platform: PlatformSet{"any"},
			requires: ">=1.24.4.9",
			want:     false,
		},
		{
			name:     "unknown comparator fails open",
			platform: PlatformSet{"any"},
			requires: "~1.30",
			want:     true,
		},
		{
			name:     "malformed version fails open",
			platform: PlatformSet{"any"},
			requires: ">=one.two",
			want:     true,
		},
		{
			name:     "empty constraint passes",
			platform: PlatformSet{"any"},
			requires: "",
			want:     true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			md := Metadata{Platform: tc.platform, RuntimeRequires: tc.requires}
			if got := Compatible(md, host); got != tc.want {
				t.Errorf("Compatible() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCompatibleIsTotal(t *testing.T) {
	t.Parallel()

	// Garbage everywhere must still produce a boolean, never a panic.
	md := Metadata{
		Platform:        PlatformSet{"", "  ", "ANY"},
		RuntimeRequires: ">=",
	}
	if !Compatible(md, HostInfo{Platform: "macos", RuntimeVersion: "garbage"}) {
		t.Error("expected fail-open admission for unparsable inputs")
	}
}
