package domain

import "testing"

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.2.3")
	if err != nil {
		t.Fatalf("ParseVersion failed: %v", err)
	}
	if v.Major != 1 || v.Minor != 2 || v.Patch != 3 {
		t.Errorf("Expected 1.2.3, got %+v", v)
	}
	if v.String() != "1.2.3" {
		t.Errorf("Expected string 1.2.3, got %s", v.String())
	}

	for _, bad := range []string{"", "1.2", "1.2.3.4", "a.b.c", "1.-2.3", "1.2.x"} {
		if _, err := ParseVersion(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestVersionBump(t *testing.T) {
	v := Version{Major: 1, Minor: 2, Patch: 3}

	tests := []struct {
		kind BumpKind
		want string
	}{
		{BumpMajor, "2.0.0"},
		{BumpMinor, "1.3.0"},
		{BumpPatch, "1.2.4"},
	}
	for _, tt := range tests {
		got := v.Bump(tt.kind)
		if got.String() != tt.want {
			t.Errorf("Bump(%s) = %s, want %s", tt.kind, got.String(), tt.want)
		}
		if got.Compare(v) <= 0 {
			t.Errorf("Bump(%s) = %s is not greater than %s", tt.kind, got.String(), v.String())
		}
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"2.0.0", "1.9.9", 1},
		{"1.2.0", "1.10.0", -1},
		{"1.0.10", "1.0.2", 1},
	}
	for _, tt := range tests {
		a, _ := ParseVersion(tt.a)
		b, _ := ParseVersion(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseBumpKind(t *testing.T) {
	if kind, err := ParseBumpKind(""); err != nil || kind != BumpPatch {
		t.Errorf("Expected empty bump to default to patch, got %q, %v", kind, err)
	}
	if kind, err := ParseBumpKind(" Minor "); err != nil || kind != BumpMinor {
		t.Errorf("Expected minor, got %q, %v", kind, err)
	}
	if _, err := ParseBumpKind("huge"); err == nil {
		t.Error("Expected error for invalid bump kind")
	}
}
