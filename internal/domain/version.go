// Package domain contains core domain types for the KBK classifier service.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a three-component semantic version identifying one trained
// model bundle. Versions are immutable once persisted; a new training run
// always produces a new version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// BumpKind selects which version component a new training run increments.
type BumpKind string

const (
	BumpMajor BumpKind = "major"
	BumpMinor BumpKind = "minor"
	BumpPatch BumpKind = "patch"
)

// ParseBumpKind validates a caller-supplied bump kind, defaulting to patch
// for an empty string.
func ParseBumpKind(s string) (BumpKind, error) {
	switch BumpKind(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return BumpPatch, nil
	case BumpMajor:
		return BumpMajor, nil
	case BumpMinor:
		return BumpMinor, nil
	case BumpPatch:
		return BumpPatch, nil
	}
	return "", fmt.Errorf("invalid bump kind %q", s)
}

// ParseVersion parses a "major.minor.patch" string.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: want major.minor.patch", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not a non-negative integer", s, p)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the "major.minor.patch" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare orders versions lexicographically on the integer triple.
// Returns -1 if v < o, 0 if equal, 1 if v > o.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpInt(v.Minor, o.Minor)
	default:
		return cmpInt(v.Patch, o.Patch)
	}
}

// Bump returns the successor version under the given bump kind,
// zeroing all lower components.
func (v Version) Bump(kind BumpKind) Version {
	switch kind {
	case BumpMajor:
		return Version{Major: v.Major + 1}
	case BumpMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}
	default:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
