package moduleid

import (
	"fmt"
	"strings"
)

// Parse converts the canonical display form of a module identifier back into
// its structured representation. Valid forms are "Group" and "Group/Sub";
// deeper nesting is rejected because discovery never produces it.
func Parse(s string) (ModuleID, error) {
	if s == "" {
		return ModuleID{}, fmt.Errorf("module identifier must not be empty")
	}

	parts := strings.Split(s, "/")
	for _, part := range parts {
		if part == "" {
			return ModuleID{}, fmt.Errorf("module identifier %q has an empty path segment", s)
		}
	}

	switch len(parts) {
	case 1:
		return New(parts[0]), nil
	case 2:
		return NewSub(parts[0], parts[1]), nil
	default:
		return ModuleID{}, fmt.Errorf("module identifier %q has too many path segments (max 2)", s)
	}
}
