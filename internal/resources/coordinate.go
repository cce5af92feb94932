// Package resources resolves pinned documentation resource bundles
// (CSS/JS assets) from configured artifact repositories and extracts them
// into the build tree.
package resources

import (
	"fmt"
	"strings"
)

// Coordinate identifies an artifact as group:name:version.
type Coordinate struct {
	Group   string
	Name    string
	Version string
}

// ParseCoordinate parses the group:name:version string form.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: want group:name:version", s)
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return Coordinate{}, fmt.Errorf("invalid coordinate %q: empty component", s)
		}
	}
	return Coordinate{Group: parts[0], Name: parts[1], Version: parts[2]}, nil
}

// String returns the group:name:version form.
func (c Coordinate) String() string {
	return c.Group + ":" + c.Name + ":" + c.Version
}
