package project

// Configuration is a named list of dependency coordinates. Default
// coordinates apply only when no explicit dependency was added, matching
// the usual build-system defaulting contract.
type Configuration struct {
	name     string
	deps     []string
	defaults []string
}

// Name returns the configuration name.
func (c *Configuration) Name() string { return c.name }

// Add appends an explicit dependency coordinate.
func (c *Configuration) Add(coord string) {
	c.deps = append(c.deps, coord)
}

// DefaultDependencies replaces the default coordinate list. Safe to call
// repeatedly; the last call wins.
func (c *Configuration) DefaultDependencies(coords ...string) {
	c.defaults = coords
}

// Dependencies resolves to the explicit coordinates, or the defaults when
// none were added.
func (c *Configuration) Dependencies() []string {
	if len(c.deps) > 0 {
		return c.deps
	}
	return c.defaults
}
