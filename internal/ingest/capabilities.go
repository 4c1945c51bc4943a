package ingest

import (
	"os/exec"
	"sort"
	"strings"
)

// LookPathFunc resolves an executable name, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Capabilities records which strategies can run on this host. It is built
// once at startup and only read afterwards.
type Capabilities struct {
	available map[string]bool
	reasons   map[string]string
	binaries  map[string]string
}

// DetectCapabilities probes every strategy once. A strategy is unavailable
// when its name is in disabled, or when it implements Requirer and none of
// its executables can be found. A nil lookPath uses exec.LookPath.
func DetectCapabilities(strategies []Strategy, disabled []string, lookPath LookPathFunc) *Capabilities {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	off := make(map[string]bool, len(disabled))
	for _, d := range disabled {
		off[strings.ToLower(strings.TrimSpace(d))] = true
	}

	c := &Capabilities{
		available: make(map[string]bool, len(strategies)),
		reasons:   make(map[string]string),
		binaries:  make(map[string]string),
	}
	for _, s := range strategies {
		name := s.Name()
		if off[name] {
			c.available[name] = false
			c.reasons[name] = "disabled by configuration"
			continue
		}
		r, ok := s.(Requirer)
		if !ok {
			c.available[name] = true
			continue
		}
		c.available[name] = false
		c.reasons[name] = "none of " + strings.Join(r.Requires(), ", ") + " found in PATH"
		for _, bin := range r.Requires() {
			if path, err := lookPath(bin); err == nil {
				c.available[name] = true
				c.binaries[name] = path
				delete(c.reasons, name)
				break
			}
		}
	}
	return c
}

// AllAvailable returns Capabilities that report every name as available.
func AllAvailable() *Capabilities {
	return &Capabilities{}
}

// IsAvailable reports whether the named strategy may be invoked. Names
// that were never probed are unavailable, except for AllAvailable.
func (c *Capabilities) IsAvailable(name string) bool {
	if c == nil || c.available == nil {
		return true
	}
	return c.available[name]
}

// Reason explains why a strategy is unavailable.
func (c *Capabilities) Reason(name string) string {
	if c == nil {
		return ""
	}
	return c.reasons[name]
}

// Binary returns the resolved executable for a command-backed strategy.
func (c *Capabilities) Binary(name string) string {
	if c == nil {
		return ""
	}
	return c.binaries[name]
}

// Unavailable lists the unavailable strategy names, sorted.
func (c *Capabilities) Unavailable() []string {
	if c == nil {
		return nil
	}
	var out []string
	for name, ok := range c.available {
		if !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
