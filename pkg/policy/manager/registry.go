// Package manager loads rule and message files into engine snapshots and
// keeps them fresh: group resolution, @import splicing, transactional reload
// and filesystem watching.
package manager

import (
	"sync"

	"mineguard/warden/pkg/rulelang/ast"
	rlErrors "mineguard/warden/pkg/rulelang/errors"
)

// Registry holds the reusable groups of one load pass. Group names are
// unique; a duplicate definition fails the load.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*ast.Group
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*ast.Group)}
}

// Define registers a group. Defining a name twice is an error.
func (r *Registry) Define(group ast.Group) *rlErrors.Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.groups[group.Name]; ok {
		return rlErrors.Semanticf(group.File, group.Line,
			"group %q already defined at %s:%d", group.Name, existing.File, existing.Line)
	}
	r.groups[group.Name] = &group
	return nil
}

// Resolve looks a group up by name.
func (r *Registry) Resolve(name, file string, line int) (*ast.Group, *rlErrors.Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group, ok := r.groups[name]
	if !ok {
		return nil, rlErrors.Semanticf(file, line, "unknown group %q", name)
	}
	return group, nil
}

// Names returns the defined group names, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	return names
}
