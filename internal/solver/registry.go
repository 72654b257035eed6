package solver

import (
	"fmt"
	"sort"
)

type Registry struct {
	solvers map[string]func() Solver
}

func NewRegistry() *Registry {
	r := &Registry{solvers: make(map[string]func() Solver)}
	r.solvers["pkn"] = func() Solver { return NewPKN() }
	return r
}

// Register adds or replaces a named solver.
func (r *Registry) Register(name string, fn func() Solver) {
	r.solvers[name] = fn
}

func (r *Registry) Get(name string) (Solver, error) {
	fn, ok := r.solvers[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s (available: %v)", name, r.Names())
	}
	return fn(), nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
