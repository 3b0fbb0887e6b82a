// Package sim runs diet-constrained simulations of sample community models:
// a feasibility solve of the community growth objective followed by flux
// variability analysis over the diet and fecal exchange reactions, aggregated
// into per-metabolite net production and uptake profiles.
//
// The LP solver itself is an external collaborator. Backends register under a
// name and are selected at runtime, so the pipeline never links a particular
// solver library.
package sim

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gutcom/pkg/gem"
)

// Status reports how an optimization terminated.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusError      Status = "error"
)

// Problem is one linear program: the network's stoichiometry and bounds, the
// sample coupling system, and the reaction to maximize.
type Problem struct {
	Model     *gem.Model
	Coupling  *gem.CouplingSystem
	Objective string
}

// Solution is the outcome of a single optimization.
type Solution struct {
	Status    Status
	Objective float64
	Fluxes    map[string]float64
}

// FluxRange is the feasible interval of one reaction's flux under the
// near-optimal constraint of a flux variability analysis.
type FluxRange struct {
	Min float64
	Max float64
}

// Solver is a linear-programming backend.
type Solver interface {
	// Optimize maximizes the problem's objective reaction.
	Optimize(ctx context.Context, p Problem) (Solution, error)
	// FluxVariability computes min/max flux for each listed reaction while
	// holding the objective at fraction of its optimum.
	FluxVariability(ctx context.Context, p Problem, reactions []string, fraction float64) (map[string]FluxRange, error)
}

// Opener constructs a solver backend.
type Opener func() (Solver, error)

var (
	solversMu sync.RWMutex
	solvers   = map[string]Opener{}
)

// Register makes a solver backend available under the given name. It panics
// on a duplicate name, mirroring database/sql driver registration.
func Register(name string, open Opener) {
	solversMu.Lock()
	defer solversMu.Unlock()
	if open == nil {
		panic("sim: Register opener is nil")
	}
	if _, dup := solvers[name]; dup {
		panic("sim: Register called twice for solver " + name)
	}
	solvers[name] = open
}

// Open constructs the named solver backend. An empty name falls back to the
// GUTCOM_SOLVER environment variable.
func Open(name string) (Solver, error) {
	if name == "" {
		name = os.Getenv("GUTCOM_SOLVER")
	}
	solversMu.RLock()
	open, ok := solvers[name]
	solversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown solver %q (registered: %v)", name, Solvers())
	}
	return open()
}

// Solvers lists the registered backend names, sorted.
func Solvers() []string {
	solversMu.RLock()
	defer solversMu.RUnlock()
	names := make([]string, 0, len(solvers))
	for name := range solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
