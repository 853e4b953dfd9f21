// Package engines implements the pluggable VRP solver engines (§4.7):
// metaheuristic routing, mathematical-programming, and coordinate-mode tour
// optimization, all behind one Engine interface so the Dispatch Facade never
// branches on engine type.
package engines

import (
	"context"

	"github.com/vrprouting/vrp-service/internal/vrp"
	"github.com/vrprouting/vrp-service/pkg/apperror"
)

// Engine produces a Routes set from a normalized SolveRequest. No engine
// implementation inspects another's fields via reflection or signature
// probing — every engine receives the same *vrp.SolveRequest and ignores
// the fields it doesn't use.
type Engine interface {
	Solve(ctx context.Context, req *vrp.SolveRequest) (*vrp.Routes, error)
}

// errEngine wraps an engine-internal failure, preserving the engine's name
// and expected call signature for diagnosability, per §7 EngineInternal.
func errEngine(name, detail string) *apperror.Error {
	return apperror.New(apperror.CodeEngineInternal,
		name+": "+detail+" (expected Solve(ctx, *vrp.SolveRequest) (*vrp.Routes, error))")
}

// errTransientStop reports an engine that stopped before an
// integer-feasible solution, with a remediation hint.
func errTransientStop(name, detail string) *apperror.Error {
	return apperror.New(apperror.CodeTransientEngineStop,
		name+": "+detail+"; consider increasing time_limit")
}

// errInfeasible reports an instance the engine proved has no feasible
// assignment, as opposed to one it merely ran out of time on.
func errInfeasible(name, detail string) *apperror.Error {
	return apperror.New(apperror.CodeInfeasibleInstance, name+": "+detail)
}
