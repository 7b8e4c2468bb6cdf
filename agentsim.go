// Package agentsim provides a high-level façade over the simulation kernel
// (world, environment, messager & state machines) enabling rapid
// construction of agent-based simulations. Most applications interact with
// this package by:
//  1. Creating a Simulation via New() around a Ledger implementation
//  2. Adding agents programmatically (AddAgent) or declaratively
//     (BuildFromConfig with the built-in behavior registry)
//  3. Running the world to completion (Run) and inspecting the RunReport
//
// The façade delegates orchestration to world.World while keeping setup
// and usage ergonomics concise. Defaults are safe for local development
// and testing; production use typically supplies a structured logger.
package agentsim

import (
	"context"

	"github.com/hupe1980/agentsim/behaviors"
	"github.com/hupe1980/agentsim/core"
	"github.com/hupe1980/agentsim/logging"
	"github.com/hupe1980/agentsim/world"
)

// Options configures the Simulation instance.
type Options struct {
	// WorldID labels the world in logs and reports.
	WorldID string

	// Registry resolves behavior kind tags during declarative builds.
	// Defaults to the built-in behaviors registry.
	Registry world.Registry

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Simulation is the high-level façade aggregating the world and its
// declarative build registry.
type Simulation struct {
	opts  Options
	world *world.World
}

// New creates a new Simulation around the given ledger with optional
// overrides.
func New(ledger core.Ledger, optFns ...func(o *Options)) *Simulation {
	opts := Options{
		WorldID:  "world",
		Registry: behaviors.Registry(),
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	w := world.New(opts.WorldID, ledger, func(o *world.Options) {
		o.Logger = opts.Logger
	})

	return &Simulation{opts: opts, world: w}
}

// World exposes the underlying world for advanced use.
func (s *Simulation) World() *world.World { return s.world }

// AddAgent registers an agent with the underlying world.
func (s *Simulation) AddAgent(id string, behavior core.Behavior) error {
	return s.world.AddAgent(id, behavior)
}

// BuildFromConfig populates the world from a declarative TOML description
// using the configured registry.
func (s *Simulation) BuildFromConfig(path string) error {
	return s.world.BuildFromConfig(path, s.opts.Registry)
}

// Run starts every agent and the environment worker concurrently and
// blocks until every agent halted.
func (s *Simulation) Run(ctx context.Context) (*world.RunReport, error) {
	if sl, ok := s.opts.Logger.(*logging.SimLogger); ok {
		defer sl.StartTimer("world.run")()
	}
	return s.world.Run(ctx)
}
