package world

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/hupe1980/agentsim/core"
)

// AgentConfig is one declarative agent entry: a stable identity, the
// behavior kind tag resolved through a Registry, and the kind-specific
// configuration block decoded lazily by the factory.
type AgentConfig struct {
	ID       string         `toml:"id"`
	Behavior string         `toml:"behavior"`
	Config   toml.Primitive `toml:"config"`
}

// Config is the declarative description of a world: a static agent list
// populating it before Run.
type Config struct {
	Agents []AgentConfig `toml:"agents"`
}

// BehaviorFactory builds a Behavior from its raw TOML configuration block.
type BehaviorFactory func(md *toml.MetaData, prim toml.Primitive) (core.Behavior, error)

// Registry maps behavior kind tags to factories. Kind selection lives here,
// outside the kernel: the state machine only ever sees the Behavior
// interface.
type Registry map[string]BehaviorFactory

// BuildFromConfig populates the world from a TOML file. Entries are added
// in file order; the first failing entry aborts the build.
func (w *World) BuildFromConfig(path string, registry Registry) error {
	var cfg Config

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fmt.Errorf("decode world config %s: %w", path, err)
	}

	return w.build(&md, cfg, registry)
}

// Build populates the world from an already-decoded Config.
func (w *World) Build(md *toml.MetaData, cfg Config, registry Registry) error {
	return w.build(md, cfg, registry)
}

func (w *World) build(md *toml.MetaData, cfg Config, registry Registry) error {
	for _, entry := range cfg.Agents {
		factory, ok := registry[entry.Behavior]
		if !ok {
			return fmt.Errorf("agent %q: unknown behavior kind %q", entry.ID, entry.Behavior)
		}

		behavior, err := factory(md, entry.Config)
		if err != nil {
			return fmt.Errorf("agent %q: build behavior %q: %w", entry.ID, entry.Behavior, err)
		}

		if err := w.AddAgent(entry.ID, behavior); err != nil {
			return err
		}
	}

	return nil
}
