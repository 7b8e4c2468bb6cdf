package behaviors

import (
	"github.com/BurntSushi/toml"

	"github.com/hupe1980/agentsim/core"
	"github.com/hupe1980/agentsim/world"
)

// decodeInto builds a factory that decodes the agent's config block into a
// fresh behavior value.
func decodeInto[T any, PT interface {
	*T
	core.Behavior
}]() world.BehaviorFactory {
	return func(md *toml.MetaData, prim toml.Primitive) (core.Behavior, error) {
		b := PT(new(T))
		if err := md.PrimitiveDecode(prim, b); err != nil {
			return nil, err
		}
		return b, nil
	}
}

// Registry returns the default behavior registry keyed by kind tag, for
// use with world.BuildFromConfig.
func Registry() world.Registry {
	return world.Registry{
		"minter":          decodeInto[Minter](),
		"watcher":         decodeInto[Watcher](),
		"timed_messenger": decodeInto[TimedMessenger](),
		"token_admin":     decodeInto[TokenAdmin](),
		"token_requester": decodeInto[TokenRequester](),
	}
}
