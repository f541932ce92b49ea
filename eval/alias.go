package eval

import (
	"context"
	"sort"

	"github.com/teranos/jolt/errors"
)

// maxAliasDepth bounds nested alias calls
const maxAliasDepth = 32

type aliasDepthKey struct{}

// RegisterAliases compiles each expression in aliases and registers it as a
// helper under its name. Aliases may call builtins and each other in any
// order; every name they call must resolve once all are registered.
func RegisterAliases(reg *Registry, aliases map[string]string) error {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	compiled := make(map[string]*Expression, len(names))
	for _, name := range names {
		x, err := Compile(aliases[name])
		if err != nil {
			return errors.Wrapf(err, "helper alias %q", name)
		}
		compiled[name] = x
		if err := reg.register(name, aliasHelper(name, x, reg), "alias for "+x.String()); err != nil {
			return err
		}
	}

	for _, name := range names {
		if err := compiled[name].Check(reg); err != nil {
			return errors.Wrapf(err, "helper alias %q", name)
		}
	}
	return nil
}

func aliasHelper(name string, x *Expression, reg *Registry) Helper {
	return func(ctx context.Context, input any) (any, error) {
		depth, _ := ctx.Value(aliasDepthKey{}).(int)
		if depth >= maxAliasDepth {
			return nil, errors.Newf("helper alias %q recursed more than %d times", name, maxAliasDepth)
		}
		ctx = context.WithValue(ctx, aliasDepthKey{}, depth+1)
		return x.Evaluate(ctx, input, reg)
	}
}
