// Package eval applies user expressions and named helpers to ingested data.
//
// An expression is a pipeline of stages separated by '|'. Each stage is
// either a path into the data or the name of a registered helper:
//
//	.items[].price | sum
//	.[0]."user-id"
//	raw | len
package eval

import (
	"context"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/teranos/jolt/errors"
)

// Helper transforms a JSON-compatible value into another one
type Helper func(ctx context.Context, input any) (any, error)

// Evaluator turns ingested data into an output value using the helpers in reg
type Evaluator interface {
	Evaluate(ctx context.Context, data any, reg *Registry) (any, error)
}

// Registry holds named helpers. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	helpers map[string]entry
}

type entry struct {
	fn      Helper
	summary string
}

// NewRegistry returns a registry pre-loaded with the builtin helpers
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	for _, b := range builtins {
		r.helpers[b.name] = entry{fn: b.fn, summary: b.summary}
	}
	return r
}

// NewEmptyRegistry returns a registry with no helpers
func NewEmptyRegistry() *Registry {
	return &Registry{helpers: make(map[string]entry)}
}

// Register adds a helper. Names must be identifiers and may not already exist.
func (r *Registry) Register(name string, fn Helper) error {
	return r.register(name, fn, "")
}

func (r *Registry) register(name string, fn Helper, summary string) error {
	if !isIdent(name) {
		return errors.NewInvalidRequestError("helper name %q is not an identifier", name)
	}
	if fn == nil {
		return errors.NewInvalidRequestError("helper %q has no function", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.helpers[name]; exists {
		return errors.NewInvalidRequestError("helper %q is already registered", name)
	}
	r.helpers[name] = entry{fn: fn, summary: summary}
	return nil
}

// Lookup returns the named helper. Unknown names return an error marked
// errors.ErrHelperNotFound with close matches as a hint.
func (r *Registry) Lookup(name string) (Helper, error) {
	r.mu.RLock()
	e, ok := r.helpers[name]
	r.mu.RUnlock()
	if ok {
		return e.fn, nil
	}

	err := errors.Mark(errors.Newf("unknown helper %q", name), errors.ErrHelperNotFound)
	if s := r.Suggest(name); len(s) > 0 {
		err = errors.WithHintf(err, "did you mean %s?", joinQuoted(s))
	} else {
		err = errors.WithHint(err, "run 'jolt helpers' to list available helpers")
	}
	return nil, err
}

// Names returns every registered helper name, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary returns the one-line description of a helper, if it has one
func (r *Registry) Summary(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.helpers[name].summary
}

// Suggest returns registered names close to name, best match first
func (r *Registry) Suggest(name string) []string {
	names := r.Names()

	ranks := fuzzy.RankFindNormalizedFold(name, names)
	sort.Sort(ranks)

	seen := make(map[string]bool)
	var out []string
	for _, rank := range ranks {
		seen[rank.Target] = true
		out = append(out, rank.Target)
	}
	// Subsequence matching misses typos that add or swap characters
	for _, candidate := range names {
		if !seen[candidate] && fuzzy.LevenshteinDistance(name, candidate) <= 2 {
			out = append(out, candidate)
		}
	}

	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

func joinQuoted(names []string) string {
	s := ""
	for i, n := range names {
		if i > 0 {
			s += ", "
		}
		s += "'" + n + "'"
	}
	return s
}
