package provider

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"unity/internal/contentid"
)

// Registry is the read-only set of providers, indexed by ID prefix.
type Registry struct {
	providers []Provider
	byPrefix  map[string]Provider
}

// NewRegistry rejects nil providers and empty or duplicate prefixes.
func NewRegistry(providers ...Provider) (*Registry, error) {
	byPrefix := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("provider must not be nil")
		}
		prefix := strings.TrimSpace(p.Prefix())
		if prefix == "" {
			return nil, fmt.Errorf("provider %q has an empty prefix", p.Name())
		}
		if other, ok := byPrefix[prefix]; ok {
			return nil, fmt.Errorf("duplicate prefix %q for %q and %q", prefix, other.Name(), p.Name())
		}
		byPrefix[prefix] = p
	}
	return &Registry{providers: providers, byPrefix: byPrefix}, nil
}

// Providers returns the providers in registration order.
func (r *Registry) Providers() []Provider {
	return r.providers
}

// Prefixes returns the registered prefixes in registration order.
func (r *Registry) Prefixes() []string {
	return lo.Map(r.providers, func(p Provider, _ int) string { return p.Prefix() })
}

// Lookup finds the provider owning id and returns id without its prefix.
// The longest matching prefix wins.
func (r *Registry) Lookup(id string) (Provider, string, error) {
	var (
		match Provider
		bare  string
	)
	for prefix, p := range r.byPrefix {
		rest, ok := contentid.StripPrefix(id, prefix)
		if !ok {
			continue
		}
		if match == nil || len(prefix) > len(match.Prefix()) {
			match, bare = p, rest
		}
	}
	if match == nil {
		return nil, "", fmt.Errorf("%w %q", ErrUnknownPrefix, id)
	}
	return match, bare, nil
}

// ByCatalog returns the provider publishing the catalog with the given ID.
func (r *Registry) ByCatalog(catalogID string) (Provider, bool) {
	return lo.Find(r.providers, func(p Provider) bool {
		return p.Catalog().ID == catalogID
	})
}
