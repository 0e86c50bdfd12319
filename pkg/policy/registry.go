package policy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownPolicy = errors.New("policy: unknown policy")

// Registry resolves policies by id. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]Policy
}

func NewRegistry(policies ...Policy) (*Registry, error) {
	r := &Registry{byID: make(map[string]Policy, len(policies))}
	for _, p := range policies {
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Add(p Policy) error {
	if p.ID == "" {
		return fmt.Errorf("policy: missing id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[p.ID]; dup {
		return fmt.Errorf("policy: duplicate id %q", p.ID)
	}
	r.byID[p.ID] = p
	return nil
}

func (r *Registry) Policy(_ context.Context, id string) (Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return Policy{}, fmt.Errorf("%w %q", ErrUnknownPolicy, id)
	}
	return p, nil
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
