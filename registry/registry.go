// Package registry implements the process-scoped name-to-token map (C6)
// that lets string-keyed external dialects address token-keyed pipeline
// steps. A Registry's lifetime is independent of any one definition or
// run, matching spec §3: "Registry is process-scoped; lifetime
// independent of any definition."
package registry

import (
	"sync"

	"github.com/Lacoz/virta/pipeline"
	"github.com/Lacoz/virta/verr"
)

// Registry is a read-mostly name→token map. It is safe for concurrent
// use; Register is expected at startup, Resolve during conversion and
// at any time thereafter (the teacher's engine.Add/nodes map is the
// closest analogue, generalized here to be independent of any single
// Engine/Definition instance).
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]pipeline.Token
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]pipeline.Token)}
}

// Register associates name with token. Re-registering the same name
// with a different token is rejected; re-registering the same name with
// the identical token is a harmless no-op, which keeps idempotent
// package-init registration simple.
func (r *Registry) Register(name string, token pipeline.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[name]; ok {
		if existing == token {
			return nil
		}
		return verr.New(verr.KindDuplicateRegistration, "name already registered to a different token", name)
	}
	r.byName[name] = token
	return nil
}

// Resolve looks up the token registered under name.
func (r *Registry) Resolve(name string) (pipeline.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.byName[name]
	if !ok {
		return nil, verr.New(verr.KindUnknownStep, "no step registered under this name", name)
	}
	return token, nil
}

// Name performs the reverse lookup a D→N conversion needs: given a
// token, find the name it was registered under. Returns
// verr.KindUnregisteredToken if no name maps to token. This is O(n) in
// the registry's size; registries are expected to be small and
// process-lifetime, so this trades lookup speed for not maintaining a
// second index that could drift from byName.
func (r *Registry) Name(token pipeline.Token) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, t := range r.byName {
		if t == token {
			return name, nil
		}
	}
	return "", verr.New(verr.KindUnregisteredToken, "token was not registered under any name", "")
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok
}
