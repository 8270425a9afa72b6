package litconfig

import (
	"fmt"
	"sync"
)

// Loader populates cfg (a fresh frame for a suite's site/root config,
// or a clone of the parent frame for a local config) from a
// discovered config file, reporting a FatalError for unrecoverable
// problems. It stands in for the source's exec()'d Python config
// script: a named, registered Go function plays the role of a config
// file written in the host language.
type Loader func(cfg *TestingConfig, lit *LitConfig) error

// LoaderRegistry maps a config loader name — by default the config
// file's base name, unless a ConfigMap remaps it — to a Loader
// function, grounded on the teacher's parser registry.
type LoaderRegistry struct {
	mu      sync.RWMutex
	loaders map[string]Loader
}

// NewLoaderRegistry returns an empty registry.
func NewLoaderRegistry() *LoaderRegistry {
	return &LoaderRegistry{loaders: map[string]Loader{}}
}

// Register adds a named loader. It returns an error if the name is
// already registered.
func (r *LoaderRegistry) Register(name string, fn Loader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loaders[name]; exists {
		return fmt.Errorf("litconfig: loader %q already registered", name)
	}
	r.loaders[name] = fn
	return nil
}

// Get looks up a loader by name.
func (r *LoaderRegistry) Get(name string) (Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.loaders[name]
	return fn, ok
}

// Load runs the named loader against cfg, returning a FatalError if no
// loader is registered under that name.
func (r *LoaderRegistry) Load(name string, cfg *TestingConfig, lit *LitConfig) error {
	fn, ok := r.Get(name)
	if !ok {
		return &FatalError{Msg: fmt.Sprintf("no config loader registered for %q", name)}
	}
	return fn(cfg, lit)
}

// DefaultLoaders is the process-wide loader registry, consulted by
// discovery when its Options name no registry of their own.
var DefaultLoaders = NewLoaderRegistry()
