package model

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-prologue/engine/cache"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-prologue/engine/scene"
)

// Context carries what a factory needs to build a model.
type Context struct {
	// Scene is the scene the model will be attached to. Factories must not add to it.
	Scene scene.Scene
	// Renderer uploads the model's geometry.
	Renderer renderer.Renderer
	// PerformanceMode asks for lighter geometry.
	PerformanceMode bool
	// Materials is the material cache shared across models. May be nil.
	Materials *cache.Store[string, material.Material]
	// Page is the narrative page the model is built for.
	Page int
}

// Factory builds the mesh for a model archetype.
type Factory interface {
	// CreateModel builds and uploads a mesh.
	//
	// Parameters:
	//   - ctx: cancelled when nobody is waiting for the result any more
	//   - t: the archetype to build
	//   - mc: scene, renderer, performance mode and shared materials
	//
	// Returns:
	//   - Mesh: the new mesh, owned by the caller
	//   - error: a classified *Error where the failure kind is known
	CreateModel(ctx context.Context, t Type, mc Context) (Mesh, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, t Type, mc Context) (Mesh, error)

// CreateModel calls f.
func (f FactoryFunc) CreateModel(ctx context.Context, t Type, mc Context) (Mesh, error) {
	return f(ctx, t, mc)
}

// Registry dispatches construction to the factory registered for each archetype.
// Thread-safe for concurrent access.
type Registry struct {
	mu        *sync.RWMutex
	factories map[Type]Factory
}

var _ Factory = &Registry{}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:        &sync.RWMutex{},
		factories: make(map[Type]Factory),
	}
}

// DefaultRegistry returns a Registry with the procedural factory for every archetype.
//
// Returns:
//   - *Registry: a new registry; callers may override entries
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeEmblem, FactoryFunc(createEmblem))
	r.Register(TypePlanet, FactoryFunc(createPlanet))
	r.Register(TypeParasite, FactoryFunc(createParasite))
	r.Register(TypeTerrain, FactoryFunc(createTerrain))
	return r
}

// Register binds f to t, replacing any earlier binding.
func (r *Registry) Register(t Type, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[t] = f
}

// Lookup returns the factory bound to t.
func (r *Registry) Lookup(t Type) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[t]
	return f, ok
}

// Types returns the registered archetypes in ascending order.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// CreateModel builds t with its registered factory.
//
// Returns:
//   - error: a KindNotFound *Error when no factory is registered for t
func (r *Registry) CreateModel(ctx context.Context, t Type, mc Context) (Mesh, error) {
	f, ok := r.Lookup(t)
	if !ok {
		return nil, NewError(KindNotFound, "create "+t.String(), fmt.Errorf("no factory registered for %s", t))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.CreateModel(ctx, t, mc)
}
