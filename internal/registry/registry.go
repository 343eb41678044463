// Package registry provides the registry of AI policy presets.
// A Registry is constructed explicitly at startup and passed to the services
// that need it; there is no package-level instance.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/popshot/internal/ai"
)

// Factory creates a fresh policy for one session. The seed gives the policy
// its own deterministic RNG stream.
type Factory func(params ai.Params, seed int64) ai.Policy

// PresetInfo contains metadata about a registered preset.
type PresetInfo struct {
	Key         ai.PresetKey
	Description string
}

// Registry maps preset keys to policy factories. Safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	factories    map[ai.PresetKey]Factory
	descriptions map[ai.PresetKey]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		factories:    make(map[ai.PresetKey]Factory),
		descriptions: make(map[ai.PresetKey]string),
	}
}

// NewWithPresets creates a registry holding the built-in presets.
func NewWithPresets() *Registry {
	r := New()
	heuristic := func(params ai.Params, seed int64) ai.Policy {
		return ai.NewHeuristic(params, seed)
	}
	r.Register(ai.PresetAggressive, "Fires often, moves reactively toward the nearest target", heuristic)
	r.Register(ai.PresetDefensive, "Evades threats first, shoots the lowest target when safe", heuristic)
	r.Register(ai.PresetStationary, "Minimal movement around the start position", heuristic)
	r.Register(ai.PresetChaotic, "Sound decisions with random deviations", heuristic)
	r.Register(ai.PresetIdle, "Never acts", func(ai.Params, int64) ai.Policy {
		return ai.IdlePolicy{}
	})
	return r
}

// Register adds a policy factory.
// Panics if a preset with the same key is already registered.
func (r *Registry) Register(key ai.PresetKey, description string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[key]; exists {
		panic(fmt.Sprintf("registry: preset %q already registered", key))
	}

	r.factories[key] = f
	r.descriptions[key] = description
}

// List returns information about all registered presets, sorted by key.
func (r *Registry) List() []PresetInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]PresetInfo, 0, len(r.factories))
	for key := range r.factories {
		result = append(result, PresetInfo{
			Key:         key,
			Description: r.descriptions[key],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Create instantiates a policy for a preset with the given parameters.
// Returns an error if the preset is not registered.
func (r *Registry) Create(key ai.PresetKey, params ai.Params, seed int64) (ai.Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[key]
	if !ok {
		return nil, fmt.Errorf("registry: unknown preset %q", key)
	}

	return f(params, seed), nil
}

// ForPersona creates the policy a persona plays with.
func (r *Registry) ForPersona(p ai.Persona, seed int64) (ai.Policy, error) {
	return r.Create(p.Preset, p.Params(), seed)
}

// Exists checks if a preset with the given key is registered.
func (r *Registry) Exists(key ai.PresetKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[key]
	return ok
}
