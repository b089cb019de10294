package skills

import (
	"sort"
	"sync"
)

// Registry answers whether a named target can accept work.
// Consumers: router.Service
type Registry interface {
	// Has reports whether the named target is available.
	Has(name string) bool

	// Names returns the available target names, sorted.
	Names() []string
}

// StaticRegistry is a fixed set of available targets.
type StaticRegistry struct {
	mu     sync.RWMutex
	skills map[string]*Skill
}

// NewStaticRegistry creates a registry holding the given target names.
func NewStaticRegistry(names ...string) *StaticRegistry {
	r := &StaticRegistry{skills: make(map[string]*Skill)}
	for _, name := range names {
		r.Add(&Skill{Name: name})
	}
	return r
}

// NewRegistryFromSkills creates a registry from discovered skills.
func NewRegistryFromSkills(found map[string]*Skill) *StaticRegistry {
	r := NewStaticRegistry()
	for _, skill := range found {
		r.Add(skill)
	}
	return r
}

// Add registers a target. Empty names are ignored; later entries replace earlier ones.
func (r *StaticRegistry) Add(skill *Skill) {
	if skill == nil || skill.Name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[skill.Name] = skill
}

// Get returns the registered skill by name.
func (r *StaticRegistry) Get(name string) (*Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	skill, ok := r.skills[name]
	return skill, ok
}

// Has implements Registry.
func (r *StaticRegistry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names implements Registry.
func (r *StaticRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered targets.
func (r *StaticRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}

type allowAll struct{}

// AllowAll returns a registry that reports every target as available.
func AllowAll() Registry { return allowAll{} }

func (allowAll) Has(string) bool  { return true }
func (allowAll) Names() []string { return []string{} }

// Filter restricts a registry to names in allowed. An empty allowlist keeps everything.
func Filter(r Registry, allowed []string) Registry {
	if len(allowed) == 0 {
		return r
	}
	out := NewStaticRegistry()
	for _, name := range allowed {
		if r.Has(name) {
			out.Add(&Skill{Name: name})
		}
	}
	return out
}

// Ensure implementations satisfy Registry
var (
	_ Registry = (*StaticRegistry)(nil)
	_ Registry = allowAll{}
)
