package feature

import (
	"errors"
	"slices"
	"strings"
	"sync"
)

// MemorySource is an in-memory Source. It's useful for tests, static
// setups and as a bootstrap source before the first sync.
type MemorySource struct {
	toggles map[string]Definition
	mu      sync.RWMutex
}

// NewMemorySource creates an in-memory source holding copies of defs.
func NewMemorySource(defs ...Definition) (*MemorySource, error) {
	s := &MemorySource{toggles: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		if def.Name == "" {
			return nil, errors.Join(ErrInvalidFlag, errors.New("toggle name cannot be empty"))
		}
		s.toggles[def.Name] = def.Clone()
	}
	return s, nil
}

// GetToggle returns a copy of the named definition.
func (s *MemorySource) GetToggle(name string) (Definition, bool) {
	s.mu.RLock()
	def, ok := s.toggles[name]
	s.mu.RUnlock()

	if !ok {
		return Definition{}, false
	}
	return def.Clone(), true
}

// GetToggles returns copies of all definitions sorted by name.
func (s *MemorySource) GetToggles() []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Definition, 0, len(s.toggles))
	for _, def := range s.toggles {
		result = append(result, def.Clone())
	}
	slices.SortFunc(result, func(a, b Definition) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result
}

// Set creates or replaces a definition.
func (s *MemorySource) Set(def Definition) error {
	if def.Name == "" {
		return errors.Join(ErrInvalidFlag, errors.New("toggle name cannot be empty"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggles[def.Name] = def.Clone()
	return nil
}

// Delete removes a definition.
func (s *MemorySource) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.toggles[name]; !ok {
		return ErrFlagNotFound
	}
	delete(s.toggles, name)
	return nil
}

// Replace swaps the whole definition set.
func (s *MemorySource) Replace(defs []Definition) error {
	next := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return errors.Join(ErrInvalidFlag, errors.New("toggle name cannot be empty"))
		}
		next[def.Name] = def.Clone()
	}

	s.mu.Lock()
	s.toggles = next
	s.mu.Unlock()
	return nil
}
