package poet

// Store exposes poet retrieval for the generation service.
type Store interface {
	List() []Poet
	FindByName(name string) (Poet, bool)
}

// MemoryStore implements Store with an in-memory slice. The roster is
// immutable for the process lifetime.
type MemoryStore struct {
	items []Poet
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied poets.
func NewMemoryStore(items []Poet) *MemoryStore {
	return &MemoryStore{items: append([]Poet(nil), items...)}
}

// List returns the configured poet roster.
func (s *MemoryStore) List() []Poet {
	return append([]Poet(nil), s.items...)
}

// FindByName looks up a poet by display name.
func (s *MemoryStore) FindByName(name string) (Poet, bool) {
	for _, item := range s.items {
		if item.Name == name {
			return item, true
		}
	}
	return Poet{}, false
}
