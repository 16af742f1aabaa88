package pipeline

import "sjsage522/catalogworker/internal/catalog"

// Store holds one record per identifier and remembers first-sighting order
type Store struct {
	records map[string]*catalog.Record
	order   []string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{records: make(map[string]*catalog.Record)}
}

// Get returns the record stored under id
func (s *Store) Get(id string) (*catalog.Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Put stores r under its ID, replacing any previous record
func (s *Store) Put(r *catalog.Record) {
	if _, ok := s.records[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.records[r.ID] = r
}

// Len returns the number of stored identifiers
func (s *Store) Len() int {
	return len(s.order)
}

// Records returns the stored records in first-sighting order
func (s *Store) Records() []*catalog.Record {
	out := make([]*catalog.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}
