package executor

// Source is the record provider a plan executes against.
type Source interface {
	// Records returns every record whose concrete storage type is exactly
	// the given type. Scanning a polymorphic base unions the base with its
	// derived types; the executor drives that using the storage model.
	Records(storage string) ([]*Record, error)

	// Related resolves a navigation of a record, reporting the linked
	// records and whether the navigation is to-many.
	Related(rec *Record, navigation string) ([]*Record, bool, error)
}

// MemorySource is the in-process Source: records are registered up front
// with their navigations already linked.
type MemorySource struct {
	byStorage map[string][]*Record
}

// NewMemorySource creates an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{byStorage: make(map[string][]*Record)}
}

// Add registers records under their concrete storage types.
func (s *MemorySource) Add(records ...*Record) *MemorySource {
	for _, r := range records {
		s.byStorage[r.Storage] = append(s.byStorage[r.Storage], r)
	}
	return s
}

// Records implements Source.
func (s *MemorySource) Records(storage string) ([]*Record, error) {
	return s.byStorage[storage], nil
}

// Related implements Source. Unlinked navigations resolve to empty to-one.
func (s *MemorySource) Related(rec *Record, navigation string) ([]*Record, bool, error) {
	recs, toMany, _ := rec.Related(navigation)
	return recs, toMany, nil
}
