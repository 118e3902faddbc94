package loader

import "github.com/yourorg/mapsearch/pkg/listing"

// LiveSet is the deduplicated, insertion-ordered set of listings held by a
// map client, bounded to max entries. When full, the oldest inserted
// listings are evicted first.
type LiveSet struct {
	order []string
	byKey map[string]listing.Listing
	max   int
}

func NewLiveSet(max int) *LiveSet {
	return &LiveSet{byKey: map[string]listing.Listing{}, max: max}
}

// Merge adds listings whose key is not yet present; an existing entry is
// kept on conflict. It returns how many listings were added.
func (s *LiveSet) Merge(batch []listing.Listing) int {
	added := 0
	for _, l := range batch {
		if _, ok := s.byKey[l.ListingKey]; ok {
			continue
		}
		s.byKey[l.ListingKey] = l
		s.order = append(s.order, l.ListingKey)
		added++
	}
	s.trim()
	return added
}

// Replace discards the current contents and loads batch.
func (s *LiveSet) Replace(batch []listing.Listing) {
	s.Clear()
	s.Merge(batch)
}

func (s *LiveSet) Clear() {
	s.order = nil
	s.byKey = map[string]listing.Listing{}
}

func (s *LiveSet) Len() int { return len(s.order) }

func (s *LiveSet) Has(key string) bool {
	_, ok := s.byKey[key]
	return ok
}

// Listings returns the listings oldest first.
func (s *LiveSet) Listings() []listing.Listing {
	out := make([]listing.Listing, len(s.order))
	for i, k := range s.order {
		out[i] = s.byKey[k]
	}
	return out
}

func (s *LiveSet) trim() {
	over := len(s.order) - s.max
	if s.max <= 0 || over <= 0 {
		return
	}
	for _, k := range s.order[:over] {
		delete(s.byKey, k)
	}
	s.order = append([]string(nil), s.order[over:]...)
}
