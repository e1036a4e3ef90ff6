package optimizer

import "strings"

// PropertySet is an unordered collection of physical properties. The empty
// set requires nothing and is fulfilled by anything.
type PropertySet struct {
	properties []Property
}

// NewPropertySet builds a set from the given properties.
func NewPropertySet(properties ...Property) *PropertySet {
	return &PropertySet{properties: properties}
}

// Properties returns the contained properties. Callers must not mutate.
func (s *PropertySet) Properties() []Property { return s.properties }

// Len returns the number of properties.
func (s *PropertySet) Len() int { return len(s.properties) }

// IsEmpty reports whether the set requires nothing.
func (s *PropertySet) IsEmpty() bool { return len(s.properties) == 0 }

// Add appends a property.
func (s *PropertySet) Add(p Property) { s.properties = append(s.properties, p) }

// Copy returns a copy of the set.
func (s *PropertySet) Copy() *PropertySet {
	return &PropertySet{properties: append([]Property(nil), s.properties...)}
}

// SortProperty returns the contained sort property, or nil.
func (s *PropertySet) SortProperty() *SortProperty {
	for _, p := range s.properties {
		if sp, ok := p.(*SortProperty); ok {
			return sp
		}
	}
	return nil
}

// Hash is order-independent: equal sets hash equal regardless of insertion
// order.
func (s *PropertySet) Hash() uint64 {
	var h uint64 = 14695981039346656037 // FNV offset basis
	for _, p := range s.properties {
		h += p.Hash()
	}
	return h
}

// Equals reports set equality.
func (s *PropertySet) Equals(other *PropertySet) bool {
	if s.Len() != other.Len() {
		return false
	}
	return s.contains(other) && other.contains(s)
}

func (s *PropertySet) contains(other *PropertySet) bool {
	for _, p := range other.properties {
		found := false
		for _, q := range s.properties {
			if q.Equals(p) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Fulfills reports whether every property in required is satisfied by some
// property in s.
func (s *PropertySet) Fulfills(required *PropertySet) bool {
	for _, r := range required.properties {
		satisfied := false
		for _, p := range s.properties {
			if p.Fulfills(r) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

func (s *PropertySet) String() string {
	if s.IsEmpty() {
		return "{}"
	}
	parts := make([]string, len(s.properties))
	for i, p := range s.properties {
		if sp, ok := p.(*SortProperty); ok {
			parts[i] = sp.String()
		} else {
			parts[i] = "?"
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
