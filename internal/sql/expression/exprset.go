package expression

// ExprSet is an ordered set of expressions deduplicated by structural
// equality. Insertion order is preserved so downstream derivations stay
// deterministic.
type ExprSet struct {
	exprs []*AbstractExpression
}

// NewExprSet creates a set seeded with the given expressions.
func NewExprSet(exprs ...*AbstractExpression) *ExprSet {
	s := &ExprSet{}
	for _, e := range exprs {
		s.Add(e)
	}
	return s
}

// Add inserts e unless an equal expression is already present. Returns true
// if inserted.
func (s *ExprSet) Add(e *AbstractExpression) bool {
	if e == nil || s.Contains(e) {
		return false
	}
	s.exprs = append(s.exprs, e)
	return true
}

// AddAll inserts every expression from other.
func (s *ExprSet) AddAll(other *ExprSet) {
	if other == nil {
		return
	}
	for _, e := range other.exprs {
		s.Add(e)
	}
}

// Contains reports whether an equal expression is present.
func (s *ExprSet) Contains(e *AbstractExpression) bool {
	for _, x := range s.exprs {
		if x.Equals(e) {
			return true
		}
	}
	return false
}

// Len returns the number of expressions.
func (s *ExprSet) Len() int { return len(s.exprs) }

// Slice returns the expressions in insertion order. Callers must not mutate.
func (s *ExprSet) Slice() []*AbstractExpression { return s.exprs }

// Copy returns a shallow copy of the set.
func (s *ExprSet) Copy() *ExprSet {
	return &ExprSet{exprs: append([]*AbstractExpression(nil), s.exprs...)}
}
