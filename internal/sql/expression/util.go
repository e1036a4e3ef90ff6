package expression

// CollectColumnValues appends every ColumnValue reference under e to out,
// in depth-first order.
func CollectColumnValues(e *AbstractExpression, out *[]*AbstractExpression) {
	if e == nil {
		return
	}
	if e.typ == ColumnValue {
		*out = append(*out, e)
		return
	}
	for _, c := range e.children {
		CollectColumnValues(c, out)
	}
}

// ColumnValuesOf returns the ColumnValue references under e.
func ColumnValuesOf(e *AbstractExpression) []*AbstractExpression {
	var out []*AbstractExpression
	CollectColumnValues(e, &out)
	return out
}

// CollectAggregates appends every aggregate invocation under e to out.
func CollectAggregates(e *AbstractExpression, out *[]*AbstractExpression) {
	if e == nil {
		return
	}
	if e.typ.IsAggregate() {
		*out = append(*out, e)
		return
	}
	for _, c := range e.children {
		CollectAggregates(c, out)
	}
}

// ContainsAggregate reports whether any aggregate invocation appears under e.
func ContainsAggregate(e *AbstractExpression) bool {
	if e == nil {
		return false
	}
	if e.typ.IsAggregate() {
		return true
	}
	for _, c := range e.children {
		if ContainsAggregate(c) {
			return true
		}
	}
	return false
}

// ReferencedAliases returns the set of table aliases referenced under e.
func ReferencedAliases(e *AbstractExpression) map[string]struct{} {
	out := make(map[string]struct{})
	for _, cv := range ColumnValuesOf(e) {
		if cv.TableAlias() != "" {
			out[cv.TableAlias()] = struct{}{}
		}
	}
	return out
}

// DeriveDepth returns the minimum depth of any ColumnValue under e, or -1
// when none carries a depth. A predicate whose depth differs from one of its
// comparison children straddles a subquery boundary.
func DeriveDepth(e *AbstractExpression) int {
	depth := -1
	for _, cv := range ColumnValuesOf(e) {
		d := cv.Depth()
		if d < 0 {
			continue
		}
		if depth < 0 || d < depth {
			depth = d
		}
	}
	return depth
}
