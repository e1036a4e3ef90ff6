package optimizer

// GroupExpression is the internal memo form: an operator whose children are
// group ids referring to sibling equivalence classes.
type GroupExpression struct {
	Op          Operator
	ChildGroups []GroupID

	group    GroupID
	explored uint64 // bitmask indexed by RuleType
	physical bool
}

func newGroupExpression(op Operator, children []GroupID) *GroupExpression {
	return &GroupExpression{
		Op:          op,
		ChildGroups: children,
		group:       UndefinedGroup,
		physical:    op.Type().IsPhysical(),
	}
}

// Group returns the owning group id.
func (g *GroupExpression) Group() GroupID { return g.group }

// ChildCount returns the number of child groups.
func (g *GroupExpression) ChildCount() int { return len(g.ChildGroups) }

// ChildGroup returns the i-th child group id.
func (g *GroupExpression) ChildGroup(i int) GroupID { return g.ChildGroups[i] }

// IsPhysical reports whether the expression's operator is physical.
func (g *GroupExpression) IsPhysical() bool { return g.physical }

// IsLogical reports whether the expression's operator is logical.
func (g *GroupExpression) IsLogical() bool { return !g.physical }

// HasExplored reports whether the rule already fired on this expression.
func (g *GroupExpression) HasExplored(rt RuleType) bool {
	return g.explored&(1<<uint(rt)) != 0
}

// SetExplored marks the rule as fired on this expression.
func (g *GroupExpression) SetExplored(rt RuleType) {
	g.explored |= 1 << uint(rt)
}

// Fingerprint hashes the operator payload with the ordered child group ids.
// Two logical expressions with equal fingerprints and Equals collapse to the
// same memo slot.
func (g *GroupExpression) Fingerprint() uint64 {
	h := g.Op.Hash()
	h = hashCombine(h, uint64(len(g.ChildGroups)))
	for _, c := range g.ChildGroups {
		h = hashCombine(h, uint64(c))
	}
	return h
}

// Equals reports structural equality of operator payload and child groups.
func (g *GroupExpression) Equals(other *GroupExpression) bool {
	if len(g.ChildGroups) != len(other.ChildGroups) {
		return false
	}
	for i := range g.ChildGroups {
		if g.ChildGroups[i] != other.ChildGroups[i] {
			return false
		}
	}
	return g.Op.Equals(other.Op)
}
