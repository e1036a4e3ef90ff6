package optimizer

// bindExpression matches pattern against gexpr top-down and returns every
// binding as an OperatorNode tree with LeafOperators at the horizon. A Leaf
// child pattern binds the child group id; a typed child pattern recurses into
// each logical member of the child group and every combination is
// enumerated.
func bindExpression(m *Memo, gexpr *GroupExpression, pattern *Pattern) []*OperatorNode {
	if pattern.IsLeaf() {
		return []*OperatorNode{NewOperatorNode(LeafOperator{OriginGroup: gexpr.Group()})}
	}
	if pattern.Op() != gexpr.Op.Type() {
		return nil
	}
	if len(pattern.Children()) != gexpr.ChildCount() {
		return nil
	}

	childBindings := make([][]*OperatorNode, gexpr.ChildCount())
	for i := 0; i < gexpr.ChildCount(); i++ {
		childPattern := pattern.Child(i)
		childGroup := m.GetGroup(gexpr.ChildGroup(i))

		if childPattern.IsLeaf() {
			childBindings[i] = []*OperatorNode{
				NewOperatorNode(LeafOperator{OriginGroup: childGroup.ID()}),
			}
			continue
		}

		var bindings []*OperatorNode
		for _, member := range childGroup.LogicalExpressions() {
			bindings = append(bindings, bindExpression(m, member, childPattern)...)
		}
		if len(bindings) == 0 {
			return nil
		}
		childBindings[i] = bindings
	}

	return crossProduct(gexpr.Op, childBindings)
}

// crossProduct assembles one OperatorNode per combination of child bindings.
func crossProduct(op Operator, childBindings [][]*OperatorNode) []*OperatorNode {
	combos := [][]*OperatorNode{nil}
	for _, candidates := range childBindings {
		var next [][]*OperatorNode
		for _, combo := range combos {
			for _, cand := range candidates {
				row := make([]*OperatorNode, len(combo), len(combo)+1)
				copy(row, combo)
				next = append(next, append(row, cand))
			}
		}
		combos = next
	}

	out := make([]*OperatorNode, len(combos))
	for i, combo := range combos {
		out[i] = NewOperatorNode(op, combo...)
	}
	return out
}
