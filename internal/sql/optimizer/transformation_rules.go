package optimizer

// InnerJoinCommutativity swaps the inputs of an inner join.
type InnerJoinCommutativity struct {
	baseRule
}

func NewInnerJoinCommutativity() *InnerJoinCommutativity {
	return &InnerJoinCommutativity{baseRule{
		typ:     RuleInnerJoinCommutativity,
		pattern: NewPattern(OpLogicalJoin, LeafPattern(), LeafPattern()),
	}}
}

func (*InnerJoinCommutativity) Promise(*GroupExpression) RulePromise { return PromiseLogical }

func (*InnerJoinCommutativity) Check(node *OperatorNode, _ *OptimizationContext) bool {
	return node.Op.(LogicalJoin).JoinType == InnerJoinType
}

func (r *InnerJoinCommutativity) Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode {
	join := node.Op.(LogicalJoin)
	ctx.Logger.Debug("rule transform", "rule", "InnerJoinCommutativity")

	out := NewOperatorNode(
		LogicalJoin{JoinType: InnerJoinType, Predicates: join.Predicates},
		node.Child(1).Copy(),
		node.Child(0).Copy(),
	)
	return []*OperatorNode{out}
}

// InnerJoinAssociativity reassociates (left JOIN middle) JOIN right into
// left JOIN (middle JOIN right), redistributing the union of both parents'
// predicates by alias containment.
type InnerJoinAssociativity struct {
	baseRule
}

func NewInnerJoinAssociativity() *InnerJoinAssociativity {
	return &InnerJoinAssociativity{baseRule{
		typ: RuleInnerJoinAssociativity,
		pattern: NewPattern(OpLogicalJoin,
			NewPattern(OpLogicalJoin, LeafPattern(), LeafPattern()),
			LeafPattern()),
	}}
}

func (*InnerJoinAssociativity) Promise(*GroupExpression) RulePromise { return PromiseLogical }

func (*InnerJoinAssociativity) Check(node *OperatorNode, _ *OptimizationContext) bool {
	if node.Op.(LogicalJoin).JoinType != InnerJoinType {
		return false
	}
	return node.Child(0).Op.(LogicalJoin).JoinType == InnerJoinType
}

func (r *InnerJoinAssociativity) Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode {
	parent := node.Op.(LogicalJoin)
	childJoin := node.Child(0).Op.(LogicalJoin)
	left := node.Child(0).Child(0)
	middle := node.Child(0).Child(1)
	right := node.Child(1)
	ctx.Logger.Debug("rule transform", "rule", "InnerJoinAssociativity")

	middleAliases := ctx.Memo.GetGroup(leafOrigin(middle)).TableAliases()
	rightAliases := ctx.Memo.GetGroup(leafOrigin(right)).TableAliases()
	innerAliases := middleAliases.Union(rightAliases)

	all := make([]AnnotatedExpression, 0, len(parent.Predicates)+len(childJoin.Predicates))
	all = append(all, parent.Predicates...)
	all = append(all, childJoin.Predicates...)

	var innerPreds, outerPreds []AnnotatedExpression
	for _, p := range all {
		if p.Aliases.IsSubsetOf(innerAliases) {
			innerPreds = append(innerPreds, p)
		} else {
			outerPreds = append(outerPreds, p)
		}
	}

	newInner := NewOperatorNode(
		LogicalJoin{JoinType: InnerJoinType, Predicates: innerPreds},
		middle.Copy(),
		right.Copy(),
	)
	out := NewOperatorNode(
		LogicalJoin{JoinType: InnerJoinType, Predicates: outerPreds},
		left.Copy(),
		newInner,
	)
	return []*OperatorNode{out}
}
