package optimizer

import (
	"sort"

	"github.com/dshills/CascadeDB/internal/sql/expression"
)

// task is one unit of search work. Tasks run to completion on the driver's
// LIFO stack and push follow-up tasks; there are no suspension points.
type task interface {
	execute() error
}

// optimizeGroupTask ensures the group is explored, carries statistics, and
// is implemented, then costs every physical member under the requirement.
type optimizeGroupTask struct {
	ctx      *OptimizationContext
	group    *Group
	required *PropertySet
}

func (t *optimizeGroupTask) execute() error {
	if t.group.GetWinner(t.required) != nil {
		return nil
	}
	if !t.group.Explored() {
		t.ctx.push(t)
		t.ctx.push(&exploreGroupTask{ctx: t.ctx, group: t.group})
		return nil
	}
	if !t.group.HasStats() {
		t.ctx.push(t)
		t.ctx.push(&deriveStatsTask{ctx: t.ctx, group: t.group})
		return nil
	}
	if !t.group.Implemented() {
		t.ctx.push(t)
		t.ctx.push(&implementGroupTask{ctx: t.ctx, group: t.group})
		return nil
	}

	// Cost candidates in insertion order: with a LIFO stack the last push
	// pops first, so push in reverse.
	physicals := t.group.PhysicalExpressions()
	for i := len(physicals) - 1; i >= 0; i-- {
		t.ctx.push(&optimizeExpressionTask{
			ctx:      t.ctx,
			gexpr:    physicals[i],
			required: t.required,
		})
	}
	return nil
}

// exploreGroupTask fires all applicable transformation rules on every
// logical member, transitively, then marks the group explored.
type exploreGroupTask struct {
	ctx   *OptimizationContext
	group *Group
}

func (t *exploreGroupTask) execute() error {
	if t.group.Explored() || t.group.Exploring() {
		return nil
	}
	t.group.SetExploring()

	// The mark pops only after every transitively pushed exploration task.
	t.ctx.push(&markGroupExploredTask{group: t.group})
	for _, gexpr := range t.group.LogicalExpressions() {
		t.ctx.push(&exploreExpressionTask{ctx: t.ctx, gexpr: gexpr})
	}
	return nil
}

type markGroupExploredTask struct {
	group *Group
}

func (t *markGroupExploredTask) execute() error {
	t.group.SetExplored()
	return nil
}

// exploreExpressionTask schedules the transformation rules for one logical
// expression, highest promise first, exploring child groups beforehand so
// bindings see their full membership.
type exploreExpressionTask struct {
	ctx   *OptimizationContext
	gexpr *GroupExpression
}

func (t *exploreExpressionTask) execute() error {
	rules := make([]Rule, 0, len(t.ctx.Rules.TransformationRules()))
	for _, r := range t.ctx.Rules.TransformationRules() {
		if t.gexpr.HasExplored(r.Type()) {
			continue
		}
		if t.ctx.joinOrderLimited() && isJoinReorderRule(r.Type()) {
			t.gexpr.SetExplored(r.Type())
			continue
		}
		rules = append(rules, r)
	}
	// Ascending promise push order: the highest promise pops first.
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Promise(t.gexpr) < rules[j].Promise(t.gexpr)
	})
	for _, r := range rules {
		t.ctx.push(&applyRuleTask{ctx: t.ctx, gexpr: t.gexpr, rule: r})
	}

	// Child groups explore before any of the rules above fire.
	for _, cg := range t.gexpr.ChildGroups {
		t.ctx.push(&exploreGroupTask{ctx: t.ctx, group: t.ctx.Memo.GetGroup(cg)})
	}
	return nil
}

func isJoinReorderRule(rt RuleType) bool {
	return rt == RuleInnerJoinCommutativity || rt == RuleInnerJoinAssociativity
}

// implementGroupTask fires the implementation rules on every logical member,
// then marks the group implemented.
type implementGroupTask struct {
	ctx   *OptimizationContext
	group *Group
}

func (t *implementGroupTask) execute() error {
	if t.group.Implemented() {
		return nil
	}
	t.ctx.push(&markGroupImplementedTask{group: t.group})
	for _, gexpr := range t.group.LogicalExpressions() {
		for _, r := range t.ctx.Rules.ImplementationRules() {
			t.ctx.push(&applyRuleTask{ctx: t.ctx, gexpr: gexpr, rule: r})
		}
	}
	return nil
}

type markGroupImplementedTask struct {
	group *Group
}

func (t *markGroupImplementedTask) execute() error {
	t.group.SetImplemented()
	return nil
}

// applyRuleTask enumerates the rule's bindings against one expression and
// re-ingests every transform output into the owning group. Each
// (expression, rule) pair fires at most once; together with memo
// deduplication this guarantees a fixed point.
type applyRuleTask struct {
	ctx   *OptimizationContext
	gexpr *GroupExpression
	rule  Rule
}

func (t *applyRuleTask) execute() error {
	if t.gexpr.HasExplored(t.rule.Type()) {
		return nil
	}
	t.gexpr.SetExplored(t.rule.Type())

	bindings := bindExpression(t.ctx.Memo, t.gexpr, t.rule.Pattern())
	for _, binding := range bindings {
		if !t.rule.Check(binding, t.ctx) {
			continue
		}
		for _, out := range t.rule.Transform(binding, t.ctx) {
			newExpr, isNew := t.ctx.Memo.InsertToGroup(out, t.gexpr.Group())
			if !isNew {
				continue
			}
			if newExpr.IsLogical() {
				t.ctx.push(&exploreExpressionTask{ctx: t.ctx, gexpr: newExpr})
			}
		}
	}
	return nil
}

// deriveStatsTask derives group statistics bottom-up before implementation
// and costing.
type deriveStatsTask struct {
	ctx   *OptimizationContext
	group *Group
}

func (t *deriveStatsTask) execute() error {
	deriveStatsForGroup(t.ctx, t.group, expression.NewExprSet())
	return nil
}

// optimizeExpressionTask costs one physical expression under a requirement.
// It asks the child property deriver for candidate entries; for each entry
// it ensures every child group has a winner for its required set (enqueuing
// child optimization and re-enqueuing itself when one is missing), sums the
// costs, and records the group winner. Entries whose partial cost already
// exceeds the group's best are abandoned.
type optimizeExpressionTask struct {
	ctx      *OptimizationContext
	gexpr    *GroupExpression
	required *PropertySet

	entries   []PropertyEntry
	localCost float64
	entryIdx  int
	childIdx  int
	childSum  float64
	waiting   bool
}

func (t *optimizeExpressionTask) execute() error {
	if t.entries == nil {
		t.entries = t.ctx.propDeriver.GetProperties(t.gexpr, t.required, t.ctx.Memo, t.ctx.Accessor)
		t.localCost = t.ctx.costModel.LocalCost(t.gexpr, t.ctx.Memo)
	}
	group := t.ctx.Memo.GetGroup(t.gexpr.Group())

	for t.entryIdx < len(t.entries) {
		entry := t.entries[t.entryIdx]
		complete := true

		for t.childIdx < t.gexpr.ChildCount() {
			childGroup := t.ctx.Memo.GetGroup(t.gexpr.ChildGroup(t.childIdx))
			childReq := entry.ChildRequired[t.childIdx]

			winner := childGroup.GetWinner(childReq)
			if winner == nil {
				if t.waiting {
					// The child was optimized and still has no winner:
					// this candidate is disqualified, not the group.
					t.waiting = false
					complete = false
					break
				}
				t.waiting = true
				t.ctx.push(t)
				t.ctx.push(&optimizeGroupTask{ctx: t.ctx, group: childGroup, required: childReq})
				return nil
			}
			t.waiting = false
			t.childSum += winner.Cost

			if best := group.GetWinner(t.required); best != nil && t.localCost+t.childSum >= best.Cost {
				complete = false
				break
			}
			t.childIdx++
		}

		if complete {
			t.recordWinner(group, entry, t.localCost+t.childSum)
		}
		t.entryIdx++
		t.childIdx = 0
		t.childSum = 0
		t.waiting = false
	}
	return nil
}

// recordWinner stores the candidate under the requirement, inserting an
// order-by enforcer when the provided properties fall short of a required
// sort.
func (t *optimizeExpressionTask) recordWinner(group *Group, entry PropertyEntry, cost float64) {
	if entry.Provided.Fulfills(t.required) {
		if group.RecordWinner(t.required, entry.Provided, t.gexpr, cost, entry.ChildRequired) {
			t.ctx.Logger.Debug("winner recorded",
				"group", int32(group.ID()), "op", t.gexpr.Op.Name(), "cost", cost)
		}
		return
	}

	// Keep the bare candidate reachable under its own provided set so the
	// enforcer chain below can resolve it.
	group.RecordWinner(entry.Provided, entry.Provided, t.gexpr, cost, entry.ChildRequired)

	sortProp := t.required.SortProperty()
	if sortProp == nil {
		return
	}
	enforcer := newGroupExpression(
		OrderBy{SortExprs: sortProp.Columns, SortAscending: sortProp.Ascending},
		[]GroupID{group.ID()},
	)
	enforcer.group = group.ID()
	enforced := cost + t.ctx.costModel.EnforcerCost(group)
	if group.RecordWinner(t.required, t.required.Copy(), enforcer, enforced,
		[]*PropertySet{entry.Provided.Copy()}) {
		t.ctx.Logger.Debug("enforced winner recorded",
			"group", int32(group.ID()), "below", t.gexpr.Op.Name(), "cost", enforced)
	}
}
