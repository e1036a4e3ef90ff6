package optimizer

import (
	"fmt"
	"strings"
)

// Memo deduplicates group expressions under structural equality and owns the
// group arena. Memos are query-local; no synchronization.
type Memo struct {
	groups    []*Group
	exprTable map[uint64][]*GroupExpression
}

// NewMemo creates an empty memo.
func NewMemo() *Memo {
	return &Memo{exprTable: make(map[uint64][]*GroupExpression)}
}

// GroupCount returns the number of groups.
func (m *Memo) GroupCount() int { return len(m.groups) }

// GetGroup returns the group for id. An unknown id is a programmer error and
// panics; the driver converts the panic into an InternalError.
func (m *Memo) GetGroup(id GroupID) *Group {
	if id < 0 || int(id) >= len(m.groups) {
		panic(fmt.Sprintf("memo: unknown group id %d", id))
	}
	return m.groups[id]
}

// Insert ingests an operator tree, inserting children first, and returns the
// canonical group expression for the root. Inserting a structurally equal
// tree twice returns the same expression.
func (m *Memo) Insert(node *OperatorNode) *GroupExpression {
	gexpr, _ := m.insert(node, UndefinedGroup)
	return gexpr
}

// InsertToGroup ingests a rule output into an existing target group. The
// second result reports whether a new expression was registered.
func (m *Memo) InsertToGroup(node *OperatorNode, target GroupID) (*GroupExpression, bool) {
	return m.insert(node, target)
}

func (m *Memo) insert(node *OperatorNode, target GroupID) (*GroupExpression, bool) {
	// A leaf refers back to its origin group: return a sentinel expression
	// without registering it. Used exclusively during rule binding.
	if leaf, ok := node.Op.(LeafOperator); ok {
		sentinel := newGroupExpression(leaf, nil)
		sentinel.group = leaf.OriginGroup
		return sentinel, false
	}

	children := make([]GroupID, len(node.Children))
	for i, c := range node.Children {
		child, _ := m.insert(c, UndefinedGroup)
		children[i] = child.Group()
	}

	gexpr := newGroupExpression(node.Op, children)
	fp := gexpr.Fingerprint()
	for _, existing := range m.exprTable[fp] {
		if existing.Equals(gexpr) {
			return existing, false
		}
	}

	var group *Group
	if target != UndefinedGroup {
		group = m.GetGroup(target)
	} else {
		group = m.newGroupFor(gexpr)
	}
	group.add(gexpr)
	m.exprTable[fp] = append(m.exprTable[fp], gexpr)
	return gexpr, true
}

func (m *Memo) newGroupFor(gexpr *GroupExpression) *Group {
	id := GroupID(len(m.groups))
	group := newGroup(id, m.coveredAliases(gexpr))
	m.groups = append(m.groups, group)
	return group
}

// coveredAliases seeds a new group's alias set: scans contribute their own
// alias, every other operator the union of its children's.
func (m *Memo) coveredAliases(gexpr *GroupExpression) AliasSet {
	switch op := gexpr.Op.(type) {
	case LogicalGet:
		return NewAliasSet(op.TableAlias)
	case LogicalQueryDerivedGet:
		return NewAliasSet(op.TableAlias)
	default:
		out := make(AliasSet)
		for _, cg := range gexpr.ChildGroups {
			out = out.Union(m.GetGroup(cg).TableAliases())
		}
		return out
	}
}

// String renders the memo contents for diagnostics.
func (m *Memo) String() string {
	var b strings.Builder
	for _, g := range m.groups {
		fmt.Fprintf(&b, "group %d [%s]:", g.ID(), strings.Join(g.TableAliases().Sorted(), ","))
		for _, e := range g.LogicalExpressions() {
			fmt.Fprintf(&b, " [%s%v]", e.Op.Name(), e.ChildGroups)
		}
		for _, e := range g.PhysicalExpressions() {
			fmt.Fprintf(&b, " [*%s%v]", e.Op.Name(), e.ChildGroups)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
