package optimizer

import (
	"github.com/dshills/CascadeDB/internal/sql/stats"
)

// Winner records the best physical implementation found for a group under a
// required property set, with the per-child requirements it was costed
// against.
type Winner struct {
	Required      *PropertySet
	Provided      *PropertySet
	Expr          *GroupExpression
	Cost          float64
	ChildRequired []*PropertySet
}

// GroupStats is the derived statistics of a group, computed bottom-up by the
// DeriveStats task and reused within one optimization call.
type GroupStats struct {
	RowCount float64
	// Columns maps "alias.column" to the derived column statistics.
	Columns map[string]*stats.ColumnStats
}

// Group is an equivalence class: the logical expressions known to produce
// the same result, plus every physical implementation discovered during
// search.
type Group struct {
	id        GroupID
	logicals  []*GroupExpression
	physicals []*GroupExpression
	aliases   AliasSet

	winners map[uint64][]*Winner

	explored    bool
	exploring   bool
	implemented bool

	stats *GroupStats
}

func newGroup(id GroupID, aliases AliasSet) *Group {
	return &Group{
		id:      id,
		aliases: aliases,
		winners: make(map[uint64][]*Winner),
	}
}

// ID returns the group id.
func (g *Group) ID() GroupID { return g.id }

// LogicalExpressions returns the logical members. Callers must not mutate.
func (g *Group) LogicalExpressions() []*GroupExpression { return g.logicals }

// PhysicalExpressions returns the physical members. Callers must not mutate.
func (g *Group) PhysicalExpressions() []*GroupExpression { return g.physicals }

// TableAliases returns the covered table-alias set. Identical across all
// members of the group.
func (g *Group) TableAliases() AliasSet { return g.aliases }

// Stats returns the derived group statistics, or nil before DeriveStats.
func (g *Group) Stats() *GroupStats { return g.stats }

// SetStats installs the derived statistics.
func (g *Group) SetStats(s *GroupStats) { g.stats = s }

// HasStats reports whether statistics were derived for the group.
func (g *Group) HasStats() bool { return g.stats != nil }

func (g *Group) add(expr *GroupExpression) {
	expr.group = g.id
	if expr.IsPhysical() {
		g.physicals = append(g.physicals, expr)
	} else {
		g.logicals = append(g.logicals, expr)
	}
}

// RecordWinner stores the candidate if no winner exists for required or the
// candidate is strictly cheaper. Ties keep the incumbent, so insertion order
// breaks ties deterministically. Returns true if stored.
func (g *Group) RecordWinner(required, provided *PropertySet, expr *GroupExpression, cost float64, childRequired []*PropertySet) bool {
	key := required.Hash()
	for _, w := range g.winners[key] {
		if w.Required.Equals(required) {
			if cost < w.Cost {
				w.Provided = provided
				w.Expr = expr
				w.Cost = cost
				w.ChildRequired = childRequired
				return true
			}
			return false
		}
	}
	g.winners[key] = append(g.winners[key], &Winner{
		Required:      required.Copy(),
		Provided:      provided,
		Expr:          expr,
		Cost:          cost,
		ChildRequired: childRequired,
	})
	return true
}

// GetWinner returns the winner recorded for required, or nil.
func (g *Group) GetWinner(required *PropertySet) *Winner {
	for _, w := range g.winners[required.Hash()] {
		if w.Required.Equals(required) {
			return w
		}
	}
	return nil
}

// HasWinners reports whether any winner was recorded for the group.
func (g *Group) HasWinners() bool { return len(g.winners) > 0 }

// Explored reports whether transformation rules were exhausted.
func (g *Group) Explored() bool { return g.explored }

// SetExplored marks transformation exploration complete.
func (g *Group) SetExplored() { g.explored = true }

// Exploring reports whether exploration tasks are in flight.
func (g *Group) Exploring() bool { return g.exploring }

// SetExploring marks exploration in flight.
func (g *Group) SetExploring() { g.exploring = true }

// Implemented reports whether implementation rules fired on every logical
// member.
func (g *Group) Implemented() bool { return g.implemented }

// SetImplemented marks implementation complete.
func (g *Group) SetImplemented() { g.implemented = true }
