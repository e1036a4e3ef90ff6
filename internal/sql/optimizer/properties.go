package optimizer

import (
	"strings"

	"github.com/dshills/CascadeDB/internal/sql/expression"
)

// PropertyType tags a physical property variant. Sort order is the only
// intrinsic kind.
type PropertyType int

const (
	// PropertySortType is a required sort order.
	PropertySortType PropertyType = iota
)

// Property is one physical requirement.
type Property interface {
	Type() PropertyType
	Hash() uint64
	Equals(Property) bool
	// Fulfills reports whether this provided property satisfies the
	// required one.
	Fulfills(required Property) bool
}

// SortProperty requires rows ordered by Columns with per-column direction.
type SortProperty struct {
	Columns   []*expression.AbstractExpression
	Ascending []bool
}

// NewSortProperty builds a sort property. Column and direction counts must
// match.
func NewSortProperty(columns []*expression.AbstractExpression, ascending []bool) *SortProperty {
	if len(columns) != len(ascending) {
		panic("sort property: column and direction counts differ")
	}
	return &SortProperty{Columns: columns, Ascending: ascending}
}

func (*SortProperty) Type() PropertyType { return PropertySortType }

func (p *SortProperty) Hash() uint64 {
	h := newOperatorHash("PropertySort")
	h = hashExprs(h, p.Columns)
	return hashBools(h, p.Ascending)
}

func (p *SortProperty) Equals(other Property) bool {
	o, ok := other.(*SortProperty)
	return ok && exprsEqual(p.Columns, o.Columns) && boolsEqual(p.Ascending, o.Ascending)
}

// Fulfills reports whether rows sorted by p are also sorted as required:
// the required column list must be a prefix of p's, direction included.
func (p *SortProperty) Fulfills(required Property) bool {
	r, ok := required.(*SortProperty)
	if !ok {
		return false
	}
	if len(r.Columns) > len(p.Columns) {
		return false
	}
	for i := range r.Columns {
		if p.Ascending[i] != r.Ascending[i] || !p.Columns[i].Equals(r.Columns[i]) {
			return false
		}
	}
	return true
}

func (p *SortProperty) String() string {
	parts := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		dir := "ASC"
		if !p.Ascending[i] {
			dir = "DESC"
		}
		parts[i] = c.String() + " " + dir
	}
	return "Sort(" + strings.Join(parts, ", ") + ")"
}
