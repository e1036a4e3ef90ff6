package optimizer

import (
	"hash/fnv"
	"sort"

	"github.com/dshills/CascadeDB/internal/sql/expression"
)

// GroupID references a Group inside the memo arena. Group ids always point
// to pre-existing groups, so reference cycles cannot be constructed.
type GroupID int32

// UndefinedGroup is the null GroupID.
const UndefinedGroup = GroupID(-1)

// AliasSet is a set of table aliases.
type AliasSet map[string]struct{}

// NewAliasSet creates a set holding the given aliases.
func NewAliasSet(aliases ...string) AliasSet {
	s := make(AliasSet, len(aliases))
	for _, a := range aliases {
		s[a] = struct{}{}
	}
	return s
}

// Add inserts an alias.
func (s AliasSet) Add(alias string) { s[alias] = struct{}{} }

// Contains reports membership.
func (s AliasSet) Contains(alias string) bool {
	_, ok := s[alias]
	return ok
}

// IsSubsetOf reports whether every alias in s is in other.
func (s AliasSet) IsSubsetOf(other AliasSet) bool {
	for a := range s {
		if !other.Contains(a) {
			return false
		}
	}
	return true
}

// Union returns a new set holding the aliases of both sets.
func (s AliasSet) Union(other AliasSet) AliasSet {
	out := make(AliasSet, len(s)+len(other))
	for a := range s {
		out[a] = struct{}{}
	}
	for a := range other {
		out[a] = struct{}{}
	}
	return out
}

// Copy returns a copy of the set.
func (s AliasSet) Copy() AliasSet {
	out := make(AliasSet, len(s))
	for a := range s {
		out[a] = struct{}{}
	}
	return out
}

// Sorted returns the aliases in lexical order.
func (s AliasSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// AnnotatedExpression is a predicate bundled with the set of table aliases it
// references. The closure is computed once at construction; the rule engine
// consults it to decide pushdown targets.
type AnnotatedExpression struct {
	Expr    *expression.AbstractExpression
	Aliases AliasSet
}

// NewAnnotatedExpression wraps a predicate, deriving its alias closure.
func NewAnnotatedExpression(expr *expression.AbstractExpression) AnnotatedExpression {
	aliases := make(AliasSet)
	for a := range expression.ReferencedAliases(expr) {
		aliases[a] = struct{}{}
	}
	return AnnotatedExpression{Expr: expr, Aliases: aliases}
}

// Annotate wraps a list of predicates.
func Annotate(exprs ...*expression.AbstractExpression) []AnnotatedExpression {
	out := make([]AnnotatedExpression, len(exprs))
	for i, e := range exprs {
		out[i] = NewAnnotatedExpression(e)
	}
	return out
}

// Equals reports predicate equality. The alias closure is derived state and
// does not participate.
func (a AnnotatedExpression) Equals(other AnnotatedExpression) bool {
	return a.Expr.Equals(other.Expr)
}

// hashing helpers shared by the operator payloads

func hashCombine(h uint64, v uint64) uint64 {
	// 64-bit FNV-1a step over the 8 bytes of v.
	const prime = 1099511628211
	for i := 0; i < 8; i++ {
		h ^= (v >> (8 * i)) & 0xff
		h *= prime
	}
	return h
}

func hashString(h uint64, s string) uint64 {
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}

func hashBool(h uint64, b bool) uint64 {
	if b {
		return hashCombine(h, 1)
	}
	return hashCombine(h, 0)
}

func hashExprs(h uint64, exprs []*expression.AbstractExpression) uint64 {
	h = hashCombine(h, uint64(len(exprs)))
	for _, e := range exprs {
		h = hashCombine(h, e.Hash())
	}
	return h
}

func hashAnnotated(h uint64, preds []AnnotatedExpression) uint64 {
	h = hashCombine(h, uint64(len(preds)))
	for _, p := range preds {
		h = hashCombine(h, p.Expr.Hash())
	}
	return h
}

func hashBools(h uint64, bs []bool) uint64 {
	h = hashCombine(h, uint64(len(bs)))
	for _, b := range bs {
		h = hashBool(h, b)
	}
	return h
}

func newOperatorHash(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}

func exprsEqual(a, b []*expression.AbstractExpression) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

func annotatedEqual(a, b []AnnotatedExpression) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

func boolsEqual(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
