package optimizer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/CascadeDB/internal/catalog"
	"github.com/dshills/CascadeDB/internal/config"
	cerrors "github.com/dshills/CascadeDB/internal/errors"
	"github.com/dshills/CascadeDB/internal/log"
	"github.com/dshills/CascadeDB/internal/sql/expression"
	"github.com/dshills/CascadeDB/internal/sql/plan"
	"github.com/dshills/CascadeDB/internal/sql/stats"
)

// Query is one bound logical query handed to the optimizer: the operator
// tree, the required output properties, and the output column expressions
// the final projection produces.
type Query struct {
	Root        *OperatorNode
	Required    *PropertySet
	OutputExprs []*expression.AbstractExpression
}

// Optimizer drives cost-based search for bound logical trees. One Optimizer
// may serve many queries; every call builds a fresh query-local memo.
type Optimizer struct {
	accessor catalog.Accessor
	storage  *stats.StatsStorage
	cfg      *config.OptimizerConfig
	logger   log.Logger
}

// New creates an optimizer over the given collaborators. A nil cfg selects
// the defaults; a nil logger discards.
func New(accessor catalog.Accessor, storage *stats.StatsStorage, cfg *config.OptimizerConfig, logger log.Logger) *Optimizer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Optimizer{accessor: accessor, storage: storage, cfg: cfg, logger: logger}
}

// Optimize searches for the cheapest physical plan of the query under its
// required properties and translates the winner chain into an executable
// plan. Optimization of a single query is single-threaded and cooperative:
// cancellation and deadline are honored at task boundaries.
func (o *Optimizer) Optimize(ctx context.Context, q Query) (result plan.PlanNode, err error) {
	if q.Required == nil {
		q.Required = NewPropertySet()
	}
	if err := validateTree(q.Root); err != nil {
		return nil, err
	}

	logger := o.logger.With("optimization_id", uuid.NewString())
	octx := newOptimizationContext(ctx, o.accessor, o.storage, o.cfg, logger)
	octx.relationCount = countRelations(q.Root)

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = cerrors.Internal("optimizer panic: %v", r)
		}
	}()

	rootExpr := octx.Memo.Insert(q.Root)
	rootGroup := octx.Memo.GetGroup(rootExpr.Group())
	logger.Debug("memo seeded", "groups", octx.Memo.GroupCount())

	octx.push(&optimizeGroupTask{ctx: octx, group: rootGroup, required: q.Required})
	if err := octx.run(); err != nil {
		return nil, err
	}

	winner := rootGroup.GetWinner(q.Required)
	if winner == nil {
		detail := fmt.Sprintf("root group %d: explored=%t implemented=%t physical_candidates=%d",
			rootGroup.ID(), rootGroup.Explored(), rootGroup.Implemented(),
			len(rootGroup.PhysicalExpressions()))
		if octx.deadlineHit {
			return nil, cerrors.DeadlineExceeded(detail)
		}
		return nil, cerrors.NoPhysicalPlan(detail)
	}
	logger.Debug("search complete", "groups", octx.Memo.GroupCount(), "cost", winner.Cost)

	gen := newPlanGenerator(octx, q.OutputExprs, q.Required)
	return gen.generate(rootGroup, q.Required)
}

// OptimizeAll optimizes independent queries concurrently, one worker per
// query. The only shared structure is StatsStorage, which is safe for
// concurrent readers.
func (o *Optimizer) OptimizeAll(ctx context.Context, queries []Query) ([]plan.PlanNode, error) {
	plans := make([]plan.PlanNode, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			p, err := o.Optimize(gctx, q)
			if err != nil {
				return err
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

// expectedChildren returns the structural child count of a logical operator,
// or -1 when the operator may not appear in a bound input tree.
func expectedChildren(op Operator) int {
	switch op.Type() {
	case OpLogicalGet, OpLogicalInsert, OpLogicalExternalFileScan:
		return 0
	case OpLogicalFilter, OpLogicalAggregateAndGroupBy, OpLogicalLimit,
		OpLogicalQueryDerivedGet, OpLogicalInsertSelect, OpLogicalUpdate,
		OpLogicalDelete, OpLogicalExportExternalFile:
		return 1
	case OpLogicalJoin:
		return 2
	default:
		return -1
	}
}

// validateTree checks the bound tree's structural preconditions. Violations
// are programmer errors in the binder and surface as
// BindingInvariantViolation.
func validateTree(root *OperatorNode) error {
	if root == nil {
		return cerrors.BindingInvariantViolation("nil plan root")
	}
	want := expectedChildren(root.Op)
	if want < 0 {
		return cerrors.BindingInvariantViolation("operator %s may not appear in a bound tree", root.Op.Name())
	}
	if root.ChildCount() != want {
		return cerrors.BindingInvariantViolation("operator %s has %d children, want %d",
			root.Op.Name(), root.ChildCount(), want)
	}
	for _, c := range root.Children {
		if err := validateTree(c); err != nil {
			return err
		}
	}
	return nil
}

// countRelations counts the base relations of the bound tree, feeding the
// join-order threshold short-circuit.
func countRelations(root *OperatorNode) int {
	if root == nil {
		return 0
	}
	n := 0
	if root.Op.Type() == OpLogicalGet || root.Op.Type() == OpLogicalQueryDerivedGet {
		n++
	}
	for _, c := range root.Children {
		n += countRelations(c)
	}
	return n
}
