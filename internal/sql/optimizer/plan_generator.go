package optimizer

import (
	"github.com/dshills/CascadeDB/internal/catalog"
	cerrors "github.com/dshills/CascadeDB/internal/errors"
	"github.com/dshills/CascadeDB/internal/sql/expression"
	"github.com/dshills/CascadeDB/internal/sql/plan"
)

// planGenerator is the one-shot translator from the winner chain to
// executable plan nodes. Scans emit the sort columns first, then the output
// columns, matching the derived (tuple_idx, value_idx) references the sort
// and projection nodes use.
type planGenerator struct {
	ctx         *OptimizationContext
	outputExprs []*expression.AbstractExpression
	sortExprs   []*expression.AbstractExpression
}

func newPlanGenerator(ctx *OptimizationContext, outputExprs []*expression.AbstractExpression, required *PropertySet) *planGenerator {
	gen := &planGenerator{ctx: ctx, outputExprs: outputExprs}
	if sort := required.SortProperty(); sort != nil {
		gen.sortExprs = sort.Columns
	}
	return gen
}

// generate converts the winner chain and, when the query carries a required
// sort, caps the plan with the output projection.
func (g *planGenerator) generate(root *Group, required *PropertySet) (plan.PlanNode, error) {
	node, err := g.convertGroup(root, required)
	if err != nil {
		return nil, err
	}
	if len(g.sortExprs) == 0 {
		return node, nil
	}

	projections := make([]*expression.AbstractExpression, len(g.outputExprs))
	for i, out := range g.outputExprs {
		projections[i] = g.toDerived(out)
	}
	return plan.NewProjectionPlanNode(node, projections), nil
}

func (g *planGenerator) convertGroup(grp *Group, required *PropertySet) (plan.PlanNode, error) {
	winner := grp.GetWinner(required)
	if winner == nil {
		return nil, cerrors.Internal("group %d has no winner for %s", grp.ID(), required)
	}

	children := make([]plan.PlanNode, winner.Expr.ChildCount())
	for i := 0; i < winner.Expr.ChildCount(); i++ {
		child, err := g.convertGroup(g.ctx.Memo.GetGroup(winner.Expr.ChildGroup(i)), winner.ChildRequired[i])
		if err != nil {
			return nil, err
		}
		children[i] = child
	}

	switch op := winner.Expr.Op.(type) {
	case SeqScan:
		return g.convertSeqScan(op)

	case IndexScan:
		return g.convertIndexScan(op)

	case QueryDerivedScan:
		return plan.NewQueryDerivedScanPlanNode(children[0], op.TableAlias, op.AliasToExpr), nil

	case OrderBy:
		keys := make([]plan.SortKey, len(op.SortExprs))
		for i, col := range op.SortExprs {
			keys[i] = plan.SortKey{Expr: g.toDerived(col), Ascending: op.SortAscending[i]}
		}
		return plan.NewOrderByPlanNode(children[0], keys), nil

	case Limit:
		child := children[0]
		if len(op.SortExprs) > 0 {
			keys := make([]plan.SortKey, len(op.SortExprs))
			for i, col := range op.SortExprs {
				keys[i] = plan.SortKey{Expr: g.toDerived(col), Ascending: op.SortAscending[i]}
			}
			orderBy := plan.NewOrderByPlanNode(child, keys)
			orderBy.HasLimit = true
			orderBy.Limit = op.Limit
			orderBy.Offset = op.Offset
			child = orderBy
		}
		return plan.NewLimitPlanNode(child, op.Limit, op.Offset), nil

	case Distinct:
		return plan.NewDistinctPlanNode(children[0]), nil

	case HashGroupBy:
		return plan.NewHashGroupByPlanNode(children[0], op.Columns, combinePredicates(op.Having)), nil

	case SortGroupBy:
		return plan.NewSortGroupByPlanNode(children[0], op.Columns, combinePredicates(op.Having)), nil

	case Aggregate:
		return plan.NewAggregatePlanNode(children[0], combinePredicates(op.Having)), nil

	case InnerNLJoin:
		return plan.NewNestedLoopJoinPlanNode(children[0], children[1],
			joinKind(op.JoinType), combinePredicates(op.Predicates)), nil

	case LeftNLJoin:
		return plan.NewNestedLoopJoinPlanNode(children[0], children[1],
			joinKind(op.JoinType), combinePredicates(op.Predicates)), nil

	case RightNLJoin:
		return plan.NewNestedLoopJoinPlanNode(children[0], children[1],
			joinKind(op.JoinType), combinePredicates(op.Predicates)), nil

	case OuterNLJoin:
		return plan.NewNestedLoopJoinPlanNode(children[0], children[1],
			joinKind(op.JoinType), combinePredicates(op.Predicates)), nil

	case InnerHashJoin:
		return plan.NewHashJoinPlanNode(children[0], children[1],
			joinKind(op.JoinType), op.LeftKeys, op.RightKeys, combinePredicates(op.Predicates)), nil

	case Insert:
		return &plan.InsertPlanNode{Database: op.Database, Table: op.Table, Columns: op.Columns, Values: op.Values}, nil

	case InsertSelect:
		return plan.NewInsertSelectPlanNode(children[0], op.Database, op.Table), nil

	case Update:
		clauses := make([]plan.SetClause, len(op.SetColumns))
		for i, col := range op.SetColumns {
			clauses[i] = plan.SetClause{Column: col, Value: op.SetExprs[i]}
		}
		return plan.NewUpdatePlanNode(children[0], op.Database, op.Table, clauses), nil

	case Delete:
		return plan.NewDeletePlanNode(children[0], op.Database, op.Table), nil

	case TableFreeScan:
		return &plan.TableFreeScanPlanNode{}, nil

	case ExternalFileScan:
		return &plan.ExternalFileScanPlanNode{
			Format:    plan.ExternalFileFormat(op.Spec.Format),
			FileName:  op.Spec.FileName,
			Delimiter: op.Spec.Delimiter,
			Quote:     op.Spec.Quote,
			Escape:    op.Spec.Escape,
		}, nil

	case ExportExternalFile:
		return plan.NewExportExternalFilePlanNode(children[0],
			plan.ExternalFileFormat(op.Spec.Format), op.Spec.FileName,
			op.Spec.Delimiter, op.Spec.Quote, op.Spec.Escape), nil

	default:
		return nil, cerrors.Internal("plan generation for operator %s is not implemented", winner.Expr.Op.Name())
	}
}

func (g *planGenerator) convertSeqScan(op SeqScan) (plan.PlanNode, error) {
	schema, err := g.ctx.Accessor.GetSchema(op.Table)
	if err != nil {
		return nil, cerrors.Catalog(err)
	}
	oids, err := g.scanColumnOids(op.TableAlias, schema)
	if err != nil {
		return nil, err
	}
	pred, err := g.scanPredicate(op.Predicates, schema)
	if err != nil {
		return nil, err
	}
	return &plan.SeqScanPlanNode{
		Database:      op.Database,
		Namespace:     op.Namespace,
		Table:         op.Table,
		ColumnOids:    oids,
		ScanPredicate: pred,
		IsForUpdate:   op.IsForUpdate,
		IsParallel:    g.ctx.Config.ParallelExecution,
	}, nil
}

func (g *planGenerator) convertIndexScan(op IndexScan) (plan.PlanNode, error) {
	schema, err := g.ctx.Accessor.GetSchema(op.Table)
	if err != nil {
		return nil, cerrors.Catalog(err)
	}
	oids, err := g.scanColumnOids(op.TableAlias, schema)
	if err != nil {
		return nil, err
	}
	pred, err := g.scanPredicate(op.Predicates, schema)
	if err != nil {
		return nil, err
	}
	return &plan.IndexScanPlanNode{
		Database:      op.Database,
		Namespace:     op.Namespace,
		Table:         op.Table,
		Index:         op.Index,
		ColumnOids:    oids,
		ScanPredicate: pred,
		IsForUpdate:   op.IsForUpdate,
		IsParallel:    g.ctx.Config.ParallelExecution,
	}, nil
}

// scanColumns returns the ordered output column names of the scan over
// alias: required sort columns first, then the query output columns, each
// deduplicated.
func (g *planGenerator) scanColumns(alias string) []string {
	var cols []string
	seen := map[string]bool{}
	add := func(e *expression.AbstractExpression) {
		for _, ref := range expression.ColumnValuesOf(e) {
			if ref.TableAlias() != "" && ref.TableAlias() != alias {
				continue
			}
			if !seen[ref.ColumnName()] {
				seen[ref.ColumnName()] = true
				cols = append(cols, ref.ColumnName())
			}
		}
	}
	for _, e := range g.sortExprs {
		add(e)
	}
	for _, e := range g.outputExprs {
		add(e)
	}
	return cols
}

func (g *planGenerator) scanColumnOids(alias string, schema *catalog.Schema) ([]catalog.ColumnOID, error) {
	names := g.scanColumns(alias)
	oids := make([]catalog.ColumnOID, 0, len(names))
	for _, name := range names {
		col, err := schema.GetColumn(name)
		if err != nil {
			return nil, cerrors.Catalog(err)
		}
		oids = append(oids, col.Oid)
	}
	return oids, nil
}

// scanPredicate fuses the scan predicates into one conjunction with column
// references rewritten to (tuple 0, offset-in-base-tuple) derived values.
func (g *planGenerator) scanPredicate(preds []AnnotatedExpression, schema *catalog.Schema) (*expression.AbstractExpression, error) {
	combined := combinePredicates(preds)
	if combined == nil {
		return nil, nil
	}
	return g.rewriteToBaseOffsets(combined, schema)
}

func (g *planGenerator) rewriteToBaseOffsets(e *expression.AbstractExpression, schema *catalog.Schema) (*expression.AbstractExpression, error) {
	if e.Type() == expression.ColumnValue {
		offset, err := schema.ColumnOffset(e.ColumnName())
		if err != nil {
			return nil, cerrors.Catalog(err)
		}
		return expression.NewDerivedValue(0, offset), nil
	}
	if e.ChildCount() == 0 {
		return e, nil
	}
	children := make([]*expression.AbstractExpression, e.ChildCount())
	for i, c := range e.Children() {
		rc, err := g.rewriteToBaseOffsets(c, schema)
		if err != nil {
			return nil, err
		}
		children[i] = rc
	}
	return e.CopyWithChildren(children), nil
}

// toDerived maps a column reference to its slot in the child's output row:
// sort columns come first, output columns after.
func (g *planGenerator) toDerived(e *expression.AbstractExpression) *expression.AbstractExpression {
	if e.Type() != expression.ColumnValue {
		return e
	}
	cols := g.scanColumns(e.TableAlias())
	for i, name := range cols {
		if name == e.ColumnName() {
			return expression.NewDerivedValue(0, i)
		}
	}
	return e
}

// combinePredicates folds a conjunction list into one expression.
func combinePredicates(preds []AnnotatedExpression) *expression.AbstractExpression {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0].Expr
	default:
		out := preds[0].Expr
		for _, p := range preds[1:] {
			out = expression.NewConjunction(expression.ConjunctionAnd, out, p.Expr)
		}
		return out
	}
}

func joinKind(t JoinType) plan.JoinKind {
	switch t {
	case LeftJoinType:
		return plan.LeftJoin
	case RightJoinType:
		return plan.RightJoin
	case OuterJoinType:
		return plan.OuterJoin
	case SemiJoinType:
		return plan.SemiJoin
	case AntiJoinType:
		return plan.AntiJoin
	case MarkJoinType:
		return plan.MarkJoin
	default:
		return plan.InnerJoin
	}
}
