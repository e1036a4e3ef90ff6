package plan

import "fmt"

// NodeType identifies an executable plan node kind.
type NodeType int

const (
	// InvalidNode is the zero NodeType.
	InvalidNode NodeType = iota
	SeqScanNode
	IndexScanNode
	QueryDerivedScanNode
	OrderByNode
	LimitNode
	ProjectionNode
	HashGroupByNode
	SortGroupByNode
	AggregateNode
	NestedLoopJoinNode
	HashJoinNode
	DistinctNode
	InsertNode
	InsertSelectNode
	UpdateNode
	DeleteNode
	TableFreeScanNode
	ExternalFileScanNode
	ExportExternalFileNode
)

func (t NodeType) String() string {
	switch t {
	case SeqScanNode:
		return "SeqScan"
	case IndexScanNode:
		return "IndexScan"
	case QueryDerivedScanNode:
		return "QueryDerivedScan"
	case OrderByNode:
		return "OrderBy"
	case LimitNode:
		return "Limit"
	case ProjectionNode:
		return "Projection"
	case HashGroupByNode:
		return "HashGroupBy"
	case SortGroupByNode:
		return "SortGroupBy"
	case AggregateNode:
		return "Aggregate"
	case NestedLoopJoinNode:
		return "NestedLoopJoin"
	case HashJoinNode:
		return "HashJoin"
	case DistinctNode:
		return "Distinct"
	case InsertNode:
		return "Insert"
	case InsertSelectNode:
		return "InsertSelect"
	case UpdateNode:
		return "Update"
	case DeleteNode:
		return "Delete"
	case TableFreeScanNode:
		return "TableFreeScan"
	case ExternalFileScanNode:
		return "ExternalFileScan"
	case ExportExternalFileNode:
		return "ExportExternalFile"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// PlanNode is an executable physical plan node. The optimizer emits these;
// the execution engine consumes them.
type PlanNode interface {
	Type() NodeType
	Children() []PlanNode
	Child(i int) PlanNode
	ChildCount() int
}

// basePlan carries the child list shared by every node.
type basePlan struct {
	children []PlanNode
}

func (b *basePlan) Children() []PlanNode { return b.children }
func (b *basePlan) Child(i int) PlanNode { return b.children[i] }
func (b *basePlan) ChildCount() int      { return len(b.children) }

// Explain renders the plan tree for diagnostics.
func Explain(node PlanNode) string {
	return explain(node, "")
}

func explain(node PlanNode, indent string) string {
	out := indent + node.Type().String() + "\n"
	for _, c := range node.Children() {
		out += explain(c, indent+"  ")
	}
	return out
}
