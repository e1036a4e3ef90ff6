package optimizer

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/CascadeDB/internal/catalog"
	"github.com/dshills/CascadeDB/internal/config"
	cerrors "github.com/dshills/CascadeDB/internal/errors"
	"github.com/dshills/CascadeDB/internal/log"
	"github.com/dshills/CascadeDB/internal/sql/stats"
)

// OptimizationContext is the query-local state of one optimization call. It
// is single-threaded: the task driver runs tasks to completion on one worker
// and nothing here is synchronized.
type OptimizationContext struct {
	Ctx      context.Context
	Memo     *Memo
	Rules    *RuleSet
	Accessor catalog.Accessor
	Stats    *stats.StatsStorage
	Config   *config.OptimizerConfig
	Logger   log.Logger

	costModel     CostModel
	propDeriver   ChildPropertyDeriver
	statsDeriver  ChildStatsDeriver
	relationCount int
	deadline      time.Time
	deadlineHit   bool

	taskStack []task
}

func newOptimizationContext(ctx context.Context, accessor catalog.Accessor, storage *stats.StatsStorage,
	cfg *config.OptimizerConfig, logger log.Logger) *OptimizationContext {
	octx := &OptimizationContext{
		Ctx:       ctx,
		Memo:      NewMemo(),
		Rules:     NewRuleSet(cfg.EnableIndexScan),
		Accessor:  accessor,
		Stats:     storage,
		Config:    cfg,
		Logger:    logger,
		costModel: NewCostModel(cfg.CostModel),
	}
	if dl, ok := ctx.Deadline(); ok {
		octx.deadline = dl
	}
	return octx
}

func (c *OptimizationContext) push(t task) {
	c.taskStack = append(c.taskStack, t)
}

func (c *OptimizationContext) pop() task {
	n := len(c.taskStack)
	if n == 0 {
		return nil
	}
	t := c.taskStack[n-1]
	c.taskStack = c.taskStack[:n-1]
	return t
}

// run drains the task stack, checking the abort flag at every dispatch
// boundary. A deadline stops the search but is not an error: the caller
// settles for the best-so-far winner.
func (c *OptimizationContext) run() error {
	for {
		if err := c.Ctx.Err(); err != nil {
			c.taskStack = nil
			if errors.Is(err, context.DeadlineExceeded) {
				c.deadlineHit = true
				return nil
			}
			return cerrors.Cancelled(err.Error())
		}
		if !c.deadline.IsZero() && time.Now().After(c.deadline) {
			c.deadlineHit = true
			c.taskStack = nil
			return nil
		}
		t := c.pop()
		if t == nil {
			return nil
		}
		if err := t.execute(); err != nil {
			return err
		}
	}
}

// joinOrderLimited reports whether join reordering rules are short-circuited
// for this query.
func (c *OptimizationContext) joinOrderLimited() bool {
	return c.relationCount > c.Config.JoinOrderThreshold
}
