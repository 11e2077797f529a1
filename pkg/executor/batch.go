package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ruslano69/dmbridge/pkg/catalog"
	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// Operation - шаг пакета: ExecOp, QueryOp или DescribeOp.
type Operation interface {
	opKind() string
}

// ExecOp выполняет оператор без результирующего набора.
type ExecOp struct {
	SQL    string
	Params []types.ColumnValue
}

// QueryOp выполняет оператор и собирает строки.
type QueryOp struct {
	SQL    string
	Params []types.ColumnValue
}

// DescribeOp читает каталог одной таблицы.
type DescribeOp struct {
	Schema string
	Table  string
}

func (ExecOp) opKind() string     { return "execute" }
func (QueryOp) opKind() string    { return "query" }
func (DescribeOp) opKind() string { return "describe" }

// BatchResult - результаты зафиксированного пакета по видам операций,
// каждый срез в порядке операций.
type BatchResult struct {
	Executes  []int64
	Queries   []*QueryResult
	Describes []*catalog.Description
}

// Batch выполняет ops по порядку в одной транзакции. При успехе транзакция
// фиксируется и autocommit восстанавливается. При первой ошибке транзакция
// откатывается, autocommit восстанавливается, ошибка возвращается без
// результата. Параметры проверяются до начала транзакции.
func (e *Executor) Batch(ctx context.Context, ops []Operation) (res *BatchResult, err error) {
	for i, op := range ops {
		if err := e.checkOp(op); err != nil {
			return nil, fmt.Errorf("batch operation %d: %w", i+1, err)
		}
	}

	if err := e.conn.SetAutoCommit(false); err != nil {
		return nil, errs.NewDriverError("disable autocommit", err)
	}
	e.log.Info().Int("operations", len(ops)).Msg("batch started")

	defer func() {
		if err == nil {
			return
		}
		res = nil
		if rbErr := e.conn.Rollback(); rbErr != nil {
			e.log.Error().Err(rbErr).Msg("batch rollback failed")
			err = errors.Join(err, errs.NewDriverError("rollback", rbErr))
		}
		if acErr := e.conn.SetAutoCommit(true); acErr != nil {
			e.log.Error().Err(acErr).Msg("restore autocommit failed")
			err = errors.Join(err, errs.NewDriverError("enable autocommit", acErr))
		}
		e.metrics.Batch("rolled_back")
		e.log.Warn().Err(err).Msg("batch rolled back")
	}()

	out := &BatchResult{}
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch operation %d: %w", i+1, errs.NewDriverError("batch", err))
		}
		if err := e.runOp(ctx, op, out); err != nil {
			return nil, fmt.Errorf("batch operation %d (%s): %w", i+1, op.opKind(), err)
		}
	}

	if err := e.conn.Commit(); err != nil {
		return nil, errs.NewDriverError("commit", err)
	}
	if err := e.conn.SetAutoCommit(true); err != nil {
		return nil, errs.NewDriverError("enable autocommit", err)
	}
	e.metrics.Batch("committed")
	e.log.Info().Int("operations", len(ops)).Msg("batch committed")
	return out, nil
}

func (e *Executor) checkOp(op Operation) error {
	switch op := op.(type) {
	case ExecOp:
		return checkParams(e.opts.Kind, op.SQL, op.Params)
	case QueryOp:
		return checkParams(e.opts.Kind, op.SQL, op.Params)
	case DescribeOp:
		return e.checkDescribe(op.Schema, op.Table)
	case nil:
		return &errs.SQLParamsError{Statement: "<nil>", Reason: "nil operation"}
	}
	return errs.Errorf("unsupported operation %T", op)
}

func (e *Executor) runOp(ctx context.Context, op Operation, out *BatchResult) error {
	switch op := op.(type) {
	case ExecOp:
		n, err := e.execute(ctx, op.SQL, op.Params)
		if err != nil {
			return err
		}
		out.Executes = append(out.Executes, n)
	case QueryOp:
		r, err := e.query(ctx, op.SQL, op.Params)
		if err != nil {
			return err
		}
		out.Queries = append(out.Queries, r)
	case DescribeOp:
		d, err := e.describe(ctx, op.Schema, op.Table)
		if err != nil {
			return err
		}
		out.Describes = append(out.Describes, d)
	}
	return nil
}
