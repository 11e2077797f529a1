// Package transfer копирует таблицу из ODBC-источника в целевую базу:
// читается каталог источника, каждая колонка сопоставляется целевому типу,
// таблица создается на приемнике, строки передаются потоком порциями
// в одной транзакции приемника.
package transfer

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruslano69/dmbridge/pkg/adapters"
	"github.com/ruslano69/dmbridge/pkg/catalog"
	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
	"github.com/ruslano69/dmbridge/pkg/executor"
	"github.com/ruslano69/dmbridge/pkg/metrics"
)

// DefaultChunkSize - число строк на один вызов Tx.Write.
const DefaultChunkSize = 1000

// Source - читающая сторона переноса. Реализуется *executor.Executor.
type Source interface {
	Describe(ctx context.Context, schema, table string) (*catalog.Description, error)
	Stream(ctx context.Context, query string, fn executor.RowsetFunc, params ...types.ColumnValue) error
	Options() executor.Options
}

// Request задает копируемую таблицу.
type Request struct {
	Schema      string
	Table       string
	TargetTable string // по умолчанию имя источника в нижнем регистре
	Strategy    adapters.WriteStrategy
	ChunkSize   int
}

// Result - итог завершенного переноса.
type Result struct {
	Source   string
	Target   string
	Columns  int
	Rows     int64
	Lossy    []string // колонки, тип которых потерял информацию
	Duration time.Duration
}

type Transfer struct {
	src     Source
	dst     adapters.Target
	metrics *metrics.Collector
	log     zerolog.Logger
}

type Option func(*Transfer)

func WithLogger(l zerolog.Logger) Option {
	return func(t *Transfer) { t.log = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(t *Transfer) { t.metrics = m }
}

func New(src Source, dst adapters.Target, opts ...Option) *Transfer {
	t := &Transfer{src: src, dst: dst, log: zerolog.Nop()}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Run копирует одну таблицу. На приемнике ничего не фиксируется, пока
// не записаны все строки.
func (t *Transfer) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if req.Schema == "" || req.Table == "" {
		return nil, &errs.SQLParamsError{Statement: "transfer", Reason: "schema and table are required"}
	}
	strategy, err := adapters.ParseStrategy(string(req.Strategy))
	if err != nil {
		return nil, err
	}
	chunk := req.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	opts := t.src.Options()
	schema, name := opts.FoldName(req.Schema), opts.FoldName(req.Table)
	desc, err := t.src.Describe(ctx, schema, name)
	if err != nil {
		return nil, err
	}
	cols := desc.Columns(name)
	if len(cols) == 0 {
		return nil, errs.Errorf("table %s.%s not found", schema, name)
	}

	targetName := req.TargetTable
	if targetName == "" {
		targetName = strings.ToLower(cols[0].TableName)
	}
	table, lossy, err := adapters.TableFromCatalog(targetName, cols)
	if err != nil {
		return nil, err
	}
	for _, col := range lossy {
		t.log.Warn().Str("table", targetName).Str("column", col).Msg("column type mapped with loss of information")
	}

	if err := t.dst.CreateTable(ctx, table); err != nil {
		return nil, fmt.Errorf("transfer %s: %w", targetName, err)
	}

	n, err := t.load(ctx, selectAll(schema, cols), table, strategy, chunk)
	if err != nil {
		return nil, fmt.Errorf("transfer %s: %w", targetName, err)
	}
	t.metrics.Copied(targetName, n)

	out := &Result{
		Source:   schema + "." + cols[0].TableName,
		Target:   targetName,
		Columns:  len(table.Columns),
		Rows:     n,
		Lossy:    lossy,
		Duration: time.Since(start),
	}
	t.log.Info().Str("source", out.Source).Str("target", out.Target).Int64("rows", n).
		Dur("duration", out.Duration).Msg("table transferred")
	return out, nil
}

func (t *Transfer) load(ctx context.Context, query string, table adapters.Table, strategy adapters.WriteStrategy, chunk int) (total int64, err error) {
	tx, err := t.dst.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				t.log.Error().Err(rbErr).Str("table", table.Name).Msg("target rollback failed")
			}
		}
	}()

	pending := make([][]types.ColumnValue, 0, chunk)
	flush := func(rows [][]types.ColumnValue) error {
		n, err := tx.Write(ctx, table, rows, strategy)
		if err != nil {
			return fmt.Errorf("rows %d-%d: %w", total+1, total+int64(len(rows)), err)
		}
		total += n
		t.log.Debug().Str("table", table.Name).Int64("rows", total).Msg("chunk written")
		return nil
	}

	err = t.src.Stream(ctx, query, func(cols []types.ColumnDescriptor, rows [][]types.ColumnValue) error {
		if len(cols) != len(table.Columns) {
			return errs.Errorf("source returned %d columns, table has %d", len(cols), len(table.Columns))
		}
		pending = append(pending, rows...)
		for len(pending) >= chunk {
			if err := flush(pending[:chunk]); err != nil {
				return err
			}
			pending = append(pending[:0], pending[chunk:]...)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(pending) > 0 {
		if err := flush(pending); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return total, nil
}

// selectAll перечисляет колонки каталога явно, чтобы порядок результата
// совпадал с целевой таблицей.
func selectAll(schema string, cols []catalog.TableColumnDescriptor) string {
	sorted := make([]catalog.TableColumnDescriptor, len(cols))
	copy(sorted, cols)
	sortByIndex(sorted)
	names := make([]string, len(sorted))
	for i, c := range sorted {
		names[i] = quote(c.Name)
	}
	return "SELECT " + strings.Join(names, ", ") + " FROM " + quote(schema) + "." + quote(cols[0].TableName)
}

func sortByIndex(cols []catalog.TableColumnDescriptor) {
	slices.SortStableFunc(cols, func(a, b catalog.TableColumnDescriptor) int {
		return cmp.Compare(a.Index, b.Index)
	})
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
