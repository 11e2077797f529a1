// Package executor выполняет операции execute, query и describe на одном
// соединении, по одной или пакетом в транзакции.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ruslano69/dmbridge/pkg/catalog"
	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/sqlstate"
	"github.com/ruslano69/dmbridge/pkg/core/types"
	"github.com/ruslano69/dmbridge/pkg/metrics"
	"github.com/ruslano69/dmbridge/pkg/odbc"
)

// QueryResult - колонки и строки одного запроса.
type QueryResult struct {
	Columns []types.ColumnDescriptor
	Rows    [][]types.ColumnValue
}

// Executor владеет одним соединением. Операции выполняются синхронно в порядке
// вызова; использовать Executor из нескольких горутин одновременно нельзя.
// Для параллельной работы - отдельный Executor на соединение.
type Executor struct {
	conn    odbc.Connection
	opts    Options
	charset odbc.Charset
	fetcher *odbc.LongValueFetcher
	states  *sqlstate.Registry
	metrics *metrics.Collector
	log     zerolog.Logger
}

// Option настраивает Executor.
type Option func(*Executor)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.log = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithRegistry разделяет реестр SQLSTATE между исполнителями.
func WithRegistry(r *sqlstate.Registry) Option {
	return func(e *Executor) { e.states = r }
}

// New создает Executor поверх conn. Нулевые числовые опции заменяются
// значениями по умолчанию.
func New(conn odbc.Connection, opts Options, options ...Option) (*Executor, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, errs.Errorf("executor options: %v", err)
	}
	cs, err := odbc.ParseCharset(opts.Charset)
	if err != nil {
		return nil, err
	}
	e := &Executor{conn: conn, opts: opts, charset: cs, log: zerolog.Nop()}
	for _, o := range options {
		o(e)
	}
	if e.states == nil {
		e.states = sqlstate.NewRegistry()
	}
	e.fetcher = odbc.NewLongValueFetcher(opts.MaxStrLen, e.log)
	return e, nil
}

// Options возвращает действующие опции.
func (e *Executor) Options() Options { return e.opts }

// Execute выполняет оператор без результата и возвращает число затронутых строк.
func (e *Executor) Execute(ctx context.Context, query string, params ...types.ColumnValue) (int64, error) {
	if err := checkParams(e.opts.Kind, query, params); err != nil {
		return 0, err
	}
	return e.execute(ctx, query, params)
}

// Query выполняет оператор и материализует весь результат.
func (e *Executor) Query(ctx context.Context, query string, params ...types.ColumnValue) (*QueryResult, error) {
	if err := checkParams(e.opts.Kind, query, params); err != nil {
		return nil, err
	}
	return e.query(ctx, query, params)
}

// RowsetFunc получает один выбранный блок строк. После возврата исполнитель
// строки не хранит.
type RowsetFunc func(cols []types.ColumnDescriptor, rows [][]types.ColumnValue) error

// Stream выполняет оператор и передает результат в fn по одному блоку строк,
// в памяти держится только текущий блок. Ошибка из fn прекращает выборку
// и возвращается без изменений.
func (e *Executor) Stream(ctx context.Context, query string, fn RowsetFunc, params ...types.ColumnValue) error {
	if err := checkParams(e.opts.Kind, query, params); err != nil {
		return err
	}
	_, err := e.stream(ctx, query, params, fn)
	return err
}

// Describe читает каталог колонок schema.table. Поддерживается только DM.
func (e *Executor) Describe(ctx context.Context, schema, table string) (*catalog.Description, error) {
	if err := e.checkDescribe(schema, table); err != nil {
		return nil, err
	}
	return e.describe(ctx, schema, table)
}

func (e *Executor) checkDescribe(schema, table string) error {
	if e.opts.Kind != KindDameng {
		return errs.Errorf("describe is not implemented for %s", e.opts.Kind)
	}
	if schema == "" || table == "" {
		return &errs.SQLParamsError{Statement: "describe", Reason: "schema and table are required"}
	}
	return nil
}

func (e *Executor) execute(ctx context.Context, query string, params []types.ColumnValue) (int64, error) {
	e.metrics.Statement("execute")
	stmt, err := e.conn.NewStatement()
	if err != nil {
		return 0, e.fail("execute", errs.NewDriverError("alloc statement", err))
	}
	defer stmt.Close()

	n, err := stmt.Exec(ctx, query, bindArgs(params)...)
	if err != nil {
		return 0, e.fail("execute", errs.NewDriverError("execute", err))
	}
	e.log.Debug().Str("sql", query).Int64("rows", n).Msg("statement executed")
	return n, nil
}

func (e *Executor) query(ctx context.Context, query string, params []types.ColumnValue) (*QueryResult, error) {
	res := &QueryResult{}
	cols, err := e.stream(ctx, query, params, func(_ []types.ColumnDescriptor, rows [][]types.ColumnValue) error {
		res.Rows = append(res.Rows, rows...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Columns = cols
	return res, nil
}

// stream открывает курсор по query и вызывает fn для каждого блока строк.
// Возвращает колонки результата.
func (e *Executor) stream(ctx context.Context, query string, params []types.ColumnValue, fn RowsetFunc) ([]types.ColumnDescriptor, error) {
	e.metrics.Statement("query")
	stmt, err := e.conn.NewStatement()
	if err != nil {
		return nil, e.fail("query", errs.NewDriverError("alloc statement", err))
	}
	defer stmt.Close()

	if err := stmt.Open(ctx, query, bindArgs(params)...); err != nil {
		return nil, e.fail("query", errs.NewDriverError("execute", err))
	}
	calls, growths := e.fetcher.Calls, e.fetcher.Growths
	cur, err := odbc.OpenCursor(stmt, odbc.CursorConfig{
		RowArraySize: e.opts.MaxBatchSize,
		MaxStrLen:    e.opts.MaxStrLen,
		MaxBinaryLen: e.opts.MaxBinaryLen,
		Charset:      e.charset,
		Fetcher:      e.fetcher,
		Logger:       e.log,
	})
	if err != nil {
		return nil, e.fail("query", err)
	}
	defer cur.Close()

	cols := cur.Columns()
	for {
		if err := ctx.Err(); err != nil {
			return nil, e.fail("query", err)
		}
		rows, err := cur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			e.metrics.LongFetch(e.fetcher.Calls-calls, e.fetcher.Growths-growths)
			return nil, e.fail("query", err)
		}
		if err := fn(cols, rows); err != nil {
			return nil, err
		}
	}
	e.metrics.LongFetch(e.fetcher.Calls-calls, e.fetcher.Growths-growths)
	e.metrics.Rows(int(cur.Fetched()))
	e.log.Debug().Str("sql", query).Int64("rows", cur.Fetched()).Int("rowset", cur.RowsetSize()).Msg("query finished")
	return cols, nil
}

func (e *Executor) describe(ctx context.Context, schema, table string) (*catalog.Description, error) {
	schema, table = e.opts.FoldName(schema), e.opts.FoldName(table)
	res, err := e.query(ctx, catalog.DescribeQuery,
		[]types.ColumnValue{types.TextValue(table), types.TextValue(schema)})
	if err != nil {
		return nil, fmt.Errorf("describe %s.%s: %w", schema, table, err)
	}
	headers := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		headers[i] = c.Name
	}
	rows := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = v.String()
		}
	}
	d, err := catalog.Parse(headers, rows)
	if err != nil {
		return nil, e.fail("describe", fmt.Errorf("describe %s.%s: %w", schema, table, err))
	}
	return d, nil
}

// fail учитывает неудачную операцию и возвращает err без изменений.
func (e *Executor) fail(kind string, err error) error {
	e.metrics.Failure(kind, Classify(err))
	e.log.Debug().Err(err).Str("op", kind).Msg("operation failed")
	return err
}

// Classify называет вид ошибки err: driver, conversion, params или other.
func Classify(err error) string {
	var (
		de *errs.DriverError
		ce *errs.TypeConversionError
		pe *errs.SQLParamsError
	)
	switch {
	case errors.As(err, &de):
		return "driver"
	case errors.As(err, &ce):
		return "conversion"
	case errors.As(err, &pe):
		return "params"
	}
	return "other"
}

// TranslateState возвращает SQLSTATE PostgreSQL для ошибки драйвера.
func (e *Executor) TranslateState(err error) (string, bool) {
	var de *errs.DriverError
	if !errors.As(err, &de) || de.State() == "" {
		return "", false
	}
	return e.states.SourceToTarget(de.State())
}
