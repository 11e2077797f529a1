package odbc

import (
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// CursorConfig задает размеры буферов одного курсора.
type CursorConfig struct {
	RowArraySize int // строк за Fetch, когда привязаны все колонки
	MaxStrLen    int
	MaxBinaryLen int
	Charset      Charset
	// Fetcher, если задан, переиспользуется между курсорами.
	Fetcher *LongValueFetcher
	Logger  zerolog.Logger
}

// Cursor читает результат, оставленный открытым на операторе через Statement.Open.
type Cursor struct {
	stmt    Statement
	cols    []BoundColumn
	mat     *Materializer
	rowset  int
	fetched int64
	done    bool
}

// OpenCursor описывает колонки результата, планирует и привязывает буферы.
//
// Колонки до первой длинной привязываются. Она и все следующие за ней
// читаются через GetData по возрастанию номера, а блок строк
// сокращается до одной строки.
func OpenCursor(stmt Statement, cfg CursorConfig) (*Cursor, error) {
	n, err := stmt.NumResultCols()
	if err != nil {
		return nil, errs.NewDriverError("num result cols", err)
	}
	if n == 0 {
		return nil, errs.Errorf("statement has no result columns")
	}

	cols := make([]BoundColumn, n)
	firstLong := n
	for i := 0; i < n; i++ {
		desc, err := stmt.DescribeCol(i + 1)
		if err != nil {
			return nil, errs.NewDriverError("describe col", err)
		}
		plan, err := Plan(desc, cfg.MaxStrLen, cfg.MaxBinaryLen)
		if err != nil {
			return nil, err
		}
		cols[i] = BoundColumn{Number: i + 1, Desc: desc, Plan: plan}
		if plan.Long() && i < firstLong {
			firstLong = i
		}
		cfg.Logger.Debug().Str("column", desc.Name).Str("wire", desc.Wire.Code.String()).
			Int("length", desc.Wire.Length).Stringer("plan", plan).Msg("column planned")
	}

	rowset := cfg.RowArraySize
	if rowset <= 0 || firstLong < n {
		rowset = 1
	}
	if err := stmt.SetRowArraySize(rowset); err != nil {
		return nil, errs.NewDriverError("set row array size", err)
	}
	for i := 0; i < firstLong; i++ {
		c := &cols[i]
		c.Buffer = NewColumnBuffer(c.Plan.CType, c.Plan.Capacity, rowset)
		if err := stmt.BindCol(c.Number, c.Buffer); err != nil {
			return nil, errs.NewDriverError("bind col", err)
		}
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewLongValueFetcher(cfg.MaxStrLen, cfg.Logger)
	}
	return &Cursor{
		stmt:   stmt,
		cols:   cols,
		mat:    NewMaterializer(stmt, cols, fetcher, cfg.Charset),
		rowset: rowset,
	}, nil
}

// Columns возвращает дескрипторы колонок в порядке протокола.
func (c *Cursor) Columns() []types.ColumnDescriptor {
	out := make([]types.ColumnDescriptor, len(c.cols))
	for i, col := range c.cols {
		out[i] = col.Desc
	}
	return out
}

// Plans возвращает план буфера каждой колонки.
func (c *Cursor) Plans() []BufferPlan {
	out := make([]BufferPlan, len(c.cols))
	for i, col := range c.cols {
		out[i] = col.Plan
	}
	return out
}

// RowsetSize - число строк, запрашиваемых за одну выборку.
func (c *Cursor) RowsetSize() int { return c.rowset }

// Fetched возвращает число уже материализованных строк.
func (c *Cursor) Fetched() int64 { return c.fetched }

// Next выбирает и материализует следующий блок строк. Возвращает io.EOF,
// когда курсор исчерпан.
func (c *Cursor) Next() ([][]types.ColumnValue, error) {
	if c.done {
		return nil, io.EOF
	}
	n, err := c.stmt.Fetch()
	if errors.Is(err, ErrNoData) || (err == nil && n == 0) {
		c.done = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, errs.NewDriverError("fetch", err)
	}
	rows, err := c.mat.Materialize(n)
	if err != nil {
		return nil, err
	}
	c.fetched += int64(len(rows))
	return rows, nil
}

// All дочитывает курсор до конца.
func (c *Cursor) All() ([][]types.ColumnValue, error) {
	var out [][]types.ColumnValue
	for {
		rows, err := c.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
}

// Close закрывает курсор, сохраняя дескриптор оператора.
func (c *Cursor) Close() error {
	c.done = true
	if err := c.stmt.CloseCursor(); err != nil {
		return errs.NewDriverError("close cursor", err)
	}
	return nil
}
