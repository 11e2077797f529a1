package sqlconn

import (
	"context"
	"database/sql"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
	"github.com/ruslano69/dmbridge/pkg/odbc"
)

// Stmt - дескриптор оператора, не более одного открытого курсора.
type Stmt struct {
	c      *Conn
	rows   *sql.Rows
	descs  []types.ColumnDescriptor
	rowset int
	bound  map[int]*odbc.ColumnBuffer

	current []any
	offsets map[int]int
	done    map[int]bool
}

func (s *Stmt) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if err := s.CloseCursor(); err != nil {
		return 0, err
	}
	q, err := s.c.querier(ctx)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, driverError("execute", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// некоторые драйверы не сообщают число строк
		return -1, nil
	}
	return n, nil
}

func (s *Stmt) Open(ctx context.Context, query string, args ...any) error {
	if err := s.CloseCursor(); err != nil {
		return err
	}
	q, err := s.c.querier(ctx)
	if err != nil {
		return err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return driverError("execute", err)
	}
	cts, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return driverError("describe", err)
	}
	descs := make([]types.ColumnDescriptor, len(cts))
	for i, ct := range cts {
		descs[i] = describe(s.c.cfg.Driver, ct)
	}
	s.rows = rows
	s.descs = descs
	return nil
}

func (s *Stmt) NumResultCols() (int, error) {
	if s.rows == nil {
		return 0, nil
	}
	return len(s.descs), nil
}

func (s *Stmt) DescribeCol(col int) (types.ColumnDescriptor, error) {
	if col < 1 || col > len(s.descs) {
		return types.ColumnDescriptor{}, errs.NewDriverDiag("describe col", "07009", "invalid descriptor index")
	}
	return s.descs[col-1], nil
}

func (s *Stmt) SetRowArraySize(n int) error {
	if n < 1 {
		return errs.NewDriverDiag("set row array size", "HY024", "invalid attribute value")
	}
	s.rowset = n
	for _, b := range s.bound {
		if b.Rows() < n {
			return errs.NewDriverDiag("set row array size", "HY090", "bound buffer smaller than rowset")
		}
	}
	return nil
}

func (s *Stmt) BindCol(col int, buf *odbc.ColumnBuffer) error {
	if col < 1 || col > len(s.descs) {
		return errs.NewDriverDiag("bind col", "07009", "invalid descriptor index")
	}
	if buf == nil {
		delete(s.bound, col)
		return nil
	}
	if buf.Rows() < s.rowset {
		return errs.NewDriverDiag("bind col", "HY090", "buffer smaller than rowset")
	}
	s.bound[col] = buf
	return nil
}

func (s *Stmt) Fetch() (int, error) {
	if s.rows == nil {
		return 0, errs.NewDriverDiag("fetch", "24000", "invalid cursor state")
	}
	n := 0
	for n < s.rowset && s.rows.Next() {
		vals := make([]any, len(s.descs))
		ptrs := make([]any, len(vals))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := s.rows.Scan(ptrs...); err != nil {
			return 0, driverError("fetch", err)
		}
		for col, buf := range s.bound {
			if err := s.store(buf, n, vals[col-1]); err != nil {
				return 0, err
			}
		}
		s.current = vals
		n++
	}
	if err := s.rows.Err(); err != nil {
		return 0, driverError("fetch", err)
	}
	s.offsets = map[int]int{}
	s.done = map[int]bool{}
	if n == 0 {
		return 0, odbc.ErrNoData
	}
	return n, nil
}

// store пишет v в строку i привязанного буфера так же, как SQLFetch.
func (s *Stmt) store(buf *odbc.ColumnBuffer, i int, v any) error {
	if v == nil {
		buf.Indicators[i] = odbc.NullData
		return nil
	}
	data, err := encode(buf.CType, v, s.c.cfg.Charset)
	if err != nil {
		return err
	}
	slot := buf.Slot(i)
	if fixedCType(buf.CType) {
		copy(slot, data)
		buf.Indicators[i] = odbc.Indicator(len(data))
		return nil
	}
	term := terminatorSize(buf.CType)
	k := copy(slot[:len(slot)-term], data)
	clear(slot[k : k+term])
	buf.Indicators[i] = odbc.Indicator(len(data))
	return nil
}

func (s *Stmt) GetData(col int, ctype types.CType, buf []byte) (odbc.Indicator, error) {
	if s.current == nil {
		return 0, errs.NewDriverDiag("get data", "24000", "invalid cursor state")
	}
	if col < 1 || col > len(s.current) {
		return 0, errs.NewDriverDiag("get data", "07009", "invalid descriptor index")
	}
	v := s.current[col-1]
	if v == nil {
		return odbc.NullData, nil
	}
	if s.done[col] {
		return 0, odbc.ErrNoData
	}
	data, err := encode(ctype, v, s.c.cfg.Charset)
	if err != nil {
		return 0, err
	}
	if fixedCType(ctype) {
		copy(buf, data)
		s.done[col] = true
		return odbc.Indicator(len(data)), nil
	}

	term := terminatorSize(ctype)
	rem := data[s.offsets[col]:]
	if len(rem)+term <= len(buf) {
		copy(buf, rem)
		clear(buf[len(rem) : len(rem)+term])
		s.done[col] = true
		return odbc.Indicator(len(rem)), nil
	}
	k := len(buf) - term
	if k < 0 {
		return 0, errs.NewDriverDiag("get data", "HY090", "invalid buffer length")
	}
	copy(buf, rem[:k])
	clear(buf[k:])
	s.offsets[col] += k
	if s.c.cfg.NoTotal {
		return odbc.NoTotal, nil
	}
	return odbc.Indicator(len(rem)), nil
}

func (s *Stmt) CloseCursor() error {
	s.current = nil
	s.bound = map[int]*odbc.ColumnBuffer{}
	s.rowset = 1
	if s.rows == nil {
		return nil
	}
	rows := s.rows
	s.rows = nil
	s.descs = nil
	if err := rows.Close(); err != nil {
		return driverError("close cursor", err)
	}
	return nil
}

func (s *Stmt) Close() error {
	return s.CloseCursor()
}

func fixedCType(c types.CType) bool {
	return c != types.CChar && c != types.CWChar && c != types.CBinary
}

func terminatorSize(c types.CType) int {
	switch c {
	case types.CChar:
		return 1
	case types.CWChar:
		return 2
	}
	return 0
}
