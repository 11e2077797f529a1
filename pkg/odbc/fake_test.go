package odbc

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/golang-sql/civil"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// fakeStmt - дескриптор оператора по сценарию. Значения строк - значения Go
// (nil, int64, float64, bool, string, []byte, civil.*), кодируемые по запросу
// в нужный C-тип.
type fakeStmt struct {
	descs []types.ColumnDescriptor
	rows  [][]any

	next    int
	current int
	rowset  int
	bound   map[int]*ColumnBuffer
	offsets map[int]int
	done    map[int]bool

	// dmQuirk заставляет узкий GetData останавливаться на границе символа UTF-8
	// и ставить там терминатор, как делает DM.
	dmQuirk bool
	// zeroTail обнуляет байты за ранним терминатором, а не оставляет
	// их нетронутыми.
	zeroTail bool
	// noTotal сообщает NoTotal вместо длины остатка, пока значение
	// не помещается.
	noTotal bool

	failOnCall int
	calls      int
	closed     bool
}

func newFakeStmt(descs []types.ColumnDescriptor, rows ...[]any) *fakeStmt {
	return &fakeStmt{descs: descs, rows: rows, rowset: 1, bound: map[int]*ColumnBuffer{}}
}

func (s *fakeStmt) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return 0, nil
}

func (s *fakeStmt) Open(ctx context.Context, query string, args ...any) error { return nil }

func (s *fakeStmt) NumResultCols() (int, error) { return len(s.descs), nil }

func (s *fakeStmt) DescribeCol(col int) (types.ColumnDescriptor, error) {
	if col < 1 || col > len(s.descs) {
		return types.ColumnDescriptor{}, errs.NewDriverDiag("SQLDescribeCol", "07009", "invalid descriptor index")
	}
	return s.descs[col-1], nil
}

func (s *fakeStmt) SetRowArraySize(n int) error {
	s.rowset = n
	return nil
}

func (s *fakeStmt) BindCol(col int, buf *ColumnBuffer) error {
	s.bound[col] = buf
	return nil
}

func (s *fakeStmt) Fetch() (int, error) {
	if s.next >= len(s.rows) {
		return 0, ErrNoData
	}
	n := min(s.rowset, len(s.rows)-s.next)
	for col, buf := range s.bound {
		for i := 0; i < n; i++ {
			v := s.rows[s.next+i][col-1]
			slot := buf.Slot(i)
			if v == nil {
				buf.Indicators[i] = NullData
				continue
			}
			data := encodeFake(buf.CType, v)
			if isFixedC(buf.CType) {
				copy(slot, data)
				buf.Indicators[i] = Indicator(len(data))
				continue
			}
			term := terminatorSize(buf.CType)
			k := copy(slot[:len(slot)-term], data)
			clear(slot[k : k+term])
			buf.Indicators[i] = Indicator(len(data))
		}
	}
	s.current = s.next + n - 1
	s.next += n
	s.offsets = map[int]int{}
	s.done = map[int]bool{}
	return n, nil
}

func (s *fakeStmt) GetData(col int, ctype types.CType, buf []byte) (Indicator, error) {
	s.calls++
	if s.failOnCall > 0 && s.calls == s.failOnCall {
		return 0, errs.NewDriverDiag("SQLGetData", "08S01", "communication link failure")
	}
	v := s.rows[s.current][col-1]
	if v == nil {
		return NullData, nil
	}
	if s.done[col] {
		return 0, ErrNoData
	}
	data := encodeFake(ctype, v)
	if isFixedC(ctype) {
		copy(buf, data)
		s.done[col] = true
		return Indicator(len(data)), nil
	}

	term := terminatorSize(ctype)
	rem := data[s.offsets[col]:]
	if len(rem)+term <= len(buf) {
		copy(buf, rem)
		clear(buf[len(rem) : len(rem)+term])
		s.done[col] = true
		return Indicator(len(rem)), nil
	}

	k := len(buf) - term
	if s.dmQuirk && ctype == types.CChar {
		for back := 0; back < 3 && k > 0 && !utf8.RuneStart(rem[k]); back++ {
			k--
		}
	}
	copy(buf, rem[:k])
	clear(buf[k : k+term])
	if s.zeroTail {
		clear(buf[k+term:])
	}
	s.offsets[col] += k
	if s.noTotal {
		return NoTotal, nil
	}
	return Indicator(len(rem)), nil
}

func (s *fakeStmt) CloseCursor() error { return nil }

func (s *fakeStmt) Close() error {
	s.closed = true
	return nil
}

func isFixedC(c types.CType) bool {
	return c != types.CChar && c != types.CWChar && c != types.CBinary
}

func encodeFake(ctype types.CType, v any) []byte {
	switch ctype {
	case types.CChar:
		return []byte(v.(string))
	case types.CWChar:
		return EncodeWide(v.(string))
	case types.CBinary:
		return v.([]byte)
	case types.CBit, types.CSTinyInt, types.CUTinyInt:
		b := make([]byte, 1)
		switch x := v.(type) {
		case bool:
			if x {
				b[0] = 1
			}
		case int64:
			b[0] = byte(x)
		}
		return b
	case types.CSShort:
		b := make([]byte, 2)
		PutInt(b, v.(int64))
		return b
	case types.CSLong:
		b := make([]byte, 4)
		PutInt(b, v.(int64))
		return b
	case types.CSBigInt:
		b := make([]byte, 8)
		PutInt(b, v.(int64))
		return b
	case types.CFloat:
		b := make([]byte, 4)
		PutFloat(b, v.(float64))
		return b
	case types.CDouble:
		b := make([]byte, 8)
		PutFloat(b, v.(float64))
		return b
	case types.CDate:
		b := make([]byte, types.DateStructSize)
		PutDate(b, v.(civil.Date))
		return b
	case types.CTime:
		b := make([]byte, types.TimeStructSize)
		PutTime(b, v.(civil.Time))
		return b
	case types.CTimestamp:
		b := make([]byte, types.TimestampStructSize)
		PutTimestamp(b, v.(civil.DateTime))
		return b
	}
	panic(fmt.Sprintf("fake driver: unsupported C type %d", ctype))
}

func col(name string, code types.SQLType, length int) types.ColumnDescriptor {
	return types.ColumnDescriptor{Name: name, Wire: types.WireType{Code: code, Length: length}, Nullable: true}
}
