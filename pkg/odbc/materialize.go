package odbc

import (
	"errors"
	"fmt"
	"math"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// BoundColumn - колонка результата с планом. Buffer задан, если колонка
// привязана; иначе значение читается через GetData.
type BoundColumn struct {
	Number int // с 1
	Desc   types.ColumnDescriptor
	Plan   BufferPlan
	Buffer *ColumnBuffer
}

// Materializer превращает выбранные блоки строк в строки ColumnValue.
type Materializer struct {
	stmt    Statement
	cols    []BoundColumn
	fetcher *LongValueFetcher
	charset Charset
	scratch []byte
}

func NewMaterializer(stmt Statement, cols []BoundColumn, fetcher *LongValueFetcher, cs Charset) *Materializer {
	return &Materializer{stmt: stmt, cols: cols, fetcher: fetcher, charset: cs}
}

// Materialize преобразует n строк последнего блока. Строки идут в порядке
// выборки, колонки в порядке дескрипторов. Непривязанные колонки читаются
// через GetData, поэтому блок должен состоять из одной строки.
func (m *Materializer) Materialize(n int) ([][]types.ColumnValue, error) {
	if n > 1 {
		for _, c := range m.cols {
			if c.Buffer == nil {
				return nil, errs.Errorf("column %s is unbound but the rowset has %d rows", c.Desc.Name, n)
			}
		}
	}
	rows := make([][]types.ColumnValue, n)
	for i := 0; i < n; i++ {
		row := make([]types.ColumnValue, len(m.cols))
		for j := range m.cols {
			v, err := m.value(&m.cols[j], i)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", i+1, m.cols[j].Desc.Name, err)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return rows, nil
}

func (m *Materializer) value(c *BoundColumn, row int) (types.ColumnValue, error) {
	switch {
	case c.Plan.Long():
		data, null, err := m.fetcher.Fetch(m.stmt, c.Number, c.Plan.CType)
		if err != nil {
			return types.ColumnValue{}, err
		}
		if null {
			return types.Null(c.Plan.Value), nil
		}
		return m.variable(c.Plan, data)

	case c.Buffer != nil:
		return m.decode(c.Plan, c.Buffer.Slot(row), c.Buffer.Indicators[row])

	default:
		if cap(m.scratch) < c.Plan.Capacity {
			m.scratch = make([]byte, c.Plan.Capacity)
		}
		slot := m.scratch[:c.Plan.Capacity]
		ind, err := m.stmt.GetData(c.Number, c.Plan.CType, slot)
		if errors.Is(err, ErrNoData) {
			return types.ColumnValue{}, errs.NewDriverDiag(fmt.Sprintf("get data for column %d", c.Number), "24000", "no data for column")
		}
		if err != nil {
			return types.ColumnValue{}, errs.NewDriverError(fmt.Sprintf("get data for column %d", c.Number), err)
		}
		return m.decode(c.Plan, slot, ind)
	}
}

func (m *Materializer) decode(p BufferPlan, slot []byte, ind Indicator) (types.ColumnValue, error) {
	if ind == NullData {
		return types.Null(p.Value), nil
	}
	if p.Kind == FixedSlot {
		dec, ok := fixedDecoders[p.Value]
		if !ok {
			return types.ColumnValue{}, errs.NewTypeConversion(p.Value.String(), "fixed slot", nil)
		}
		return dec(slot)
	}
	term := terminatorSize(p.CType)
	if ind < 0 || int(ind)+term > len(slot) {
		return types.ColumnValue{}, errs.NewDriverDiag("read bound column", "01004",
			fmt.Sprintf("string data, right truncated: indicator %d, slot %d", ind, len(slot)))
	}
	return m.variable(p, slot[:ind])
}

func (m *Materializer) variable(p BufferPlan, data []byte) (types.ColumnValue, error) {
	switch p.Encoding {
	case EncodingWide:
		s, err := decodeWide(data)
		if err != nil {
			return types.ColumnValue{}, err
		}
		return types.WideTextValue(s), nil
	case EncodingNarrow:
		s, err := decodeNarrow(m.charset, data)
		if err != nil {
			return types.ColumnValue{}, err
		}
		return types.TextValue(s), nil
	}
	b := make([]byte, len(data))
	copy(b, data)
	return types.BinaryValue(b), nil
}

type fixedDecoder func(slot []byte) (types.ColumnValue, error)

var fixedDecoders = map[types.Kind]fixedDecoder{
	types.KindBit: func(b []byte) (types.ColumnValue, error) { return types.BitValue(b[0] != 0), nil },
	types.KindI8:  func(b []byte) (types.ColumnValue, error) { return types.I8Value(int8(b[0])), nil },
	types.KindU8:  func(b []byte) (types.ColumnValue, error) { return types.U8Value(b[0]), nil },
	types.KindI16: func(b []byte) (types.ColumnValue, error) { return types.I16Value(int16(ne.Uint16(b))), nil },
	types.KindI32: func(b []byte) (types.ColumnValue, error) { return types.I32Value(int32(ne.Uint32(b))), nil },
	types.KindI64: func(b []byte) (types.ColumnValue, error) { return types.I64Value(int64(ne.Uint64(b))), nil },
	types.KindF32: func(b []byte) (types.ColumnValue, error) {
		return types.F32Value(math.Float32frombits(ne.Uint32(b))), nil
	},
	types.KindF64: func(b []byte) (types.ColumnValue, error) {
		return types.F64Value(math.Float64frombits(ne.Uint64(b))), nil
	},
	types.KindDate: func(b []byte) (types.ColumnValue, error) {
		d := readDate(b)
		if !d.IsValid() {
			return types.ColumnValue{}, errs.NewTypeConversion(
				fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day), "DATE", nil)
		}
		return types.DateValue(d), nil
	},
	types.KindTime: func(b []byte) (types.ColumnValue, error) {
		t := readTime(b)
		if !t.IsValid() {
			return types.ColumnValue{}, errs.NewTypeConversion(
				fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second), "TIME", nil)
		}
		return types.TimeValue(t), nil
	},
	types.KindTimestamp: func(b []byte) (types.ColumnValue, error) {
		dt := readTimestamp(b)
		if !dt.IsValid() {
			return types.ColumnValue{}, errs.NewTypeConversion(
				fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%d", dt.Date.Year, int(dt.Date.Month), dt.Date.Day,
					dt.Time.Hour, dt.Time.Minute, dt.Time.Second, dt.Time.Nanosecond), "TIMESTAMP", nil)
		}
		return types.TimestampValue(dt), nil
	},
}
