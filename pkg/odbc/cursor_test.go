package odbc

import (
	"errors"
	"io"
	"testing"

	"github.com/golang-sql/civil"
	"github.com/rs/zerolog"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

func testConfig() CursorConfig {
	return CursorConfig{RowArraySize: 2, MaxStrLen: 1024, MaxBinaryLen: 1 << 20, Logger: zerolog.Nop()}
}

func TestCursorBoundRowsets(t *testing.T) {
	day := civil.Date{Year: 2023, Month: 12, Day: 31}
	ts := civil.DateTime{Date: day, Time: civil.Time{Hour: 23, Minute: 59, Second: 58, Nanosecond: 123000}}
	descs := []types.ColumnDescriptor{
		col("id", types.SQLInteger, 10),
		col("name", types.SQLVarchar, 50),
		col("flag", types.SQLBit, 1),
		col("price", types.SQLDouble, 15),
		col("born", types.SQLDate, 10),
		col("at", types.SQLTimestamp, 26),
		col("small", types.SQLSmallInt, 5),
		col("big", types.SQLBigInt, 19),
		col("raw", types.SQLVarBinary, 4),
	}
	st := newFakeStmt(descs,
		[]any{int64(1), "one", true, 1.5, day, ts, int64(-3), int64(1) << 40, []byte{1, 2}},
		[]any{int64(2), nil, false, nil, nil, nil, nil, nil, nil},
		[]any{int64(3), "三", true, 3.25, day, ts, int64(7), int64(-9), []byte{}},
	)

	cur, err := OpenCursor(st, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if cur.RowsetSize() != 2 {
		t.Errorf("rowset = %d, want 2", cur.RowsetSize())
	}

	first, err := cur.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 {
		t.Fatalf("first rowset has %d rows", len(first))
	}
	second, err := cur.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 {
		t.Fatalf("second rowset has %d rows", len(second))
	}
	if _, err := cur.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}

	row := first[0]
	want := []types.ColumnValue{
		types.I32Value(1),
		types.TextValue("one"),
		types.BitValue(true),
		types.F64Value(1.5),
		types.DateValue(day),
		types.TimestampValue(ts),
		types.I16Value(-3),
		types.I64Value(1 << 40),
		types.BinaryValue([]byte{1, 2}),
	}
	for i := range want {
		if !row[i].Equal(want[i]) {
			t.Errorf("column %s = %v (%s), want %v", descs[i].Name, row[i], row[i].Kind(), want[i])
		}
	}

	nulls := first[1]
	for i := 1; i < len(nulls); i++ {
		if i == 2 {
			continue
		}
		if !nulls[i].IsNull() {
			t.Errorf("column %s should be NULL, got %v", descs[i].Name, nulls[i])
		}
	}
	if nulls[1].Kind() != types.KindText {
		t.Errorf("NULL text kind = %s", nulls[1].Kind())
	}

	if got := second[0][1].Text(); got != "三" {
		t.Errorf("cjk text = %q", got)
	}
	if got := second[0][8]; got.IsNull() || len(got.Bytes()) != 0 {
		t.Errorf("empty binary = %v", got)
	}
	if cur.Fetched() != 3 {
		t.Errorf("Fetched() = %d", cur.Fetched())
	}
}

func TestCursorLongColumnForcesSingleRow(t *testing.T) {
	long := cjk(5000)
	descs := []types.ColumnDescriptor{
		col("id", types.SQLInteger, 10),
		col("body", types.SQLVarchar, 8188),
		col("tail", types.SQLVarchar, 10),
	}
	st := newFakeStmt(descs,
		[]any{int64(1), long, "after"},
		[]any{int64(2), nil, nil},
	)
	st.dmQuirk = true
	st.noTotal = true

	cur, err := OpenCursor(st, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if cur.RowsetSize() != 1 {
		t.Fatalf("rowset = %d, want 1", cur.RowsetSize())
	}
	if _, ok := st.bound[2]; ok {
		t.Error("long column must not be bound")
	}
	if _, ok := st.bound[3]; ok {
		t.Error("column after a long column must not be bound")
	}
	if plans := cur.Plans(); plans[1].Kind != LongText || plans[2].Kind != TextSlot {
		t.Errorf("plans = %v", plans)
	}

	rows, err := cur.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][1].Text() != long {
		t.Error("long value differs after round trip")
	}
	if rows[0][2].Text() != "after" {
		t.Errorf("tail = %q", rows[0][2].Text())
	}
	if !rows[1][1].IsNull() || !rows[1][2].IsNull() {
		t.Error("second row should be NULL")
	}
}

func TestCursorInvalidDate(t *testing.T) {
	bad := civil.Date{Year: 2023, Month: 2, Day: 30}
	st := newFakeStmt([]types.ColumnDescriptor{col("d", types.SQLDate, 10)}, []any{bad})

	cur, err := OpenCursor(st, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	_, err = cur.Next()
	var ce *errs.TypeConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected TypeConversionError, got %v", err)
	}
	if ce.Value != "2023-02-30" {
		t.Errorf("Value = %q", ce.Value)
	}
}

func TestCursorInvalidTime(t *testing.T) {
	bad := civil.DateTime{Date: civil.Date{Year: 2023, Month: 1, Day: 1}, Time: civil.Time{Hour: 25}}
	st := newFakeStmt([]types.ColumnDescriptor{col("ts", types.SQLTimestamp, 26)}, []any{bad})

	cur, err := OpenCursor(st, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	var ce *errs.TypeConversionError
	if _, err := cur.Next(); !errors.As(err, &ce) {
		t.Fatalf("expected TypeConversionError, got %v", err)
	}
}

func TestCursorBoundSlotTruncation(t *testing.T) {
	// драйвер возвращает значение длиннее заявленной длины колонки
	st := newFakeStmt([]types.ColumnDescriptor{col("s", types.SQLVarchar, 4)}, []any{"much longer than four"})

	cur, err := OpenCursor(st, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	_, err = cur.Next()
	var de *errs.DriverError
	if !errors.As(err, &de) {
		t.Fatalf("expected DriverError, got %v", err)
	}
	if de.State() != "01004" {
		t.Errorf("State() = %q", de.State())
	}
}

func TestCursorWideAndUnsigned(t *testing.T) {
	descs := []types.ColumnDescriptor{
		col("w", types.SQLWVarchar, 20),
		{Name: "u", Wire: types.WireType{Code: types.SQLTinyInt, Unsigned: true}},
		col("i", types.SQLTinyInt, 3),
		col("r", types.SQLReal, 7),
	}
	st := newFakeStmt(descs, []any{"数据库", int64(200), int64(-100), 0.5})

	cur, err := OpenCursor(st, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	rows, err := cur.All()
	if err != nil {
		t.Fatal(err)
	}
	want := []types.ColumnValue{
		types.WideTextValue("数据库"), types.U8Value(200), types.I8Value(-100), types.F32Value(0.5),
	}
	for i, w := range want {
		if !rows[0][i].Equal(w) {
			t.Errorf("column %d = %v (%s), want %v (%s)", i, rows[0][i], rows[0][i].Kind(), w, w.Kind())
		}
	}
}

func TestCursorGB18030(t *testing.T) {
	raw, err := EncodeNarrow(CharsetGB18030, "达梦数据库")
	if err != nil {
		t.Fatal(err)
	}
	st := newFakeStmt([]types.ColumnDescriptor{col("s", types.SQLVarchar, 32)}, []any{string(raw)})

	cfg := testConfig()
	cfg.Charset = CharsetGB18030
	cur, err := OpenCursor(st, cfg)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := cur.All()
	if err != nil {
		t.Fatal(err)
	}
	if got := rows[0][0].Text(); got != "达梦数据库" {
		t.Errorf("decoded %q", got)
	}
}

func TestCursorInvalidUTF8(t *testing.T) {
	st := newFakeStmt([]types.ColumnDescriptor{col("s", types.SQLVarchar, 8)}, []any{"\xc3\x28"})
	cur, err := OpenCursor(st, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	var ce *errs.TypeConversionError
	if _, err := cur.Next(); !errors.As(err, &ce) {
		t.Fatalf("expected TypeConversionError, got %v", err)
	}
}

func TestOpenCursorUnsupportedColumn(t *testing.T) {
	st := newFakeStmt([]types.ColumnDescriptor{col("g", types.SQLGUID, 36)})
	var ce *errs.TypeConversionError
	if _, err := OpenCursor(st, testConfig()); !errors.As(err, &ce) {
		t.Fatalf("expected TypeConversionError, got %v", err)
	}
}

func TestParseCharset(t *testing.T) {
	for in, want := range map[string]Charset{"": CharsetUTF8, "UTF8": CharsetUTF8, "GBK": CharsetGB18030, "gb18030": CharsetGB18030} {
		got, err := ParseCharset(in)
		if err != nil || got != want {
			t.Errorf("ParseCharset(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseCharset("latin1"); err == nil {
		t.Error("latin1 should be rejected")
	}
}
