package types

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/golang-sql/civil"
)

// Kind - вариант ColumnValue.
type Kind uint8

const (
	KindText Kind = iota + 1
	KindWideText
	KindBinary
	KindDate
	KindTime
	KindTimestamp
	KindF64
	KindF32
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindBit
)

var kindNames = map[Kind]string{
	KindText:      "Text",
	KindWideText:  "WideText",
	KindBinary:    "Binary",
	KindDate:      "Date",
	KindTime:      "Time",
	KindTimestamp: "Timestamp",
	KindF64:       "F64",
	KindF32:       "F32",
	KindI8:        "I8",
	KindI16:       "I16",
	KindI32:       "I32",
	KindI64:       "I64",
	KindU8:        "U8",
	KindBit:       "Bit",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// ColumnValue - каноническое представление значения колонки.
// Каждый вариант может быть NULL; NULL сохраняет свой Kind.
type ColumnValue struct {
	kind  Kind
	null  bool
	str   string
	bytes []byte
	i     int64
	f     float64
	ts    civil.DateTime
}

// Null создаёт отсутствующее значение варианта k.
func Null(k Kind) ColumnValue { return ColumnValue{kind: k, null: true} }

func TextValue(s string) ColumnValue { return ColumnValue{kind: KindText, str: s} }
func WideTextValue(s string) ColumnValue { return ColumnValue{kind: KindWideText, str: s} }
func BinaryValue(b []byte) ColumnValue { return ColumnValue{kind: KindBinary, bytes: b} }
func F64Value(v float64) ColumnValue { return ColumnValue{kind: KindF64, f: v} }
func F32Value(v float32) ColumnValue { return ColumnValue{kind: KindF32, f: float64(v)} }
func I8Value(v int8) ColumnValue { return ColumnValue{kind: KindI8, i: int64(v)} }
func I16Value(v int16) ColumnValue { return ColumnValue{kind: KindI16, i: int64(v)} }
func I32Value(v int32) ColumnValue { return ColumnValue{kind: KindI32, i: int64(v)} }
func I64Value(v int64) ColumnValue { return ColumnValue{kind: KindI64, i: v} }
func U8Value(v uint8) ColumnValue { return ColumnValue{kind: KindU8, i: int64(v)} }

func BitValue(v bool) ColumnValue {
	cv := ColumnValue{kind: KindBit}
	if v {
		cv.i = 1
	}
	return cv
}

func DateValue(d civil.Date) ColumnValue {
	return ColumnValue{kind: KindDate, ts: civil.DateTime{Date: d}}
}

func TimeValue(t civil.Time) ColumnValue {
	return ColumnValue{kind: KindTime, ts: civil.DateTime{Time: t}}
}

func TimestampValue(dt civil.DateTime) ColumnValue {
	return ColumnValue{kind: KindTimestamp, ts: dt}
}

func (v ColumnValue) Kind() Kind { return v.kind }
func (v ColumnValue) IsNull() bool { return v.null }

// Text возвращает строку для Text/WideText.
func (v ColumnValue) Text() string { return v.str }

// Bytes возвращает содержимое Binary; для текстовых вариантов - байты строки.
func (v ColumnValue) Bytes() []byte {
	if v.kind == KindBinary {
		return v.bytes
	}
	return []byte(v.str)
}

func (v ColumnValue) Int() int64 { return v.i }
func (v ColumnValue) Float() float64 { return v.f }
func (v ColumnValue) Bool() bool { return v.i != 0 }
func (v ColumnValue) Date() civil.Date { return v.ts.Date }
func (v ColumnValue) Time() civil.Time { return v.ts.Time }
func (v ColumnValue) DateTime() civil.DateTime { return v.ts }

// Any возвращает значение в виде, пригодном для database/sql и pgx.
// NULL возвращается как nil.
func (v ColumnValue) Any() any {
	if v.null {
		return nil
	}
	switch v.kind {
	case KindText, KindWideText:
		return v.str
	case KindBinary:
		return v.bytes
	case KindDate:
		return v.ts.Date.In(time.UTC)
	case KindTime:
		return v.ts.Time.String()
	case KindTimestamp:
		return v.ts.In(time.UTC)
	case KindF64, KindF32:
		return v.f
	case KindBit:
		return v.i != 0
	default:
		return v.i
	}
}

// String возвращает текстовое представление; NULL даёт пустую строку.
func (v ColumnValue) String() string {
	if v.null {
		return ""
	}
	switch v.kind {
	case KindText, KindWideText:
		return v.str
	case KindBinary:
		return hex.EncodeToString(v.bytes)
	case KindDate:
		return v.ts.Date.String()
	case KindTime:
		return v.ts.Time.String()
	case KindTimestamp:
		return v.ts.Date.String() + " " + v.ts.Time.String()
	case KindF32:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case KindF64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBit:
		if v.i != 0 {
			return "1"
		}
		return "0"
	default:
		return strconv.FormatInt(v.i, 10)
	}
}

// Equal сравнивает два значения по варианту и содержимому.
func (v ColumnValue) Equal(o ColumnValue) bool {
	if v.kind != o.kind || v.null != o.null {
		return false
	}
	if v.null {
		return true
	}
	if v.kind == KindBinary {
		return string(v.bytes) == string(o.bytes)
	}
	return v.str == o.str && v.i == o.i && v.f == o.f && v.ts == o.ts
}
