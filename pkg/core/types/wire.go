package types

import (
	"fmt"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
)

// SQLType - код типа колонки на уровне ODBC (SQL_xxx).
type SQLType int16

// Коды SQL-типов, которые умеет обрабатывать мост.
const (
	SQLUnknown       SQLType = 0
	SQLChar          SQLType = 1
	SQLNumeric       SQLType = 2
	SQLDecimal       SQLType = 3
	SQLInteger       SQLType = 4
	SQLSmallInt      SQLType = 5
	SQLFloat         SQLType = 6
	SQLReal          SQLType = 7
	SQLDouble        SQLType = 8
	SQLVarchar       SQLType = 12
	SQLDate          SQLType = 91
	SQLTime          SQLType = 92
	SQLTimestamp     SQLType = 93
	SQLLongVarchar   SQLType = -1
	SQLBinary        SQLType = -2
	SQLVarBinary     SQLType = -3
	SQLLongVarBinary SQLType = -4
	SQLBigInt        SQLType = -5
	SQLTinyInt       SQLType = -6
	SQLBit           SQLType = -7
	SQLWChar         SQLType = -8
	SQLWVarchar      SQLType = -9
	SQLWLongVarchar  SQLType = -10
	SQLGUID          SQLType = -11
)

// CType - тип C-буфера, в который драйвер кладёт значение (SQL_C_xxx).
type CType int16

const (
	CChar      CType = 1
	CLong      CType = 4
	CShort     CType = 5
	CFloat     CType = 7
	CDouble    CType = 8
	CDate      CType = 91
	CTime      CType = 92
	CTimestamp CType = 93
	CBinary    CType = -2
	CBit       CType = -7
	CWChar     CType = -8
	CSBigInt   CType = -25
	CSLong     CType = -16
	CSShort    CType = -15
	CSTinyInt  CType = -26
	CUTinyInt  CType = -28
)

// Размеры структур DATE/TIME/TIMESTAMP_STRUCT.
const (
	DateStructSize      = 6
	TimeStructSize      = 6
	TimestampStructSize = 16
)

// Shape - форма буфера, которую требует тип.
type Shape uint8

const (
	ShapeNone Shape = iota
	ShapeFixed
	ShapeText
	ShapeWideText
	ShapeBinary
)

// WireType описывает тип колонки курсора. Не меняется после чтения из курсора.
type WireType struct {
	Code     SQLType
	Length   int // объявленная длина в символах или байтах, точность для NUMERIC
	Scale    int
	Unsigned bool
}

// ColumnDescriptor - колонка результата; порядок совпадает с номером колонки курсора.
type ColumnDescriptor struct {
	Name     string
	Wire     WireType
	Nullable bool
}

// WireInfo - строка таблицы диспетчеризации по коду SQL-типа.
// Все три места, где нужен разбор wire-типа (планирование буфера,
// материализация и маппинг типов), читают одну и ту же строку.
type WireInfo struct {
	Name   string
	Shape  Shape
	Size   int // размер FixedSlot в байтах
	CType  CType
	Kind   Kind
	Source SourceType
}

var wireTable = map[SQLType]WireInfo{
	SQLChar:          {"CHAR", ShapeText, 0, CChar, KindText, SourceChar},
	SQLVarchar:       {"VARCHAR", ShapeText, 0, CChar, KindText, SourceVarchar},
	SQLLongVarchar:   {"LONGVARCHAR", ShapeText, 0, CChar, KindText, SourceText},
	SQLWChar:         {"WCHAR", ShapeWideText, 0, CWChar, KindWideText, SourceChar},
	SQLWVarchar:      {"WVARCHAR", ShapeWideText, 0, CWChar, KindWideText, SourceVarchar},
	SQLWLongVarchar:  {"WLONGVARCHAR", ShapeWideText, 0, CWChar, KindWideText, SourceText},
	SQLNumeric:       {"NUMERIC", ShapeText, 0, CChar, KindText, SourceNumeric},
	SQLDecimal:       {"DECIMAL", ShapeText, 0, CChar, KindText, SourceDecimal},
	SQLBit:           {"BIT", ShapeFixed, 1, CBit, KindBit, SourceBit},
	SQLTinyInt:       {"TINYINT", ShapeFixed, 1, CSTinyInt, KindI8, SourceTinyint},
	SQLSmallInt:      {"SMALLINT", ShapeFixed, 2, CSShort, KindI16, SourceSmallint},
	SQLInteger:       {"INTEGER", ShapeFixed, 4, CSLong, KindI32, SourceInt},
	SQLBigInt:        {"BIGINT", ShapeFixed, 8, CSBigInt, KindI64, SourceBigint},
	SQLReal:          {"REAL", ShapeFixed, 4, CFloat, KindF32, SourceReal},
	SQLFloat:         {"FLOAT", ShapeFixed, 8, CDouble, KindF64, SourceFloat},
	SQLDouble:        {"DOUBLE", ShapeFixed, 8, CDouble, KindF64, SourceDouble},
	SQLDate:          {"DATE", ShapeFixed, DateStructSize, CDate, KindDate, SourceDate},
	SQLTime:          {"TIME", ShapeFixed, TimeStructSize, CTime, KindTime, SourceTime},
	SQLTimestamp:     {"TIMESTAMP", ShapeFixed, TimestampStructSize, CTimestamp, KindTimestamp, SourceTimestamp},
	SQLBinary:        {"BINARY", ShapeBinary, 0, CBinary, KindBinary, SourceBinary},
	SQLVarBinary:     {"VARBINARY", ShapeBinary, 0, CBinary, KindBinary, SourceVarbinary},
	SQLLongVarBinary: {"LONGVARBINARY", ShapeBinary, 0, CBinary, KindBinary, SourceLongVarbinary},
}

// Lookup возвращает строку таблицы для wire-типа.
// Беззнаковый TINYINT читается как UTINYINT и материализуется в U8.
func Lookup(w WireType) (WireInfo, error) {
	info, ok := wireTable[w.Code]
	if !ok {
		return WireInfo{}, errs.NewTypeConversion(w.Code.String(), "buffer shape", nil)
	}
	if w.Code == SQLTinyInt && w.Unsigned {
		info.CType = CUTinyInt
		info.Kind = KindU8
	}
	return info, nil
}

func (t SQLType) String() string {
	if info, ok := wireTable[t]; ok {
		return info.Name
	}
	if t == SQLGUID {
		return "GUID"
	}
	return fmt.Sprintf("SQLType(%d)", int16(t))
}
