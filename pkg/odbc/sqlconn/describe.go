package sqlconn

import (
	"database/sql"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// typeNames сопоставляет DatabaseTypeName поддерживаемых драйверов типам протокола.
var typeNames = map[string]types.SQLType{
	"CHAR":              types.SQLChar,
	"CHARACTER":         types.SQLChar,
	"BPCHAR":            types.SQLChar,
	"VARCHAR":           types.SQLVarchar,
	"VARCHAR2":          types.SQLVarchar,
	"CHARACTER VARYING": types.SQLVarchar,
	"TEXT":              types.SQLLongVarchar,
	"CLOB":              types.SQLLongVarchar,
	"LONGVARCHAR":       types.SQLLongVarchar,
	"TINYTEXT":          types.SQLVarchar,
	"MEDIUMTEXT":        types.SQLLongVarchar,
	"LONGTEXT":          types.SQLLongVarchar,
	"NCHAR":             types.SQLWChar,
	"NVARCHAR":          types.SQLWVarchar,
	"NTEXT":             types.SQLWLongVarchar,
	"NUMERIC":           types.SQLNumeric,
	"NUMBER":            types.SQLNumeric,
	"DECIMAL":           types.SQLDecimal,
	"DEC":               types.SQLDecimal,
	"MONEY":             types.SQLDecimal,
	"BIT":               types.SQLBit,
	"BOOL":              types.SQLBit,
	"BOOLEAN":           types.SQLBit,
	"TINYINT":           types.SQLTinyInt,
	"BYTE":              types.SQLTinyInt,
	"SMALLINT":          types.SQLSmallInt,
	"INT2":              types.SQLSmallInt,
	"YEAR":              types.SQLSmallInt,
	"INT":               types.SQLInteger,
	"INTEGER":           types.SQLInteger,
	"INT4":              types.SQLInteger,
	"MEDIUMINT":         types.SQLInteger,
	"BIGINT":            types.SQLBigInt,
	"INT8":              types.SQLBigInt,
	"REAL":              types.SQLReal,
	"FLOAT4":            types.SQLReal,
	"FLOAT":             types.SQLFloat,
	"DOUBLE":            types.SQLDouble,
	"DOUBLE PRECISION":  types.SQLDouble,
	"FLOAT8":            types.SQLDouble,
	"DATE":              types.SQLDate,
	"TIME":              types.SQLTime,
	"TIMESTAMP":         types.SQLTimestamp,
	"DATETIME":          types.SQLTimestamp,
	"DATETIME2":         types.SQLTimestamp,
	"SMALLDATETIME":     types.SQLTimestamp,
	"BINARY":            types.SQLBinary,
	"VARBINARY":         types.SQLVarBinary,
	"RAW":               types.SQLVarBinary,
	"BLOB":              types.SQLLongVarBinary,
	"IMAGE":             types.SQLLongVarBinary,
	"LONGBLOB":          types.SQLLongVarBinary,
	"MEDIUMBLOB":        types.SQLLongVarBinary,
	"BYTEA":             types.SQLLongVarBinary,
	"LONGVARBINARY":     types.SQLLongVarBinary,
}

var (
	scanInt64   = reflect.TypeOf(int64(0))
	scanFloat64 = reflect.TypeOf(float64(0))
	scanBool    = reflect.TypeOf(false)
	scanTime    = reflect.TypeOf(time.Time{})
	scanBytes   = reflect.TypeOf([]byte(nil))
)

// describe превращает тип колонки database/sql в дескриптор колонки.
// Неизвестные имена определяются по типу сканирования Go, а если и он
// ничего не говорит, то длинным текстом.
func describe(driver string, ct *sql.ColumnType) types.ColumnDescriptor {
	name, length, scale := splitTypeName(ct.DatabaseTypeName())
	unsigned := false
	if rest, ok := strings.CutPrefix(name, "UNSIGNED "); ok {
		name, unsigned = rest, true
	}
	if rest, ok := strings.CutSuffix(name, " UNSIGNED"); ok {
		name, unsigned = rest, true
	}

	code, ok := typeNames[name]
	if !ok {
		code = fromScanType(ct.ScanType())
	}
	// SQLite INTEGER - 64-битное значение
	if driver == "sqlite" && code == types.SQLInteger {
		code = types.SQLBigInt
	}

	if l, ok := ct.Length(); ok && l > 0 && l < 1<<31 {
		length = int(l)
	}
	if p, s, ok := ct.DecimalSize(); ok {
		length, scale = int(p), int(s)
	}
	// драйверы database/sql сообщают длину CHAR/VARCHAR в символах, а узкий
	// слот хранит байты UTF-8 или GB18030, не более 4 на символ.
	// Драйвер ODBC сообщает длину уже в байтах.
	if driver != "odbc" && (code == types.SQLChar || code == types.SQLVarchar) && length > 0 {
		length *= utf8.UTFMax
	}
	nullable, ok := ct.Nullable()
	if !ok {
		nullable = true
	}
	return types.ColumnDescriptor{
		Name:     ct.Name(),
		Wire:     types.WireType{Code: code, Length: length, Scale: scale, Unsigned: unsigned},
		Nullable: nullable,
	}
}

func fromScanType(t reflect.Type) types.SQLType {
	switch t {
	case scanInt64:
		return types.SQLBigInt
	case scanFloat64:
		return types.SQLDouble
	case scanBool:
		return types.SQLBit
	case scanTime:
		return types.SQLTimestamp
	case scanBytes:
		return types.SQLLongVarBinary
	}
	return types.SQLLongVarchar
}

// splitTypeName превращает "VARCHAR(50)" в ("VARCHAR", 50, 0), а
// "DECIMAL(10, 2)" в ("DECIMAL", 10, 2).
func splitTypeName(s string) (name string, length, scale int) {
	s = strings.ToUpper(strings.TrimSpace(s))
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return strings.Join(strings.Fields(s), " "), 0, 0
	}
	end := strings.IndexByte(s[open:], ')')
	if end < 0 {
		return strings.Join(strings.Fields(s[:open]), " "), 0, 0
	}
	args := strings.Split(s[open+1:open+end], ",")
	length, _ = strconv.Atoi(strings.TrimSpace(args[0]))
	if len(args) > 1 {
		scale, _ = strconv.Atoi(strings.TrimSpace(args[1]))
	}
	name = strings.Join(strings.Fields(s[:open]+" "+s[open+end+1:]), " ")
	return name, length, scale
}
