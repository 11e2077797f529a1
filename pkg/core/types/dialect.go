package types

import (
	"strconv"
	"strings"
)

// SourceType - семантический тип колонки в словаре DM (SYSCOLUMNS.TYPE$).
type SourceType string

// Типы DM
const (
	SourceChar          SourceType = "CHAR"
	SourceVarchar       SourceType = "VARCHAR"
	SourceVarchar2      SourceType = "VARCHAR2"
	SourceText          SourceType = "TEXT"
	SourceLongVarchar   SourceType = "LONGVARCHAR"
	SourceClob          SourceType = "CLOB"
	SourceNumeric       SourceType = "NUMERIC"
	SourceNumber        SourceType = "NUMBER"
	SourceDecimal       SourceType = "DECIMAL"
	SourceBit           SourceType = "BIT"
	SourceTinyint       SourceType = "TINYINT"
	SourceByte          SourceType = "BYTE"
	SourceSmallint      SourceType = "SMALLINT"
	SourceInt           SourceType = "INT"
	SourceBigint        SourceType = "BIGINT"
	SourceReal          SourceType = "REAL"
	SourceFloat         SourceType = "FLOAT"
	SourceDouble        SourceType = "DOUBLE"
	SourceBinary        SourceType = "BINARY"
	SourceVarbinary     SourceType = "VARBINARY"
	SourceLongVarbinary SourceType = "LONGVARBINARY"
	SourceImage         SourceType = "IMAGE"
	SourceBlob          SourceType = "BLOB"
	SourceBfile         SourceType = "BFILE"
	SourceDate          SourceType = "DATE"
	SourceTime          SourceType = "TIME"
	SourceTimeTZ        SourceType = "TIME WITH TIME ZONE"
	SourceTimestamp     SourceType = "TIMESTAMP"
	SourceDatetime      SourceType = "DATETIME"
	SourceTimestampTZ   SourceType = "TIMESTAMP WITH TIME ZONE"
	SourceTimestampLTZ  SourceType = "TIMESTAMP WITH LOCAL TIME ZONE"
	SourceInterval      SourceType = "INTERVAL"
	SourceUnknown       SourceType = "UNKNOWN"
)

// SourceTypes перечисляет все известные типы DM, кроме SourceUnknown.
var SourceTypes = []SourceType{
	SourceChar, SourceVarchar, SourceVarchar2, SourceText, SourceLongVarchar, SourceClob,
	SourceNumeric, SourceNumber, SourceDecimal, SourceBit,
	SourceTinyint, SourceByte, SourceSmallint, SourceInt, SourceBigint,
	SourceReal, SourceFloat, SourceDouble,
	SourceBinary, SourceVarbinary, SourceLongVarbinary, SourceImage, SourceBlob, SourceBfile,
	SourceDate, SourceTime, SourceTimeTZ, SourceTimestamp, SourceDatetime,
	SourceTimestampTZ, SourceTimestampLTZ, SourceInterval,
}

// sourceAliases - синонимы, которые DM допускает в DDL и возвращает в каталоге.
var sourceAliases = map[string]SourceType{
	"CHARACTER":               SourceChar,
	"DEC":                     SourceDecimal,
	"INTEGER":                 SourceInt,
	"PLS_INTEGER":             SourceInt,
	"DOUBLE PRECISION":        SourceDouble,
	"RAW":                     SourceVarbinary,
	"DATETIME WITH TIME ZONE": SourceTimestampTZ,
	"LONG":                    SourceText,
	"LONG RAW":                SourceLongVarbinary,
}

// ParseSourceType разбирает имя типа DM. Размеры в скобках и регистр
// игнорируются; INTERVAL любого вида сводится к SourceInterval.
// Незнакомое имя даёт SourceUnknown, а не ошибку.
func ParseSourceType(name string) SourceType {
	n := strings.ToUpper(strings.Join(strings.Fields(name), " "))
	if i := strings.IndexByte(n, '('); i >= 0 {
		if j := strings.IndexByte(n[i:], ')'); j >= 0 {
			n = strings.Join(strings.Fields(n[:i]+n[i+j+1:]), " ")
		}
	}
	if strings.HasPrefix(n, "INTERVAL") {
		return SourceInterval
	}
	if t, ok := sourceAliases[n]; ok {
		return t
	}
	for _, t := range SourceTypes {
		if string(t) == n {
			return t
		}
	}
	return SourceUnknown
}

// TargetType - тип колонки PostgreSQL (каноническое внутреннее имя).
type TargetType string

// Типы PostgreSQL
const (
	TargetBool        TargetType = "bool"
	TargetInt2        TargetType = "int2"
	TargetInt4        TargetType = "int4"
	TargetInt8        TargetType = "int8"
	TargetFloat4      TargetType = "float4"
	TargetFloat8      TargetType = "float8"
	TargetNumeric     TargetType = "numeric"
	TargetBpchar      TargetType = "bpchar"
	TargetVarchar     TargetType = "varchar"
	TargetText        TargetType = "text"
	TargetBytea       TargetType = "bytea"
	TargetDate        TargetType = "date"
	TargetTime        TargetType = "time"
	TargetTimeTZ      TargetType = "timetz"
	TargetTimestamp   TargetType = "timestamp"
	TargetTimestampTZ TargetType = "timestamptz"
	TargetInterval    TargetType = "interval"
	TargetUUID        TargetType = "uuid"
	TargetJSON        TargetType = "json"
	TargetJSONB       TargetType = "jsonb"
	TargetXML         TargetType = "xml"
	TargetInet        TargetType = "inet"
	TargetCidr        TargetType = "cidr"
	TargetMacaddr     TargetType = "macaddr"
	TargetMoney       TargetType = "money"
	TargetOID         TargetType = "oid"
	TargetUnknown     TargetType = "unknown"
)

// TargetTypes перечисляет все типы PostgreSQL, которые знает мост.
var TargetTypes = []TargetType{
	TargetBool, TargetInt2, TargetInt4, TargetInt8, TargetFloat4, TargetFloat8, TargetNumeric,
	TargetBpchar, TargetVarchar, TargetText, TargetBytea,
	TargetDate, TargetTime, TargetTimeTZ, TargetTimestamp, TargetTimestampTZ, TargetInterval,
	TargetUUID, TargetJSON, TargetJSONB, TargetXML, TargetInet, TargetCidr, TargetMacaddr,
	TargetMoney, TargetOID, TargetUnknown,
}

var targetAliases = map[string]TargetType{
	"boolean":                     TargetBool,
	"smallint":                    TargetInt2,
	"integer":                     TargetInt4,
	"int":                         TargetInt4,
	"bigint":                      TargetInt8,
	"real":                        TargetFloat4,
	"double precision":            TargetFloat8,
	"decimal":                     TargetNumeric,
	"character":                   TargetBpchar,
	"char":                        TargetBpchar,
	"character varying":           TargetVarchar,
	"time without time zone":      TargetTime,
	"time with time zone":         TargetTimeTZ,
	"timestamp without time zone": TargetTimestamp,
	"timestamp with time zone":    TargetTimestampTZ,
}

// ParseTargetType разбирает имя типа PostgreSQL (format_type или udt_name).
// Незнакомое имя даёт TargetUnknown.
func ParseTargetType(name string) TargetType {
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(n, '('); i >= 0 {
		if j := strings.IndexByte(n[i:], ')'); j >= 0 {
			n = strings.Join(strings.Fields(n[:i]+n[i+j+1:]), " ")
		}
	}
	if t, ok := targetAliases[n]; ok {
		return t
	}
	for _, t := range TargetTypes {
		if string(t) == n {
			return t
		}
	}
	return TargetUnknown
}

// DDL возвращает тип для CREATE TABLE с учётом длины и масштаба.
func (t TargetType) DDL(length, scale int) string {
	switch t {
	case TargetBpchar:
		if length > 0 {
			return "char(" + strconv.Itoa(length) + ")"
		}
		return "char"
	case TargetVarchar:
		if length > 0 {
			return "varchar(" + strconv.Itoa(length) + ")"
		}
		return "varchar"
	case TargetNumeric:
		if length > 0 {
			return "numeric(" + strconv.Itoa(length) + "," + strconv.Itoa(scale) + ")"
		}
		return "numeric"
	case TargetUnknown:
		return "text"
	default:
		return string(t)
	}
}
