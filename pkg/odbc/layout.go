package odbc

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/golang-sql/civil"
)

// Раскладки C фиксированной ширины, как их пишет драйвер, в порядке байт хоста.
//
//	DATE_STRUCT       year int16, month uint16, day uint16
//	TIME_STRUCT       hour uint16, minute uint16, second uint16
//	TIMESTAMP_STRUCT  DATE_STRUCT, TIME_STRUCT, fraction uint32 (ns)

var ne = binary.NativeEndian

func PutDate(b []byte, d civil.Date) {
	ne.PutUint16(b[0:], uint16(int16(d.Year)))
	ne.PutUint16(b[2:], uint16(d.Month))
	ne.PutUint16(b[4:], uint16(d.Day))
}

func readDate(b []byte) civil.Date {
	return civil.Date{
		Year:  int(int16(ne.Uint16(b[0:]))),
		Month: time.Month(ne.Uint16(b[2:])),
		Day:   int(ne.Uint16(b[4:])),
	}
}

func PutTime(b []byte, t civil.Time) {
	ne.PutUint16(b[0:], uint16(t.Hour))
	ne.PutUint16(b[2:], uint16(t.Minute))
	ne.PutUint16(b[4:], uint16(t.Second))
}

func readTime(b []byte) civil.Time {
	return civil.Time{
		Hour:   int(ne.Uint16(b[0:])),
		Minute: int(ne.Uint16(b[2:])),
		Second: int(ne.Uint16(b[4:])),
	}
}

// PutTimestamp пишет TIMESTAMP_STRUCT; байты 12..16 - доля секунды.
func PutTimestamp(b []byte, dt civil.DateTime) {
	PutDate(b[0:], dt.Date)
	PutTime(b[6:], dt.Time)
	ne.PutUint32(b[12:], uint32(dt.Time.Nanosecond))
}

func readTimestamp(b []byte) civil.DateTime {
	t := readTime(b[6:])
	t.Nanosecond = int(ne.Uint32(b[12:]))
	return civil.DateTime{Date: readDate(b[0:]), Time: t}
}

// PutInt пишет v в целочисленный слот из len(b) байт (1, 2, 4 или 8).
func PutInt(b []byte, v int64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		ne.PutUint16(b, uint16(v))
	case 4:
		ne.PutUint32(b, uint32(v))
	default:
		ne.PutUint64(b, uint64(v))
	}
}

// PutFloat пишет v как float32 или float64 в зависимости от len(b).
func PutFloat(b []byte, v float64) {
	if len(b) == 4 {
		ne.PutUint32(b, math.Float32bits(float32(v)))
		return
	}
	ne.PutUint64(b, math.Float64bits(v))
}
