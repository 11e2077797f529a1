package sqlconn

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
	"github.com/ruslano69/dmbridge/pkg/odbc"
)

// encode представляет прочитанное значение в C-раскладке ctype.
func encode(ctype types.CType, v any, cs odbc.Charset) ([]byte, error) {
	switch ctype {
	case types.CChar:
		if b, ok := v.([]byte); ok {
			return b, nil
		}
		return odbc.EncodeNarrow(cs, textOf(v))
	case types.CWChar:
		return odbc.EncodeWide(textOf(v)), nil
	case types.CBinary:
		switch x := v.(type) {
		case []byte:
			return x, nil
		case string:
			return []byte(x), nil
		}
		return nil, conversion(v, "binary")
	case types.CBit, types.CSTinyInt, types.CUTinyInt:
		n, err := intOf(v)
		if err != nil {
			return nil, err
		}
		return []byte{byte(n)}, nil
	case types.CSShort:
		return fixedInt(v, 2)
	case types.CSLong:
		return fixedInt(v, 4)
	case types.CSBigInt:
		return fixedInt(v, 8)
	case types.CFloat, types.CDouble:
		f, err := floatOf(v)
		if err != nil {
			return nil, err
		}
		b := make([]byte, 8)
		if ctype == types.CFloat {
			b = b[:4]
		}
		odbc.PutFloat(b, f)
		return b, nil
	case types.CDate:
		dt, err := dateTimeOf(v)
		if err != nil {
			return nil, err
		}
		b := make([]byte, types.DateStructSize)
		odbc.PutDate(b, dt.Date)
		return b, nil
	case types.CTime:
		t, err := timeOf(v)
		if err != nil {
			return nil, err
		}
		b := make([]byte, types.TimeStructSize)
		odbc.PutTime(b, t)
		return b, nil
	case types.CTimestamp:
		dt, err := dateTimeOf(v)
		if err != nil {
			return nil, err
		}
		b := make([]byte, types.TimestampStructSize)
		odbc.PutTimestamp(b, dt)
		return b, nil
	}
	return nil, errs.NewTypeConversion(fmt.Sprint(v), fmt.Sprintf("C type %d", ctype), nil)
}

func conversion(v any, target string) error {
	return errs.NewTypeConversion(fmt.Sprint(v), target, nil)
}

func textOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.Format("2006-01-02 15:04:05.999999999")
	}
	return fmt.Sprint(v)
}

func intOf(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case []byte, string:
		n, err := strconv.ParseInt(strings.TrimSpace(textOf(x)), 10, 64)
		if err != nil {
			return 0, errs.NewTypeConversion(textOf(x), "integer", err)
		}
		return n, nil
	}
	return 0, conversion(v, "integer")
}

func fixedInt(v any, size int) ([]byte, error) {
	n, err := intOf(v)
	if err != nil {
		return nil, err
	}
	b := make([]byte, size)
	odbc.PutInt(b, n)
	return b, nil
}

func floatOf(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case []byte, string:
		f, err := strconv.ParseFloat(strings.TrimSpace(textOf(x)), 64)
		if err != nil {
			return 0, errs.NewTypeConversion(textOf(x), "float", err)
		}
		return f, nil
	}
	return 0, conversion(v, "float")
}

func dateTimeOf(v any) (civil.DateTime, error) {
	switch x := v.(type) {
	case time.Time:
		return civil.DateTimeOf(x), nil
	case []byte, string:
		return parseDateTime(textOf(x))
	}
	return civil.DateTime{}, conversion(v, "timestamp")
}

func timeOf(v any) (civil.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return civil.TimeOf(x), nil
	case []byte, string:
		s := strings.TrimSpace(textOf(x))
		t, err := civil.ParseTime(s)
		if err != nil {
			return civil.Time{}, errs.NewTypeConversion(s, "time", err)
		}
		return t, nil
	}
	return civil.Time{}, conversion(v, "time")
}

// parseDateTime принимает "2006-01-02", "2006-01-02 15:04:05[.fff]" и
// формы RFC 3339, которыми драйверы хранят метки времени в тексте.
func parseDateTime(s string) (civil.DateTime, error) {
	s = strings.TrimSpace(s)
	if d, err := civil.ParseDate(s); err == nil {
		return civil.DateTime{Date: d}, nil
	}
	if dt, err := civil.ParseDateTime(strings.Replace(s, " ", "T", 1)); err == nil {
		return dt, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return civil.DateTimeOf(t), nil
	}
	return civil.DateTime{}, errs.NewTypeConversion(s, "timestamp", nil)
}
