package sqlconn

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // регистрирует "pgx"
	"modernc.org/sqlite"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
)

// diagnosers извлекают диагностику SQLSTATE из ошибок конкретных драйверов.
// Файлы драйверов под build-тегами могут дополнять список.
var diagnosers = []func(error) ([]errs.Diagnostic, bool){
	pgDiag,
	mysqlDiag,
	mssqlDiag,
	sqliteDiag,
	genericDiag,
}

func driverError(op string, err error) error {
	var de *errs.DriverError
	if errors.As(err, &de) {
		return err
	}
	out := &errs.DriverError{Op: op, Err: err}
	for _, d := range diagnosers {
		if diags, ok := d(err); ok {
			out.Diagnostics = diags
			break
		}
	}
	return out
}

// PostgreSQL сообщает SQLSTATE сам.
func pgDiag(err error) ([]errs.Diagnostic, bool) {
	var pe *pgconn.PgError
	if !errors.As(err, &pe) {
		return nil, false
	}
	return []errs.Diagnostic{{State: pe.Code, Message: pe.Message}}, true
}

func mysqlDiag(err error) ([]errs.Diagnostic, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return nil, false
	}
	state := string(me.SQLState[:])
	if me.SQLState == [5]byte{} {
		state = "HY000"
	}
	return []errs.Diagnostic{{State: state, NativeCode: int(me.Number), Message: me.Message}}, true
}

// Ошибки SQL Server не несут SQLSTATE; частые номера сопоставлены.
var mssqlStates = map[int32]string{
	102:  "42000",
	207:  "42S22",
	208:  "42S02",
	515:  "23000",
	547:  "23000",
	2601: "23000",
	2627: "23000",
	8134: "22012",
	8115: "22003",
	241:  "22007",
	1205: "40001",
}

func mssqlDiag(err error) ([]errs.Diagnostic, bool) {
	var me mssql.Error
	if !errors.As(err, &me) {
		return nil, false
	}
	state, ok := mssqlStates[me.Number]
	if !ok {
		state = "HY000"
	}
	return []errs.Diagnostic{{State: state, NativeCode: int(me.Number), Message: me.Message}}, true
}

// основные коды результата SQLite
const (
	sqliteBusy       = 5
	sqliteNoMem      = 7
	sqliteConstraint = 19
	sqliteTooBig     = 18
)

func sqliteDiag(err error) ([]errs.Diagnostic, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return nil, false
	}
	state := "HY000"
	switch se.Code() & 0xff {
	case sqliteConstraint:
		state = "23000"
	case sqliteBusy:
		state = "HYT00"
	case sqliteNoMem:
		state = "HY001"
	case sqliteTooBig:
		state = "22001"
	}
	return []errs.Diagnostic{{State: state, NativeCode: se.Code(), Message: se.Error()}}, true
}

func genericDiag(err error) ([]errs.Diagnostic, bool) {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return []errs.Diagnostic{{State: "HYT00", Message: err.Error()}}, true
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return []errs.Diagnostic{{State: "08S01", Message: err.Error()}}, true
	case errors.Is(err, sql.ErrTxDone):
		return []errs.Diagnostic{{State: "25000", Message: err.Error()}}, true
	}
	return []errs.Diagnostic{{State: "HY000", Message: fmt.Sprint(err)}}, true
}
