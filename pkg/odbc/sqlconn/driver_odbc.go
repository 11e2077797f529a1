//go:build odbc

package sqlconn

import (
	"errors"

	odbcdrv "github.com/alexbrainman/odbc"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
)

// Драйверу ODBC нужны cgo и unixODBC (или odbc32.dll в Windows);
// для доступа к DM через ODBC DSN собирайте с -tags odbc.

func init() {
	diagnosers = append([]func(error) ([]errs.Diagnostic, bool){odbcDiag}, diagnosers...)
}

func odbcDiag(err error) ([]errs.Diagnostic, bool) {
	var oe *odbcdrv.Error
	if !errors.As(err, &oe) {
		return nil, false
	}
	out := make([]errs.Diagnostic, 0, len(oe.Diag))
	for _, d := range oe.Diag {
		out = append(out, errs.Diagnostic{State: d.State, NativeCode: d.NativeError, Message: d.Message})
	}
	if len(out) == 0 {
		out = append(out, errs.Diagnostic{State: "HY000", Message: oe.Error()})
	}
	return out, true
}
