// Package errs определяет таксономию ошибок, общую для всех уровней моста.
//
// Вызывающий код различает ошибки через errors.As:
//
//	var de *errs.DriverError
//	if errors.As(err, &de) { ... de.State() ... }
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic - одна диагностическая запись драйвера.
type Diagnostic struct {
	State      string // пятисимвольный SQLSTATE
	NativeCode int
	Message    string
}

func (d Diagnostic) String() string {
	if d.NativeCode != 0 {
		return fmt.Sprintf("[%s] (%d) %s", d.State, d.NativeCode, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.State, d.Message)
}

// DriverError - отказ уровня протокола: подключение, выполнение, привязка,
// выборка или управление транзакцией.
type DriverError struct {
	Op          string
	Diagnostics []Diagnostic
	Err         error
}

// NewDriverError оборачивает err операции op. Если err уже DriverError,
// диагностика сохраняется, к операции добавляется префикс.
func NewDriverError(op string, err error) *DriverError {
	var de *DriverError
	if errors.As(err, &de) {
		return &DriverError{Op: op + ": " + de.Op, Diagnostics: de.Diagnostics, Err: de.Err}
	}
	return &DriverError{Op: op, Err: err}
}

// NewDriverDiag создает DriverError с одной диагностической записью.
func NewDriverDiag(op, state, message string) *DriverError {
	return &DriverError{Op: op, Diagnostics: []Diagnostic{{State: state, Message: message}}}
}

func (e *DriverError) Error() string {
	var b strings.Builder
	b.WriteString("driver error")
	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}
	for _, d := range e.Diagnostics {
		b.WriteString(": ")
		b.WriteString(d.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DriverError) Unwrap() error { return e.Err }

// State возвращает SQLSTATE первой записи или "", если драйвер
// ничего не сообщил.
func (e *DriverError) State() string {
	if len(e.Diagnostics) == 0 {
		return ""
	}
	return e.Diagnostics[0].State
}

// TypeConversionError - значение или тег типа, которые не удалось
// сопоставить или разобрать. Value хранит исходный текст.
type TypeConversionError struct {
	Value  string
	Target string
	Err    error
}

// NewTypeConversion создает TypeConversionError для value, не ставшего
// target.
func NewTypeConversion(value, target string, err error) *TypeConversionError {
	return &TypeConversionError{Value: value, Target: target, Err: err}
}

func (e *TypeConversionError) Error() string {
	msg := fmt.Sprintf("cannot convert %q to %s", e.Value, e.Target)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeConversionError) Unwrap() error { return e.Err }

// SQLParamsError - список параметров не подходит к оператору
// или к пути выполнения.
type SQLParamsError struct {
	Statement string
	Expected  int
	Got       int
	Reason    string
}

func (e *SQLParamsError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid sql params for %q: %s", e.Statement, e.Reason)
	}
	return fmt.Sprintf("invalid sql params for %q: expected %d, got %d", e.Statement, e.Expected, e.Got)
}

// StringError - все прочие ошибки.
type StringError struct {
	Msg string
}

// Errorf форматирует StringError.
func Errorf(format string, args ...any) *StringError {
	return &StringError{Msg: fmt.Sprintf(format, args...)}
}

func (e *StringError) Error() string { return e.Msg }
