// Package odbc проводит курсор в стиле ODBC до конца: планирует буферы
// колонок, привязывает и выбирает блоки строк, читает длинные значения
// по частям и материализует все в строки types.ColumnValue.
//
// Сами вызовы драйвера (execute, bind, fetch, get data) идут через
// интерфейсы Connection и Statement; pkg/odbc/sqlconn реализует их
// поверх драйверов database/sql.
package odbc

import (
	"context"
	"errors"

	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// Indicator - длина/индикатор, возвращаемый с каждым значением колонки.
// Неотрицательный индикатор - число доступных байт (без терминатора)
// до вызова, который его вернул.
type Indicator int64

const (
	NullData Indicator = -1 // SQL_NULL_DATA
	NoTotal  Indicator = -4 // SQL_NO_TOTAL
)

// ErrNoData возвращают Fetch, когда курсор исчерпан, и GetData,
// когда данных колонки больше нет (SQL_NO_DATA).
var ErrNoData = errors.New("odbc: no data")

// Connection - дескриптор открытого соединения.
type Connection interface {
	NewStatement() (Statement, error)
	// SetAutoCommit переключает SQL_ATTR_AUTOCOMMIT. Выключение начинает
	// транзакцию, которая заканчивается Commit или Rollback.
	SetAutoCommit(on bool) error
	Commit() error
	Rollback() error
	Close() error
}

// Statement - дескриптор оператора. Колонки нумеруются с 1, как в протоколе.
type Statement interface {
	// Exec выполняет оператор без курсора и возвращает число строк.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Open выполняет оператор и оставляет курсор открытым на дескрипторе.
	Open(ctx context.Context, query string, args ...any) error
	NumResultCols() (int, error)
	DescribeCol(col int) (types.ColumnDescriptor, error)
	SetRowArraySize(n int) error
	BindCol(col int, buf *ColumnBuffer) error
	// Fetch заполняет привязанные буферы следующим блоком строк и возвращает
	// их число или ErrNoData, когда курсор исчерпан.
	Fetch() (int, error)
	// GetData копирует в buf следующую часть непривязанной колонки текущей
	// строки и сообщает индикатор.
	GetData(col int, ctype types.CType, buf []byte) (Indicator, error)
	CloseCursor() error
	Close() error
}

// ColumnBuffer - привязанный массив по колонке: Width байт на строку в Data
// и один индикатор на строку.
type ColumnBuffer struct {
	CType      types.CType
	Width      int
	Data       []byte
	Indicators []Indicator
}

// NewColumnBuffer выделяет буфер на rows строк по width байт.
func NewColumnBuffer(ctype types.CType, width, rows int) *ColumnBuffer {
	return &ColumnBuffer{
		CType:      ctype,
		Width:      width,
		Data:       make([]byte, width*rows),
		Indicators: make([]Indicator, rows),
	}
}

// Rows возвращает вместимость буфера в строках.
func (b *ColumnBuffer) Rows() int { return len(b.Indicators) }

// Slot возвращает байты строки i.
func (b *ColumnBuffer) Slot(i int) []byte {
	return b.Data[i*b.Width : (i+1)*b.Width]
}

// terminatorSize возвращает размер терминатора, который драйвер добавляет
// к значениям ctype.
func terminatorSize(ctype types.CType) int {
	switch ctype {
	case types.CChar:
		return 1
	case types.CWChar:
		return 2
	}
	return 0
}
