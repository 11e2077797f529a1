// Package sqlconn реализует odbc.Connection и odbc.Statement поверх драйвера
// database/sql. Привязанные блоки строк и GetData по частям эмулируются
// над прочитанными значениями, поэтому планирование буферов и чтение длинных
// значений работают без изменений с любым зарегистрированным драйвером.
package sqlconn

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/odbc"
)

// Config одного соединения.
type Config struct {
	Driver string // зарегистрированный драйвер database/sql: odbc, pgx, sqlite, sqlserver, mysql
	DSN    string
	// NoTotal заставляет GetData сообщать odbc.NoTotal, пока значение не помещается,
	// как делают драйверы, передающие LOB потоком.
	NoTotal bool
	// Charset узкого текста, отдаваемого вызывающему коду.
	Charset odbc.Charset
}

// Conn - одно физическое соединение. Не для конкурентного использования.
type Conn struct {
	cfg        Config
	db         *sql.DB
	conn       *sql.Conn
	tx         *sql.Tx
	autocommit bool
}

// Open подключается и закрепляет одно физическое соединение пула.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errs.Errorf("open %s: %v", cfg.Driver, err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, driverError("connect", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, driverError("ping", err)
	}
	return &Conn{cfg: cfg, db: db, conn: conn, autocommit: true}, nil
}

// Driver возвращает имя драйвера database/sql.
func (c *Conn) Driver() string { return c.cfg.Driver }

func (c *Conn) NewStatement() (odbc.Statement, error) {
	if c.conn == nil {
		return nil, errs.NewDriverDiag("alloc statement", "08003", "connection is closed")
	}
	return &Stmt{c: c, rowset: 1, bound: map[int]*odbc.ColumnBuffer{}}, nil
}

// SetAutoCommit переключает autocommit. Выключение открывает транзакцию при
// первом использовании; включение фиксирует начатую, как SQL_ATTR_AUTOCOMMIT.
func (c *Conn) SetAutoCommit(on bool) error {
	if on == c.autocommit {
		return nil
	}
	c.autocommit = on
	if on && c.tx != nil {
		return c.Commit()
	}
	return nil
}

func (c *Conn) Commit() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(); err != nil {
		return driverError("commit", err)
	}
	return nil
}

func (c *Conn) Rollback() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(); err != nil {
		return driverError("rollback", err)
	}
	return nil
}

// Close откатывает открытую транзакцию и освобождает соединение.
func (c *Conn) Close() error {
	if c.conn == nil {
		return nil
	}
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	err := c.conn.Close()
	c.conn = nil
	if cerr := c.db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return driverError("close", err)
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// querier возвращает открытую транзакцию, начиная ее при выключенном autocommit.
func (c *Conn) querier(ctx context.Context) (querier, error) {
	if c.conn == nil {
		return nil, errs.NewDriverDiag("execute", "08003", "connection is closed")
	}
	if c.autocommit {
		return c.conn, nil
	}
	if c.tx == nil {
		tx, err := c.conn.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			return nil, driverError("begin transaction", err)
		}
		c.tx = tx
	}
	return c.tx, nil
}

func (c *Conn) String() string {
	return fmt.Sprintf("sqlconn(%s)", c.cfg.Driver)
}
