package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruslano69/dmbridge/pkg/adapters"
	"github.com/ruslano69/dmbridge/pkg/core/errs"
)

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Target
var _ adapters.Target = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register("postgres", func() adapters.Target {
		return &Adapter{}
	})
}

// Adapter - целевая БД PostgreSQL поверх пула pgx
type Adapter struct {
	pool   *pgxpool.Pool
	schema string
}

// Connect создает пул и проверяет его ping. Ошибки DSN возвращаются как
// errs.StringError, ошибки сервера - как errs.DriverError с SQLSTATE.
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return errs.Errorf("target dsn: %v", err)
	}

	config.MaxConns = 4
	if cfg.MaxConns > 0 {
		config.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		config.MinConns = int32(cfg.MinConns)
	}
	if cfg.Timeout > 0 {
		config.ConnConfig.ConnectTimeout = cfg.Timeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return errs.Errorf("target pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return pgError("ping", err)
	}

	a.pool = pool
	a.schema = cfg.Schema
	if a.schema == "" {
		a.schema = "public"
	}
	return nil
}

// Close закрывает пул подключений
func (a *Adapter) Close(ctx context.Context) error {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return nil
}

// Ping проверяет доступность БД
func (a *Adapter) Ping(ctx context.Context) error {
	if a.pool == nil {
		return errs.Errorf("adapter not connected")
	}
	return pgError("ping", a.pool.Ping(ctx))
}

func (a *Adapter) GetDatabaseType() string {
	return "postgres"
}

// Schema возвращает текущую схему
func (a *Adapter) Schema() string {
	return a.schema
}

// TableExists проверяет существование таблицы в текущей схеме
func (a *Adapter) TableExists(ctx context.Context, table string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = $1
			  AND table_name = $2
		)`

	var exists bool
	if err := a.pool.QueryRow(ctx, query, a.schema, table).Scan(&exists); err != nil {
		return false, pgError("check table existence", err)
	}
	return exists, nil
}

// CreateTable создает таблицу, если ее еще нет
func (a *Adapter) CreateTable(ctx context.Context, table adapters.Table) error {
	ddl, err := BuildCreateTable(a.schema, table)
	if err != nil {
		return err
	}
	if _, err := a.pool.Exec(ctx, ddl); err != nil {
		return pgError("create table "+table.Name, err)
	}
	return nil
}

// DropTable удаляет таблицу, если она существует
func (a *Adapter) DropTable(ctx context.Context, table string) error {
	sql := "DROP TABLE IF EXISTS " + QualifiedName(a.schema, table)
	if _, err := a.pool.Exec(ctx, sql); err != nil {
		return pgError("drop table "+table, err)
	}
	return nil
}

// BeginTx начинает транзакцию
func (a *Adapter) BeginTx(ctx context.Context) (adapters.Tx, error) {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return nil, pgError("begin transaction", err)
	}
	return &postgresTx{tx: tx, schema: a.schema}, nil
}

// GetDatabaseVersion возвращает версию PostgreSQL
func (a *Adapter) GetDatabaseVersion(ctx context.Context) (string, error) {
	var version string
	if err := a.pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", pgError("get version", err)
	}
	return version, nil
}

// postgresTx - обертка над pgx.Tx, реализует adapters.Tx
type postgresTx struct {
	tx     pgx.Tx
	schema string
}

func (t *postgresTx) Commit(ctx context.Context) error {
	return pgError("commit", t.tx.Commit(ctx))
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return pgError("rollback", err)
}

// pgError переводит ошибку pgx в errs.DriverError; SQLSTATE берется из PgError
func pgError(op string, err error) error {
	if err == nil {
		return nil
	}
	de := &errs.DriverError{Op: op, Err: err}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		de.Diagnostics = []errs.Diagnostic{{State: pe.Code, Message: pe.Message}}
	}
	return de
}
