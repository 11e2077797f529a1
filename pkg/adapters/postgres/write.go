package postgres

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ruslano69/dmbridge/pkg/adapters"
	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// Write записывает строки в таблицу выбранной стратегией.
//
// StrategyCopy использует COPY FROM в бинарном формате. Для таблиц с
// колонками interval и timetz, которые в бинарный формат из строки не
// кодируются, выполняется INSERT.
func (t *postgresTx) Write(ctx context.Context, table adapters.Table, rows [][]types.ColumnValue, strategy adapters.WriteStrategy) (int64, error) {
	for i, row := range rows {
		if len(row) != len(table.Columns) {
			return 0, &errs.SQLParamsError{
				Statement: "write " + table.Name,
				Expected:  len(table.Columns),
				Got:       len(row),
				Reason:    "row " + strconv.Itoa(i+1),
			}
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	switch strategy {
	case adapters.StrategyCopy:
		if copySafe(table) {
			return t.copy(ctx, table, rows)
		}
		return t.insert(ctx, table, rows, "")
	case adapters.StrategyInsert:
		return t.insert(ctx, table, rows, "")
	case adapters.StrategyIgnore:
		return t.insert(ctx, table, rows, " ON CONFLICT DO NOTHING")
	}
	return 0, errs.Errorf("unknown write strategy %q", strategy)
}

func copySafe(table adapters.Table) bool {
	for _, c := range table.Columns {
		switch c.Type {
		case types.TargetInterval, types.TargetTimeTZ:
			return false
		}
	}
	return true
}

func (t *postgresTx) copy(ctx context.Context, table adapters.Table, rows [][]types.ColumnValue) (int64, error) {
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return rowValues(table, rows[i])
	})
	n, err := t.tx.CopyFrom(ctx, pgx.Identifier{t.schema, table.Name}, table.ColumnNames(), src)
	if err != nil {
		var ce *errs.TypeConversionError
		if errors.As(err, &ce) {
			return 0, err
		}
		return 0, pgError("copy into "+table.Name, err)
	}
	return n, nil
}

func (t *postgresTx) insert(ctx context.Context, table adapters.Table, rows [][]types.ColumnValue, suffix string) (int64, error) {
	sql := BuildInsert(t.schema, table) + suffix

	batch := &pgx.Batch{}
	for _, row := range rows {
		vals, err := rowValues(table, row)
		if err != nil {
			return 0, err
		}
		batch.Queue(sql, vals...)
	}

	br := t.tx.SendBatch(ctx, batch)
	var total int64
	var err error
	for range rows {
		tag, execErr := br.Exec()
		if execErr != nil {
			err = pgError("insert into "+table.Name, execErr)
			break
		}
		total += tag.RowsAffected()
	}
	if cerr := br.Close(); err == nil && cerr != nil {
		err = pgError("insert into "+table.Name, cerr)
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

// BuildInsert строит INSERT INTO schema.table (cols) VALUES ($1, ...)
func BuildInsert(schema string, table adapters.Table) string {
	cols := make([]string, len(table.Columns))
	params := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = QuoteIdentifier(c.Name)
		params[i] = "$" + strconv.Itoa(i+1)
	}
	return "INSERT INTO " + QualifiedName(schema, table.Name) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")"
}

func rowValues(table adapters.Table, row []types.ColumnValue) ([]any, error) {
	vals := make([]any, len(row))
	for i, v := range row {
		val, err := convertValue(v, table.Columns[i])
		if err != nil {
			return nil, err
		}
		vals[i] = val
	}
	return vals, nil
}

// convertValue приводит значение к типу, который pgx кодирует для колонки c
func convertValue(v types.ColumnValue, c adapters.Column) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	fail := func(err error) (any, error) {
		return nil, errs.NewTypeConversion(v.String(), string(c.Type)+" column "+c.Name, err)
	}

	switch c.Type {
	case types.TargetBool:
		if v.Kind() == types.KindBit || isIntKind(v.Kind()) {
			return v.Int() != 0, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v.String()))
		if err != nil {
			return fail(err)
		}
		return b, nil

	case types.TargetInt2, types.TargetInt4, types.TargetInt8:
		n, err := intOf(v)
		if err != nil {
			return fail(err)
		}
		switch {
		case c.Type == types.TargetInt2 && (n < math.MinInt16 || n > math.MaxInt16),
			c.Type == types.TargetInt4 && (n < math.MinInt32 || n > math.MaxInt32):
			return fail(strconv.ErrRange)
		}
		return n, nil

	case types.TargetFloat4, types.TargetFloat8:
		f, err := floatOf(v)
		if err != nil {
			return fail(err)
		}
		if c.Type == types.TargetFloat4 {
			return float32(f), nil
		}
		return f, nil

	case types.TargetNumeric:
		var n pgtype.Numeric
		if err := n.Scan(strings.TrimSpace(v.String())); err != nil {
			return fail(err)
		}
		return n, nil

	case types.TargetDate:
		d, err := dateTimeOf(v)
		if err != nil {
			return fail(err)
		}
		return pgtype.Date{Time: d.Date.In(time.UTC), Valid: true}, nil

	case types.TargetTime:
		tm := v.Time()
		if v.Kind() != types.KindTime && v.Kind() != types.KindTimestamp {
			var err error
			if tm, err = civil.ParseTime(strings.TrimSpace(v.String())); err != nil {
				return fail(err)
			}
		}
		return pgtype.Time{Microseconds: microseconds(tm), Valid: true}, nil

	case types.TargetTimestamp:
		dt, err := dateTimeOf(v)
		if err != nil {
			return fail(err)
		}
		return pgtype.Timestamp{Time: dt.In(time.UTC), Valid: true}, nil

	case types.TargetTimestampTZ:
		dt, err := dateTimeOf(v)
		if err != nil {
			return fail(err)
		}
		return pgtype.Timestamptz{Time: dt.In(time.UTC), Valid: true}, nil

	case types.TargetBytea:
		if v.Kind() == types.KindBinary {
			return v.Bytes(), nil
		}
		return []byte(v.String()), nil
	}
	return v.String(), nil
}

func isIntKind(k types.Kind) bool {
	switch k {
	case types.KindI8, types.KindI16, types.KindI32, types.KindI64, types.KindU8:
		return true
	}
	return false
}

func intOf(v types.ColumnValue) (int64, error) {
	switch k := v.Kind(); {
	case isIntKind(k), k == types.KindBit:
		return v.Int(), nil
	case k == types.KindF64 || k == types.KindF32:
		f := v.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, strconv.ErrRange
		}
		return int64(f), nil
	}
	return strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
}

func floatOf(v types.ColumnValue) (float64, error) {
	switch k := v.Kind(); {
	case k == types.KindF64 || k == types.KindF32:
		return v.Float(), nil
	case isIntKind(k):
		return float64(v.Int()), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
}

func dateTimeOf(v types.ColumnValue) (civil.DateTime, error) {
	switch v.Kind() {
	case types.KindDate:
		return civil.DateTime{Date: v.Date()}, nil
	case types.KindTimestamp:
		return v.DateTime(), nil
	}
	s := strings.TrimSpace(v.String())
	if d, err := civil.ParseDate(s); err == nil {
		return civil.DateTime{Date: d}, nil
	}
	return civil.ParseDateTime(strings.Replace(s, " ", "T", 1))
}

func microseconds(t civil.Time) int64 {
	return int64(t.Hour)*3600_000_000 + int64(t.Minute)*60_000_000 +
		int64(t.Second)*1_000_000 + int64(t.Nanosecond)/1000
}
