package postgres

import (
	"strings"

	"github.com/ruslano69/dmbridge/pkg/adapters"
	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// QuoteIdentifier заключает идентификатор в двойные кавычки, удваивая
// кавычки внутри имени
func QuoteIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// QualifiedName возвращает schema.table с экранированием обеих частей
func QualifiedName(schema, table string) string {
	if schema == "" {
		return QuoteIdentifier(table)
	}
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(table)
}

// BuildCreateTable строит CREATE TABLE IF NOT EXISTS для таблицы
func BuildCreateTable(schema string, table adapters.Table) (string, error) {
	if table.Name == "" || len(table.Columns) == 0 {
		return "", errs.Errorf("table %q has no columns", table.Name)
	}
	defs := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		def, err := columnDefinition(c)
		if err != nil {
			return "", err
		}
		defs[i] = def
	}
	return "CREATE TABLE IF NOT EXISTS " + QualifiedName(schema, table.Name) +
		" (\n\t" + strings.Join(defs, ",\n\t") + "\n)", nil
}

func columnDefinition(c adapters.Column) (string, error) {
	if c.Name == "" {
		return "", errs.Errorf("column without name")
	}
	switch c.Type {
	case types.TargetOID, types.TargetMoney:
		return "", errs.NewTypeConversion(string(c.Type), "column "+c.Name, nil)
	}

	var b strings.Builder
	b.WriteString(QuoteIdentifier(c.Name))
	b.WriteByte(' ')
	b.WriteString(c.DDL())
	if c.Identity {
		b.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
	} else if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	return b.String(), nil
}
