package adapters

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ruslano69/dmbridge/pkg/catalog"
	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// Пределы PostgreSQL для модификаторов типа
const (
	maxVarcharLength    = 10485760
	maxNumericPrecision = 1000
)

// TableFromCatalog строит описание целевой таблицы из колонок каталога DM.
//
// Колонки упорядочиваются по COLID, имена приводятся к нижнему регистру.
// Второй результат - имена колонок, тип которых отображается с потерей
// информации (см. types.LossyCollapse).
func TableFromCatalog(name string, cols []catalog.TableColumnDescriptor) (Table, []string, error) {
	if len(cols) == 0 {
		return Table{}, nil, fmt.Errorf("table %s: no columns", name)
	}
	sorted := make([]catalog.TableColumnDescriptor, len(cols))
	copy(sorted, cols)
	slices.SortStableFunc(sorted, func(a, b catalog.TableColumnDescriptor) int {
		return cmp.Compare(a.Index, b.Index)
	})

	t := Table{Name: name, Columns: make([]Column, 0, len(sorted))}
	var lossy []string
	for _, c := range sorted {
		col, err := columnFromCatalog(c)
		if err != nil {
			return Table{}, nil, fmt.Errorf("table %s: %w", name, err)
		}
		if types.LossyCollapse(c.Type) {
			lossy = append(lossy, col.Name)
		}
		t.Columns = append(t.Columns, col)
	}
	return t, lossy, nil
}

func columnFromCatalog(c catalog.TableColumnDescriptor) (Column, error) {
	tt, err := types.SourceToTarget(c.Type)
	if err != nil {
		return Column{}, fmt.Errorf("column %s: %w", c.Name, err)
	}
	if tt == types.TargetUnknown {
		return Column{}, errs.NewTypeConversion(c.TypeName, "column "+c.Name, nil)
	}
	col := Column{
		Name:     strings.ToLower(c.Name),
		Type:     tt,
		Nullable: c.Nullable,
		Identity: c.Identity && isInteger(tt),
	}
	switch tt {
	case types.TargetBpchar, types.TargetVarchar:
		switch {
		case c.Length > maxVarcharLength:
			col.Type = types.TargetText
		case c.Length > 0:
			col.Length = int(c.Length)
		}
	case types.TargetNumeric:
		if c.Length > 0 && c.Length <= maxNumericPrecision && c.Scale <= c.Length {
			col.Length, col.Scale = int(c.Length), int(c.Scale)
		}
	}
	if !col.Identity {
		col.Default = portableDefault(c.Default)
	}
	return col, nil
}

func isInteger(t types.TargetType) bool {
	return t == types.TargetInt2 || t == types.TargetInt4 || t == types.TargetInt8
}

// portableDefault оставляет только литералы: строки в кавычках, числа и NULL.
// Выражения DM (SYSDATE, последовательности) в PostgreSQL не переносятся.
func portableDefault(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case strings.EqualFold(s, "NULL"):
		return "NULL"
	case len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'':
		return s
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return s
	}
	return ""
}
