// Package sqlstate переводит коды SQLSTATE между словарями DM и PostgreSQL.
package sqlstate

import "fmt"

// Condition - именованный исход с кодом на каждой стороне.
type Condition struct {
	Name   string
	Source string // код DM (ODBC)
	Target string // код PostgreSQL
}

// Классы ISO, которые PostgreSQL наследует без изменений, совпадают на обеих
// сторонах. Где у PostgreSQL есть собственный код, используется он.
var conditions = [...]Condition{
	{"OK", "00000", "00000"},
	{"WARN", "01000", "01000"},
	{"TRUNCATED", "01004", "22001"},
	{"NO_DATA", "02000", "02000"},
	{"COMMUNICATION_ERROR", "08S01", "08006"},
	{"CONNECTION_FAILURE", "08001", "08001"},
	{"FEATURE_NOT_SUPPORTED", "HYC00", "0A000"},
	{"CARDINALITY_VIOLATION", "21000", "21000"},
	{"NUMERIC_OUT_OF_RANGE", "22003", "22003"},
	{"INVALID_DATETIME", "22007", "22007"},
	{"DIVISION_BY_ZERO", "22012", "22012"},
	{"INTEGRITY_VIOLATION", "23000", "23000"},
	{"INVALID_CURSOR_STATE", "24000", "24000"},
	{"INVALID_TRANSACTION_STATE", "25000", "25000"},
	{"INVALID_AUTHORIZATION", "28000", "28P01"},
	{"SYNTAX_ERROR", "42000", "42601"},
	{"TABLE_NOT_FOUND", "42S02", "42P01"},
	{"COLUMN_NOT_FOUND", "42S22", "42703"},
	{"TIMEOUT", "HYT00", "57014"},
	{"INTERNAL_ERROR", "HY000", "XX000"},
	{"SEQUENCE_ERROR", "HY010", "55000"},
	{"MEMORY_ERROR", "HY001", "53200"},
}

// Registry индексирует таблицу по имени и по обоим кодам.
// После NewRegistry не изменяется, конкурентное чтение безопасно.
type Registry struct {
	byName   map[string]Condition
	bySource map[string]Condition
	byTarget map[string]Condition
}

// NewRegistry строит индексы. Паникует при повторе имени или кода в таблице:
// обратный поиск требует уникальности.
func NewRegistry() *Registry {
	r := &Registry{
		byName:   make(map[string]Condition, len(conditions)),
		bySource: make(map[string]Condition, len(conditions)),
		byTarget: make(map[string]Condition, len(conditions)),
	}
	for _, c := range conditions {
		if _, dup := r.byName[c.Name]; dup {
			panic(fmt.Sprintf("sqlstate: duplicate condition %s", c.Name))
		}
		if _, dup := r.bySource[c.Source]; dup {
			panic(fmt.Sprintf("sqlstate: duplicate source code %s", c.Source))
		}
		if _, dup := r.byTarget[c.Target]; dup {
			panic(fmt.Sprintf("sqlstate: duplicate target code %s", c.Target))
		}
		r.byName[c.Name] = c
		r.bySource[c.Source] = c
		r.byTarget[c.Target] = c
	}
	return r
}

// Conditions возвращает все условия в порядке таблицы.
func (r *Registry) Conditions() []Condition {
	out := make([]Condition, len(conditions))
	copy(out, conditions[:])
	return out
}

func (r *Registry) ByName(name string) (Condition, bool) {
	c, ok := r.byName[name]
	return c, ok
}

func (r *Registry) BySource(code string) (Condition, bool) {
	c, ok := r.bySource[code]
	return c, ok
}

func (r *Registry) ByTarget(code string) (Condition, bool) {
	c, ok := r.byTarget[code]
	return c, ok
}

// SourceToTarget переводит код DM. Неизвестный код не найден, подбора
// ближайшего класса нет.
func (r *Registry) SourceToTarget(code string) (string, bool) {
	c, ok := r.bySource[code]
	return c.Target, ok
}

// TargetToSource переводит код PostgreSQL.
func (r *Registry) TargetToSource(code string) (string, bool) {
	c, ok := r.byTarget[code]
	return c.Source, ok
}
