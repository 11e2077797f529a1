package executor

import (
	"strconv"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// countPlaceholders возвращает число параметров оператора:
// маркеры '?' для DM, наибольший $n для PostgreSQL. Литералы в кавычках,
// идентификаторы в кавычках и комментарии пропускаются.
func countPlaceholders(kind Kind, query string) int {
	count, highest := 0, 0
	for i := 0; i < len(query); i++ {
		switch c := query[i]; {
		case c == '\'' || c == '"':
			i = skipQuoted(query, i, c)
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			for i < len(query) && query[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := i + 2
			for end+1 < len(query) && !(query[end] == '*' && query[end+1] == '/') {
				end++
			}
			i = end + 1
		case c == '?' && kind == KindDameng:
			count++
		case c == '$' && kind == KindPostgres:
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			if j > i+1 {
				n, _ := strconv.Atoi(query[i+1 : j])
				highest = max(highest, n)
				i = j - 1
			}
		}
	}
	if kind == KindPostgres {
		return highest
	}
	return count
}

// skipQuoted возвращает индекс закрывающей кавычки; удвоенная кавычка - экранирование.
func skipQuoted(s string, start int, q byte) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i
	}
	return len(s)
}

func checkParams(kind Kind, query string, params []types.ColumnValue) error {
	if query == "" {
		return &errs.SQLParamsError{Statement: query, Reason: "empty statement"}
	}
	want := countPlaceholders(kind, query)
	if want != len(params) {
		return &errs.SQLParamsError{Statement: query, Expected: want, Got: len(params)}
	}
	return nil
}

func bindArgs(params []types.ColumnValue) []any {
	if len(params) == 0 {
		return nil
	}
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p.Any()
	}
	return args
}
