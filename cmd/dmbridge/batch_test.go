package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ruslano69/dmbridge/pkg/core/types"
	"github.com/ruslano69/dmbridge/pkg/executor"
)

func TestParseBatch(t *testing.T) {
	data := `
operations:
  - execute: INSERT INTO T (ID, NAME, RATE, OK, NOTE) VALUES (?, ?, ?, ?, ?)
    params: [1, "first", 2.5, true, null]
  - query: SELECT NAME FROM T WHERE ID = ?
    params: [1]
  - describe: T
  - describe: OTHER.T2
`
	ops, err := ParseBatch([]byte(data), "SYSDBA")
	if err != nil {
		t.Fatalf("ParseBatch() error = %v", err)
	}

	want := []executor.Operation{
		executor.ExecOp{
			SQL: "INSERT INTO T (ID, NAME, RATE, OK, NOTE) VALUES (?, ?, ?, ?, ?)",
			Params: []types.ColumnValue{
				types.I64Value(1),
				types.TextValue("first"),
				types.F64Value(2.5),
				types.BitValue(true),
				types.Null(types.KindText),
			},
		},
		executor.QueryOp{SQL: "SELECT NAME FROM T WHERE ID = ?", Params: []types.ColumnValue{types.I64Value(1)}},
		executor.DescribeOp{Schema: "SYSDBA", Table: "T"},
		executor.DescribeOp{Schema: "OTHER", Table: "T2"},
	}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("ParseBatch() =\n%#v\nwant\n%#v", ops, want)
	}
}

func TestParseBatch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"empty", "operations: []\n", "no operations"},
		{"two kinds", "operations:\n  - execute: X\n    query: Y\n", "operation 1: exactly one"},
		{"no kind", "operations:\n  - params: [1]\n", "exactly one"},
		{"describe params", "operations:\n  - query: X\n  - describe: T\n    params: [1]\n", "operation 2: describe takes no params"},
		{"nested param", "operations:\n  - execute: X\n    params: [[1, 2]]\n", "param 1: unsupported value"},
		{"bad yaml", "operations: {\n", "failed to parse batch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBatch([]byte(tt.data), "")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseBatch() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	got := parseParams(`a,,\N,b c`)
	want := []types.ColumnValue{
		types.TextValue("a"),
		types.TextValue(""),
		types.Null(types.KindText),
		types.TextValue("b c"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseParams() = %v, want %v", got, want)
	}
	if parseParams("") != nil {
		t.Error("parseParams(\"\") should be nil")
	}
}

func TestSplitTable(t *testing.T) {
	tests := []struct {
		in, schema, wantSchema, wantTable string
	}{
		{"ORDERS", "SYSDBA", "SYSDBA", "ORDERS"},
		{"SCH.ORDERS", "SYSDBA", "SCH", "ORDERS"},
		{"ORDERS", "", "", "ORDERS"},
	}
	for _, tt := range tests {
		s, tbl := splitTable(tt.in, tt.schema)
		if s != tt.wantSchema || tbl != tt.wantTable {
			t.Errorf("splitTable(%q, %q) = %q, %q; want %q, %q", tt.in, tt.schema, s, tbl, tt.wantSchema, tt.wantTable)
		}
	}
}
