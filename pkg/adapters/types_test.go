package adapters

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ruslano69/dmbridge/pkg/catalog"
	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

func TestTableFromCatalog(t *testing.T) {
	cols := []catalog.TableColumnDescriptor{
		{Name: "CREATED", Index: 4, Type: types.SourceTimestampLTZ, Nullable: true},
		{Name: "ID", Index: 0, Type: types.SourceInt, Identity: true, Default: "0"},
		{Name: "NOTE", Index: 1, Type: types.SourceVarchar, Length: 8188, Nullable: true, Default: "'n/a'"},
		{Name: "AMOUNT", Index: 2, Type: types.SourceNumber, Length: 12, Scale: 2, Default: "SYSDATE"},
		{Name: "BODY", Index: 3, Type: types.SourceVarchar, Length: 20000000},
	}
	table, lossy, err := TableFromCatalog("orders", cols)
	if err != nil {
		t.Fatal(err)
	}
	want := []Column{
		{Name: "id", Type: types.TargetInt4, Identity: true},
		{Name: "note", Type: types.TargetVarchar, Length: 8188, Nullable: true, Default: "'n/a'"},
		{Name: "amount", Type: types.TargetNumeric, Length: 12, Scale: 2},
		{Name: "body", Type: types.TargetText},
		{Name: "created", Type: types.TargetTimestampTZ, Nullable: true},
	}
	if !reflect.DeepEqual(table.Columns, want) {
		t.Errorf("columns:\n got %+v\nwant %+v", table.Columns, want)
	}
	if !reflect.DeepEqual(lossy, []string{"created"}) {
		t.Errorf("lossy = %v", lossy)
	}
	if got := table.ColumnNames(); !reflect.DeepEqual(got, []string{"id", "note", "amount", "body", "created"}) {
		t.Errorf("ColumnNames = %v", got)
	}
	if got := table.Columns[2].DDL(); got != "numeric(12,2)" {
		t.Errorf("DDL = %s", got)
	}
}

func TestTableFromCatalog_Empty(t *testing.T) {
	if _, _, err := TableFromCatalog("t", nil); err == nil {
		t.Error("Expected error for table without columns")
	}
}

func TestTableFromCatalog_UnknownType(t *testing.T) {
	cols := []catalog.TableColumnDescriptor{
		{Name: "ID", Type: types.SourceInt},
		{Name: "GEO", Index: 1, Type: types.SourceUnknown, TypeName: "ST_GEOMETRY"},
	}
	_, _, err := TableFromCatalog("shapes", cols)
	var te *errs.TypeConversionError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want TypeConversionError", err)
	}
	if te.Value != "ST_GEOMETRY" {
		t.Errorf("Value = %q, want ST_GEOMETRY", te.Value)
	}
}

func TestPortableDefault(t *testing.T) {
	tests := map[string]string{
		"":               "",
		" 'abc' ":        "'abc'",
		"12.5":           "12.5",
		"-3":             "-3",
		"null":           "NULL",
		"SYSDATE":        "",
		"NEXTVAL('s')":   "",
		"CURRENT_USER()": "",
	}
	for in, want := range tests {
		if got := portableDefault(in); got != want {
			t.Errorf("portableDefault(%q) = %q, want %q", in, got, want)
		}
	}
}
