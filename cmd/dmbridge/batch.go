package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ruslano69/dmbridge/pkg/core/types"
	"github.com/ruslano69/dmbridge/pkg/executor"
)

// BatchFile is the YAML layout of -batch:
//
//	operations:
//	  - execute: INSERT INTO T (ID, NAME) VALUES (?, ?)
//	    params: [1, "first"]
//	  - query: SELECT COUNT(*) FROM T
//	  - describe: SYSDBA.T
type BatchFile struct {
	Operations []BatchStep `yaml:"operations"`
}

// BatchStep holds exactly one of Execute, Query or Describe
type BatchStep struct {
	Execute  string `yaml:"execute,omitempty"`
	Query    string `yaml:"query,omitempty"`
	Describe string `yaml:"describe,omitempty"` // TABLE or SCHEMA.TABLE
	Params   []any  `yaml:"params,omitempty"`
}

// LoadBatch reads a batch file
func LoadBatch(filename, defaultSchema string) ([]executor.Operation, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	ops, err := ParseBatch(data, defaultSchema)
	if err != nil {
		return nil, fmt.Errorf("batch file %s: %w", filename, err)
	}
	return ops, nil
}

// ParseBatch converts batch YAML into executor operations
func ParseBatch(data []byte, defaultSchema string) ([]executor.Operation, error) {
	var file BatchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse batch: %w", err)
	}
	if len(file.Operations) == 0 {
		return nil, fmt.Errorf("no operations")
	}

	ops := make([]executor.Operation, 0, len(file.Operations))
	for i, step := range file.Operations {
		op, err := step.operation(defaultSchema)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (s BatchStep) operation(defaultSchema string) (executor.Operation, error) {
	set := 0
	for _, v := range []string{s.Execute, s.Query, s.Describe} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of execute, query, describe is required")
	}

	params, err := batchParams(s.Params)
	if err != nil {
		return nil, err
	}

	switch {
	case s.Execute != "":
		return executor.ExecOp{SQL: s.Execute, Params: params}, nil
	case s.Query != "":
		return executor.QueryOp{SQL: s.Query, Params: params}, nil
	default:
		if len(params) > 0 {
			return nil, fmt.Errorf("describe takes no params")
		}
		schema, table := splitTable(s.Describe, defaultSchema)
		return executor.DescribeOp{Schema: schema, Table: table}, nil
	}
}

// batchParams maps YAML scalars onto column values
func batchParams(raw []any) ([]types.ColumnValue, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make([]types.ColumnValue, len(raw))
	for i, v := range raw {
		switch v := v.(type) {
		case nil:
			params[i] = types.Null(types.KindText)
		case string:
			params[i] = types.TextValue(v)
		case int:
			params[i] = types.I64Value(int64(v))
		case float64:
			params[i] = types.F64Value(v)
		case bool:
			params[i] = types.BitValue(v)
		default:
			return nil, fmt.Errorf("param %d: unsupported value %v (%T)", i+1, v, v)
		}
	}
	return params, nil
}
