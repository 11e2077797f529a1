package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruslano69/dmbridge/pkg/export"
)

// writeSQLiteConfig creates a config pointing at a file-backed sqlite source
func writeSQLiteConfig(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	cfg := CreateSampleConfig("sqlite")
	cfg.Source.DSN = filepath.Join(dir, "source.db")
	cfg.ResultLog.Address = ""
	cfg.Target.DSN = ""
	cfg.Export = export.Options{}
	path = filepath.Join(dir, "config.yaml")
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func runArgs(t *testing.T, args ...string) error {
	t.Helper()
	flags, err := ParseFlags(args)
	if err != nil {
		t.Fatalf("ParseFlags(%v) error = %v", args, err)
	}
	return run(context.Background(), flags)
}

func TestRun_ExecuteQueryBatch(t *testing.T) {
	dir, config := writeSQLiteConfig(t)

	if err := runArgs(t, "-config", config, "-execute", "CREATE TABLE ITEMS (ID INTEGER PRIMARY KEY, NAME VARCHAR(20))"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := runArgs(t, "-config", config, "-execute", "INSERT INTO ITEMS (ID, NAME) VALUES (?, ?)", "-params", "1,alpha"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	batch := filepath.Join(dir, "batch.yaml")
	data := "operations:\n  - execute: INSERT INTO ITEMS (ID, NAME) VALUES (?, ?)\n    params: [2, beta]\n  - query: SELECT COUNT(*) AS N FROM ITEMS\n"
	if err := os.WriteFile(batch, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if err := runArgs(t, "-config", config, "-batch", batch, "-output", filepath.Join(dir, "batch.out")); err != nil {
		t.Fatalf("batch: %v", err)
	}

	out := filepath.Join(dir, "items.jsonl")
	if err := runArgs(t, "-config", config, "-query", "SELECT ID, NAME FROM ITEMS ORDER BY ID", "-output", out); err != nil {
		t.Fatalf("query: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var row map[string]any
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		names = append(names, row["NAME"].(string))
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("rows = %v, want [alpha beta]", names)
	}
}

func TestRun_BatchRollsBack(t *testing.T) {
	dir, config := writeSQLiteConfig(t)

	if err := runArgs(t, "-config", config, "-execute", "CREATE TABLE ITEMS (ID INTEGER PRIMARY KEY, NAME VARCHAR(20))"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	batch := filepath.Join(dir, "batch.yaml")
	data := "operations:\n  - execute: INSERT INTO ITEMS (ID, NAME) VALUES (1, 'a')\n  - execute: INSERT INTO ITEMS (ID, NAME) VALUES (1, 'dup')\n"
	if err := os.WriteFile(batch, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if err := runArgs(t, "-config", config, "-batch", batch); err == nil {
		t.Fatal("expected duplicate key failure")
	}

	out := filepath.Join(dir, "count.jsonl")
	if err := runArgs(t, "-config", config, "-query", "SELECT COUNT(*) AS N FROM ITEMS", "-output", out); err != nil {
		t.Fatalf("query: %v", err)
	}
	line, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var row map[string]any
	if err := json.Unmarshal(line, &row); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(row["N"]) != "0" {
		t.Errorf("rows after rollback = %v, want 0", row["N"])
	}
}

func TestRun_TransferNeedsTarget(t *testing.T) {
	_, config := writeSQLiteConfig(t)
	err := runArgs(t, "-config", config, "-transfer", "ITEMS")
	if err == nil {
		t.Fatal("expected error without target.dsn")
	}
}
