package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ruslano69/dmbridge/pkg/executor"
)

func TestLoadConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
source:
  driver: odbc
  dsn: DSN=DM8;UID=SYSDBA;PWD=SYSDBA
options:
  kind: DM8
  max_str_len: 4096
target:
  dsn: postgresql://localhost/db
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Options.Kind != executor.KindDameng {
		t.Errorf("Kind = %q, want %q", cfg.Options.Kind, executor.KindDameng)
	}
	if cfg.Options.MaxStrLen != 4096 {
		t.Errorf("MaxStrLen = %d, want 4096", cfg.Options.MaxStrLen)
	}
	if cfg.Options.MaxBatchSize != executor.DefaultMaxBatchSize {
		t.Errorf("MaxBatchSize = %d, want default %d", cfg.Options.MaxBatchSize, executor.DefaultMaxBatchSize)
	}
	if cfg.Options.MaxBinaryLen != executor.DefaultMaxBinaryLen {
		t.Errorf("MaxBinaryLen = %d, want default %d", cfg.Options.MaxBinaryLen, executor.DefaultMaxBinaryLen)
	}
	if cfg.Options.CaseSensitive {
		t.Error("CaseSensitive should default to false")
	}
	if cfg.Target.Type != "postgres" {
		t.Errorf("Target.Type = %q, want postgres", cfg.Target.Type)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"missing driver", "source:\n  dsn: x\n", "source.driver is required"},
		{"unknown kind", "source:\n  driver: odbc\noptions:\n  kind: oracle\n", "oracle"},
		{"bad yaml", "source: [\n", "failed to parse config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSampleConfigRoundTrip(t *testing.T) {
	for _, driver := range []string{"odbc", "pgx", "sqlite", "sqlserver", "mysql"} {
		t.Run(driver, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := SaveConfig(path, CreateSampleConfig(driver)); err != nil {
				t.Fatalf("SaveConfig() error = %v", err)
			}
			cfg, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if cfg.Source.Driver != driver {
				t.Errorf("Driver = %q, want %q", cfg.Source.Driver, driver)
			}
			if cfg.Source.DSN == "" {
				t.Error("sample DSN is empty")
			}
			if cfg.ResultLog.TTL != 86400 {
				t.Errorf("ResultLog.TTL = %d, want 86400", cfg.ResultLog.TTL)
			}
		})
	}

	if got := CreateSampleConfig("pgx").Options.Kind; got != executor.KindPostgres {
		t.Errorf("pgx sample kind = %q, want postgres", got)
	}
}
