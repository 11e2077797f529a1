package adapters_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ruslano69/dmbridge/pkg/adapters"
	_ "github.com/ruslano69/dmbridge/pkg/adapters/postgres" // Register postgres
)

type fakeTarget struct {
	adapters.Target
	cfg     adapters.Config
	failure error
}

func (f *fakeTarget) Connect(ctx context.Context, cfg adapters.Config) error {
	f.cfg = cfg
	return f.failure
}

func (f *fakeTarget) GetDatabaseType() string { return "fake" }

// TestFactory_Create проверяет создание и подключение зарегистрированного адаптера
func TestFactory_Create(t *testing.T) {
	f := adapters.NewFactory()
	f.Register("fake", func() adapters.Target { return &fakeTarget{} })

	target, err := f.Create(context.Background(), adapters.Config{Type: "fake", DSN: "x", Schema: "s"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ft := target.(*fakeTarget)
	if ft.cfg.DSN != "x" || ft.cfg.Schema != "s" {
		t.Errorf("config not passed to Connect: %+v", ft.cfg)
	}
	if !f.IsRegistered("fake") || f.IsRegistered("mssql") {
		t.Error("IsRegistered mismatch")
	}
}

// TestFactory_UnknownType проверяет ошибку для незарегистрированного типа
func TestFactory_UnknownType(t *testing.T) {
	f := adapters.NewFactory()
	f.Register("b", func() adapters.Target { return &fakeTarget{} })
	f.Register("a", func() adapters.Target { return &fakeTarget{} })

	_, err := f.Create(context.Background(), adapters.Config{Type: "oracle"})
	if err == nil {
		t.Fatal("Expected error for unknown type")
	}
	if !strings.Contains(err.Error(), "[a b]") {
		t.Errorf("Error should list available types: %v", err)
	}
	if got := f.RegisteredTypes(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("RegisteredTypes = %v", got)
	}
}

// TestFactory_ConnectError проверяет, что ошибка подключения оборачивается
func TestFactory_ConnectError(t *testing.T) {
	boom := errors.New("boom")
	f := adapters.NewFactory()
	f.Register("fake", func() adapters.Target { return &fakeTarget{failure: boom} })

	_, err := f.Create(context.Background(), adapters.Config{Type: "fake"})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped connect error, got %v", err)
	}
}

// TestGlobalFactory_Postgres проверяет регистрацию PostgreSQL адаптера в init()
func TestGlobalFactory_Postgres(t *testing.T) {
	if !adapters.IsRegistered("postgres") {
		t.Fatalf("postgres is not registered: %v", adapters.RegisteredTypes())
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]adapters.WriteStrategy{
		"":       adapters.StrategyCopy,
		"copy":   adapters.StrategyCopy,
		"insert": adapters.StrategyInsert,
		"ignore": adapters.StrategyIgnore,
	} {
		got, err := adapters.ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := adapters.ParseStrategy("replace"); err == nil {
		t.Error("Expected error for replace")
	}
}
