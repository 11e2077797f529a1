package adapters

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Constructor - функция-конструктор адаптера (еще не подключенного к БД)
type Constructor func() Target

// Factory - реестр адаптеров целевых БД
type Factory struct {
	registry map[string]Constructor
	mu       sync.RWMutex
}

// NewFactory создает пустую фабрику
func NewFactory() *Factory {
	return &Factory{registry: make(map[string]Constructor)}
}

// Register регистрирует конструктор для типа БД
func (f *Factory) Register(dbType string, c Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registry[dbType] = c
}

// IsRegistered проверяет регистрацию типа БД
func (f *Factory) IsRegistered(dbType string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.registry[dbType]
	return ok
}

// RegisteredTypes возвращает зарегистрированные типы в алфавитном порядке
func (f *Factory) RegisteredTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.registry))
	for t := range f.registry {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Create создает адаптер и подключает его по cfg
func (f *Factory) Create(ctx context.Context, cfg Config) (Target, error) {
	f.mu.RLock()
	c, ok := f.registry[cfg.Type]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown database type: %s (available types: %v)", cfg.Type, f.RegisteredTypes())
	}

	t := c()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := t.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}
	return t, nil
}

// ========== Global Factory ==========

var globalFactory = NewFactory()

// Register регистрирует адаптер в глобальной фабрике; вызывается из init() адаптеров
func Register(dbType string, c Constructor) {
	globalFactory.Register(dbType, c)
}

// IsRegistered проверяет регистрацию в глобальной фабрике
func IsRegistered(dbType string) bool {
	return globalFactory.IsRegistered(dbType)
}

// RegisteredTypes возвращает типы из глобальной фабрики
func RegisteredTypes() []string {
	return globalFactory.RegisteredTypes()
}

// New создает подключенный адаптер через глобальную фабрику
func New(ctx context.Context, cfg Config) (Target, error) {
	return globalFactory.Create(ctx, cfg)
}
