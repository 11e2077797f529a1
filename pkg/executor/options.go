package executor

import (
	"fmt"
	"strings"
)

// Kind - диалект СУБД на другом конце соединения.
type Kind string

const (
	KindDameng   Kind = "dameng"
	KindPostgres Kind = "postgres"
)

// Значения опций по умолчанию.
const (
	DefaultMaxBatchSize = 128
	DefaultMaxStrLen    = 1024
	DefaultMaxBinaryLen = 1 << 20
)

// Options - настройки Executor.
type Options struct {
	Kind          Kind   `yaml:"kind"`
	MaxBatchSize  int    `yaml:"max_batch_size"` // строк за одну выборку
	MaxStrLen     int    `yaml:"max_str_len"`    // байты
	MaxBinaryLen  int    `yaml:"max_binary_len"` // байты
	CaseSensitive bool   `yaml:"case_sensitive"`
	Charset       string `yaml:"charset"`
}

// DefaultOptions возвращает опции соединения с DM с размерами по умолчанию.
func DefaultOptions() Options {
	return Options{
		Kind:         KindDameng,
		MaxBatchSize: DefaultMaxBatchSize,
		MaxStrLen:    DefaultMaxStrLen,
		MaxBinaryLen: DefaultMaxBinaryLen,
	}
}

// WithDefaults заменяет нулевые числовые опции и пустой kind значениями по умолчанию.
func (o Options) WithDefaults() Options {
	if o.Kind == "" {
		o.Kind = KindDameng
	}
	if o.MaxBatchSize == 0 {
		o.MaxBatchSize = DefaultMaxBatchSize
	}
	if o.MaxStrLen == 0 {
		o.MaxStrLen = DefaultMaxStrLen
	}
	if o.MaxBinaryLen == 0 {
		o.MaxBinaryLen = DefaultMaxBinaryLen
	}
	return o
}

// Validate проверяет то, что WithDefaults исправить не может.
func (o Options) Validate() error {
	switch o.Kind {
	case KindDameng, KindPostgres:
	default:
		return fmt.Errorf("unknown database kind %q", o.Kind)
	}
	if o.MaxBatchSize < 0 || o.MaxStrLen < 0 || o.MaxBinaryLen < 0 {
		return fmt.Errorf("negative size option: batch %d, str %d, binary %d",
			o.MaxBatchSize, o.MaxStrLen, o.MaxBinaryLen)
	}
	return nil
}

// ParseKind принимает имена диалектов из конфигурации.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dameng", "dm", "dm8":
		return KindDameng, nil
	case "postgres", "postgresql", "pg":
		return KindPostgres, nil
	}
	return "", fmt.Errorf("unknown database kind %q", s)
}

// FoldName применяет правило регистра к идентификатору: имена без кавычек
// хранятся в верхнем регистре, если опции не чувствительны к регистру.
func (o Options) FoldName(name string) string {
	if o.CaseSensitive {
		return name
	}
	return strings.ToUpper(name)
}
