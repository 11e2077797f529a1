package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
)

// BackoffStrategy - закон роста паузы между попытками
type BackoffStrategy string

const (
	BackoffConstant    BackoffStrategy = "constant"    // пауза не меняется
	BackoffLinear      BackoffStrategy = "linear"      // InitialDelay * n
	BackoffExponential BackoffStrategy = "exponential" // InitialDelay * Multiplier^(n-1)
)

// Config - секция retry конфигурации
type Config struct {
	Enabled bool `yaml:"enabled"`

	// MaxAttempts учитывает и первую попытку; 0 - пока не отменен контекст
	MaxAttempts int `yaml:"max_attempts"`

	InitialDelay      time.Duration   `yaml:"initial_delay"`
	MaxDelay          time.Duration   `yaml:"max_delay"`
	BackoffStrategy   BackoffStrategy `yaml:"backoff"`
	BackoffMultiplier float64         `yaml:"multiplier"`

	// Jitter - доля случайного отклонения паузы, 0.0 - 1.0
	Jitter float64 `yaml:"jitter"`

	// RetryableStates - префиксы SQLSTATE для повтора. Ошибки без
	// SQLSTATE (обрыв TCP, DNS) повторяются всегда.
	RetryableStates []string `yaml:"retryable_states,omitempty"`

	// OnRetry вызывается перед паузой
	OnRetry func(attempt int, err error, delay time.Duration) `yaml:"-"`
}

// Validate проверяет секцию и подставляет значения по умолчанию.
// Выключенная секция не проверяется.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch {
	case c.MaxAttempts < 0:
		return fmt.Errorf("retry.max_attempts: negative value %d", c.MaxAttempts)
	case c.InitialDelay < 0:
		return fmt.Errorf("retry.initial_delay: negative value %v", c.InitialDelay)
	case c.MaxDelay < c.InitialDelay:
		return fmt.Errorf("retry.max_delay %v is below initial_delay %v", c.MaxDelay, c.InitialDelay)
	case c.Jitter < 0 || c.Jitter > 1:
		return fmt.Errorf("retry.jitter: %v is outside [0, 1]", c.Jitter)
	}

	switch c.BackoffStrategy {
	case "":
		c.BackoffStrategy = BackoffExponential
	case BackoffConstant, BackoffLinear, BackoffExponential:
	default:
		return fmt.Errorf("retry.backoff: unknown strategy %q", c.BackoffStrategy)
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = 2
	}
	if len(c.RetryableStates) == 0 {
		c.RetryableStates = DefaultRetryableStates()
	}
	return nil
}

// DefaultRetryableStates: класс 08 (соединение), таймауты ODBC, конфликт
// сериализации и "cannot connect now" PostgreSQL
func DefaultRetryableStates() []string {
	return []string{"08", "HYT00", "HYT01", "40001", "57P03"}
}

// DefaultConfig - повторы выключены, остальные поля заполнены
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialDelay:      time.Second,
		MaxDelay:          30 * time.Second,
		BackoffStrategy:   BackoffExponential,
		BackoffMultiplier: 2,
		Jitter:            0.1,
		RetryableStates:   DefaultRetryableStates(),
	}
}

// EnableRetry - DefaultConfig с включенными повторами
func EnableRetry(maxAttempts int, initialDelay time.Duration) Config {
	c := DefaultConfig()
	c.Enabled = true
	c.MaxAttempts = maxAttempts
	c.InitialDelay = initialDelay
	c.MaxDelay = max(c.MaxDelay, initialDelay)
	return c
}

// delay - пауза после неудачной попытки n (n >= 1), не больше MaxDelay
func (c *Config) delay(n int) time.Duration {
	d := c.InitialDelay
	switch c.BackoffStrategy {
	case BackoffLinear:
		d *= time.Duration(n)
	case BackoffExponential:
		d = time.Duration(float64(d) * math.Pow(c.BackoffMultiplier, float64(n-1)))
	}
	d = min(d, c.MaxDelay)

	if c.Jitter > 0 {
		d += time.Duration(float64(d) * c.Jitter * (2*rand.Float64() - 1))
		if d < 0 {
			d = c.InitialDelay
		}
	}
	return d
}

// Retryable решает, имеет ли смысл повторять попытку после err
func (c *Config) Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var (
		se *errs.StringError
		pe *errs.SQLParamsError
		te *errs.TypeConversionError
	)
	if errors.As(err, &se) || errors.As(err, &pe) || errors.As(err, &te) {
		return false
	}

	var de *errs.DriverError
	if !errors.As(err, &de) || de.State() == "" {
		return true
	}
	for _, prefix := range c.RetryableStates {
		if strings.HasPrefix(de.State(), prefix) {
			return true
		}
	}
	return false
}
