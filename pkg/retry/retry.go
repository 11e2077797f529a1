// Package retry повторяет установку соединений с источником и приемником
// при временных сбоях. Решение о повторе принимается по SQLSTATE ошибки.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Attempt - одна попытка подключения
type Attempt func(ctx context.Context) error

// Retryer выполняет Attempt до успеха, неповторяемой ошибки или
// исчерпания попыток
type Retryer struct {
	config Config
}

// NewRetryer проверяет конфигурацию и создает Retryer
func NewRetryer(config Config) (*Retryer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Retryer{config: config}, nil
}

// Do возвращает ошибку последней попытки. Неповторяемая ошибка
// возвращается без обертки.
func (r *Retryer) Do(ctx context.Context, fn Attempt) error {
	c := &r.config
	for n := 1; ; n++ {
		err := fn(ctx)
		switch {
		case err == nil:
			return nil
		case !c.Enabled || !c.Retryable(err):
			return err
		case c.MaxAttempts > 0 && n >= c.MaxAttempts:
			return fmt.Errorf("gave up after %d attempts: %w", n, err)
		case ctx.Err() != nil:
			return ctx.Err()
		}

		d := c.delay(n)
		if c.OnRetry != nil {
			c.OnRetry(n, err, d)
		}

		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}
