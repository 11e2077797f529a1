// Package resultlog публикует итоги пакетов и переносов таблиц в Redis.
package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config - подключение к Redis и параметры публикации
type Config struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      int    `yaml:"ttl"`  // секунды; 0 - без истечения
	Name     string `yaml:"name"` // имя экземпляра в ключах
}

// Entry - итог одной операции моста, публикуемый в Redis.
//
// Redis-ключи:
//
//	SET  dmbridge:<name>:<operation>:state  <JSON>  EX <ttl>  - последнее состояние
//	PUB  dmbridge:<name>:<operation>                          - событие
type Entry struct {
	Name       string    `json:"name"`
	Operation  string    `json:"operation"` // "batch" | "transfer"
	Subject    string    `json:"subject,omitempty"`
	Status     string    `json:"status"` // "success" | "failed"
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
	Operations int       `json:"operations,omitempty"`
	Rows       int64     `json:"rows"`
	SQLState   string    `json:"sqlstate,omitempty"`
	Error      *string   `json:"error,omitempty"`
}

// NewEntry заполняет статус, время и ошибку операции, начатой в started.
// err == nil означает успешное выполнение.
func NewEntry(operation, subject string, started time.Time, err error) Entry {
	finished := time.Now().UTC()
	e := Entry{
		Operation:  operation,
		Subject:    subject,
		Status:     "success",
		StartedAt:  started.UTC(),
		FinishedAt: finished,
		DurationMs: finished.Sub(started).Milliseconds(),
	}
	if err != nil {
		e.Status = "failed"
		msg := err.Error()
		e.Error = &msg
	}
	return e
}

// Publisher публикует Entry в Redis
type Publisher struct {
	client *redis.Client
	config Config
}

// New создает Publisher с собственным клиентом Redis
func New(config Config) *Publisher {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	return NewWithClient(client, config)
}

// NewWithClient использует готовый клиент
func NewWithClient(client *redis.Client, config Config) *Publisher {
	if config.Name == "" {
		config.Name = "default"
	}
	return &Publisher{client: client, config: config}
}

// StateKey возвращает ключ последнего состояния операции
func (p *Publisher) StateKey(operation string) string {
	return fmt.Sprintf("dmbridge:%s:%s:state", p.config.Name, operation)
}

// Channel возвращает канал событий операции
func (p *Publisher) Channel(operation string) string {
	return fmt.Sprintf("dmbridge:%s:%s", p.config.Name, operation)
}

// Publish сохраняет итог под ключом состояния и рассылает его подписчикам
func (p *Publisher) Publish(ctx context.Context, e Entry) error {
	e.Name = p.config.Name
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	ttl := time.Duration(p.config.TTL) * time.Second
	if err := p.client.Set(ctx, p.StateKey(e.Operation), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	if err := p.client.Publish(ctx, p.Channel(e.Operation), payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (p *Publisher) Close() error {
	return p.client.Close()
}
