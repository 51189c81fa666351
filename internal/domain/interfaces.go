package domain

import (
	"context"
	"time"

	"skladik/internal/models"
)

type ItemStore interface {
	Create(ctx context.Context, item *models.Item) error
	List(ctx context.Context) ([]models.Item, error)
	Get(ctx context.Context, id int64) (*models.Item, error)
	Update(ctx context.Context, id int64, patch models.ItemPatch) (*models.Item, error)
	Delete(ctx context.Context, id int64) error
	Filter(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	Aggregate(ctx context.Context) ([]models.ItemAggregate, error)
	Count() int
}

type ClockInStore interface {
	Create(ctx context.Context, record *models.ClockInRecord) error
	Get(ctx context.Context, id int64) (*models.ClockInRecord, error)
	List(ctx context.Context) ([]models.ClockInRecord, error)
	Filter(ctx context.Context, filter models.ClockInFilter) ([]models.ClockInRecord, error)
	Count() int
}

type StateRepository interface {
	CheckRateLimit(ctx context.Context, clientKey string, limit int, window time.Duration) (bool, error)
	Ping(ctx context.Context) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
