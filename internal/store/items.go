package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"skladik/internal/domain"
	"skladik/internal/events"
	"skladik/internal/models"

	"github.com/rs/zerolog"
)

// ItemStore holds the item catalog in memory. A single RWMutex
// serializes mutations; listings preserve insertion order.
type ItemStore struct {
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	items    []models.Item
	itemsMap map[int64]models.Item
	nextID   int64
	mu       sync.RWMutex
}

func NewItemStore(eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemStore {
	return &ItemStore{
		eventBus: eventBus,
		logger:   logger,
		itemsMap: make(map[int64]models.Item),
		nextID:   1,
	}
}

// Seed loads a pre-validated item set, typically from the config file.
// Seeded records keep their ids; the id counter continues past the
// highest one. Seeding publishes no events.
func (s *ItemStore) Seed(items []models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, item := range items {
		if _, ok := s.itemsMap[item.ID]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateID, item.ID)
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		if item.UpdatedAt.IsZero() {
			item.UpdatedAt = item.CreatedAt
		}
		s.items = append(s.items, item)
		s.itemsMap[item.ID] = item
		if item.ID >= s.nextID {
			s.nextID = item.ID + 1
		}
	}
	return nil
}

// Create validates the item, assigns the next id and stores it. The
// passed item is updated in place with the id and timestamps.
func (s *ItemStore) Create(ctx context.Context, item *models.Item) error {
	if err := validateItem(item.Name, item.Price); err != nil {
		return err
	}

	s.mu.Lock()
	item.ID = s.nextID
	s.nextID++
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items = append(s.items, *item)
	s.itemsMap[item.ID] = *item
	s.mu.Unlock()

	s.publishEvent(events.EventItemCreated, *item)
	return nil
}

// List returns all items in insertion order. Callers get a copy.
func (s *ItemStore) List(ctx context.Context) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *ItemStore) Get(ctx context.Context, id int64) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.itemsMap[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	return &item, nil
}

// Update applies a partial update and returns the stored result.
// CreatedAt is never touched; an empty patch is rejected before the
// id is looked up.
func (s *ItemStore) Update(ctx context.Context, id int64, patch models.ItemPatch) (*models.Item, error) {
	if patch.Empty() {
		return nil, &ValidationError{Field: "body", Reason: "no fields to update"}
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, &ValidationError{Field: "price", Reason: "must not be negative"}
	}

	s.mu.Lock()
	item, ok := s.itemsMap[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	item.UpdatedAt = time.Now().UTC()
	s.itemsMap[id] = item
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = item
			break
		}
	}
	s.mu.Unlock()

	s.publishEvent(events.EventItemUpdated, item)
	return &item, nil
}

func (s *ItemStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	item, ok := s.itemsMap[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	delete(s.itemsMap, id)
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.publishEvent(events.EventItemDeleted, item)
	return nil
}

// Filter returns items matching every set constraint, in insertion
// order. The name match is a case-insensitive substring.
func (s *ItemStore) Filter(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	name := strings.ToLower(filter.Name)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Item, 0)
	for _, item := range s.items {
		if name != "" && !strings.Contains(strings.ToLower(item.Name), name) {
			continue
		}
		if filter.MinPrice != nil && item.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && item.Price > *filter.MaxPrice {
			continue
		}
		if !filter.CreatedAfter.IsZero() && !item.CreatedAt.After(filter.CreatedAfter) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// Aggregate counts items grouped by name, sorted by name.
func (s *ItemStore) Aggregate(ctx context.Context) ([]models.ItemAggregate, error) {
	s.mu.RLock()
	counts := make(map[string]int64, len(s.items))
	for _, item := range s.items {
		counts[item.Name]++
	}
	s.mu.RUnlock()

	out := make([]models.ItemAggregate, 0, len(counts))
	for name, count := range counts {
		out = append(out, models.ItemAggregate{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Count reports the number of stored items.
func (s *ItemStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func validateItem(name string, price float64) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if price < 0 {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return nil
}

func (s *ItemStore) publishEvent(eventType string, item models.Item) {
	if s.eventBus == nil {
		return
	}

	payload := events.ItemEventPayload{
		ItemID: item.ID,
		Name:   item.Name,
		Price:  item.Price,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("item_id", item.ID).Msg("publish event error")
	}
}
