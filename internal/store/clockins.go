package store

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"skladik/internal/domain"
	"skladik/internal/events"
	"skladik/internal/models"

	"github.com/rs/zerolog"
)

// ClockInStore keeps staff check-ins in memory, in arrival order.
type ClockInStore struct {
	eventBus   domain.EventPublisher
	logger     *zerolog.Logger
	records    []models.ClockInRecord
	recordsMap map[int64]models.ClockInRecord
	nextID     int64
	mu         sync.RWMutex
}

func NewClockInStore(eventBus domain.EventPublisher, logger *zerolog.Logger) *ClockInStore {
	return &ClockInStore{
		eventBus:   eventBus,
		logger:     logger,
		recordsMap: make(map[int64]models.ClockInRecord),
		nextID:     1,
	}
}

// Create validates and stores a check-in. The insert timestamp is
// always assigned here; anything the caller set is discarded.
func (s *ClockInStore) Create(ctx context.Context, record *models.ClockInRecord) error {
	if err := validateClockIn(record.Email, record.Location); err != nil {
		return err
	}

	s.mu.Lock()
	record.ID = s.nextID
	s.nextID++
	record.InsertDatetime = time.Now().UTC()
	s.records = append(s.records, *record)
	s.recordsMap[record.ID] = *record
	s.mu.Unlock()

	s.publishEvent(events.EventClockInCreated, *record)
	return nil
}

func (s *ClockInStore) Get(ctx context.Context, id int64) (*models.ClockInRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.recordsMap[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrClockInNotFound, id)
	}
	return &record, nil
}

// List returns all check-ins in arrival order. Callers get a copy.
func (s *ClockInStore) List(ctx context.Context) ([]models.ClockInRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ClockInRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Filter returns check-ins matching every set constraint. Email and
// location are exact matches; Since keeps records strictly newer.
func (s *ClockInStore) Filter(ctx context.Context, filter models.ClockInFilter) ([]models.ClockInRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ClockInRecord, 0)
	for _, record := range s.records {
		if filter.Email != "" && record.Email != filter.Email {
			continue
		}
		if filter.Location != "" && record.Location != filter.Location {
			continue
		}
		if !filter.Since.IsZero() && !record.InsertDatetime.After(filter.Since) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

// Count reports the number of stored check-ins.
func (s *ClockInStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func validateClockIn(email, location string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Reason: "must be a valid address"}
	}
	if strings.TrimSpace(location) == "" {
		return &ValidationError{Field: "location", Reason: "must not be empty"}
	}
	return nil
}

func (s *ClockInStore) publishEvent(eventType string, record models.ClockInRecord) {
	if s.eventBus == nil {
		return
	}

	payload := events.ClockInEventPayload{
		RecordID: record.ID,
		Email:    record.Email,
		Location: record.Location,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("record_id", record.ID).Msg("publish event error")
	}
}
