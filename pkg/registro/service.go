package registro

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Service applies the form rules on top of a Store.
type Service struct {
	store Store
	rules Rules
	mu    sync.Mutex
}

func NewService(store Store, rules Rules) *Service {
	return &Service{store: store, rules: rules}
}

func (s *Service) Rules() Rules {
	return s.rules
}

// Create validates the record and appends it unless the same gestor already
// logged the same patente that day.
func (s *Service) Create(ctx context.Context, rec Record) error {
	rec.Normalize()
	if err := s.rules.Validate(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("reading records: %w", err)
	}
	if existing.Exists(rec.Date, rec.Gestor, rec.Patente, -1) {
		return ErrDuplicate
	}
	if err := s.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("appending record: %w", err)
	}

	log.WithFields(log.Fields{
		"gestor":  rec.Gestor,
		"patente": rec.Patente,
		"date":    rec.DateString(),
	}).Info("record created")
	return nil
}

// Update replaces the record with the given id. The row must still belong to
// the same gestor, which catches ids that shifted after a concurrent delete.
func (s *Service) Update(ctx context.Context, id int, rec Record) error {
	rec.Normalize()
	if err := s.rules.Validate(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("reading records: %w", err)
	}
	current, ok := existing.Find(id)
	if !ok || current.Gestor != rec.Gestor {
		return ErrNotFound
	}
	if existing.Exists(rec.Date, rec.Gestor, rec.Patente, id) {
		return ErrDuplicate
	}
	rec.ID = id
	if err := s.store.Update(ctx, id, rec); err != nil {
		return fmt.Errorf("updating record %d: %w", id, err)
	}

	log.WithFields(log.Fields{
		"id":     id,
		"gestor": rec.Gestor,
	}).Info("record updated")
	return nil
}

func (s *Service) Delete(ctx context.Context, id int, gestor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("reading records: %w", err)
	}
	current, ok := existing.Find(id)
	if !ok || current.Gestor != gestor {
		return ErrNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting record %d: %w", id, err)
	}

	log.WithFields(log.Fields{
		"id":     id,
		"gestor": gestor,
	}).Info("record deleted")
	return nil
}

func (s *Service) ListByGestor(ctx context.Context, gestor string) (Records, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return all.ByGestor(gestor), nil
}

func (s *Service) All(ctx context.Context) (Records, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return all, nil
}
