package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Source lists every service the booking backend knows about.
type Source interface {
	ListServices(ctx context.Context) ([]Service, error)
}

// Syncer copies the backend catalog into the local snapshot.
type Syncer struct {
	source   Source
	snapshot Snapshot
}

func NewSyncer(source Source, snapshot Snapshot) *Syncer {
	return &Syncer{source: source, snapshot: snapshot}
}

// Refresh replaces the tenant snapshot with the bookable services currently
// offered by the backend and returns how many were stored.
func (s *Syncer) Refresh(ctx context.Context, tenantID string) (int, error) {
	services, err := s.source.ListServices(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog: list services: %w", err)
	}

	bookable := make([]Service, 0, len(services))
	for _, svc := range services {
		if svc.Bookable() {
			bookable = append(bookable, svc)
		}
	}

	if err := s.snapshot.Save(ctx, tenantID, bookable); err != nil {
		return 0, fmt.Errorf("catalog: save snapshot: %w", err)
	}

	log.Info().
		Str("tenant_id", tenantID).
		Int("total", len(services)).
		Int("bookable", len(bookable)).
		Msg("Catalog snapshot refreshed")

	return len(bookable), nil
}
