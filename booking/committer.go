package booking

import (
	"context"
	"errors"
	"time"

	"github.com/NextMind-AI/marlie/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNotConfirmed is reported when the backend answered without an id.
var ErrNotConfirmed = errors.New("booking: backend returned no appointment id")

const unavailableReason = "não consegui verificar a agenda agora"

type Committer struct {
	backend  Backend
	recorder Recorder
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewCommitter(backend Backend, recorder Recorder, m *metrics.Metrics) *Committer {
	return &Committer{
		backend:  backend,
		recorder: recorder,
		metrics:  m,
		now:      time.Now,
	}
}

// CheckAvailability never fails: a backend error is reported as an
// unavailable slot with a generic reason.
func (c *Committer) CheckAvailability(ctx context.Context, q Query) Availability {
	avail, err := c.backend.CheckAvailability(ctx, q)
	if err != nil {
		log.Error().
			Err(err).
			Str("tenant_id", q.TenantID).
			Str("date", q.Date).
			Str("time", q.Time).
			Int("service_id", q.ServiceID).
			Msg("Availability check failed")
		avail = Availability{Available: false, Reason: unavailableReason}
	}
	c.metrics.ObserveAvailability(avail.Available)
	return avail
}

// Commit creates the appointment and records the attempt before returning.
// Only a non-empty backend id counts as confirmed.
func (c *Committer) Commit(ctx context.Context, req Request) Result {
	key := IdempotencyKey(req.Phone, req.ServiceID, req.Start)

	created, err := c.backend.CreateBooking(ctx, req, key)
	if err == nil && created.ID == "" {
		err = ErrNotConfirmed
	}

	result := Result{
		Confirmed:      err == nil,
		BookingID:      created.ID,
		IdempotencyKey: key,
		Err:            err,
	}
	if err != nil {
		result.BookingID = ""
		log.Error().
			Err(err).
			Str("tenant_id", req.TenantID).
			Str("phone", req.Phone).
			Int("service_id", req.ServiceID).
			Str("idempotency_key", key).
			Msg("Booking commit failed")
	} else {
		log.Info().
			Str("tenant_id", req.TenantID).
			Str("phone", req.Phone).
			Str("booking_id", created.ID).
			Str("idempotency_key", key).
			Msg("Booking confirmed")
	}

	result.AttemptID = c.record(ctx, req, result, created.Raw)
	return result
}

// Fail records an attempt that never reached the backend, e.g. because the
// customer could not be identified.
func (c *Committer) Fail(ctx context.Context, req Request, cause error) Result {
	result := Result{
		IdempotencyKey: IdempotencyKey(req.Phone, req.ServiceID, req.Start),
		Err:            cause,
	}
	result.AttemptID = c.record(ctx, req, result, nil)
	return result
}

func (c *Committer) FindOrCreateCustomer(ctx context.Context, customer Customer) (string, error) {
	return c.backend.FindOrCreateCustomer(ctx, customer)
}

func (c *Committer) FindProfessional(ctx context.Context, name string) (Professional, bool, error) {
	return c.backend.FindProfessional(ctx, name)
}

func (c *Committer) record(ctx context.Context, req Request, result Result, raw []byte) string {
	status := StatusSuccess
	if !result.Confirmed {
		status = StatusError
	}
	c.metrics.ObserveBooking(status)

	attempt := Attempt{
		ID:              uuid.NewString(),
		TenantID:        req.TenantID,
		Phone:           req.Phone,
		ServiceID:       req.ServiceID,
		ServiceName:     req.ServiceName,
		CustomerID:      req.CustomerID,
		Start:           req.Start,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Confirmed:       result.Confirmed,
		Status:          status,
		IdempotencyKey:  result.IdempotencyKey,
		BackendResponse: raw,
		CreatedAt:       c.now(),
	}
	if result.Err != nil {
		attempt.Error = result.Err.Error()
	}

	if c.recorder == nil {
		return attempt.ID
	}
	if err := c.recorder.Record(ctx, attempt); err != nil {
		log.Error().
			Err(err).
			Str("attempt_id", attempt.ID).
			Str("status", status).
			Msg("Failed to record booking attempt")
	}
	return attempt.ID
}
