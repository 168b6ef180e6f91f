package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NextMind-AI/marlie/booking"

	"github.com/rs/zerolog/log"
)

// ObjectWriter is satisfied by *aws.Client.
type ObjectWriter interface {
	PutJSON(ctx context.Context, key string, body []byte) error
}

// S3Recorder archives each attempt as its own JSON object.
type S3Recorder struct {
	writer ObjectWriter
	prefix string
}

func NewS3Recorder(writer ObjectWriter, prefix string) *S3Recorder {
	if prefix == "" {
		prefix = "booking-attempts"
	}
	return &S3Recorder{writer: writer, prefix: prefix}
}

func (r *S3Recorder) Record(ctx context.Context, a booking.Attempt) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("audit: encode attempt %s: %w", a.ID, err)
	}
	return r.writer.PutJSON(ctx, r.key(a), body)
}

// key partitions objects by tenant and day so they can be listed cheaply.
func (r *S3Recorder) key(a booking.Attempt) string {
	return fmt.Sprintf("%s/%s/%s/%s.json", r.prefix, a.TenantID, a.CreatedAt.UTC().Format("2006/01/02"), a.ID)
}

// LogRecorder writes attempts to the structured log. It is the sink of last
// resort when no database is configured.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, a booking.Attempt) error {
	event := log.Info()
	if a.Status == booking.StatusError {
		event = log.Warn()
	}
	event.
		Str("attempt_id", a.ID).
		Str("tenant_id", a.TenantID).
		Str("phone", a.Phone).
		Int("service_id", a.ServiceID).
		Time("start", a.Start).
		Bool("confirmed", a.Confirmed).
		Str("status", a.Status).
		Str("idempotency_key", a.IdempotencyKey).
		Str("error", a.Error).
		Msg("Booking attempt")
	return nil
}

// Multi fans an attempt out to every recorder. All sinks are tried; the
// joined error reports the ones that failed.
type Multi []booking.Recorder

func (m Multi) Record(ctx context.Context, a booking.Attempt) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
