// Package booking checks availability and commits appointments against the
// booking backend, recording every commit attempt for audit.
package booking

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	StatusSuccess = "sucesso"
	StatusError   = "erro"
)

// Query asks whether a service fits at a given local date and time.
type Query struct {
	TenantID        string
	Date            string
	Time            string
	ServiceID       int
	DurationMinutes int
	ProfessionalID  int
}

type Availability struct {
	Available bool
	Reason    string
}

type Customer struct {
	Name  string
	Phone string
	Email string
}

type Professional struct {
	ID   int
	Name string
}

// Request describes the appointment to create.
type Request struct {
	TenantID        string
	Phone           string
	CustomerID      string
	ServiceID       int
	ServiceName     string
	DurationMinutes int
	Price           float64
	Start           time.Time
	ProfessionalID  int
}

// Created is the backend's answer to a creation request. ID is empty when
// the backend did not confirm the appointment.
type Created struct {
	ID  string
	Raw json.RawMessage
}

// Backend is the scheduling system of record.
type Backend interface {
	CheckAvailability(ctx context.Context, q Query) (Availability, error)
	CreateBooking(ctx context.Context, req Request, idempotencyKey string) (Created, error)
	FindOrCreateCustomer(ctx context.Context, c Customer) (string, error)
	FindProfessional(ctx context.Context, name string) (Professional, bool, error)
}

// Result is what the conversation learns from a commit.
type Result struct {
	Confirmed      bool
	BookingID      string
	IdempotencyKey string
	AttemptID      string
	Err            error
}

// Attempt is the audit record written for every commit.
type Attempt struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenantId"`
	Phone           string          `json:"phone"`
	ServiceID       int             `json:"serviceId"`
	ServiceName     string          `json:"serviceName,omitempty"`
	CustomerID      string          `json:"customerId,omitempty"`
	Start           time.Time       `json:"start"`
	DurationMinutes int             `json:"durationMinutes"`
	Price           float64         `json:"price"`
	Confirmed       bool            `json:"confirmed"`
	Status          string          `json:"status"`
	IdempotencyKey  string          `json:"idempotencyKey"`
	BackendResponse json.RawMessage `json:"backendResponse,omitempty"`
	Error           string          `json:"error,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Recorder stores attempts. It is write-only from the conversation's view.
type Recorder interface {
	Record(ctx context.Context, a Attempt) error
}

// IdempotencyKey identifies a booking by who, what and when, so a retried
// commit for the same slot carries the same key.
func IdempotencyKey(phone string, serviceID int, start time.Time) string {
	raw := strings.Join([]string{
		phone,
		strconv.Itoa(serviceID),
		start.UTC().Format(time.RFC3339),
	}, "|")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
