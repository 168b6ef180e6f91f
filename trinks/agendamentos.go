package trinks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/NextMind-AI/marlie/booking"

	"github.com/rs/zerolog/log"
)

const dataHoraLayout = "2006-01-02T15:04:05"

// CreateBooking cria o agendamento com POST /agendamentos. A chamada não é
// repetida; o Idempotency-Key permite que a API descarte duplicatas.
func (c *Client) CreateBooking(ctx context.Context, req booking.Request, idempotencyKey string) (booking.Created, error) {
	start := req.Start
	if c.config.Location != nil {
		start = start.In(c.config.Location)
	}

	payload := map[string]any{
		"servicoId":        req.ServiceID,
		"clienteId":        req.CustomerID,
		"dataHoraInicio":   start.Format(dataHoraLayout),
		"duracaoEmMinutos": req.DurationMinutes,
		"valor":            req.Price,
		"confirmado":       true,
	}
	if req.ProfessionalID > 0 {
		payload["profissionalId"] = strconv.Itoa(req.ProfessionalID)
	}

	body, err := c.do(ctx, "create_booking", request{
		method:  http.MethodPost,
		path:    "/agendamentos",
		body:    payload,
		headers: map[string]string{"Idempotency-Key": idempotencyKey},
	})
	if err != nil {
		return booking.Created{}, err
	}

	var resp struct {
		ID   any `json:"id"`
		Data struct {
			ID any `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return booking.Created{Raw: body}, fmt.Errorf("trinks: create_booking: decode: %w", err)
	}

	id := parseID(resp.ID)
	if id == "" || id == "0" {
		id = parseID(resp.Data.ID)
	}
	if id == "" || id == "0" {
		return booking.Created{Raw: body}, ErrNoBookingID
	}

	log.Info().
		Str("booking_id", id).
		Int("service_id", req.ServiceID).
		Str("inicio", start.Format(dataHoraLayout)).
		Msg("Agendamento criado na Trinks")

	return booking.Created{ID: id, Raw: body}, nil
}
