package trinks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/NextMind-AI/marlie/booking"
)

// maxFreeSlots limita quantos horários livres entram no motivo.
const maxFreeSlots = 6

type disponibilidadeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		DisponibilidadeGeral map[string][]string `json:"disponibilidade_geral"`
	} `json:"data"`
}

// CheckAvailability consulta /disponibilidade para a data e considera o
// horário livre quando algum profissional (ou o escolhido) o tem na lista.
func (c *Client) CheckAvailability(ctx context.Context, q booking.Query) (booking.Availability, error) {
	query := url.Values{
		"data":    {q.Date},
		"horario": {q.Time},
	}
	if q.ProfessionalID > 0 {
		query.Set("profissional_id", strconv.Itoa(q.ProfessionalID))
	}
	if q.ServiceID > 0 {
		query.Set("servico_id", strconv.Itoa(q.ServiceID))
	}
	if q.DurationMinutes > 0 {
		query.Set("duracao", strconv.Itoa(q.DurationMinutes))
	}

	body, err := c.do(ctx, "check_availability", request{
		method: http.MethodGet,
		path:   "/disponibilidade",
		query:  query,
		retry:  true,
	})
	if err != nil {
		return booking.Availability{}, err
	}

	var resp disponibilidadeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return booking.Availability{}, fmt.Errorf("trinks: check_availability: decode: %w", err)
	}

	free := freeSlots(resp.Data.DisponibilidadeGeral)
	for _, slot := range free {
		if slot == q.Time {
			return booking.Availability{Available: true}, nil
		}
	}

	return booking.Availability{Available: false, Reason: unavailableReason(free, resp.Message)}, nil
}

func freeSlots(byProfessional map[string][]string) []string {
	seen := make(map[string]bool)
	var slots []string
	for _, horarios := range byProfessional {
		for _, h := range horarios {
			if !seen[h] {
				seen[h] = true
				slots = append(slots, h)
			}
		}
	}
	sort.Strings(slots)
	return slots
}

func unavailableReason(free []string, message string) string {
	if len(free) > 0 {
		if len(free) > maxFreeSlots {
			free = free[:maxFreeSlots]
		}
		return "os horários livres nesse dia são " + strings.Join(free, ", ")
	}
	if message = strings.TrimSpace(message); message != "" {
		return message
	}
	return "não há horários livres nessa data"
}
