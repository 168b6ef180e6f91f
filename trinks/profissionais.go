package trinks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/NextMind-AI/marlie/booking"
	"github.com/NextMind-AI/marlie/catalog"
)

type profissional struct {
	ID      int    `json:"id"`
	Nome    string `json:"nome"`
	Apelido string `json:"apelido"`
}

// FindProfessional procura o profissional pelo nome ou apelido. Aceita só o
// primeiro nome ("Ana" encontra "Ana Paula").
func (c *Client) FindProfessional(ctx context.Context, name string) (booking.Professional, bool, error) {
	folded := catalog.Fold(name)
	if folded == "" {
		return booking.Professional{}, false, nil
	}

	body, err := c.do(ctx, "list_professionals", request{
		method: http.MethodGet,
		path:   "/profissionais",
		retry:  true,
	})
	if err != nil {
		return booking.Professional{}, false, err
	}

	var resp struct {
		Data []profissional `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return booking.Professional{}, false, fmt.Errorf("trinks: list_professionals: decode: %w", err)
	}

	for _, match := range []func(profissional) bool{
		func(p profissional) bool {
			return catalog.Fold(p.Nome) == folded || catalog.Fold(p.Apelido) == folded
		},
		func(p profissional) bool {
			fields := strings.Fields(catalog.Fold(p.Nome))
			return len(fields) > 0 && fields[0] == folded
		},
	} {
		for _, p := range resp.Data {
			if match(p) {
				return booking.Professional{ID: p.ID, Name: p.Nome}, true, nil
			}
		}
	}
	return booking.Professional{}, false, nil
}
