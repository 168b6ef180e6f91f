package trinks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/NextMind-AI/marlie/booking"

	"github.com/rs/zerolog/log"
)

const (
	// tipoCelular é o tipoId de telefone celular na Trinks.
	tipoCelular   = "3"
	defaultDDD    = "63"
	anonymousName = "Cliente WhatsApp"
)

// FindOrCreateCustomer procura o cliente pelo telefone e cadastra quando não
// existe. Devolve o id do cliente na Trinks.
func (c *Client) FindOrCreateCustomer(ctx context.Context, customer booking.Customer) (string, error) {
	id, err := c.findCustomerByPhone(ctx, customer.Phone)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return c.createCustomer(ctx, customer)
}

func (c *Client) findCustomerByPhone(ctx context.Context, phone string) (string, error) {
	body, err := c.do(ctx, "find_customer", request{
		method: http.MethodGet,
		path:   "/clientes/buscar-por-telefone",
		query:  url.Values{"telefone": {phone}},
		retry:  true,
	})
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID   any    `json:"id"`
			Nome string `json:"nome"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("trinks: find_customer: decode: %w", err)
	}

	id := parseID(resp.Data.ID)
	if !resp.Success || id == "" || id == "0" {
		return "", nil
	}
	return id, nil
}

func (c *Client) createCustomer(ctx context.Context, customer booking.Customer) (string, error) {
	name := strings.TrimSpace(customer.Name)
	if name == "" {
		name = anonymousName
	}
	ddd, numero := splitPhone(customer.Phone)

	payload := map[string]any{
		"nome": strings.ToUpper(name),
		"telefones": []map[string]string{
			{"ddd": ddd, "numero": numero, "tipoId": tipoCelular},
		},
	}
	if customer.Email != "" {
		payload["email"] = customer.Email
	}

	body, err := c.do(ctx, "create_customer", request{
		method: http.MethodPost,
		path:   "/clientes",
		body:   payload,
	})
	if err != nil {
		return "", err
	}

	var created struct {
		ID   any    `json:"id"`
		Nome string `json:"nome"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("trinks: create_customer: decode: %w", err)
	}
	id := parseID(created.ID)
	if id == "" || id == "0" {
		return "", fmt.Errorf("trinks: create_customer: resposta sem id")
	}

	log.Info().Str("cliente_id", id).Str("ddd", ddd).Msg("Cliente cadastrado na Trinks")
	return id, nil
}

// splitPhone separa DDD e número, descartando o código do país.
func splitPhone(phone string) (ddd, numero string) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	clean := digits.String()
	if len(clean) >= 12 && strings.HasPrefix(clean, "55") {
		clean = clean[2:]
	}
	if len(clean) < 10 {
		return defaultDDD, clean
	}
	return clean[:2], clean[2:]
}
