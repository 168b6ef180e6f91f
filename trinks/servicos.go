package trinks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/NextMind-AI/marlie/catalog"
)

type servico struct {
	ID                 any               `json:"id"`
	Nome               string            `json:"nome"`
	Categoria          string            `json:"categoria"`
	Descricao          string            `json:"descricao"`
	DuracaoEmMinutos   int               `json:"duracaoEmMinutos"`
	Preco              float64           `json:"preco"`
	VisivelParaCliente bool              `json:"visivelParaCliente"`
	Servicos           []json.RawMessage `json:"servicos,omitempty"`
	Itens              []json.RawMessage `json:"itens,omitempty"`
}

func (s servico) toService() catalog.Service {
	id, _ := strconv.Atoi(parseID(s.ID))
	return catalog.Service{
		ID:              id,
		Name:            strings.TrimSpace(s.Nome),
		Category:        s.Categoria,
		Description:     s.Descricao,
		DurationMinutes: s.DuracaoEmMinutos,
		Price:           s.Preco,
		Visible:         s.VisivelParaCliente,
		HasChildren:     len(s.Servicos) > 0 || len(s.Itens) > 0,
	}
}

// ListServices devolve o catálogo completo do estabelecimento, inclusive
// serviços ocultos e pacotes; quem consome filtra com Bookable.
func (c *Client) ListServices(ctx context.Context) ([]catalog.Service, error) {
	return c.servicos(ctx, "list_services", nil)
}

// SearchServices busca serviços pelo nome. O filtro da API é aproximado,
// então o resultado é refiltrado pelo texto normalizado.
func (c *Client) SearchServices(ctx context.Context, query string) ([]catalog.Service, error) {
	services, err := c.servicos(ctx, "search_services", url.Values{"nome": {query}})
	if err != nil {
		return nil, err
	}

	folded := catalog.Fold(query)
	var matches []catalog.Service
	for _, svc := range services {
		if nameMatches(folded, catalog.Fold(svc.Name)) {
			matches = append(matches, svc)
		}
	}
	return matches, nil
}

func (c *Client) servicos(ctx context.Context, op string, query url.Values) ([]catalog.Service, error) {
	body, err := c.do(ctx, op, request{
		method: http.MethodGet,
		path:   "/servicos",
		query:  query,
		retry:  true,
	})
	if err != nil {
		return nil, err
	}

	var apiResponse struct {
		Data []servico `json:"data"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("trinks: %s: decode: %w", op, err)
	}

	services := make([]catalog.Service, 0, len(apiResponse.Data))
	for _, s := range apiResponse.Data {
		services = append(services, s.toService())
	}
	return services, nil
}

// nameMatches aceita nome igual, contido ou com alguma palavra em comum.
func nameMatches(query, name string) bool {
	if query == "" || name == "" {
		return false
	}
	if strings.Contains(name, query) || strings.Contains(query, name) {
		return true
	}
	for _, word := range strings.Fields(query) {
		if len(word) < 3 {
			continue
		}
		for _, nw := range strings.Fields(name) {
			if nw == word {
				return true
			}
		}
	}
	return false
}
