// Package trinks é o cliente da API Trinks usada como agenda do salão:
// serviços, disponibilidade, agendamentos, clientes e profissionais.
package trinks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/NextMind-AI/marlie/booking"
	"github.com/NextMind-AI/marlie/catalog"
	"github.com/NextMind-AI/marlie/metrics"
	"github.com/NextMind-AI/marlie/resilience"

	"github.com/sony/gobreaker"
)

const DefaultBaseURL = "https://api.trinks.com/v1"

// ErrNoBookingID é retornado quando a API aceita o agendamento sem devolver id.
var ErrNoBookingID = errors.New("trinks: agendamento sem id na resposta")

type Config struct {
	APIKey            string
	EstabelecimentoID string
	BaseURL           string
	Timeout           time.Duration
	// Location é o fuso do estabelecimento, usado em dataHoraInicio.
	Location *time.Location
}

func (c Config) GetHeaders() map[string]string {
	return map[string]string{
		"accept":            "application/json",
		"content-type":      "application/json",
		"estabelecimentoId": c.EstabelecimentoID,
		"X-Api-Key":         c.APIKey,
	}
}

// APIError carrega uma resposta não-2xx da API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trinks: status %d: %s", e.StatusCode, e.Body)
}

var (
	_ booking.Backend        = (*Client)(nil)
	_ catalog.RemoteSearcher = (*Client)(nil)
	_ catalog.Source         = (*Client)(nil)
)

type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	retry      resilience.Config
	metrics    *metrics.Metrics
}

func NewClient(config Config, m *metrics.Metrics) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    resilience.NewCircuitBreaker("trinks"),
		bulkhead:   resilience.NewBulkhead(resilience.DefaultConfig.MaxConcurrency),
		retry:      resilience.DefaultConfig,
		metrics:    m,
	}
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	// retry só vale para chamadas sem efeito colateral.
	retry bool
}

// do executa a chamada com bulkhead, circuit breaker e, para leituras,
// retry com backoff. Respostas 4xx não abrem o circuito.
func (c *Client) do(ctx context.Context, op string, r request) ([]byte, error) {
	started := time.Now()

	retry := c.retry
	if !r.retry {
		retry.MaxRetries = 0
	}

	var payload []byte
	if r.body != nil {
		var err error
		payload, err = json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("trinks: %s: encode: %w", op, err)
		}
	}

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("trinks: %s: %w", op, err)
	}
	defer c.bulkhead.Release()

	var clientErr error
	result, err := c.breaker.Execute(func() (any, error) {
		var body []byte
		err := resilience.RetryWithBackoff(ctx, retry, func() error {
			b, err := c.send(ctx, r, payload)
			body = b
			return err
		})
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
			clientErr = err
			return body, nil
		}
		return body, err
	})
	if err == nil {
		err = clientErr
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.ObserveExternal("trinks", op, status, time.Since(started).Seconds())

	if err != nil {
		return nil, fmt.Errorf("trinks: %s: %w", op, err)
	}
	body, _ := result.([]byte)
	return body, nil
}

func (c *Client) send(ctx context.Context, r request, payload []byte) ([]byte, error) {
	endpoint := c.config.BaseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, reader)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	for key, value := range c.config.GetHeaders() {
		req.Header.Set(key, value)
	}
	for key, value := range r.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return body, resilience.Permanent(apiErr)
		}
		return body, apiErr
	}
	return body, nil
}

// parseID aceita ids numéricos ou string, como a API devolve em endpoints
// diferentes.
func parseID(raw any) string {
	switch id := raw.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	case json.Number:
		return id.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}
