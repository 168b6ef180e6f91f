package catalog

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// Kind tells which variant a Result carries.
type Kind int

const (
	NotFound Kind = iota
	Found
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Result is the outcome of resolving a free-text service name. Service is
// set only for Found, Suggestions only for Ambiguous.
type Result struct {
	Kind        Kind
	Service     Service
	Suggestions []Service
}

func found(svc Service) Result { return Result{Kind: Found, Service: svc} }

func ambiguousOrNotFound(suggestions []Service) Result {
	if len(suggestions) == 0 {
		return Result{Kind: NotFound}
	}
	return Result{Kind: Ambiguous, Suggestions: suggestions}
}

// LocalSearcher is satisfied by *Local.
type LocalSearcher interface {
	Suggest(ctx context.Context, tenantID, query string, limit int) ([]Service, error)
}

// RemoteSearcher searches the booking backend's live catalog.
type RemoteSearcher interface {
	SearchServices(ctx context.Context, query string) ([]Service, error)
}

type Resolver struct {
	local  LocalSearcher
	remote RemoteSearcher
	limit  int
}

// NewResolver builds a resolver. remote may be nil when only the local
// snapshot should be consulted.
func NewResolver(local LocalSearcher, remote RemoteSearcher) *Resolver {
	return &Resolver{local: local, remote: remote, limit: 5}
}

// Resolve maps a service name to a single bookable service, a list of
// options for the customer to pick from, or nothing. Generic category terms
// never resolve to a single service.
func (r *Resolver) Resolve(ctx context.Context, tenantID, name string) (Result, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return Result{Kind: NotFound}, nil
	}

	suggestions, err := r.local.Suggest(ctx, tenantID, query, r.limit)
	if err != nil {
		return Result{}, err
	}

	folded := Fold(query)
	for _, svc := range suggestions {
		if Fold(svc.Name) == folded && svc.DurationMinutes > 0 {
			return found(svc), nil
		}
	}

	if IsCategoryTerm(query) {
		log.Debug().
			Str("tenant_id", tenantID).
			Str("query", query).
			Int("suggestions", len(suggestions)).
			Msg("Service query is a category term")
		return ambiguousOrNotFound(suggestions), nil
	}

	if r.remote != nil {
		candidates, err := r.remote.SearchServices(ctx, query)
		if err != nil {
			log.Warn().
				Err(err).
				Str("tenant_id", tenantID).
				Str("query", query).
				Msg("Remote service search failed, using local suggestions")
			return ambiguousOrNotFound(suggestions), nil
		}
		if svc, ok := pickCandidate(folded, candidates); ok {
			return found(svc), nil
		}
	}

	return ambiguousOrNotFound(suggestions), nil
}

// pickCandidate prefers an exact name, then a substring match, then the
// first bookable candidate.
func pickCandidate(folded string, candidates []Service) (Service, bool) {
	var bookable []Service
	for _, c := range candidates {
		if c.Bookable() {
			bookable = append(bookable, c)
		}
	}
	if len(bookable) == 0 {
		return Service{}, false
	}

	for _, c := range bookable {
		if Fold(c.Name) == folded {
			return c, true
		}
	}
	for _, c := range bookable {
		name := Fold(c.Name)
		if strings.Contains(name, folded) || strings.Contains(folded, name) {
			return c, true
		}
	}
	return bookable[0], true
}
