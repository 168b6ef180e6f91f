package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Snapshot persists the per-tenant catalog copy.
type Snapshot interface {
	Load(ctx context.Context, tenantID string) ([]Service, error)
	Save(ctx context.Context, tenantID string, services []Service) error
}

// Local searches the tenant's catalog snapshot.
type Local struct {
	snapshot Snapshot
}

func NewLocal(snapshot Snapshot) *Local {
	return &Local{snapshot: snapshot}
}

// Suggest returns up to limit bookable services ranked by how well their
// name matches the query. Exact matches always come first.
func (l *Local) Suggest(ctx context.Context, tenantID, query string, limit int) ([]Service, error) {
	services, err := l.snapshot.Load(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("catalog: load snapshot: %w", err)
	}

	folded := Fold(query)
	if folded == "" {
		return nil, nil
	}

	type scored struct {
		service Service
		score   int
	}
	var matches []scored
	for _, svc := range services {
		if !svc.Bookable() {
			continue
		}
		if score := matchScore(folded, svc); score > 0 {
			matches = append(matches, scored{service: svc, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].service.Name < matches[j].service.Name
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Service, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.service)
	}
	return out, nil
}

// Exists reports whether the service id is still bookable in the snapshot.
func (l *Local) Exists(ctx context.Context, tenantID string, serviceID int) (bool, error) {
	services, err := l.snapshot.Load(ctx, tenantID)
	if err != nil {
		return false, fmt.Errorf("catalog: load snapshot: %w", err)
	}
	for _, svc := range services {
		if svc.ID == serviceID {
			return svc.Bookable(), nil
		}
	}
	return false, nil
}

func matchScore(query string, svc Service) int {
	name := Fold(svc.Name)
	switch {
	case name == query:
		return 100
	case strings.Contains(name, query):
		return 80
	case strings.Contains(query, name):
		return 60
	}

	category := Fold(svc.Category)
	nameTokens := strings.Fields(name)
	score := 0
	for _, token := range strings.Fields(query) {
		if len(token) < 3 || fillerTerms[token] {
			continue
		}
		for _, nt := range nameTokens {
			if nt == token || stem(nt) == stem(token) {
				score += 10
				break
			}
		}
		if category != "" && strings.Contains(category, token) {
			score += 5
		}
	}
	return score
}

// stem drops a trailing plural "s" so "unhas" matches "unha".
func stem(token string) string {
	if len(token) > 3 {
		return strings.TrimSuffix(token, "s")
	}
	return token
}
