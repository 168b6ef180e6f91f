// Package catalog holds the salon service catalog: a local snapshot searched
// on every turn, a resolver that maps free text to a bookable service, and a
// syncer that refreshes the snapshot from the booking backend.
package catalog

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Service is a bookable salon service.
type Service struct {
	ID              int     `json:"id"`
	Name            string  `json:"nome"`
	Category        string  `json:"categoria,omitempty"`
	Description     string  `json:"descricao,omitempty"`
	DurationMinutes int     `json:"duracaoEmMinutos"`
	Price           float64 `json:"preco"`
	Visible         bool    `json:"visivelParaCliente"`
	HasChildren     bool    `json:"possuiItens,omitempty"`
}

// Bookable reports whether a customer can book the service directly.
func (s Service) Bookable() bool {
	return s.Visible && !s.HasChildren && s.DurationMinutes > 0 && s.ID > 0
}

// Label renders the service for numbered option lists.
func (s Service) Label() string {
	price := strings.Replace(fmt.Sprintf("%.2f", s.Price), ".", ",", 1)
	return fmt.Sprintf("%s (%d min - R$ %s)", s.Name, s.DurationMinutes, price)
}

// Fold lower-cases text, strips accents and collapses whitespace so that
// "Depilação  Axila" and "depilacao axila" compare equal.
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

var categoryTerms = map[string]bool{
	"manicure":     true,
	"pedicure":     true,
	"cabelo":       true,
	"cabelos":      true,
	"unha":         true,
	"unhas":        true,
	"depilacao":    true,
	"sobrancelha":  true,
	"sobrancelhas": true,
	"maquiagem":    true,
	"estetica":     true,
	"barba":        true,
	"massagem":     true,
	"tratamento":   true,
	"cilios":       true,
}

var fillerTerms = map[string]bool{
	"quero": true, "queria": true, "gostaria": true, "fazer": true, "agendar": true,
	"marcar": true, "um": true, "uma": true, "o": true, "a": true, "de": true,
	"da": true, "do": true, "na": true, "no": true, "pra": true, "para": true,
	"servico": true, "servicos": true,
}

// IsCategoryTerm reports whether the query names only a generic category
// ("unha", "quero cabelo") instead of a concrete service.
func IsCategoryTerm(query string) bool {
	found := false
	for _, token := range strings.Fields(Fold(query)) {
		if fillerTerms[token] {
			continue
		}
		if !categoryTerms[token] {
			return false
		}
		found = true
	}
	return found
}
