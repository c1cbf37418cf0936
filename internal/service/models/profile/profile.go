package profile

import (
	"strings"
	"time"
)

// Source tags where a customer search result came from.
type Source string

const (
	SourceLocal Source = "LOCAL"
	SourceAsaas Source = "ASAAS"
)

// Profile represents a locally stored customer record.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	Cpf       string    `json:"cpf,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResult is a customer search hit, local or mirrored from the
// payments provider.
type SearchResult struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Cpf      string `json:"cpf,omitempty"`
	Email    string `json:"email,omitempty"`
	Source   Source `json:"source"`
}

// NormalizeCpf strips everything but digits, so "123.456.789-00" and
// "12345678900" compare equal.
func NormalizeCpf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
