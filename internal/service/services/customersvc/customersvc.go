package customersvc

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/comandaviva/pdv/internal/dal/asaas"
	"github.com/comandaviva/pdv/internal/dal/interfaces/iprofilerepo"
	"github.com/comandaviva/pdv/internal/service/models/profile"
	"github.com/comandaviva/pdv/pkg/apperr"
)

const (
	minQueryLen    = 3
	localLimit     = 5
	remoteLimit    = 10
	remoteIDPrefix = "asaas_"
)

// provider is the slice of the payments provider API this service needs.
type provider interface {
	SearchCustomersByCpf(ctx context.Context, cpf string, limit int) ([]asaas.Customer, error)
	SearchCustomersByName(ctx context.Context, name string, limit int) ([]asaas.Customer, error)
}

// CustomerService merges local customer profiles with provider customers.
type CustomerService struct {
	repo     iprofilerepo.IProfileRepository
	provider provider
}

// option is a function that configures the CustomerService.
type option func(*CustomerService)

// MustNewCustomerService creates a new CustomerService.
func MustNewCustomerService(opts ...option) *CustomerService {
	s := &CustomerService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithRepository sets the profile repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRepository(repo iprofilerepo.IProfileRepository) option {
	return func(s *CustomerService) {
		s.repo = repo
	}
}

// WithProvider sets the payments provider client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProvider(p provider) option {
	return func(s *CustomerService) {
		s.provider = p
	}
}

// Search returns local matches merged with provider matches, deduplicated
// by normalized tax id. Queries shorter than three characters return an
// empty result without touching any collaborator. A provider failure is
// logged and swallowed; local results still come back.
func (s *CustomerService) Search(ctx context.Context, query string) ([]profile.SearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLen {
		return []profile.SearchResult{}, nil
	}

	local, err := s.repo.Search(ctx, query, localLimit)
	if err != nil {
		return nil, apperr.Store(err)
	}

	results := make([]profile.SearchResult, 0, len(local))
	seenCpfs := make(map[string]struct{}, len(local))
	for _, p := range local {
		if cpf := profile.NormalizeCpf(p.Cpf); cpf != "" {
			seenCpfs[cpf] = struct{}{}
		}
		results = append(results, profile.SearchResult{
			ID:       p.ID,
			FullName: p.FullName,
			Phone:    p.Phone,
			Cpf:      p.Cpf,
			Email:    p.Email,
			Source:   profile.SourceLocal,
		})
	}

	remote, err := s.searchProvider(ctx, query)
	if err != nil {
		slog.Warn("provider customer search failed, returning local results only", "error", err)

		return results, nil
	}

	for _, c := range remote {
		cpf := profile.NormalizeCpf(c.CpfCnpj)
		if cpf != "" {
			if _, dup := seenCpfs[cpf]; dup {
				continue
			}
			seenCpfs[cpf] = struct{}{}
		}
		results = append(results, profile.SearchResult{
			ID:       remoteIDPrefix + c.ID,
			FullName: c.Name,
			Phone:    c.MobilePhone,
			Cpf:      c.CpfCnpj,
			Email:    c.Email,
			Source:   profile.SourceAsaas,
		})
	}

	return results, nil
}

// searchProvider picks the provider lookup: tax id when the query is all
// digits once separators are stripped, name otherwise.
func (s *CustomerService) searchProvider(
	ctx context.Context,
	query string,
) ([]asaas.Customer, error) {
	digits := profile.NormalizeCpf(query)
	if digits != "" && isAllDigitsOrSeparators(query) {
		return s.provider.SearchCustomersByCpf(ctx, digits, remoteLimit)
	}

	return s.provider.SearchCustomersByName(ctx, query, remoteLimit)
}

func isAllDigitsOrSeparators(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '/' || r == ' ':
		default:
			return false
		}
	}

	return true
}
