package chargesvc

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/comandaviva/pdv/internal/dal/asaas"
	"github.com/comandaviva/pdv/internal/service/models/charge"
	"github.com/comandaviva/pdv/internal/service/models/profile"
	"github.com/comandaviva/pdv/pkg/apperr"
	"github.com/shopspring/decimal"
)

// provider is the slice of the payments provider API this service needs.
type provider interface {
	SearchCustomersByCpf(ctx context.Context, cpf string, limit int) ([]asaas.Customer, error)
	CreateCustomer(ctx context.Context, in asaas.CustomerInput) (*asaas.Customer, error)
	CreateCharge(ctx context.Context, in asaas.ChargeInput) (*asaas.Charge, error)
	GetPixQrCode(ctx context.Context, chargeID string) (*asaas.PixQrCode, error)
}

// ChargeService creates charges with the payments provider.
type ChargeService struct {
	provider provider
	now      func() time.Time
}

// option is a function that configures the ChargeService.
type option func(*ChargeService)

// MustNewChargeService creates a new ChargeService.
func MustNewChargeService(opts ...option) *ChargeService {
	s := &ChargeService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithProvider sets the payments provider client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProvider(p provider) option {
	return func(s *ChargeService) {
		s.provider = p
	}
}

// WithClock overrides the clock, used by tests for due-date defaulting.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *ChargeService) {
		s.now = now
	}
}

// CreateChargeInput is the charge creation payload. Either Customer (a
// provider customer id) or Name+CpfCnpj must identify the payer.
type CreateChargeInput struct {
	Customer          string          `json:"customer"`
	Name              string          `json:"name"`
	CpfCnpj           string          `json:"taxId"`
	Email             string          `json:"email"`
	Phone             string          `json:"phone"`
	BillingType       string          `json:"billingType"`
	Value             decimal.Decimal `json:"value"`
	DueDate           string          `json:"dueDate"`
	Description       string          `json:"description"`
	ExternalReference string          `json:"externalReference"`
}

// CreateCharge resolves or creates the provider customer, creates the
// charge, and for PIX fetches the QR payload. A failed QR fetch is logged
// and the charge returned without it.
func (s *ChargeService) CreateCharge(
	ctx context.Context,
	in CreateChargeInput,
) (*charge.Charge, error) {
	billingType := strings.TrimSpace(in.BillingType)
	if billingType == "" {
		return nil, apperr.Validation("billingType is required")
	}
	if !in.Value.IsPositive() {
		return nil, apperr.Validation("value must be positive")
	}

	customerID, err := s.resolveCustomer(ctx, in)
	if err != nil {
		return nil, err
	}

	dueDate := strings.TrimSpace(in.DueDate)
	if dueDate == "" {
		dueDate = s.now().Format("2006-01-02")
	}

	created, err := s.provider.CreateCharge(ctx, asaas.ChargeInput{
		Customer:          customerID,
		BillingType:       billingType,
		Value:             in.Value,
		DueDate:           dueDate,
		Description:       in.Description,
		ExternalReference: in.ExternalReference,
	})
	if err != nil {
		return nil, apperr.Upstream("failed to create charge with payments provider", err)
	}

	result := &charge.Charge{
		ID:                created.ID,
		Customer:          created.Customer,
		BillingType:       charge.BillingType(created.BillingType),
		Value:             created.Value,
		DueDate:           created.DueDate,
		Status:            created.Status,
		Description:       created.Description,
		ExternalReference: created.ExternalReference,
		InvoiceURL:        created.InvoiceURL,
	}

	if charge.BillingType(billingType) == charge.BillingTypePix {
		qr, err := s.provider.GetPixQrCode(ctx, created.ID)
		if err != nil {
			slog.Warn("pix qr code fetch failed, returning charge without it",
				"charge_id", created.ID, "error", err)
		} else {
			result.PixQrCode = &charge.PixQrCode{
				EncodedImage:   qr.EncodedImage,
				Payload:        qr.Payload,
				ExpirationDate: qr.ExpirationDate,
			}
		}
	}

	return result, nil
}

// resolveCustomer returns a provider customer id: the explicit one when
// given, otherwise an existing customer with the same tax id (provider-side
// idempotency), otherwise a freshly created one.
func (s *ChargeService) resolveCustomer(ctx context.Context, in CreateChargeInput) (string, error) {
	if id := strings.TrimSpace(in.Customer); id != "" {
		return id, nil
	}

	name := strings.TrimSpace(in.Name)
	cpf := profile.NormalizeCpf(in.CpfCnpj)
	if name == "" || cpf == "" {
		return "", apperr.Validation("either customer or name and taxId are required")
	}

	existing, err := s.provider.SearchCustomersByCpf(ctx, cpf, 1)
	if err != nil {
		return "", apperr.Upstream("failed to look up customer with payments provider", err)
	}
	if len(existing) > 0 {
		return existing[0].ID, nil
	}

	created, err := s.provider.CreateCustomer(ctx, asaas.CustomerInput{
		Name:        name,
		CpfCnpj:     cpf,
		Email:       strings.TrimSpace(in.Email),
		MobilePhone: strings.TrimSpace(in.Phone),
	})
	if err != nil {
		return "", apperr.Upstream("failed to create customer with payments provider", err)
	}

	return created.ID, nil
}
