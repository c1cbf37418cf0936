package cashsvc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/comandaviva/pdv/internal/dal/interfaces/icashsessionrepo"
	"github.com/comandaviva/pdv/internal/service/models/cashsession"
	"github.com/comandaviva/pdv/pkg/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashService manages till sessions: a single open session at a time,
// closed with caller-supplied totals and a computed variance.
type CashService struct {
	repo icashsessionrepo.ICashSessionRepository
}

// option is a function that configures the CashService.
type option func(*CashService)

// MustNewCashService creates a new CashService.
func MustNewCashService(opts ...option) *CashService {
	s := &CashService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithRepository sets the cash session repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRepository(repo icashsessionrepo.ICashSessionRepository) option {
	return func(s *CashService) {
		s.repo = repo
	}
}

// OpenInput is the payload for opening a session.
type OpenInput struct {
	OpenedByID     string          `json:"opened_by_id"`
	OpenedByName   string          `json:"opened_by_name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// CloseInput is the payload for closing a session. CountedCash is required;
// the aggregate totals are optional and stored verbatim.
type CloseInput struct {
	CountedCash    *decimal.Decimal `json:"counted_cash"`
	TotalSales     *decimal.Decimal `json:"total_sales"`
	TotalPix       *decimal.Decimal `json:"total_pix"`
	TotalCard      *decimal.Decimal `json:"total_card"`
	TotalCashSales *decimal.Decimal `json:"total_cash_sales"`
	OrderCount     *int             `json:"order_count"`
	Notes          string           `json:"notes"`
	ClosedByID     string           `json:"closed_by_id"`
	ClosedByName   string           `json:"closed_by_name"`
}

// Open creates a new OPEN session. It fails with a conflict when one is
// already open; the read check is backed by a partial unique index in the
// store, so concurrent opens cannot slip past it.
func (s *CashService) Open(ctx context.Context, in OpenInput) (*cashsession.CashSession, error) {
	name := strings.TrimSpace(in.OpenedByName)
	if name == "" {
		return nil, apperr.Validation("opened_by_name is required")
	}

	open, err := s.repo.GetOpen(ctx)
	if err != nil {
		return nil, wrapStore(err)
	}
	if open != nil {
		return nil, apperr.Conflict("a cash session is already open")
	}

	session := cashsession.CashSession{
		ID:             uuid.NewString(),
		OpenedAt:       time.Now(),
		OpenedByID:     optional(in.OpenedByID),
		OpenedByName:   name,
		InitialBalance: in.InitialBalance,
		Status:         cashsession.StatusOpen,
	}

	stored, err := s.repo.Insert(ctx, session)
	if err != nil {
		return nil, wrapStore(err)
	}

	return stored, nil
}

// Close reconciles and closes a session. expected_cash is the opening
// balance plus the caller-reported cash sales; variance is counted minus
// expected. Closing an already-closed session is rejected, not ignored.
func (s *CashService) Close(
	ctx context.Context,
	id string,
	in CloseInput,
) (*cashsession.CashSession, error) {
	if in.CountedCash == nil {
		return nil, apperr.Validation("counted_cash is required")
	}

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStore(err)
	}
	if session == nil {
		return nil, apperr.NotFound("cash session not found")
	}
	if session.Status == cashsession.StatusClosed {
		return nil, apperr.Conflict("cash session is already closed")
	}

	expected := cashsession.ExpectedCash(session.InitialBalance, in.TotalCashSales)
	variance := in.CountedCash.Sub(expected)

	now := time.Now()
	session.ClosedAt = &now
	session.ClosedByID = optional(in.ClosedByID)
	session.ClosedByName = optional(in.ClosedByName)
	session.ExpectedCash = &expected
	session.CountedCash = in.CountedCash
	session.Variance = &variance
	session.TotalSales = in.TotalSales
	session.TotalPix = in.TotalPix
	session.TotalCard = in.TotalCard
	session.TotalCashSales = in.TotalCashSales
	session.OrderCount = in.OrderCount
	session.Notes = optional(in.Notes)
	session.Status = cashsession.StatusClosed

	closed, err := s.repo.Close(ctx, *session)
	if err != nil {
		return nil, wrapStore(err)
	}
	if closed == nil {
		return nil, apperr.NotFound("cash session not found")
	}

	return closed, nil
}

// Current returns the open session, or nil when the till is closed.
func (s *CashService) Current(ctx context.Context) (*cashsession.CashSession, error) {
	open, err := s.repo.GetOpen(ctx)
	if err != nil {
		return nil, wrapStore(err)
	}

	return open, nil
}

// List returns sessions newest first, optionally filtered by status.
func (s *CashService) List(ctx context.Context, status string) ([]cashsession.CashSession, error) {
	sessions, err := s.repo.Query(ctx, status)
	if err != nil {
		return nil, wrapStore(err)
	}
	if sessions == nil {
		sessions = []cashsession.CashSession{}
	}

	return sessions, nil
}

// wrapStore keeps repository-level apperr values (the unique-violation
// conflict) intact and wraps everything else as a store failure.
func wrapStore(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	return apperr.Store(err)
}

func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}
