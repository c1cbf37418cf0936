package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/comandaviva/pdv/internal/dal/postgres"
	"github.com/comandaviva/pdv/internal/service/models/cashsession"
	"github.com/comandaviva/pdv/pkg/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

var sessionColumns = []string{
	"id",
	"opened_at",
	"opened_by_id",
	"opened_by_name",
	"closed_at",
	"closed_by_id",
	"closed_by_name",
	"initial_balance",
	"expected_cash",
	"counted_cash",
	"variance",
	"total_sales",
	"total_pix",
	"total_card",
	"total_cash_sales",
	"order_count",
	"notes",
	"status",
}

// CashSessionDal represents the cash session data access layer model.
type CashSessionDal struct {
	ID             string
	OpenedAt       time.Time
	OpenedByID     *string
	OpenedByName   string
	ClosedAt       *time.Time
	ClosedByID     *string
	ClosedByName   *string
	InitialBalance decimal.Decimal
	ExpectedCash   *decimal.Decimal
	CountedCash    *decimal.Decimal
	Variance       *decimal.Decimal
	TotalSales     *decimal.Decimal
	TotalPix       *decimal.Decimal
	TotalCard      *decimal.Decimal
	TotalCashSales *decimal.Decimal
	OrderCount     *int
	Notes          *string
	Status         string
}

// ToModel converts CashSessionDal to the service layer CashSession model.
func (d *CashSessionDal) ToModel() *cashsession.CashSession {
	return &cashsession.CashSession{
		ID:             d.ID,
		OpenedAt:       d.OpenedAt,
		OpenedByID:     d.OpenedByID,
		OpenedByName:   d.OpenedByName,
		ClosedAt:       d.ClosedAt,
		ClosedByID:     d.ClosedByID,
		ClosedByName:   d.ClosedByName,
		InitialBalance: d.InitialBalance,
		ExpectedCash:   d.ExpectedCash,
		CountedCash:    d.CountedCash,
		Variance:       d.Variance,
		TotalSales:     d.TotalSales,
		TotalPix:       d.TotalPix,
		TotalCard:      d.TotalCard,
		TotalCashSales: d.TotalCashSales,
		OrderCount:     d.OrderCount,
		Notes:          d.Notes,
		Status:         cashsession.Status(d.Status),
	}
}

func scanSession(row pgx.Row) (*cashsession.CashSession, error) {
	var dal CashSessionDal
	err := row.Scan(
		&dal.ID,
		&dal.OpenedAt,
		&dal.OpenedByID,
		&dal.OpenedByName,
		&dal.ClosedAt,
		&dal.ClosedByID,
		&dal.ClosedByName,
		&dal.InitialBalance,
		&dal.ExpectedCash,
		&dal.CountedCash,
		&dal.Variance,
		&dal.TotalSales,
		&dal.TotalPix,
		&dal.TotalCard,
		&dal.TotalCashSales,
		&dal.OrderCount,
		&dal.Notes,
		&dal.Status,
	)
	if err != nil {
		return nil, err
	}

	return dal.ToModel(), nil
}

// CashSessionRepository implements the cash session repository for PostgreSQL.
type CashSessionRepository struct {
	conn postgres.Querier
}

// NewCashSessionRepository creates a new cash session repository.
func NewCashSessionRepository(conn postgres.Querier) *CashSessionRepository {
	return &CashSessionRepository{
		conn: conn,
	}
}

// Insert creates a session. The partial unique index over open sessions
// backs the single-open-session invariant; a violation maps to a conflict.
func (r *CashSessionRepository) Insert(
	ctx context.Context,
	s cashsession.CashSession,
) (*cashsession.CashSession, error) {
	query, args, err := sq.Insert("cash_sessions").
		Columns(sessionColumns...).
		Values(
			s.ID,
			s.OpenedAt,
			s.OpenedByID,
			s.OpenedByName,
			s.ClosedAt,
			s.ClosedByID,
			s.ClosedByName,
			s.InitialBalance,
			s.ExpectedCash,
			s.CountedCash,
			s.Variance,
			s.TotalSales,
			s.TotalPix,
			s.TotalCard,
			s.TotalCashSales,
			s.OrderCount,
			s.Notes,
			string(s.Status),
		).
		Suffix("RETURNING " + returningColumns()).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	stored, err := scanSession(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperr.Conflict("a cash session is already open")
		}

		return nil, fmt.Errorf("failed to insert cash session: %w", err)
	}

	return stored, nil
}

// GetByID returns the session with the given id, or (nil, nil).
func (r *CashSessionRepository) GetByID(
	ctx context.Context,
	id string,
) (*cashsession.CashSession, error) {
	query, args, err := sq.Select(sessionColumns...).
		From("cash_sessions").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	s, err := scanSession(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get cash session: %w", err)
	}

	return s, nil
}

// GetOpen returns the currently open session, or (nil, nil).
func (r *CashSessionRepository) GetOpen(ctx context.Context) (*cashsession.CashSession, error) {
	query, args, err := sq.Select(sessionColumns...).
		From("cash_sessions").
		Where(sq.Eq{"status": string(cashsession.StatusOpen)}).
		OrderBy("opened_at DESC").
		Limit(1).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	s, err := scanSession(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get open cash session: %w", err)
	}

	return s, nil
}

// Close persists the close-time fields of an already-computed session.
func (r *CashSessionRepository) Close(
	ctx context.Context,
	s cashsession.CashSession,
) (*cashsession.CashSession, error) {
	query, args, err := sq.Update("cash_sessions").
		Set("closed_at", s.ClosedAt).
		Set("closed_by_id", s.ClosedByID).
		Set("closed_by_name", s.ClosedByName).
		Set("expected_cash", s.ExpectedCash).
		Set("counted_cash", s.CountedCash).
		Set("variance", s.Variance).
		Set("total_sales", s.TotalSales).
		Set("total_pix", s.TotalPix).
		Set("total_card", s.TotalCard).
		Set("total_cash_sales", s.TotalCashSales).
		Set("order_count", s.OrderCount).
		Set("notes", s.Notes).
		Set("status", string(s.Status)).
		Where(sq.Eq{"id": s.ID}).
		Suffix("RETURNING " + returningColumns()).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	closed, err := scanSession(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to close cash session: %w", err)
	}

	return closed, nil
}

// Query returns sessions, optionally filtered by status, newest first.
func (r *CashSessionRepository) Query(
	ctx context.Context,
	status string,
) ([]cashsession.CashSession, error) {
	builder := sq.Select(sessionColumns...).
		From("cash_sessions").
		OrderBy("opened_at DESC").
		PlaceholderFormat(sq.Dollar)

	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash sessions: %w", err)
	}
	defer rows.Close()

	var result []cashsession.CashSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cash session: %w", err)
		}
		result = append(result, *s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func returningColumns() string {
	return "id, opened_at, opened_by_id, opened_by_name, closed_at, closed_by_id, closed_by_name, " +
		"initial_balance, expected_cash, counted_cash, variance, total_sales, total_pix, total_card, " +
		"total_cash_sales, order_count, notes, status"
}
