package cashsession

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a cash session. A session is opened once
// and closed once; there is no reopening.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// CashSession represents a till shift bounded by an open and a close event.
// The aggregate totals are supplied by the caller at close time and stored
// verbatim; they are not recomputed from the orders table.
type CashSession struct {
	ID             string           `json:"id"`
	OpenedAt       time.Time        `json:"opened_at"`
	OpenedByID     *string          `json:"opened_by_id,omitempty"`
	OpenedByName   string           `json:"opened_by_name"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	ClosedByID     *string          `json:"closed_by_id,omitempty"`
	ClosedByName   *string          `json:"closed_by_name,omitempty"`
	InitialBalance decimal.Decimal  `json:"initial_balance"`
	ExpectedCash   *decimal.Decimal `json:"expected_cash,omitempty"`
	CountedCash    *decimal.Decimal `json:"counted_cash,omitempty"`
	Variance       *decimal.Decimal `json:"variance,omitempty"`
	TotalSales     *decimal.Decimal `json:"total_sales,omitempty"`
	TotalPix       *decimal.Decimal `json:"total_pix,omitempty"`
	TotalCard      *decimal.Decimal `json:"total_card,omitempty"`
	TotalCashSales *decimal.Decimal `json:"total_cash_sales,omitempty"`
	OrderCount     *int             `json:"order_count,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	Status         Status           `json:"status"`
}

// ExpectedCash computes the cash the drawer should hold at close:
// the opening balance plus all cash sales, absent values counting as zero.
func ExpectedCash(initialBalance decimal.Decimal, totalCashSales *decimal.Decimal) decimal.Decimal {
	expected := initialBalance
	if totalCashSales != nil {
		expected = expected.Add(*totalCashSales)
	}

	return expected
}
