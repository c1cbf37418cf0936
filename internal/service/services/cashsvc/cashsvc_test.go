package cashsvc

import (
	"context"
	"net/http"
	"testing"

	"github.com/comandaviva/pdv/internal/service/models/cashsession"
	"github.com/comandaviva/pdv/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionRepo struct {
	sessions  map[string]*cashsession.CashSession
	insertErr error
	closed    []cashsession.CashSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*cashsession.CashSession{}}
}

func (f *fakeSessionRepo) Insert(
	_ context.Context,
	s cashsession.CashSession,
) (*cashsession.CashSession, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	stored := s
	f.sessions[s.ID] = &stored

	return &stored, nil
}

func (f *fakeSessionRepo) GetByID(
	_ context.Context,
	id string,
) (*cashsession.CashSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *s

	return &copied, nil
}

func (f *fakeSessionRepo) GetOpen(_ context.Context) (*cashsession.CashSession, error) {
	for _, s := range f.sessions {
		if s.Status == cashsession.StatusOpen {
			copied := *s

			return &copied, nil
		}
	}

	return nil, nil
}

func (f *fakeSessionRepo) Close(
	_ context.Context,
	s cashsession.CashSession,
) (*cashsession.CashSession, error) {
	if _, ok := f.sessions[s.ID]; !ok {
		return nil, nil
	}
	stored := s
	f.sessions[s.ID] = &stored
	f.closed = append(f.closed, stored)

	return &stored, nil
}

func (f *fakeSessionRepo) Query(
	_ context.Context,
	status string,
) ([]cashsession.CashSession, error) {
	var result []cashsession.CashSession
	for _, s := range f.sessions {
		if status == "" || string(s.Status) == status {
			result = append(result, *s)
		}
	}

	return result, nil
}

func newFixture() (*CashService, *fakeSessionRepo) {
	repo := newFakeSessionRepo()

	return MustNewCashService(WithRepository(repo)), repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)

	return &d
}

func TestOpen_RequiresOperatorName(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.Open(context.Background(), OpenInput{OpenedByName: "   "})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestOpen_CreatesOpenSession(t *testing.T) {
	svc, _ := newFixture()

	session, err := svc.Open(context.Background(), OpenInput{
		OpenedByName:   "Carlos",
		InitialBalance: dec("150.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, cashsession.StatusOpen, session.Status)
	assert.Equal(t, "Carlos", session.OpenedByName)
	assert.True(t, session.InitialBalance.Equal(dec("150.00")))
	assert.NotEmpty(t, session.ID)
}

func TestOpen_ConflictsWhenSessionAlreadyOpen(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.Open(context.Background(), OpenInput{OpenedByName: "Carlos"})
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), OpenInput{OpenedByName: "Ana"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Equal(t, "a cash session is already open", apperr.MessageOf(err))
}

func TestOpen_KeepsStorageConflictIntact(t *testing.T) {
	// The partial unique index can still fire between the read check and
	// the insert; the repository surfaces it as the same conflict.
	svc, repo := newFixture()
	repo.insertErr = apperr.Conflict("a cash session is already open")

	_, err := svc.Open(context.Background(), OpenInput{OpenedByName: "Carlos"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Equal(t, "a cash session is already open", apperr.MessageOf(err))
}

func TestClose_RequiresCountedCash(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.Close(context.Background(), "any", CloseInput{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestClose_NotFound(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.Close(context.Background(), "missing", CloseInput{
		CountedCash: decPtr("100"),
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestClose_ComputesVariance(t *testing.T) {
	svc, _ := newFixture()

	opened, err := svc.Open(context.Background(), OpenInput{
		OpenedByName:   "Carlos",
		InitialBalance: dec("100"),
	})
	require.NoError(t, err)

	closed, err := svc.Close(context.Background(), opened.ID, CloseInput{
		CountedCash:    decPtr("360"),
		TotalCashSales: decPtr("250"),
		ClosedByName:   "Carlos",
	})
	require.NoError(t, err)

	require.NotNil(t, closed.ExpectedCash)
	require.NotNil(t, closed.Variance)
	assert.True(t, closed.ExpectedCash.Equal(dec("350")), "expected_cash = %s", closed.ExpectedCash)
	assert.True(t, closed.Variance.Equal(dec("10")), "variance = %s", closed.Variance)
	assert.Equal(t, cashsession.StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
}

func TestClose_AbsentTotalsCountAsZero(t *testing.T) {
	svc, _ := newFixture()

	opened, err := svc.Open(context.Background(), OpenInput{
		OpenedByName:   "Ana",
		InitialBalance: dec("50"),
	})
	require.NoError(t, err)

	closed, err := svc.Close(context.Background(), opened.ID, CloseInput{
		CountedCash: decPtr("45"),
	})
	require.NoError(t, err)
	assert.True(t, closed.ExpectedCash.Equal(dec("50")))
	assert.True(t, closed.Variance.Equal(dec("-5")))
}

func TestClose_PersistsCallerTotalsVerbatim(t *testing.T) {
	svc, _ := newFixture()

	opened, err := svc.Open(context.Background(), OpenInput{OpenedByName: "Ana"})
	require.NoError(t, err)

	count := 42
	closed, err := svc.Close(context.Background(), opened.ID, CloseInput{
		CountedCash:    decPtr("900"),
		TotalSales:     decPtr("1234.56"),
		TotalPix:       decPtr("300"),
		TotalCard:      decPtr("600"),
		TotalCashSales: decPtr("334.56"),
		OrderCount:     &count,
	})
	require.NoError(t, err)
	assert.True(t, closed.TotalSales.Equal(dec("1234.56")))
	assert.True(t, closed.TotalPix.Equal(dec("300")))
	assert.True(t, closed.TotalCard.Equal(dec("600")))
	assert.Equal(t, 42, *closed.OrderCount)
}

func TestClose_TwiceConflicts(t *testing.T) {
	svc, repo := newFixture()

	opened, err := svc.Open(context.Background(), OpenInput{OpenedByName: "Ana"})
	require.NoError(t, err)

	first, err := svc.Close(context.Background(), opened.ID, CloseInput{
		CountedCash: decPtr("100"),
	})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), opened.ID, CloseInput{
		CountedCash: decPtr("999"),
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	// First close's data is untouched by the rejected second attempt.
	require.Len(t, repo.closed, 1)
	stored, err := svc.repo.GetByID(context.Background(), opened.ID)
	require.NoError(t, err)
	assert.True(t, stored.CountedCash.Equal(*first.CountedCash))
}

func TestCloseThenReopenSucceeds(t *testing.T) {
	svc, _ := newFixture()

	opened, err := svc.Open(context.Background(), OpenInput{OpenedByName: "Ana"})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), opened.ID, CloseInput{CountedCash: decPtr("10")})
	require.NoError(t, err)

	reopened, err := svc.Open(context.Background(), OpenInput{OpenedByName: "Carlos"})
	require.NoError(t, err)
	assert.NotEqual(t, opened.ID, reopened.ID)
}

func TestCurrent_NilWhenNoOpenSession(t *testing.T) {
	svc, _ := newFixture()

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	svc, _ := newFixture()

	sessions, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}
