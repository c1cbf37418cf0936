package icashsessionrepo

import (
	"context"

	"github.com/comandaviva/pdv/internal/service/models/cashsession"
)

// ICashSessionRepository is an interface for the cash session postgres
// repository. Lookups return (nil, nil) when nothing matches.
type ICashSessionRepository interface {
	Insert(ctx context.Context, s cashsession.CashSession) (*cashsession.CashSession, error)
	GetByID(ctx context.Context, id string) (*cashsession.CashSession, error)
	GetOpen(ctx context.Context) (*cashsession.CashSession, error)
	Close(ctx context.Context, s cashsession.CashSession) (*cashsession.CashSession, error)
	Query(ctx context.Context, status string) ([]cashsession.CashSession, error)
}
