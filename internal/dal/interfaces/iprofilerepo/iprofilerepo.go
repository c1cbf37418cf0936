package iprofilerepo

import (
	"context"

	"github.com/comandaviva/pdv/internal/service/models/profile"
)

// IProfileRepository is an interface for the customer profile postgres
// repository.
type IProfileRepository interface {
	Search(ctx context.Context, query string, limit int) ([]profile.Profile, error)
}
