package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/comandaviva/pdv/internal/dal/postgres"
	"github.com/comandaviva/pdv/internal/service/models/profile"
)

// ProfileDal represents the customer profile data access layer model.
type ProfileDal struct {
	ID        string
	FullName  *string
	Phone     *string
	Cpf       *string
	Email     *string
	CreatedAt time.Time
}

// ToModel converts ProfileDal to the service layer Profile model.
func (d *ProfileDal) ToModel() profile.Profile {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	return profile.Profile{
		ID:        d.ID,
		FullName:  deref(d.FullName),
		Phone:     deref(d.Phone),
		Cpf:       deref(d.Cpf),
		Email:     deref(d.Email),
		CreatedAt: d.CreatedAt,
	}
}

// ProfileRepository implements the customer profile repository for PostgreSQL.
type ProfileRepository struct {
	conn postgres.Querier
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(conn postgres.Querier) *ProfileRepository {
	return &ProfileRepository{
		conn: conn,
	}
}

// Search matches the query case-insensitively against name, phone and cpf.
func (r *ProfileRepository) Search(
	ctx context.Context,
	query string,
	limit int,
) ([]profile.Profile, error) {
	pattern := "%" + query + "%"

	sqlQuery, args, err := sq.Select("id", "full_name", "phone", "cpf", "email", "created_at").
		From("profiles").
		Where(sq.Or{
			sq.ILike{"full_name": pattern},
			sq.ILike{"phone": pattern},
			sq.ILike{"cpf": pattern},
		}).
		OrderBy("full_name ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build search query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}
	defer rows.Close()

	var result []profile.Profile
	for rows.Next() {
		var dal ProfileDal
		err := rows.Scan(&dal.ID, &dal.FullName, &dal.Phone, &dal.Cpf, &dal.Email, &dal.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
