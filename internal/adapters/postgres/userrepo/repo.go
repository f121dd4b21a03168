package userrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/commonsclub/groups-api/internal/adapters/postgres"
	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/userrepo"
)

// Repo is a Postgres implementation of userrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ userrepo.Repository = (*Repo)(nil)

func (r *Repo) Create(ctx context.Context, u userrepo.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (id, clerk_user_id, display_name, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		id,
		string(u.ExternalID),
		u.DisplayName,
		u.Phone,
		string(u.Role),
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			if pe.ConstraintName == "users_external_id_unique" {
				return userrepo.ErrExternalIDTaken
			}
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	if r.pool == nil {
		return userrepo.User{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, uid)
	return scanUser(row)
}

func (r *Repo) GetByExternalID(ctx context.Context, ext domain.ExternalID) (userrepo.User, error) {
	if r.pool == nil {
		return userrepo.User{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, selectUser+` WHERE clerk_user_id = $1`, string(ext))
	return scanUser(row)
}

const selectUser = `
	SELECT id, clerk_user_id, display_name, phone, role, created_at, updated_at
	FROM users
`

func scanUser(row pgx.Row) (userrepo.User, error) {
	var (
		id        uuid.UUID
		ext       string
		name      string
		phone     string
		role      string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &ext, &name, &phone, &role, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userrepo.User{}, userrepo.ErrNotFound
		}
		return userrepo.User{}, err
	}
	return userrepo.User{
		ID:          domain.UserID(id.String()),
		ExternalID:  domain.ExternalID(ext),
		DisplayName: name,
		Phone:       phone,
		Role:        domain.Role(role),
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, nil
}
