package userrepo

import (
	"context"
	"time"

	"github.com/commonsclub/groups-api/internal/domain"
)

// User is the persistence shape used by the user repository. It is an
// internal record, not an HTTP DTO.
type User struct {
	ID         domain.UserID
	ExternalID domain.ExternalID

	DisplayName string
	Phone       string
	Role        domain.Role

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted users.
//
// Users are never deleted; role changes happen out-of-band (directly in the
// store), so no role mutation method is exposed here.
type Repository interface {
	// Create inserts a new user. The external identity is unique; a lost
	// insert race surfaces as ErrExternalIDTaken, not a duplicate row.
	Create(ctx context.Context, u User) error

	GetByID(ctx context.Context, id domain.UserID) (User, error)
	GetByExternalID(ctx context.Context, ext domain.ExternalID) (User, error)
}
