package grouprepo

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
	"github.com/commonsclub/groups-api/internal/ports/out/grouprepo"
)

// Repo is a Postgres implementation of grouprepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ grouprepo.Repository = (*Repo)(nil)

func (r *Repo) Create(ctx context.Context, g grouprepo.Group) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(g.ID))
	if err != nil {
		return fmt.Errorf("invalid group id: %w", err)
	}
	creatorID, err := uuid.Parse(string(g.CreatorID))
	if err != nil {
		return fmt.Errorf("invalid creator id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO interest_groups (id, name, description, image_url, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		id,
		g.Name,
		g.Description,
		g.ImageURL,
		creatorID,
		g.CreatedAt.UTC(),
		g.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return grouprepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.GroupID) (grouprepo.Group, error) {
	if r.pool == nil {
		return grouprepo.Group{}, errors.New("nil postgres pool")
	}
	gid, err := uuid.Parse(string(id))
	if err != nil {
		return grouprepo.Group{}, grouprepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, image_url, creator_id, created_at, updated_at
		FROM interest_groups
		WHERE id = $1
	`, gid)
	return scanGroup(row)
}

func (r *Repo) List(ctx context.Context) ([]grouprepo.Summary, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.name, g.description, g.image_url, g.creator_id, g.created_at, g.updated_at,
		       u.display_name
		FROM interest_groups g
		JOIN users u ON u.id = g.creator_id
		ORDER BY lower(g.name) ASC, g.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]grouprepo.Summary, 0)
	for rows.Next() {
		var (
			id          uuid.UUID
			name        string
			description string
			imageURL    *string
			creatorID   uuid.UUID
			createdAt   time.Time
			updatedAt   time.Time
			creatorName string
		)
		if err := rows.Scan(&id, &name, &description, &imageURL, &creatorID, &createdAt, &updatedAt, &creatorName); err != nil {
			return nil, err
		}
		out = append(out, grouprepo.Summary{
			Group: grouprepo.Group{
				ID:          domain.GroupID(id.String()),
				Name:        name,
				Description: description,
				ImageURL:    imageURL,
				CreatorID:   domain.UserID(creatorID.String()),
				CreatedAt:   createdAt.UTC(),
				UpdatedAt:   updatedAt.UTC(),
			},
			CreatorName: creatorName,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) TransferOwnership(ctx context.Context, groupID domain.GroupID, expectCreatorID, newOwnerID domain.UserID, enrollIfAbsent bool, now time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	gid, err := uuid.Parse(string(groupID))
	if err != nil {
		return grouprepo.ErrNotFound
	}
	expectID, err := uuid.Parse(string(expectCreatorID))
	if err != nil {
		return grouprepo.ErrCreatorMismatch
	}
	ownerID, err := uuid.Parse(string(newOwnerID))
	if err != nil {
		return fmt.Errorf("invalid new owner id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		creatorID, err := lockGroupCreator(ctx, tx, gid)
		if err != nil {
			return err
		}
		if creatorID != expectID {
			return grouprepo.ErrCreatorMismatch
		}

		if err := ensureMembership(ctx, tx, gid, ownerID, enrollIfAbsent, now); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE interest_groups SET creator_id = $2, updated_at = $3 WHERE id = $1
		`, gid, ownerID, now.UTC())
		return err
	})
}

func (r *Repo) Edit(ctx context.Context, cmd grouprepo.EditCommand) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	gid, err := uuid.Parse(string(cmd.GroupID))
	if err != nil {
		return grouprepo.ErrNotFound
	}
	expectID, err := uuid.Parse(string(cmd.ExpectCreatorID))
	if err != nil {
		return grouprepo.ErrCreatorMismatch
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		creatorID, err := lockGroupCreator(ctx, tx, gid)
		if err != nil {
			return err
		}
		if creatorID != expectID {
			return grouprepo.ErrCreatorMismatch
		}

		if cmd.NewOwnerID != nil {
			ownerID, err := uuid.Parse(string(*cmd.NewOwnerID))
			if err != nil {
				return fmt.Errorf("invalid new owner id: %w", err)
			}
			if err := ensureMembership(ctx, tx, gid, ownerID, true, cmd.UpdatedAt); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				UPDATE interest_groups SET creator_id = $2 WHERE id = $1
			`, gid, ownerID); err != nil {
				return err
			}
			creatorID = ownerID
		}

		if cmd.RemoveUserID != nil {
			targetID, err := uuid.Parse(string(*cmd.RemoveUserID))
			if err != nil {
				return grouprepo.ErrRemoveNotMember
			}
			if targetID == creatorID {
				return grouprepo.ErrRemoveCreator
			}
			ct, err := tx.Exec(ctx, `
				DELETE FROM group_memberships WHERE group_id = $1 AND user_id = $2
			`, gid, targetID)
			if err != nil {
				return err
			}
			if ct.RowsAffected() == 0 {
				return grouprepo.ErrRemoveNotMember
			}
		}

		if cmd.Name.IsSpecified() && !cmd.Name.IsNull() {
			if _, err := tx.Exec(ctx, `
				UPDATE interest_groups SET name = $2 WHERE id = $1
			`, gid, cmd.Name.MustGet()); err != nil {
				return err
			}
		}
		if cmd.Description.IsSpecified() && !cmd.Description.IsNull() {
			if _, err := tx.Exec(ctx, `
				UPDATE interest_groups SET description = $2 WHERE id = $1
			`, gid, cmd.Description.MustGet()); err != nil {
				return err
			}
		}
		if cmd.ImageURL.IsSpecified() {
			var img *string
			if !cmd.ImageURL.IsNull() {
				v := cmd.ImageURL.MustGet()
				img = &v
			}
			if _, err := tx.Exec(ctx, `
				UPDATE interest_groups SET image_url = $2 WHERE id = $1
			`, gid, img); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE interest_groups SET updated_at = $2 WHERE id = $1
		`, gid, cmd.UpdatedAt.UTC())
		return err
	})
}

// --- helpers ---

// lockGroupCreator reads the group's creator under FOR UPDATE so creator
// checks and the subsequent writes happen against a stable row.
func lockGroupCreator(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) (uuid.UUID, error) {
	var creatorID uuid.UUID
	err := tx.QueryRow(ctx, `
		SELECT creator_id FROM interest_groups WHERE id = $1 FOR UPDATE
	`, groupID).Scan(&creatorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.UUID{}, grouprepo.ErrNotFound
		}
		return uuid.UUID{}, err
	}
	return creatorID, nil
}

// ensureMembership verifies userID is a member of the group, inserting the
// membership when enrollIfAbsent is set. Without enrollment, an absent
// membership fails ErrNewOwnerNotMember.
func ensureMembership(ctx context.Context, tx pgx.Tx, groupID, userID uuid.UUID, enrollIfAbsent bool, now time.Time) error {
	if enrollIfAbsent {
		_, err := tx.Exec(ctx, `
			INSERT INTO group_memberships (group_id, user_id, member_role, joined_at)
			VALUES ($1, $2, 'member', $3)
			ON CONFLICT (group_id, user_id) DO NOTHING
		`, groupID, userID, now.UTC())
		return err
	}

	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM group_memberships WHERE group_id = $1 AND user_id = $2
		)
	`, groupID, userID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return grouprepo.ErrNewOwnerNotMember
	}
	return nil
}

func scanGroup(row pgx.Row) (grouprepo.Group, error) {
	var (
		id          uuid.UUID
		name        string
		description string
		imageURL    *string
		creatorID   uuid.UUID
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&id, &name, &description, &imageURL, &creatorID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return grouprepo.Group{}, grouprepo.ErrNotFound
		}
		return grouprepo.Group{}, err
	}
	return grouprepo.Group{
		ID:          domain.GroupID(id.String()),
		Name:        name,
		Description: description,
		ImageURL:    imageURL,
		CreatorID:   domain.UserID(creatorID.String()),
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, nil
}
