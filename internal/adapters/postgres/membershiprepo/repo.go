package membershiprepo

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
	"github.com/commonsclub/groups-api/internal/ports/out/membershiprepo"
)

// Repo is a Postgres implementation of membershiprepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ membershiprepo.Repository = (*Repo)(nil)

func (r *Repo) Add(ctx context.Context, m membershiprepo.Membership) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	gid, err := uuid.Parse(string(m.GroupID))
	if err != nil {
		return membershiprepo.ErrGroupNotFound
	}
	uid, err := uuid.Parse(string(m.UserID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO group_memberships (group_id, user_id, member_role, joined_at)
		VALUES ($1, $2, $3, $4)
	`, gid, uid, m.MemberRole, m.JoinedAt.UTC())
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok {
			switch pe.Code {
			case postgres.UniqueViolationCode:
				// Lost race or repeat join: the pair key makes both a
				// detectable conflict.
				return membershiprepo.ErrDuplicate
			case postgres.ForeignKeyViolationCode:
				return membershiprepo.ErrGroupNotFound
			}
		}
		return err
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, groupID domain.GroupID, userID domain.UserID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	gid, err := uuid.Parse(string(groupID))
	if err != nil {
		return membershiprepo.ErrGroupNotFound
	}
	uid, err := uuid.Parse(string(userID))
	if err != nil {
		return membershiprepo.ErrNotMember
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Lock the group row so the creator guard cannot race a concurrent
		// ownership transfer.
		var creatorID uuid.UUID
		err := tx.QueryRow(ctx, `
			SELECT creator_id FROM interest_groups WHERE id = $1 FOR UPDATE
		`, gid).Scan(&creatorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return membershiprepo.ErrGroupNotFound
			}
			return err
		}
		if creatorID == uid {
			return membershiprepo.ErrCreatorMembership
		}

		ct, err := tx.Exec(ctx, `
			DELETE FROM group_memberships WHERE group_id = $1 AND user_id = $2
		`, gid, uid)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return membershiprepo.ErrNotMember
		}
		return nil
	})
}

func (r *Repo) IsMember(ctx context.Context, groupID domain.GroupID, userID domain.UserID) (bool, error) {
	if r.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	gid, err := uuid.Parse(string(groupID))
	if err != nil {
		return false, nil
	}
	uid, err := uuid.Parse(string(userID))
	if err != nil {
		return false, nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM group_memberships WHERE group_id = $1 AND user_id = $2
		)
	`, gid, uid).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *Repo) ListByGroup(ctx context.Context, groupID domain.GroupID) ([]domain.GroupMember, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	gid, err := uuid.Parse(string(groupID))
	if err != nil {
		// Unknown group listing is an empty result, not an error.
		return []domain.GroupMember{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT m.user_id, u.clerk_user_id, u.display_name, m.member_role, m.joined_at
		FROM group_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
	`, gid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.GroupMember, 0)
	for rows.Next() {
		var (
			uid        uuid.UUID
			ext        string
			name       string
			memberRole string
			joinedAt   time.Time
		)
		if err := rows.Scan(&uid, &ext, &name, &memberRole, &joinedAt); err != nil {
			return nil, err
		}
		out = append(out, domain.GroupMember{
			UserID:      domain.UserID(uid.String()),
			ExternalID:  domain.ExternalID(ext),
			DisplayName: name,
			MemberRole:  memberRole,
			JoinedAt:    joinedAt.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
