package apprepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/apprepo"
)

// Repo is a Postgres implementation of apprepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ apprepo.Repository = (*Repo)(nil)

func (r *Repo) Create(ctx context.Context, a apprepo.Application) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(a.ID))
	if err != nil {
		return fmt.Errorf("invalid application id: %w", err)
	}
	applicantID, err := uuid.Parse(string(a.ApplicantID))
	if err != nil {
		return fmt.Errorf("invalid applicant id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO group_applications (id, applicant_id, name, description, image_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		id,
		applicantID,
		a.Name,
		a.Description,
		a.ImageURL,
		string(a.Status),
		a.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id domain.ApplicationID) (apprepo.Application, error) {
	if r.pool == nil {
		return apprepo.Application{}, errors.New("nil postgres pool")
	}
	aid, err := uuid.Parse(string(id))
	if err != nil {
		return apprepo.Application{}, apprepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, applicant_id, name, description, image_url, status, reviewer_id, reviewed_at, created_at
		FROM group_applications
		WHERE id = $1
	`, aid)
	return scanApplication(row)
}

func (r *Repo) ListPending(ctx context.Context) ([]apprepo.Summary, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.applicant_id, a.name, a.description, a.image_url, a.status,
		       a.reviewer_id, a.reviewed_at, a.created_at,
		       u.display_name
		FROM group_applications a
		JOIN users u ON u.id = a.applicant_id
		WHERE a.status IN ('pending', 'new')
		ORDER BY a.created_at DESC, a.id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]apprepo.Summary, 0)
	for rows.Next() {
		var (
			id          uuid.UUID
			applicantID uuid.UUID
			name        string
			description string
			imageURL    *string
			status      string
			reviewerID  *uuid.UUID
			reviewedAt  *time.Time
			createdAt   time.Time
			applicant   string
		)
		if err := rows.Scan(&id, &applicantID, &name, &description, &imageURL, &status, &reviewerID, &reviewedAt, &createdAt, &applicant); err != nil {
			return nil, err
		}
		out = append(out, apprepo.Summary{
			Application: apprepo.Application{
				ID:          domain.ApplicationID(id.String()),
				ApplicantID: domain.UserID(applicantID.String()),
				Name:        name,
				Description: description,
				ImageURL:    imageURL,
				Status:      domain.ApplicationStatus(status),
				ReviewerID:  toUserIDPtr(reviewerID),
				ReviewedAt:  toUTCPtr(reviewedAt),
				CreatedAt:   createdAt.UTC(),
			},
			ApplicantName: applicant,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Approve(ctx context.Context, id domain.ApplicationID, groupID domain.GroupID, reviewerID domain.UserID, now time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	aid, err := uuid.Parse(string(id))
	if err != nil {
		return apprepo.ErrNotFound
	}
	gid, err := uuid.Parse(string(groupID))
	if err != nil {
		return fmt.Errorf("invalid group id: %w", err)
	}
	revID, err := uuid.Parse(string(reviewerID))
	if err != nil {
		return fmt.Errorf("invalid reviewer id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		a, err := lockApplication(ctx, tx, aid)
		if err != nil {
			return err
		}

		applicantID, err := uuid.Parse(string(a.ApplicantID))
		if err != nil {
			return fmt.Errorf("invalid applicant id: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO interest_groups (id, name, description, image_url, creator_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
		`, gid, a.Name, a.Description, a.ImageURL, applicantID, now.UTC()); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO group_memberships (group_id, user_id, member_role, joined_at)
			VALUES ($1, $2, 'admin', $3)
		`, gid, applicantID, now.UTC()); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE group_applications
			SET status = 'approved', reviewer_id = $2, reviewed_at = $3
			WHERE id = $1
		`, aid, revID, now.UTC())
		return err
	})
}

func (r *Repo) Reject(ctx context.Context, id domain.ApplicationID, reviewerID domain.UserID, now time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	aid, err := uuid.Parse(string(id))
	if err != nil {
		return apprepo.ErrNotFound
	}
	revID, err := uuid.Parse(string(reviewerID))
	if err != nil {
		return fmt.Errorf("invalid reviewer id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := lockApplication(ctx, tx, aid); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE group_applications
			SET status = 'rejected', reviewer_id = $2, reviewed_at = $3
			WHERE id = $1
		`, aid, revID, now.UTC())
		return err
	})
}

// --- helpers ---

// lockApplication reads the application under FOR UPDATE and verifies it is
// still pending, so concurrent reviews serialize instead of double-applying.
func lockApplication(ctx context.Context, tx pgx.Tx, id uuid.UUID) (apprepo.Application, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, applicant_id, name, description, image_url, status, reviewer_id, reviewed_at, created_at
		FROM group_applications
		WHERE id = $1
		FOR UPDATE
	`, id)
	a, err := scanApplication(row)
	if err != nil {
		return apprepo.Application{}, err
	}
	if !a.Status.IsPending() {
		return apprepo.Application{}, apprepo.ErrAlreadyProcessed
	}
	return a, nil
}

func scanApplication(row pgx.Row) (apprepo.Application, error) {
	var (
		id          uuid.UUID
		applicantID uuid.UUID
		name        string
		description string
		imageURL    *string
		status      string
		reviewerID  *uuid.UUID
		reviewedAt  *time.Time
		createdAt   time.Time
	)
	if err := row.Scan(&id, &applicantID, &name, &description, &imageURL, &status, &reviewerID, &reviewedAt, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apprepo.Application{}, apprepo.ErrNotFound
		}
		return apprepo.Application{}, err
	}
	return apprepo.Application{
		ID:          domain.ApplicationID(id.String()),
		ApplicantID: domain.UserID(applicantID.String()),
		Name:        name,
		Description: description,
		ImageURL:    imageURL,
		Status:      domain.ApplicationStatus(status),
		ReviewerID:  toUserIDPtr(reviewerID),
		ReviewedAt:  toUTCPtr(reviewedAt),
		CreatedAt:   createdAt.UTC(),
	}, nil
}

func toUserIDPtr(p *uuid.UUID) *domain.UserID {
	if p == nil {
		return nil
	}
	id := domain.UserID(p.String())
	return &id
}

func toUTCPtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	t := p.UTC()
	return &t
}
