package store

import (
	"context"
	"database/sql"
	"fmt"

	"perchstats/api/models"
)

type OrgStore struct {
	db *sql.DB
}

func NewOrgStore(db *sql.DB) *OrgStore {
	return &OrgStore{db: db}
}

func (s *OrgStore) GetOrganization(ctx context.Context, id int) (*models.Organization, error) {
	org := &models.Organization{}
	query := `
		SELECT id, name, email, subscription_status, created_at, updated_at
		FROM organizations
		WHERE id = $1;
	`
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Email,
		&org.SubscriptionStatus,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("organization %d not found", id)
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

func (s *OrgStore) GetOrganizationByEmail(ctx context.Context, email string) (*models.Organization, error) {
	org := &models.Organization{}
	query := `
		SELECT id, name, email, hashed_password, subscription_status, created_at, updated_at
		FROM organizations
		WHERE email = $1;
	`
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&org.ID,
		&org.Name,
		&org.Email,
		&org.HashedPassword,
		&org.SubscriptionStatus,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("organization with email '%s' not found", email)
		}
		return nil, fmt.Errorf("failed to get organization by email: %w", err)
	}

	return org, nil
}
