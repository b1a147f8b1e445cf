package store

import (
	"context"
	"database/sql"
	"fmt"

	"perchstats/api/models"
)

type ApprovalStore struct {
	db *sql.DB
}

func NewApprovalStore(db *sql.DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

// GetApprovedEntities returns the entity ids an organization is approved to
// query for one data source.
func (s *ApprovalStore) GetApprovedEntities(ctx context.Context, orgID int, dataSource string) ([]string, error) {
	query := `
		SELECT entity_id
		FROM entity_approvals
		WHERE organization_id = $1 AND data_source = $2 AND approval_status = 'approved'
		ORDER BY entity_id;
	`
	rows, err := s.db.QueryContext(ctx, query, orgID, dataSource)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved entities: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan approved entity: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error reading approved entities: %w", err)
	}

	return ids, nil
}

// UpsertApproval inserts or refreshes an approval record. The unique key on
// (organization_id, entity_id, data_source) makes repeated discovery of the
// same entity a no-op rather than a race.
func (s *ApprovalStore) UpsertApproval(ctx context.Context, rec models.ApprovalRecord) error {
	query := `
		INSERT INTO entity_approvals (organization_id, entity_id, data_source, approval_status, approved_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (organization_id, entity_id, data_source)
		DO UPDATE SET approval_status = EXCLUDED.approval_status,
		              approved_at = EXCLUDED.approved_at,
		              metadata = EXCLUDED.metadata;
	`
	metadata := rec.Metadata
	if metadata == nil {
		metadata = []byte("{}")
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.OrganizationID,
		rec.EntityID,
		rec.DataSource,
		rec.ApprovalStatus,
		rec.ApprovedAt,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert approval for entity %s: %w", rec.EntityID, err)
	}

	return nil
}

// ListApprovals returns every approval record for an organization.
func (s *ApprovalStore) ListApprovals(ctx context.Context, orgID int) ([]models.ApprovalRecord, error) {
	query := `
		SELECT organization_id, entity_id, data_source, approval_status, approved_at, metadata
		FROM entity_approvals
		WHERE organization_id = $1
		ORDER BY approved_at DESC;
	`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer rows.Close()

	var records []models.ApprovalRecord
	for rows.Next() {
		var rec models.ApprovalRecord
		var metadata sql.NullString
		if err := rows.Scan(&rec.OrganizationID, &rec.EntityID, &rec.DataSource, &rec.ApprovalStatus, &rec.ApprovedAt, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}
		if metadata.Valid {
			rec.Metadata = []byte(metadata.String)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error reading approvals: %w", err)
	}

	return records, nil
}
