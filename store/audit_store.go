package store

import (
	"context"
	"fmt"
	"time"

	"perchstats/api/database"
	"perchstats/api/models"
)

type AuditStore struct {
	DB *database.ClickHouseClient
}

func NewAuditStore(chClient *database.ClickHouseClient) *AuditStore {
	return &AuditStore{DB: chClient}
}

func (s *AuditStore) InsertEvent(ctx context.Context, event models.AuditEvent) error {
	err := s.DB.Conn.Exec(ctx, `
		INSERT INTO audit_events (
			event_id, organization_id, action, search_term, user_agent,
			ip_address, risk_score, country, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.EventID,
		event.OrganizationID,
		event.Action,
		event.SearchTerm,
		event.UserAgent,
		event.IPAddress,
		event.RiskScore,
		event.Country,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	return nil
}

// CountEvents counts an organization's events for one action since a cutoff.
// The trailing-hour count backs the gateway's rate limit.
func (s *AuditStore) CountEvents(ctx context.Context, orgID int, action string, since time.Time) (uint64, error) {
	query := `
		SELECT count()
		FROM audit_events
		WHERE organization_id = ? AND action = ? AND created_at >= ?
	`

	var count uint64
	if err := s.DB.Conn.QueryRow(ctx, query, orgID, action, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}

	return count, nil
}
