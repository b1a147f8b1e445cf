package models

import (
	"encoding/json"
	"time"
)

// ApprovalRecord marks an entity as visible to an organization for one data
// source. Uniqueness is (OrganizationID, EntityID, DataSource).
type ApprovalRecord struct {
	OrganizationID int             `json:"organizationId"`
	EntityID       string          `json:"entityId"`
	DataSource     string          `json:"dataSource"`
	ApprovalStatus string          `json:"approvalStatus"`
	ApprovedAt     time.Time       `json:"approvedAt"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}
