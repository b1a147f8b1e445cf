package models

import "time"

// AuditEvent is one request logged for rate limiting and review.
type AuditEvent struct {
	EventID        string    `json:"eventId"`
	OrganizationID int       `json:"organizationId"`
	Action         string    `json:"action"`
	SearchTerm     string    `json:"searchTerm"`
	UserAgent      string    `json:"userAgent"`
	IPAddress      string    `json:"ipAddress"`
	RiskScore      int       `json:"riskScore"`
	Country        string    `json:"country"`
	CreatedAt      time.Time `json:"createdAt"`
}
