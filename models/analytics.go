package models

import "time"

// SearchTrafficRequest is the filter payload sent by the dashboard.
// TrafficSources is deliberately untyped: callers send a string, an array,
// or nothing at all, and the sources normalizer sorts it out.
type SearchTrafficRequest struct {
	SearchTerm     string     `json:"searchTerm"`
	DateRange      *DateRange `json:"dateRange"`
	TrafficSources any        `json:"trafficSources"`
	Limit          int        `json:"limit"`
}

type DateRange struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// QueryFilter is the validated, server-side form of a request filter.
type QueryFilter struct {
	From           time.Time
	To             time.Time
	TrafficSources []string
	Limit          int
}

// CanonicalRecord is one normalized warehouse row.
type CanonicalRecord struct {
	Date                 string  `json:"date"`
	EntityID             string  `json:"appId"`
	TrafficSourceDisplay string  `json:"trafficSource"`
	TrafficSourceRaw     string  `json:"trafficSourceRaw"`
	Impressions          int64   `json:"impressions"`
	Downloads            int64   `json:"downloads"`
	PageViews            int64   `json:"pageViews"`
	ConversionRate       float64 `json:"conversionRate"`
}

type SearchTrafficMeta struct {
	RowCount                int            `json:"rowCount"`
	TotalRows               int64          `json:"totalRows"`
	ExecutionTimeMs         int64          `json:"executionTimeMs"`
	AppliedFilters          AppliedFilters `json:"appliedFilters"`
	AvailableTrafficSources []string       `json:"availableTrafficSources"`
	EmergencyBypass         bool           `json:"emergencyBypass"`
	AutoApprovalTriggered   bool           `json:"autoApprovalTriggered"`
}

type AppliedFilters struct {
	From           string   `json:"from"`
	To             string   `json:"to"`
	TrafficSources []string `json:"trafficSources"`
	Limit          int      `json:"limit"`
}

type SearchTrafficResponse struct {
	Success bool              `json:"success"`
	Data    []CanonicalRecord `json:"data"`
	Meta    SearchTrafficMeta `json:"meta"`
}
