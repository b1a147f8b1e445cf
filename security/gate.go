package security

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"perchstats/api/models"
)

type Kind int

const (
	KindInvalid Kind = iota
	KindRateLimited
	KindOrgInactive
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// AuditCounter reports how many audit events an organization has produced
// for an action since a point in time.
type AuditCounter interface {
	CountEvents(ctx context.Context, orgID int, action string, since time.Time) (uint64, error)
}

type OrganizationGetter interface {
	GetOrganization(ctx context.Context, id int) (*models.Organization, error)
}

// Request is the slice of an incoming call the gate inspects.
type Request struct {
	OrganizationID int
	Action         string
	SearchTerm     string
	UserAgent      string
	Country        string
}

const (
	rateLimitWindow = time.Hour
	rateLimitMax    = 100
	maxRiskScore    = 10
)

var injectionPatterns = []string{
	"<script",
	"javascript:",
	"data:text/html",
	"vbscript:",
}

// Gate runs the pre-warehouse checks: input validation, rate limiting, and
// tenant validity are hard gates; the risk score and country are advisory.
type Gate struct {
	audit AuditCounter
	orgs  OrganizationGetter
}

func NewGate(audit AuditCounter, orgs OrganizationGetter) *Gate {
	return &Gate{audit: audit, orgs: orgs}
}

func (g *Gate) Authorize(ctx context.Context, req Request) (*models.RiskAssessment, error) {
	lowered := strings.ToLower(req.SearchTerm)
	for _, pattern := range injectionPatterns {
		if strings.Contains(lowered, pattern) {
			return nil, &Error{Kind: KindInvalid, Message: "search term contains disallowed content"}
		}
	}

	since := time.Now().Add(-rateLimitWindow)
	count, err := g.audit.CountEvents(ctx, req.OrganizationID, req.Action, since)
	if err != nil {
		// Availability over strict enforcement: a broken audit lookup
		// must not take the whole gateway down.
		log.Printf("Rate limit lookup failed for org %d, allowing request: %v", req.OrganizationID, err)
	} else if count >= rateLimitMax {
		return nil, &Error{Kind: KindRateLimited, Message: fmt.Sprintf("rate limit exceeded for action %q", req.Action)}
	}

	org, err := g.orgs.GetOrganization(ctx, req.OrganizationID)
	if err != nil || org == nil {
		return nil, &Error{Kind: KindOrgInactive, Message: "organization not found"}
	}
	if org.SubscriptionStatus != "active" {
		return nil, &Error{Kind: KindOrgInactive, Message: "organization subscription is not active"}
	}

	assessment := &models.RiskAssessment{
		RiskScore: riskScore(req.SearchTerm, req.UserAgent),
		Country:   req.Country,
		Allowed:   true,
	}
	if assessment.Country == "" {
		assessment.Country = "us"
	}
	return assessment, nil
}

func riskScore(term, userAgent string) int {
	score := 0
	if len(term) > 200 {
		score += 2
	}
	if strings.Contains(term, "..") {
		score += 3
	}
	if strings.ContainsAny(term, `<>'"`) {
		score++
	}
	if len(userAgent) < 10 {
		score += 2
	}
	if score > maxRiskScore {
		score = maxRiskScore
	}
	return score
}
