package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"perchstats/api/approval"
	"perchstats/api/config"
	"perchstats/api/models"
	"perchstats/api/security"
	"perchstats/api/sources"
	"perchstats/api/warehouse"
)

const searchTrafficAction = "search_traffic"

// AuditRecorder is the best-effort audit sink for handled requests.
type AuditRecorder interface {
	InsertEvent(ctx context.Context, event models.AuditEvent) error
}

// ApprovalLister exposes an organization's approval records to the dashboard.
type ApprovalLister interface {
	ListApprovals(ctx context.Context, orgID int) ([]models.ApprovalRecord, error)
}

type AnalyticsHandlers struct {
	Gate        *security.Gate
	Coordinator *approval.Coordinator
	Approvals   ApprovalLister
	Audit       AuditRecorder
	Normalizer  *sources.Normalizer
	Credentials *warehouse.CredentialService
	Builder     *warehouse.QueryBuilder
	Warehouse   *warehouse.Client
	Transformer *warehouse.Transformer
	Credential  config.ServiceAccountCredential
}

// SearchTraffic runs the full gateway pipeline: gate, scope resolution,
// query build, token mint, warehouse call, transform, auto-approval.
func (h *AnalyticsHandlers) SearchTraffic(c *gin.Context) {
	start := time.Now()

	var req models.SearchTrafficRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	orgID := c.MustGet("org_id").(int)

	filter, err := buildFilter(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	assessment, err := h.Gate.Authorize(ctx, security.Request{
		OrganizationID: orgID,
		Action:         searchTrafficAction,
		SearchTerm:     req.SearchTerm,
		UserAgent:      c.Request.UserAgent(),
		Country:        c.GetHeader("CF-IPCountry"),
	})
	if err != nil {
		status, msg := securityStatus(err)
		c.JSON(status, gin.H{"success": false, "error": msg})
		return
	}

	scope, autoApprove, err := h.Coordinator.ResolveScope(ctx, orgID)
	if err != nil {
		log.Printf("Error resolving entity scope for org %d: %v", orgID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to resolve entity scope"})
		return
	}

	built, err := h.Builder.Build(filter, scope)
	if err != nil {
		if errors.Is(err, warehouse.ErrEmptyScope) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No entities available for this organization"})
			return
		}
		log.Printf("Error building warehouse query for org %d: %v", orgID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to build query"})
		return
	}

	token, err := h.Credentials.MintAccessToken(ctx, h.Credential)
	if err != nil {
		log.Printf("Error minting warehouse access token for org %d: %v", orgID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to authenticate with the analytics warehouse"})
		return
	}

	result, err := h.Warehouse.Execute(ctx, built, token)
	if err != nil {
		var reqErr *warehouse.RequestError
		if errors.As(err, &reqErr) {
			log.Printf("Warehouse query failed for org %d: status=%d", orgID, reqErr.Status)
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Analytics warehouse request failed"})
			return
		}
		log.Printf("Warehouse query failed for org %d: %v", orgID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Analytics warehouse request failed"})
		return
	}

	records := h.Transformer.Transform(result.Rows)

	if autoApprove {
		entityIDs := make([]string, 0, len(records))
		for _, rec := range records {
			entityIDs = append(entityIDs, rec.EntityID)
		}
		h.Coordinator.PersistDiscovered(ctx, orgID, entityIDs)
	}

	h.recordAudit(ctx, c, orgID, req.SearchTerm, assessment)

	totalRows, _ := strconv.ParseInt(result.TotalRows, 10, 64)

	c.JSON(http.StatusOK, models.SearchTrafficResponse{
		Success: true,
		Data:    records,
		Meta: models.SearchTrafficMeta{
			RowCount:        len(records),
			TotalRows:       totalRows,
			ExecutionTimeMs: time.Since(start).Milliseconds(),
			AppliedFilters: models.AppliedFilters{
				From:           built.From.Format("2006-01-02"),
				To:             built.To.Format("2006-01-02"),
				TrafficSources: filter.TrafficSources,
				Limit:          built.Limit,
			},
			AvailableTrafficSources: h.Normalizer.DisplayNames(),
			EmergencyBypass:         autoApprove,
			AutoApprovalTriggered:   autoApprove,
		},
	})
}

// GetTrafficSources returns the display vocabulary the dashboard can filter on.
func (h *AnalyticsHandlers) GetTrafficSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.Normalizer.DisplayNames()})
}

// GetApprovals lists the calling organization's approval records.
func (h *AnalyticsHandlers) GetApprovals(c *gin.Context) {
	orgID := c.MustGet("org_id").(int)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	records, err := h.Approvals.ListApprovals(ctx, orgID)
	if err != nil {
		log.Printf("Error listing approvals for org %d: %v", orgID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to list approvals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

func (h *AnalyticsHandlers) recordAudit(ctx context.Context, c *gin.Context, orgID int, term string, assessment *models.RiskAssessment) {
	event := models.AuditEvent{
		EventID:        uuid.New().String(),
		OrganizationID: orgID,
		Action:         searchTrafficAction,
		SearchTerm:     term,
		UserAgent:      c.Request.UserAgent(),
		IPAddress:      c.ClientIP(),
		RiskScore:      assessment.RiskScore,
		Country:        assessment.Country,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.Audit.InsertEvent(ctx, event); err != nil {
		log.Printf("Failed to record audit event for org %d: %v", orgID, err)
	}
}

func buildFilter(req models.SearchTrafficRequest) (models.QueryFilter, error) {
	filter := models.QueryFilter{
		TrafficSources: sources.NormalizeInput(req.TrafficSources),
		Limit:          req.Limit,
	}

	if req.DateRange != nil {
		from, err := time.Parse("2006-01-02", req.DateRange.From)
		if err != nil {
			return filter, errors.New("invalid 'dateRange.from' date, expected YYYY-MM-DD")
		}
		to, err := time.Parse("2006-01-02", req.DateRange.To)
		if err != nil {
			return filter, errors.New("invalid 'dateRange.to' date, expected YYYY-MM-DD")
		}
		if to.Before(from) {
			return filter, errors.New("'dateRange.from' must not be after 'dateRange.to'")
		}
		filter.From = from
		filter.To = to
	}

	if req.Limit < 0 {
		return filter, errors.New("'limit' must be a positive integer")
	}

	return filter, nil
}

func securityStatus(err error) (int, string) {
	var secErr *security.Error
	if errors.As(err, &secErr) {
		switch secErr.Kind {
		case security.KindRateLimited:
			return http.StatusTooManyRequests, secErr.Message
		case security.KindOrgInactive:
			return http.StatusForbidden, secErr.Message
		default:
			return http.StatusBadRequest, secErr.Message
		}
	}
	return http.StatusInternalServerError, "Authorization check failed"
}
