package approval

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"perchstats/api/models"
)

// Store is the approval persistence collaborator.
type Store interface {
	GetApprovedEntities(ctx context.Context, orgID int, dataSource string) ([]string, error)
	UpsertApproval(ctx context.Context, rec models.ApprovalRecord) error
}

// Coordinator supplies a fallback entity scope when an organization has no
// approvals yet, and best-effort persists the entities discovered while
// running against that fallback.
type Coordinator struct {
	store       Store
	fallbackIDs []string
	dataSource  string
	now         func() time.Time
}

func NewCoordinator(store Store, fallbackIDs []string, dataSource string) *Coordinator {
	return &Coordinator{
		store:       store,
		fallbackIDs: fallbackIDs,
		dataSource:  dataSource,
		now:         time.Now,
	}
}

// ResolveScope returns the approved entity ids for an organization. When
// none exist it substitutes the configured fallback set and reports that
// auto-approval should run after the query.
func (c *Coordinator) ResolveScope(ctx context.Context, orgID int) ([]string, bool, error) {
	ids, err := c.store.GetApprovedEntities(ctx, orgID, c.dataSource)
	if err != nil {
		return nil, false, err
	}
	if len(ids) > 0 {
		return ids, false, nil
	}

	log.Printf("No approved entities for org %d, using fallback scope of %d entities", orgID, len(c.fallbackIDs))
	scope := make([]string, len(c.fallbackIDs))
	copy(scope, c.fallbackIDs)
	return scope, true, nil
}

// PersistDiscovered upserts an approval record for every distinct entity id
// seen in the query output. Upserts run concurrently and independently; a
// failed entity is logged and skipped, never aborting its siblings or the
// response. Returns how many upserts succeeded.
func (c *Coordinator) PersistDiscovered(ctx context.Context, orgID int, entityIDs []string) int {
	seen := make(map[string]struct{}, len(entityIDs))
	var distinct []string
	for _, id := range entityIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	if len(distinct) == 0 {
		return 0
	}

	approvedAt := c.now().UTC()
	metadata, _ := json.Marshal(map[string]any{"auto_approved": true})

	var wg sync.WaitGroup
	results := make(chan error, len(distinct))
	for _, id := range distinct {
		wg.Add(1)
		go func(entityID string) {
			defer wg.Done()
			err := c.store.UpsertApproval(ctx, models.ApprovalRecord{
				OrganizationID: orgID,
				EntityID:       entityID,
				DataSource:     c.dataSource,
				ApprovalStatus: "approved",
				ApprovedAt:     approvedAt,
				Metadata:       metadata,
			})
			if err != nil {
				log.Printf("Auto-approval upsert failed for org %d entity %s: %v", orgID, entityID, err)
			}
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	if succeeded < len(distinct) {
		log.Printf("Auto-approval persisted %d of %d discovered entities for org %d", succeeded, len(distinct), orgID)
	}
	return succeeded
}
