package approval

import (
	"fmt"
	"sort"

	"github.com/valter-silva-au/autopilot/internal/observability"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

// CreateBatch snapshots currently-pending requests matching the chat,
// project, and optional category, capped at the bulk limit. The batch is a
// view: members resolved after creation are skipped at resolution time.
func (w *Workflow) CreateBatch(chatID int64, projectPath string, category models.ActionCategory) models.ApprovalBatch {
	w.mu.Lock()
	defer w.mu.Unlock()

	batch := models.ApprovalBatch{
		ID:        w.ids.NextID("BAT"),
		ChatID:    chatID,
		Category:  category,
		Status:    models.BatchOpen,
		CreatedAt: w.now(),
	}

	for _, req := range w.snapshotPendingLocked(chatID, projectPath) {
		if category != "" && req.ActionCategory != category {
			continue
		}
		batch.RequestIDs = append(batch.RequestIDs, req.ID)
		if len(batch.RequestIDs) >= w.maxBulk {
			break
		}
	}

	w.batches[batch.ID] = &batch
	return batch
}

// Batch returns a copy of the batch with the given ID.
func (w *Workflow) Batch(id string) (models.ApprovalBatch, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.batches[id]
	if !ok {
		return models.ApprovalBatch{}, false
	}
	return *b, true
}

// ApproveBatch approves every member still pending and returns the count
// actually transitioned. Already-resolved members contribute zero.
func (w *Workflow) ApproveBatch(batchID, actor string) int {
	return w.resolveBatch(batchID, models.BatchApproved, func(id string) bool {
		return w.Approve(id, actor)
	})
}

// DenyBatch denies every member still pending and returns the count
// actually transitioned.
func (w *Workflow) DenyBatch(batchID, actor, reason string) int {
	return w.resolveBatch(batchID, models.BatchDenied, func(id string) bool {
		return w.Deny(id, actor, reason)
	})
}

func (w *Workflow) resolveBatch(batchID string, status models.BatchStatus, resolveOne func(id string) bool) int {
	w.mu.Lock()
	batch, ok := w.batches[batchID]
	if !ok {
		w.mu.Unlock()
		return 0
	}
	ids := make([]string, len(batch.RequestIDs))
	copy(ids, batch.RequestIDs)
	batch.Status = status
	w.mu.Unlock()

	count := 0
	for _, id := range ids {
		if resolveOne(id) {
			count++
		}
	}

	observability.Emit(w.log, "INFO", observability.EventApprovalResolved,
		fmt.Sprintf("batch %s resolved %d of %d requests as %s", batchID, count, len(ids), status),
		map[string]any{"batch_id": batchID, "resolved": count, "members": len(ids)})
	return count
}

// snapshotPendingLocked lists pending requests for (chatID, projectPath) in
// creation order. Caller holds w.mu.
func (w *Workflow) snapshotPendingLocked(chatID int64, projectPath string) []models.ApprovalRequest {
	var out []models.ApprovalRequest
	for _, req := range w.requests {
		if req.Status != models.ApprovalPending {
			continue
		}
		if chatID != 0 && req.ChatID != chatID {
			continue
		}
		if projectPath != "" && req.ProjectPath != projectPath {
			continue
		}
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
