package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"devboard-trash/internal/model"
	"devboard-trash/internal/service"
	"devboard-trash/pkg/apierror"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type TrashHandler struct {
	trash *service.TrashService
	audit *service.AuditService
}

func NewTrashHandler(trash *service.TrashService, audit *service.AuditService) *TrashHandler {
	return &TrashHandler{trash: trash, audit: audit}
}

// Delete soft-deletes one live record into the trash.
func (h *TrashHandler) Delete(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	actor := actorFromRequest(r)

	var payload model.DeleteItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	itemType, err := model.ParseItemType(strings.TrimSpace(payload.ItemType))
	if err != nil {
		writeError(w, err)
		return
	}
	itemID := strings.TrimSpace(payload.ItemID)
	if itemID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "item_id is required", "item_id", http.StatusBadRequest))
		return
	}

	resource := fmt.Sprintf("%s/%s", itemType, itemID)
	result, err := h.trash.SoftDelete(r.Context(), itemType, itemID, actor)
	if err != nil {
		h.audit.Log(r.Context(), "trash.delete", actor, "error", resource, "", err.Error())
		writeError(w, err)
		return
	}

	h.audit.Log(r.Context(), "trash.delete", actor, "ok", resource, "tombstone "+result.TombstoneID, "")
	writeSuccess(w, http.StatusOK, result, nil)
}

// BulkDelete soft-deletes a batch of records; partial failure is a success
// response carrying per-item outcomes.
func (h *TrashHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	actor := actorFromRequest(r)

	var payload model.BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	if len(payload.Items) == 0 {
		writeError(w, apierror.New("BAD_REQUEST", "items must not be empty", "items", http.StatusBadRequest))
		return
	}

	refs := make([]model.ItemRef, 0, len(payload.Items))
	for i, item := range payload.Items {
		itemType, err := model.ParseItemType(strings.TrimSpace(item.ItemType))
		if err != nil {
			writeError(w, apierror.New("BAD_REQUEST",
				fmt.Sprintf("items[%d]: unknown item_type %q", i, item.ItemType), "items", http.StatusBadRequest))
			return
		}
		itemID := strings.TrimSpace(item.ItemID)
		if itemID == "" {
			writeError(w, apierror.New("BAD_REQUEST",
				fmt.Sprintf("items[%d]: item_id is required", i), "items", http.StatusBadRequest))
			return
		}
		refs = append(refs, model.ItemRef{ItemType: itemType, ItemID: itemID})
	}

	result := h.trash.BulkDelete(r.Context(), refs, actor)

	detail := fmt.Sprintf("succeeded=%d failed=%d", len(result.Succeeded), len(result.Failed))
	h.audit.Log(r.Context(), "trash.bulk_delete", actor, "ok", "", detail, "")

	writeSuccess(w, http.StatusOK, result, nil)
}

// List returns one page of tombstone entries.
func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter model.TombstoneFilter
	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		itemType, err := model.ParseItemType(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.ItemType = &itemType
	}
	if raw := strings.TrimSpace(query.Get("state")); raw != "" {
		state, err := model.ParseTombstoneState(raw)
		if err != nil {
			writeError(w, apierror.New("BAD_REQUEST", "invalid state filter", raw, http.StatusBadRequest))
			return
		}
		filter.State = &state
	}

	limit := defaultListLimit
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, apierror.New("BAD_REQUEST", "limit must be a positive integer", raw, http.StatusBadRequest))
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	page, err := h.trash.List(r.Context(), filter, strings.TrimSpace(query.Get("page_token")), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, page, nil)
}

// Restore brings a tombstoned record back to the live store.
func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)
	tombstoneID := chi.URLParam(r, "id")

	summary, err := h.trash.Restore(r.Context(), tombstoneID, actor)
	if err != nil {
		h.audit.Log(r.Context(), "trash.restore", actor, "error", tombstoneID, "", err.Error())
		writeError(w, err)
		return
	}

	h.audit.Log(r.Context(), "trash.restore", actor, "ok", tombstoneID, "restored as "+summary.RestoredItemID, "")
	writeSuccess(w, http.StatusOK, summary, nil)
}

// Purge permanently discards a tombstone's payload ahead of its expiry.
func (h *TrashHandler) Purge(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)
	tombstoneID := chi.URLParam(r, "id")

	if err := h.trash.PurgeNow(r.Context(), tombstoneID, actor); err != nil {
		h.audit.Log(r.Context(), "trash.purge", actor, "error", tombstoneID, "", err.Error())
		writeError(w, err)
		return
	}

	h.audit.Log(r.Context(), "trash.purge", actor, "ok", tombstoneID, "", "")
	writeSuccess(w, http.StatusOK, map[string]any{"purged": true}, nil)
}

// Sweep triggers one garbage-collection pass outside the schedule.
func (h *TrashHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)

	result, err := h.trash.Sweep(r.Context(), actor)
	if err != nil {
		h.audit.Log(r.Context(), "trash.sweep", actor, "error", "", "", err.Error())
		writeError(w, err)
		return
	}

	detail := fmt.Sprintf("purged=%d skipped=%d errors=%d", result.Purged, result.Skipped, len(result.Errors))
	h.audit.Log(r.Context(), "trash.sweep", actor, "ok", "", detail, "")

	writeSuccess(w, http.StatusOK, map[string]any{
		"purged":   result.Purged,
		"disposed": result.Disposed,
		"skipped":  result.Skipped,
		"errors":   len(result.Errors),
	}, nil)
}
