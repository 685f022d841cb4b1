package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"devboard-trash/internal/model"
	"devboard-trash/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrTombstoneNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Tombstone not found"
	} else if errors.Is(err, model.ErrItemNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Item not found"
	} else if errors.Is(err, model.ErrDuplicateItem) {
		status = http.StatusConflict
		body.Code = "DUPLICATE_ITEM"
		body.Message = "Item already has an active tombstone"
	} else if errors.Is(err, model.ErrIllegalTransition) {
		status = http.StatusConflict
		body.Code = "ILLEGAL_TRANSITION"
		body.Message = "Tombstone is already in a terminal state"
		body.Details = err.Error()
	} else if errors.Is(err, model.ErrVersionConflict) {
		status = http.StatusConflict
		body.Code = "VERSION_CONFLICT"
		body.Message = "Tombstone was modified concurrently, retry"
	} else if errors.Is(err, model.ErrRestoreConflict) {
		status = http.StatusConflict
		body.Code = "RESTORE_CONFLICT"
		body.Message = "A different record now occupies the original identifier"
		body.Details = err.Error()
	} else if errors.Is(err, model.ErrSchemaMismatch) {
		status = http.StatusUnprocessableEntity
		body.Code = "SCHEMA_MISMATCH"
		body.Message = "Snapshot payload is not readable by this version"
		body.Details = err.Error()
	} else if errors.Is(err, model.ErrUnknownItemType) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Unknown item type"
		body.Details = err.Error()
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
		body.Details = err.Error()
	} else if errors.Is(err, model.ErrUnauthorized) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied"
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
