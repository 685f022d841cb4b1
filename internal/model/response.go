package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type DeleteItemResult struct {
	TombstoneID string `json:"tombstone_id"`
	ExpiresAt   string `json:"expires_at"`
}

type BulkDeleteResult struct {
	Succeeded []DeleteItemResult  `json:"succeeded"`
	Failed    []BulkDeleteFailure `json:"failed"`
}

type BulkDeleteFailure struct {
	Item   ItemRef `json:"item"`
	Reason string  `json:"reason"`
}

type TombstonePage struct {
	Items         []TombstoneEntry `json:"items"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

// RestoredSummary reports what a restore actually brought back, including
// dependency-closure references that no longer resolved and were dropped.
type RestoredSummary struct {
	RestoredItemID string   `json:"restored_item_id"`
	Dependents     int      `json:"dependents"`
	DroppedRefs    []string `json:"dropped_refs,omitempty"`
}
