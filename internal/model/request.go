package model

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type DeleteItemRequest struct {
	ItemType string `json:"item_type"`
	ItemID   string `json:"item_id"`
}

type BulkDeleteRequest struct {
	Items []DeleteItemRequest `json:"items"`
}
