package model

// Actions accepted from clients.
const (
	ActionAddIsu  = "addIsu"
	ActionBuyItem = "buyItem"
)

// GameRequest is an inbound websocket message.
type GameRequest struct {
	RequestID int    `json:"request_id"`
	Action    string `json:"action"`
	Time      int64  `json:"time"`

	// addIsu
	Isu string `json:"isu,omitempty"`

	// buyItem; CountBought is how many units the client believes exist.
	ItemID      int `json:"item_id,omitempty"`
	CountBought int `json:"count_bought,omitempty"`
}

// GameResponse acknowledges a GameRequest.
type GameResponse struct {
	RequestID int  `json:"request_id"`
	IsSuccess bool `json:"is_success"`
}
