package model

import "isuclicker-api/internal/numeric"

// GameStatus is the computed state of a room sent to clients.
type GameStatus struct {
	Time     int64        `json:"time"`
	Adding   []Adding     `json:"adding"`
	Schedule []Schedule   `json:"schedule"`
	Items    []ItemStatus `json:"items"`
	OnSale   []OnSale     `json:"on_sale"`
}

// Adding is a deposit that has not taken effect yet.
type Adding struct {
	Time int64  `json:"time"`
	Isu  string `json:"isu"`
}

// Schedule is a sample of the projected economy.
type Schedule struct {
	Time       int64               `json:"time"`
	MilliIsu   numeric.Exponential `json:"milli_isu"`
	TotalPower numeric.Exponential `json:"total_power"`
}

// ItemStatus is the per-item part of a GameStatus.
type ItemStatus struct {
	ItemID      int                 `json:"item_id"`
	CountBought int                 `json:"count_bought"`
	CountBuilt  int                 `json:"count_built"`
	NextPrice   numeric.Exponential `json:"next_price"`
	Power       numeric.Exponential `json:"power"`
	Building    []Building          `json:"building"`
}

// Building records a unit coming online during the projection.
type Building struct {
	Time       int64               `json:"time"`
	CountBuilt int                 `json:"count_built"`
	Power      numeric.Exponential `json:"power"`
}

// OnSale is the first time an item becomes affordable. Time 0 means now.
type OnSale struct {
	ItemID int   `json:"item_id"`
	Time   int64 `json:"time"`
}
