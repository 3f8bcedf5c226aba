package model

import (
	"math/big"

	"isuclicker-api/internal/numeric"
)

// Item is one row of the item master table.
type Item struct {
	ItemID int           `yaml:"item_id" json:"item_id"`
	Power  numeric.Curve `yaml:"power" json:"power"`
	Price  numeric.Curve `yaml:"price" json:"price"`
}

// GetPower returns the production of the count-th unit of this item.
func (i Item) GetPower(count int) *big.Int {
	return i.Power.At(count)
}

// GetPrice returns the cost of the count-th unit of this item.
func (i Item) GetPrice(count int) *big.Int {
	return i.Price.At(count)
}
