package dto

import "github.com/fekuna/omnipos-production-service/internal/model"

type IngredientFilters struct {
	Name     string // case-insensitive substring
	LowStock bool   // If true, filter by quantity_on_hand <= reorder_point
	Page     int
	PageSize int
}

type FinishedGoodFilters struct {
	Page     int
	PageSize int
}

type MovementFilters struct {
	ItemType     model.ItemType
	ItemID       string
	MovementType model.MovementType
	ReferenceID  string
	Page         int
	PageSize     int
}
