package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-production-service/internal/model"
)

// Movement describes one stock change to be written to the movement log.
type Movement struct {
	ItemType      model.ItemType
	ItemID        string
	Type          model.MovementType
	Before        decimal.Decimal
	After         decimal.Decimal
	ReferenceType string
	ReferenceID   string
	Notes         string
	UserID        string
	At            time.Time
}

// NewMovement builds the log entry for m. QuantityChange is After-Before.
func NewMovement(m Movement) *model.StockMovement {
	var refID *string
	if m.ReferenceID != "" {
		refID = &m.ReferenceID
	}
	var refType *string
	if m.ReferenceType != "" {
		refType = &m.ReferenceType
	}
	var createdBy *string
	if m.UserID != "" && m.UserID != "unknown" {
		createdBy = &m.UserID
	}

	return &model.StockMovement{
		ID:             uuid.New().String(),
		ItemType:       m.ItemType,
		ItemID:         m.ItemID,
		MovementType:   m.Type,
		QuantityChange: m.After.Sub(m.Before),
		QuantityBefore: m.Before,
		QuantityAfter:  m.After,
		ReferenceType:  refType,
		ReferenceID:    refID,
		Notes:          m.Notes,
		CreatedBy:      createdBy,
		CreatedAt:      m.At,
	}
}
