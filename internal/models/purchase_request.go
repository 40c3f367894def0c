package models

import (
	"time"

	"github.com/google/uuid"
)

// Состояния запроса на покупку
const (
	PurchaseRequestStatePending  = "pending"  // ожидает решения продавца
	PurchaseRequestStateAccepted = "accepted" // принят, айтем зарезервирован
)

// PurchaseRequest представляет запрос покупателя на покупку айтема.
// Для пары (айтем, покупатель) существует не более одного запроса.
type PurchaseRequest struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	Comment   string    `json:"comment,omitempty"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Buyer *User `json:"buyer,omitempty"`
	Item  *Item `json:"item,omitempty"`
}
