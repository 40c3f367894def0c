package models

import (
	"time"

	"github.com/google/uuid"
)

// Состояния жизненного цикла айтема
const (
	ItemStateActive   = "active"   // айтем опубликован и доступен для покупки
	ItemStateReserved = "reserved" // айтем зарезервирован за покупателем
	ItemStateSold     = "sold"     // айтем продан
	ItemStateInactive = "inactive" // айтем снят с публикации продавцом
)

// ValidItemStates множество допустимых состояний айтема
var ValidItemStates = map[string]bool{
	ItemStateActive:   true,
	ItemStateReserved: true,
	ItemStateSold:     true,
	ItemStateInactive: true,
}

// Item представляет айтем, выставленный на продажу
type Item struct {
	ID          uuid.UUID   `json:"id"`
	SellerID    uuid.UUID   `json:"seller_id"`
	BuyerID     *uuid.UUID  `json:"buyer_id,omitempty"` // заполняется при резервировании
	CategoryID  *uuid.UUID  `json:"category_id,omitempty"`
	Title       string      `json:"title"`
	Price       int64       `json:"price"` // цена в минимальных единицах, всегда > 0
	Description string      `json:"description,omitempty"`
	State       string      `json:"state"`
	IsBanned    bool        `json:"is_banned"`
	Images      []ItemImage `json:"images,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ItemImage представляет изображение айтема
type ItemImage struct {
	ID         uuid.UUID `json:"id"`
	ItemID     uuid.UUID `json:"item_id"`
	URL        string    `json:"url"`
	PreviewURL string    `json:"preview_url,omitempty"`
	IsMain     bool      `json:"is_main"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

// Category представляет категорию айтемов
type Category struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}
