// Package api holds the wire types of the HTTP API described in api.yaml.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
	Uptime     float64    `json:"uptime"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type ProductOption struct {
	Id    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type ProductCategory struct {
	Category string          `json:"category"`
	Options  []ProductOption `json:"options"`
}

type CatalogResponse struct {
	Categories []ProductCategory `json:"categories"`
}

type CartItem struct {
	Id       string          `json:"id,omitempty"`
	Name     string          `json:"name" validate:"required,notblank"`
	Price    decimal.Decimal `json:"price" validate:"gte=0,lte=1000000000000"`
	Category string          `json:"category"`
	Quantity int             `json:"quantity" validate:"gte=0"`
}

type CreateCheckoutSessionRequest struct {
	Items []CartItem `json:"items" validate:"required,min=1,dive"`
}

type CheckoutSessionResponse struct {
	Url string `json:"url"`
}

type CheckoutSuccessResponse struct {
	SessionId string `json:"sessionId"`
	Cleared   bool   `json:"cleared"`
}

type CartResponse struct {
	Selections map[string]ProductOption `json:"selections"`
	CartItems  []CartItem               `json:"cartItems"`
	TotalPrice decimal.Decimal          `json:"totalPrice"`
	CartTotal  decimal.Decimal          `json:"cartTotal"`
	Missing    []string                 `json:"missingCategories"`
}

type UpdateSelectionRequest struct {
	OptionId string `json:"optionId" validate:"required,notblank"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type AddToCartResponse struct {
	Added []CartItem   `json:"added"`
	Cart  CartResponse `json:"cart"`
}
