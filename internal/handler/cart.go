package handler

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Shade1269/atlannew-sub000/internal/domain"
)

// CartHandler exposes the session cart over JSON.
type CartHandler struct {
	carts  domain.CartService
	logger *slog.Logger
}

// NewCartHandler creates a cart handler.
func NewCartHandler(carts domain.CartService, logger *slog.Logger) *CartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartHandler{carts: carts, logger: logger}
}

type cartItemRequest struct {
	ProductID string  `json:"product_id" validate:"required"`
	ShopID    string  `json:"shop_id"`
	Name      string  `json:"name" validate:"required"`
	UnitPrice string  `json:"unit_price" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	WeightKG  float64 `json:"weight_kg"`
	ImageURL  string  `json:"image_url"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type cartItemResponse struct {
	ProductID string `json:"product_id"`
	ShopID    string `json:"shop_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
	ImageURL  string `json:"image_url,omitempty"`
}

type cartResponse struct {
	SessionID string             `json:"session_id"`
	Items     []cartItemResponse `json:"items"`
	Subtotal  string             `json:"subtotal"`
	ItemCount int                `json:"item_count"`
}

// GetCart handles GET /api/cart. A missing session id mints a new cart;
// the id comes back in both the body and the session header.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	summary, sid, err := h.carts.GetOrCreateCart(r.Context(), sessionID(r))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	w.Header().Set(SessionHeader, sid)
	JSONResponse(w, http.StatusOK, cartToResponse(summary))
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		ErrorResponse(w, r, domain.Invalid("cart.add_item", "Session id is required"))
		return
	}

	var req cartItemRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || unitPrice.IsNegative() {
		ErrorResponse(w, r, domain.Invalid("cart.add_item", "Invalid unit price"))
		return
	}

	summary, err := h.carts.AddItem(r.Context(), sid, domain.CartItem{
		ProductID: req.ProductID,
		ShopID:    req.ShopID,
		Name:      req.Name,
		UnitPrice: unitPrice,
		Quantity:  req.Quantity,
		WeightKG:  req.WeightKG,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, cartToResponse(summary))
}

// UpdateItem handles PUT /api/cart/items/{product_id}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		ErrorResponse(w, r, domain.Invalid("cart.update_item", "Session id is required"))
		return
	}

	var req cartQuantityRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	summary, err := h.carts.UpdateItemQuantity(r.Context(), sid, r.PathValue("product_id"), req.Quantity)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, cartToResponse(summary))
}

// RemoveItem handles DELETE /api/cart/items/{product_id}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		ErrorResponse(w, r, domain.Invalid("cart.remove_item", "Session id is required"))
		return
	}

	summary, err := h.carts.RemoveItem(r.Context(), sid, r.PathValue("product_id"))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, cartToResponse(summary))
}

func cartToResponse(summary *domain.CartSummary) cartResponse {
	items := make([]cartItemResponse, 0, len(summary.Items))
	for _, item := range summary.Items {
		items = append(items, cartItemResponse{
			ProductID: item.ProductID,
			ShopID:    item.ShopID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			Subtotal:  item.LineSubtotal().StringFixed(2),
			ImageURL:  item.ImageURL,
		})
	}
	return cartResponse{
		SessionID: summary.SessionID,
		Items:     items,
		Subtotal:  summary.Subtotal.StringFixed(2),
		ItemCount: summary.ItemCount,
	}
}
