package routes

import (
	"net/http"

	"github.com/Shade1269/atlannew-sub000/internal/handler"
	"github.com/Shade1269/atlannew-sub000/internal/router"
)

// Deps contains the handlers the API routes need.
type Deps struct {
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Carriers *handler.CarrierHandler

	// MetricsHandler serves Prometheus scrapes; nil disables the route.
	MetricsHandler http.Handler
}

// Register wires all API routes onto the router.
func Register(r *router.Router, deps Deps) {
	// Health and metrics
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if deps.MetricsHandler != nil {
		r.Handle(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// Cart
	r.Get("/api/cart", deps.Cart.GetCart)
	r.Post("/api/cart/items", deps.Cart.AddItem)
	r.Put("/api/cart/items/{product_id}", deps.Cart.UpdateItem)
	r.Delete("/api/cart/items/{product_id}", deps.Cart.RemoveItem)

	// Checkout flow
	r.Get("/api/checkout", deps.Checkout.GetCheckout)
	r.Post("/api/checkout/customer", deps.Checkout.UpdateCustomer)
	r.Post("/api/checkout/payment-method", deps.Checkout.SetPaymentMethod)
	r.Get("/api/checkout/quotes", deps.Checkout.Quotes)
	r.Post("/api/checkout/select-carrier", deps.Checkout.SelectCarrier)
	r.Get("/api/checkout/totals", deps.Checkout.Totals)

	// Orders and payments
	r.Post("/api/orders/create", deps.Checkout.PlaceOrder)
	r.Get("/api/orders/{id}", deps.Checkout.GetOrder)
	r.Get("/api/orders/number/{number}", deps.Checkout.GetOrderByNumber)
	r.Post("/api/payments/callback", deps.Checkout.PaymentCallback)

	// Carrier aggregator and invoicing integrations
	r.Get("/api/bolesa/available-carriers", deps.Carriers.AvailableCarriers)
	r.Post("/api/bolesa/create-order", deps.Carriers.CreateShipment)
	r.Post("/api/zoho/invoice", deps.Carriers.CreateInvoice)
}
