package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-numis/internal/cart"
	"github.com/noah-isme/backend-numis/internal/common"
	"github.com/noah-isme/backend-numis/internal/events"
	"github.com/noah-isme/backend-numis/internal/obs"
	"github.com/noah-isme/backend-numis/internal/order"
	"github.com/noah-isme/backend-numis/internal/pricing"
)

// Addr is the shipping address payload.
type Addr struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
}

// Input is the checkout request payload.
type Input struct {
	CartID  string `json:"cartId" validate:"required,uuid4"`
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"required"`
	Address Addr   `json:"address" validate:"required"`
}

// Output is returned after a successful checkout.
type Output struct {
	OrderID string          `json:"orderId"`
	Summary pricing.Summary `json:"summary"`
}

// Service turns a cart into an order.
type Service struct {
	Orders   *order.Store
	Carts    *cart.Service
	Validate *validator.Validate
	Events   *events.Bus
	Tax      pricing.Money
	Shipping pricing.Money
	Currency string
	Now      func() time.Time
}

// Create validates the payload, prices the cart, persists the order,
// emits order.created, and resets the cart.
func (s *Service) Create(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.Orders == nil || s.Carts == nil {
		return Output{}, errors.New("checkout: service not configured")
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return Output{}, &common.AppError{
				Code:       "VALIDATION",
				Message:    "invalid checkout payload",
				HTTPStatus: http.StatusBadRequest,
				Err:        err,
				Details:    validationDetails(err),
			}
		}
	}
	c, err := s.Carts.Get(ctx, in.CartID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return Output{}, &common.AppError{Code: "NOT_FOUND", Message: "cart not found", HTTPStatus: http.StatusNotFound, Err: err}
		}
		return Output{}, fmt.Errorf("load cart: %w", err)
	}
	if len(c.Lines) == 0 {
		return Output{}, &common.AppError{Code: "CART_EMPTY", Message: "cart is empty", HTTPStatus: http.StatusUnprocessableEntity}
	}

	items := make([]pricing.Item, 0, len(c.Lines))
	orderItems := make([]order.Item, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, pricing.Item{Qty: l.Quantity, UnitPrice: l.Price})
		orderItems = append(orderItems, order.Item{
			ProductID: l.ProductID,
			Title:     l.Title,
			UnitPrice: l.Price,
			Quantity:  l.Quantity,
			Free:      l.Free,
		})
	}
	summary := pricing.Compute(items, c.Discount(), s.Tax, s.Shipping)

	o := order.Order{
		Email:        in.Email,
		Name:         in.Name,
		AddressLine1: in.Address.Line1,
		AddressLine2: in.Address.Line2,
		City:         in.Address.City,
		PostalCode:   in.Address.PostalCode,
		Country:      in.Address.Country,
		Currency:     s.Currency,
		Subtotal:     summary.Subtotal,
		Discount:     summary.Discount,
		Tax:          summary.Tax,
		Shipping:     summary.Shipping,
		Total:        summary.Total,
		Items:        orderItems,
	}
	if c.Voucher != nil {
		o.VoucherCode = c.Voucher.Code
		o.VoucherKind = string(c.Voucher.Kind)
	}
	created, err := s.Orders.Create(ctx, o)
	if err != nil {
		return Output{}, fmt.Errorf("create order: %w", err)
	}
	if obs.OrdersCreatedTotal != nil {
		obs.OrdersCreatedTotal.Inc()
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderCreated, created.ID, map[string]any{
			"order_id": created.ID.String(),
			"total":    created.Total,
		})
	}
	if err := s.Carts.Reset(ctx, c.ID); err != nil {
		// The order is committed; an orphaned cart just expires.
		_ = err
	}
	return Output{OrderID: created.ID.String(), Summary: summary}, nil
}

func validationDetails(err error) any {
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return nil
	}
	fields := make([]string, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, fe.Namespace())
	}
	return map[string]any{"fields": fields}
}
