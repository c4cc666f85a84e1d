package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-numis/internal/common"
	"github.com/noah-isme/backend-numis/internal/events"
	"github.com/noah-isme/backend-numis/internal/lock"
	"github.com/noah-isme/backend-numis/internal/obs"
	"github.com/noah-isme/backend-numis/internal/voucher"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Line is a cart entry. Free lines are voucher bookkeeping: they render
// at price zero and never participate in voucher resolution.
type Line struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Free      bool   `json:"free,omitempty"`
}

// Cart is the persisted cart document.
type Cart struct {
	ID        string           `json:"id"`
	Lines     []Line           `json:"lines"`
	Voucher   *voucher.Applied `json:"voucher,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Subtotal sums every line at its in-cart price. Free lines contribute
// zero by construction.
func (c Cart) Subtotal() int64 {
	var total int64
	for _, l := range c.Lines {
		if l.Quantity <= 0 {
			continue
		}
		total += l.Price * int64(l.Quantity)
	}
	return total
}

// Discount computes the cents saved by the applied voucher, if any.
func (c Cart) Discount() int64 {
	if c.Voucher == nil {
		return 0
	}
	return voucher.DiscountAmount(*c.Voucher, c.Subtotal(), voucherLines(c.Lines))
}

// Product is the catalog view the cart service needs when adding items
// and resolving FREE vouchers.
type Product struct {
	ID          string
	Title       string
	Description string
	Price       int64
	ImageURL    string
}

// CatalogProvider supplies product lookups and the full catalog snapshot.
type CatalogProvider interface {
	Product(ctx context.Context, id string) (Product, error)
	All(ctx context.Context) ([]Product, error)
}

// ErrUnknownProduct is returned by CatalogProvider implementations when
// the product id does not exist.
var ErrUnknownProduct = errors.New("unknown product")

// Service encapsulates cart domain operations. Mutations are serialised
// per cart with a Redis lock so concurrent requests cannot interleave
// read-modify-write cycles.
type Service struct {
	Store   *Store
	Catalog CatalogProvider
	Engine  voucher.Engine
	Locker  lock.Locker
	LockTTL time.Duration
	Events  *events.Bus
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL > 0 {
		return s.LockTTL
	}
	return 5 * time.Second
}

// Create provisions an empty cart.
func (s *Service) Create(ctx context.Context) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart: service not configured")
	}
	now := s.now()
	c := Cart{ID: uuid.NewString(), Lines: []Line{}, CreatedAt: now, UpdatedAt: now}
	if err := s.Store.Save(ctx, c); err != nil {
		return Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// Get loads a cart by id.
func (s *Service) Get(ctx context.Context, id string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart: service not configured")
	}
	if id == "" {
		return Cart{}, fmt.Errorf("cart id required: %w", ErrInvalidInput)
	}
	return s.Store.Load(ctx, id)
}

// AddItem puts qty units of the product into the cart. An existing line
// for the same product is incremented instead of duplicated.
func (s *Service) AddItem(ctx context.Context, id, productID string, qty int) (Cart, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return Cart{}, errors.New("cart: service not configured")
	}
	if qty <= 0 {
		return Cart{}, fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
	}
	product, err := s.Catalog.Product(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrUnknownProduct) {
			return Cart{}, fmt.Errorf("unknown product %q: %w", productID, ErrInvalidInput)
		}
		return Cart{}, fmt.Errorf("load product: %w", err)
	}
	var updated Cart
	err = s.withCartLock(ctx, id, func(ctx context.Context) error {
		c, err := s.Store.Load(ctx, id)
		if err != nil {
			return err
		}
		found := false
		for i := range c.Lines {
			if c.Lines[i].ProductID == productID && !c.Lines[i].Free {
				c.Lines[i].Quantity += qty
				found = true
				break
			}
		}
		if !found {
			c.Lines = append(c.Lines, Line{
				ProductID: product.ID,
				Title:     product.Title,
				Price:     product.Price,
				Quantity:  qty,
			})
		}
		c.UpdatedAt = s.now()
		updated = c
		return s.Store.Save(ctx, c)
	})
	return updated, err
}

// RemoveItem decrements the line for the product and drops it at zero.
// Removing the voucher's free line also removes the voucher.
func (s *Service) RemoveItem(ctx context.Context, id, productID string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart: service not configured")
	}
	var updated Cart
	err := s.withCartLock(ctx, id, func(ctx context.Context) error {
		c, err := s.Store.Load(ctx, id)
		if err != nil {
			return err
		}
		idx := -1
		for i := range c.Lines {
			if c.Lines[i].ProductID == productID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("product not in cart: %w", ErrInvalidInput)
		}
		line := c.Lines[idx]
		if line.Free {
			c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
			c.Voucher = nil
		} else {
			c.Lines[idx].Quantity--
			if c.Lines[idx].Quantity <= 0 {
				c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
			}
		}
		c.UpdatedAt = s.now()
		updated = c
		return s.Store.Save(ctx, c)
	})
	return updated, err
}

// ApplyVoucher resolves code against the cart and catalog. A rejected
// code leaves the cart untouched and surfaces the engine message; a
// successful one replaces any previously applied voucher.
func (s *Service) ApplyVoucher(ctx context.Context, id, code string) (Cart, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return Cart{}, errors.New("cart: service not configured")
	}
	var updated Cart
	err := s.withCartLock(ctx, id, func(ctx context.Context) error {
		c, err := s.Store.Load(ctx, id)
		if err != nil {
			return err
		}
		// Strip the previous voucher's free line so resolution only
		// sees purchasable content.
		base := withoutFreeLines(c.Lines)
		products, err := s.Catalog.All(ctx)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		res := s.Engine.Apply(code, voucherLines(base), catalogItems(products))
		if res.Kind == voucher.KindError {
			if obs.VoucherRejectedTotal != nil {
				obs.VoucherRejectedTotal.WithLabelValues(rejectionReason(res.Message)).Inc()
			}
			return &common.AppError{
				Code:       "VOUCHER_REJECTED",
				Message:    res.Message,
				HTTPStatus: http.StatusUnprocessableEntity,
			}
		}
		applied := res.Stored(code)
		c.Lines = base
		c.Voucher = &applied
		if res.Kind == voucher.KindFree && res.Product != nil {
			c.Lines = append(c.Lines, Line{
				ProductID: res.Product.ID,
				Title:     res.Product.Name,
				Price:     0,
				Quantity:  1,
				Free:      true,
			})
		}
		c.UpdatedAt = s.now()
		if err := s.Store.Save(ctx, c); err != nil {
			return err
		}
		if obs.VoucherAppliedTotal != nil {
			obs.VoucherAppliedTotal.WithLabelValues(string(applied.Kind)).Inc()
		}
		s.emitVoucherApplied(ctx, c, applied)
		updated = c
		return nil
	})
	return updated, err
}

// RemoveVoucher clears the applied voucher and its free line, if any.
func (s *Service) RemoveVoucher(ctx context.Context, id string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart: service not configured")
	}
	var updated Cart
	err := s.withCartLock(ctx, id, func(ctx context.Context) error {
		c, err := s.Store.Load(ctx, id)
		if err != nil {
			return err
		}
		c.Lines = withoutFreeLines(c.Lines)
		c.Voucher = nil
		c.UpdatedAt = s.now()
		updated = c
		return s.Store.Save(ctx, c)
	})
	return updated, err
}

// Reset deletes the cart document. Checkout calls this after the order
// is committed.
func (s *Service) Reset(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart: service not configured")
	}
	return s.Store.Delete(ctx, id)
}

func (s *Service) withCartLock(ctx context.Context, id string, fn func(context.Context) error) error {
	if id == "" {
		return fmt.Errorf("cart id required: %w", ErrInvalidInput)
	}
	if s.Locker.R == nil {
		return fn(ctx)
	}
	return s.Locker.WithLock(ctx, "lock:cart:"+id, s.lockTTL(), fn)
}

func (s *Service) emitVoucherApplied(ctx context.Context, c Cart, applied voucher.Applied) {
	if s.Events == nil {
		return
	}
	cartID, err := uuid.Parse(c.ID)
	if err != nil {
		return
	}
	base := withoutFreeLines(c.Lines)
	subtotal := Cart{Lines: base}.Subtotal()
	payload := map[string]any{
		"code":            applied.Code,
		"kind":            applied.Kind,
		"discount_amount": voucher.DiscountAmount(applied, subtotal, voucherLines(base)),
	}
	if applied.Kind == voucher.KindFree {
		payload["free_product_id"] = applied.ProductID
	}
	// Fan-out failures are logged by the bus consumers; the cart write
	// already succeeded.
	_, _ = s.Events.Emit(ctx, events.TopicVoucherApplied, cartID, payload)
}

func withoutFreeLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Free {
			continue
		}
		out = append(out, l)
	}
	return out
}

func voucherLines(lines []Line) []voucher.Line {
	out := make([]voucher.Line, 0, len(lines))
	for _, l := range lines {
		if l.Free {
			continue
		}
		out = append(out, voucher.Line{ID: l.ProductID, Price: l.Price, Quantity: l.Quantity})
	}
	return out
}

func catalogItems(products []Product) []voucher.CatalogItem {
	out := make([]voucher.CatalogItem, 0, len(products))
	for _, p := range products {
		out = append(out, voucher.CatalogItem{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
		})
	}
	return out
}

func rejectionReason(message string) string {
	switch message {
	case voucher.MsgEmptyCode:
		return "empty_code"
	case voucher.MsgEmptyCart:
		return "empty_cart"
	case voucher.MsgEmptyCatalog:
		return "empty_catalog"
	default:
		return "unknown_code"
	}
}
