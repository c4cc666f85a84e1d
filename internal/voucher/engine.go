// Package voucher resolves promotional codes against a cart and the
// catalog. The engine is pure: no storage, no clock, and randomness is
// injected so callers (and tests) control the draws.
package voucher

import (
	"math/rand"
	"strings"
)

// Kind tags the outcome of a resolution.
type Kind string

const (
	KindItem  Kind = "item"
	KindCart  Kind = "cart"
	KindFree  Kind = "free"
	KindError Kind = "error"
)

// Percentage discounts are drawn uniformly from [MinPercent, MaxPercent].
const (
	MinPercent = 5
	MaxPercent = 20
)

// The complete error taxonomy. Messages are shown to shoppers verbatim.
const (
	MsgEmptyCode    = "Please enter a voucher code."
	MsgEmptyCart    = "Cart is empty. Add items before using this voucher."
	MsgEmptyCatalog = "No products available for free item."
	MsgUnknownCode  = "Invalid voucher code."
)

// Line is the cart line view the engine resolves against.
type Line struct {
	ID       string
	Price    int64
	Quantity int
}

// CatalogItem is a purchasable product as the engine sees it.
type CatalogItem struct {
	ID          string
	Title       string
	Description string
	Price       int64
	ImageURL    string
}

// FreeProduct is the synthetic zero-price product granted by FREE codes.
type FreeProduct struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Currency    string
	ImageURL    string
	Quantity    int
}

// Result is the outcome of Apply. Exactly one variant is populated,
// selected by Kind.
type Result struct {
	Kind Kind

	// item and cart
	Percent int
	// item only
	ProductID string

	// free only
	Product      *FreeProduct
	CatalogPrice int64

	// error only
	Message string
}

// Applied is the stored shape of a successful resolution, kept on the
// cart and denormalized onto orders.
type Applied struct {
	Code         string `json:"code"`
	Kind         Kind   `json:"kind"`
	Percent      int    `json:"percent,omitempty"`
	ProductID    string `json:"productId,omitempty"`
	CatalogPrice int64  `json:"catalogPrice,omitempty"`
}

// Engine resolves voucher codes. Intn must behave like rand.Intn; when
// nil the global math/rand source is used.
type Engine struct {
	Intn func(n int) int
}

func (e Engine) intn(n int) int {
	if e.Intn != nil {
		return e.Intn(n)
	}
	return rand.Intn(n)
}

func (e Engine) percent() int {
	return MinPercent + e.intn(MaxPercent-MinPercent+1)
}

// Apply resolves code against the cart lines and catalog snapshot.
// Codes are matched case-insensitively by prefix after trimming. Inputs
// are never mutated.
func (e Engine) Apply(code string, lines []Line, catalog []CatalogItem) Result {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return Result{Kind: KindError, Message: MsgEmptyCode}
	}
	switch {
	case strings.HasPrefix(normalized, "ITEM"):
		if len(lines) == 0 {
			return Result{Kind: KindError, Message: MsgEmptyCart}
		}
		picked := lines[e.intn(len(lines))]
		return Result{Kind: KindItem, ProductID: picked.ID, Percent: e.percent()}
	case strings.HasPrefix(normalized, "CART"):
		if len(lines) == 0 {
			return Result{Kind: KindError, Message: MsgEmptyCart}
		}
		return Result{Kind: KindCart, Percent: e.percent()}
	case strings.HasPrefix(normalized, "FREE"):
		if len(catalog) == 0 {
			return Result{Kind: KindError, Message: MsgEmptyCatalog}
		}
		item := catalog[e.intn(len(catalog))]
		return Result{
			Kind: KindFree,
			Product: &FreeProduct{
				ID:          item.ID,
				Name:        item.Title,
				Description: item.Description,
				Price:       0,
				Currency:    "USD",
				ImageURL:    item.ImageURL,
				Quantity:    1,
			},
			CatalogPrice: item.Price,
		}
	}
	return Result{Kind: KindError, Message: MsgUnknownCode}
}

// Stored converts a successful Result into its persisted shape. The
// normalized code is recorded, not the raw user input.
func (r Result) Stored(code string) Applied {
	a := Applied{
		Code:    strings.ToUpper(strings.TrimSpace(code)),
		Kind:    r.Kind,
		Percent: r.Percent,
	}
	switch r.Kind {
	case KindItem:
		a.ProductID = r.ProductID
	case KindFree:
		if r.Product != nil {
			a.ProductID = r.Product.ID
		}
		a.CatalogPrice = r.CatalogPrice
	}
	return a
}

// DiscountAmount computes the cents knocked off an order for an applied
// voucher. subtotal and line prices are minor units; percentage math
// truncates toward zero.
func DiscountAmount(a Applied, subtotal int64, lines []Line) int64 {
	switch a.Kind {
	case KindItem:
		for _, l := range lines {
			if l.ID == a.ProductID {
				return l.Price * int64(l.Quantity) * int64(a.Percent) / 100
			}
		}
		return 0
	case KindCart:
		return subtotal * int64(a.Percent) / 100
	case KindFree:
		return a.CatalogPrice
	}
	return 0
}
