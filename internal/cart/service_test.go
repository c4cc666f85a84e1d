package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-numis/internal/cart"
	"github.com/noah-isme/backend-numis/internal/common"
	"github.com/noah-isme/backend-numis/internal/voucher"
)

type fakeCatalog struct {
	products []cart.Product
}

func (f *fakeCatalog) Product(_ context.Context, id string) (cart.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return cart.Product{}, cart.ErrUnknownProduct
}

func (f *fakeCatalog) All(context.Context) ([]cart.Product, error) {
	return append([]cart.Product(nil), f.products...), nil
}

func queuedIntn(values ...int) func(int) int {
	i := 0
	return func(n int) int {
		if i >= len(values) {
			return 0
		}
		v := values[i]
		i++
		return v % n
	}
}

func newTestService(t *testing.T, intn func(int) int) *cart.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &cart.Service{
		Store:   &cart.Store{R: client, TTL: time.Hour},
		Catalog: &fakeCatalog{products: testProducts()},
		Engine:  voucher.Engine{Intn: intn},
		Now:     func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func testProducts() []cart.Product {
	return []cart.Product{
		{ID: "mark-1914", Title: "1 Mark Darlehnskassenschein", Price: 190},
		{ID: "fiji-50", Title: "50 Dollars", Price: 4300},
		{ID: "pengo-1b", Title: "Egymilliárd B.-Pengő", Price: 120000},
	}
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Empty(t, created.Lines)

	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, loaded.ID)

	_, err = svc.Get(ctx, "missing-cart")
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	c, err := svc.Create(ctx)
	require.NoError(t, err)

	c, err = svc.AddItem(ctx, c.ID, "mark-1914", 2)
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, "mark-1914", 1)
	require.NoError(t, err)

	require.Len(t, c.Lines, 1)
	require.Equal(t, 3, c.Lines[0].Quantity)
	require.Equal(t, int64(190*3), c.Subtotal())

	_, err = svc.AddItem(ctx, c.ID, "not-a-product", 1)
	require.ErrorIs(t, err, cart.ErrInvalidInput)

	_, err = svc.AddItem(ctx, c.ID, "mark-1914", 0)
	require.ErrorIs(t, err, cart.ErrInvalidInput)
}

func TestRemoveItemDecrements(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	c, err := svc.Create(ctx)
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, "fiji-50", 2)
	require.NoError(t, err)

	c, err = svc.RemoveItem(ctx, c.ID, "fiji-50")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	require.Equal(t, 1, c.Lines[0].Quantity)

	c, err = svc.RemoveItem(ctx, c.ID, "fiji-50")
	require.NoError(t, err)
	require.Empty(t, c.Lines)

	_, err = svc.RemoveItem(ctx, c.ID, "fiji-50")
	require.ErrorIs(t, err, cart.ErrInvalidInput)
}

func TestApplyVoucherCart(t *testing.T) {
	svc := newTestService(t, queuedIntn(10)) // percent offset 10 -> 15%
	ctx := context.Background()
	c, err := svc.Create(ctx)
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, "fiji-50", 1)
	require.NoError(t, err)

	c, err = svc.ApplyVoucher(ctx, c.ID, " cart2024 ")
	require.NoError(t, err)
	require.NotNil(t, c.Voucher)
	require.Equal(t, voucher.KindCart, c.Voucher.Kind)
	require.Equal(t, "CART2024", c.Voucher.Code)
	require.Equal(t, 15, c.Voucher.Percent)
	require.Equal(t, int64(4300*15/100), c.Discount())
}

func TestApplyVoucherRejectedLeavesCartUntouched(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	c, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.ApplyVoucher(ctx, c.ID, "ITEM50")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VOUCHER_REJECTED", appErr.Code)
	require.Equal(t, 422, appErr.HTTPStatus)
	require.Equal(t, voucher.MsgEmptyCart, appErr.Message)

	_, err = svc.ApplyVoucher(ctx, c.ID, "BOGUS")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, voucher.MsgUnknownCode, appErr.Message)

	_, err = svc.ApplyVoucher(ctx, c.ID, "   ")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, voucher.MsgEmptyCode, appErr.Message)

	loaded, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Nil(t, loaded.Voucher)
	require.Empty(t, loaded.Lines)
}

func TestApplyVoucherFreeAddsZeroPriceLine(t *testing.T) {
	svc := newTestService(t, queuedIntn(2)) // catalog index 2 -> pengo-1b
	ctx := context.Background()
	c, err := svc.Create(ctx)
	require.NoError(t, err)

	c, err = svc.ApplyVoucher(ctx, c.ID, "FREEBIE")
	require.NoError(t, err)
	require.NotNil(t, c.Voucher)
	require.Equal(t, voucher.KindFree, c.Voucher.Kind)
	require.Equal(t, "pengo-1b", c.Voucher.ProductID)
	require.Equal(t, int64(120000), c.Voucher.CatalogPrice)

	require.Len(t, c.Lines, 1)
	free := c.Lines[0]
	require.True(t, free.Free)
	require.Equal(t, int64(0), free.Price)
	require.Equal(t, 1, free.Quantity)

	// Display shows the line at zero while accounting credits the
	// catalog price.
	require.Equal(t, int64(0), c.Subtotal())
	require.Equal(t, int64(120000), c.Discount())
}

func TestApplyVoucherReplacesPrevious(t *testing.T) {
	svc := newTestService(t, queuedIntn(0, 0, 0)) // free draw, then item line + percent
	ctx := context.Background()
	c, err := svc.Create(ctx)
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, "mark-1914", 1)
	require.NoError(t, err)

	c, err = svc.ApplyVoucher(ctx, c.ID, "FREE")
	require.NoError(t, err)
	require.Len(t, c.Lines, 2)

	c, err = svc.ApplyVoucher(ctx, c.ID, "ITEM10")
	require.NoError(t, err)
	require.Equal(t, voucher.KindItem, c.Voucher.Kind)
	// The free line from the replaced voucher is gone.
	require.Len(t, c.Lines, 1)
	require.False(t, c.Lines[0].Free)
	require.Equal(t, "mark-1914", c.Voucher.ProductID)
}

func TestApplyVoucherResolutionIgnoresFreeLine(t *testing.T) {
	// Cart holds one paid line plus the free line from a FREE voucher.
	// An ITEM code drawing index 0 must land on the paid line even
	// though the free line sits in the cart document.
	svc := newTestService(t, queuedIntn(1, 0, 0))
	ctx := context.Background()
	c, err := svc.Create(ctx)
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, "fiji-50", 1)
	require.NoError(t, err)

	c, err = svc.ApplyVoucher(ctx, c.ID, "FREE")
	require.NoError(t, err)
	require.Len(t, c.Lines, 2)

	c, err = svc.ApplyVoucher(ctx, c.ID, "ITEMX")
	require.NoError(t, err)
	require.Equal(t, "fiji-50", c.Voucher.ProductID)
}

func TestRemoveFreeLineClearsVoucher(t *testing.T) {
	svc := newTestService(t, queuedIntn(0))
	ctx := context.Background()
	c, err := svc.Create(ctx)
	require.NoError(t, err)
	c, err = svc.ApplyVoucher(ctx, c.ID, "FREE")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)

	c, err = svc.RemoveItem(ctx, c.ID, c.Lines[0].ProductID)
	require.NoError(t, err)
	require.Empty(t, c.Lines)
	require.Nil(t, c.Voucher)
}

func TestRemoveVoucher(t *testing.T) {
	svc := newTestService(t, queuedIntn(0, 3))
	ctx := context.Background()
	c, err := svc.Create(ctx)
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, c.ID, "mark-1914", 1)
	require.NoError(t, err)
	c, err = svc.ApplyVoucher(ctx, c.ID, "CART")
	require.NoError(t, err)
	require.NotNil(t, c.Voucher)

	c, err = svc.RemoveVoucher(ctx, c.ID)
	require.NoError(t, err)
	require.Nil(t, c.Voucher)
	require.Len(t, c.Lines, 1)
}

func TestReset(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	c, err := svc.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, c.ID))
	_, err = svc.Get(ctx, c.ID)
	require.ErrorIs(t, err, cart.ErrNotFound)
}
