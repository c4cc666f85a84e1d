package pricing

import "testing"

func TestComputeTotals(t *testing.T) {
	items := []Item{
		{Qty: 2, UnitPrice: 190},
		{Qty: 1, UnitPrice: 4300},
	}
	sum := Compute(items, 430, 500, 1000)
	if sum.Subtotal != 4680 {
		t.Fatalf("subtotal = %d", sum.Subtotal)
	}
	if sum.Discount != 430 || sum.Tax != 500 || sum.Shipping != 1000 {
		t.Fatalf("components = %+v", sum)
	}
	if sum.Total != 4680-430+500+1000 {
		t.Fatalf("total = %d", sum.Total)
	}
}

func TestComputeEmptyCart(t *testing.T) {
	sum := Compute(nil, 0, 500, 1000)
	if sum != (Summary{}) {
		t.Fatalf("empty cart should have zero totals, got %+v", sum)
	}
}

func TestComputeClampsDiscount(t *testing.T) {
	items := []Item{{Qty: 1, UnitPrice: 100}}
	sum := Compute(items, 5000, 500, 1000)
	if sum.Discount != 100 {
		t.Fatalf("discount = %d", sum.Discount)
	}
	if sum.Total != 0+500+1000 {
		t.Fatalf("total = %d", sum.Total)
	}
}

func TestComputeIgnoresNonPositiveQty(t *testing.T) {
	items := []Item{{Qty: 0, UnitPrice: 999}, {Qty: -1, UnitPrice: 999}, {Qty: 1, UnitPrice: 50}}
	sum := Compute(items, 0, 0, 0)
	if sum.Subtotal != 50 {
		t.Fatalf("subtotal = %d", sum.Subtotal)
	}
}
