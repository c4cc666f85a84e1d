package voucher

import (
	"strings"
	"testing"
)

// fixedIntn returns the queued values in order, then zero.
func fixedIntn(values ...int) func(int) int {
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

var sampleLines = []Line{
	{ID: "mark-1914", Price: 190, Quantity: 2},
	{ID: "fiji-50", Price: 4300, Quantity: 1},
}

var sampleCatalog = []CatalogItem{
	{ID: "mark-1914", Title: "1 Mark", Price: 190},
	{ID: "fiji-50", Title: "50 Dollars", Price: 4300},
	{ID: "pengo-1b", Title: "Egymilliárd B.-Pengő", Price: 120000},
}

func TestApplyEmptyCode(t *testing.T) {
	e := Engine{}
	for _, code := range []string{"", "   ", "\t\n"} {
		res := e.Apply(code, sampleLines, sampleCatalog)
		if res.Kind != KindError || res.Message != MsgEmptyCode {
			t.Fatalf("code %q: got %+v", code, res)
		}
	}
}

func TestApplyUnknownCode(t *testing.T) {
	res := Engine{}.Apply("SAVE20", sampleLines, sampleCatalog)
	if res.Kind != KindError || res.Message != MsgUnknownCode {
		t.Fatalf("got %+v", res)
	}
}

func TestApplyItem(t *testing.T) {
	e := Engine{Intn: fixedIntn(1, 7)} // line index 1, then percent offset 7
	res := e.Apply("  item2024 ", sampleLines, sampleCatalog)
	if res.Kind != KindItem {
		t.Fatalf("kind = %s", res.Kind)
	}
	if res.ProductID != "fiji-50" {
		t.Fatalf("product = %s", res.ProductID)
	}
	if res.Percent != MinPercent+7 {
		t.Fatalf("percent = %d", res.Percent)
	}
}

func TestApplyItemEmptyCart(t *testing.T) {
	res := Engine{}.Apply("ITEMX", nil, sampleCatalog)
	if res.Kind != KindError || res.Message != MsgEmptyCart {
		t.Fatalf("got %+v", res)
	}
}

func TestApplyCart(t *testing.T) {
	e := Engine{Intn: fixedIntn(15)}
	res := e.Apply("cartwheel", sampleLines, sampleCatalog)
	if res.Kind != KindCart {
		t.Fatalf("kind = %s", res.Kind)
	}
	if res.Percent != MaxPercent {
		t.Fatalf("percent = %d", res.Percent)
	}
	if res.ProductID != "" {
		t.Fatalf("cart result should not name a product, got %q", res.ProductID)
	}
}

func TestApplyCartEmptyCart(t *testing.T) {
	res := Engine{}.Apply("CART", []Line{}, sampleCatalog)
	if res.Kind != KindError || res.Message != MsgEmptyCart {
		t.Fatalf("got %+v", res)
	}
}

func TestApplyFree(t *testing.T) {
	e := Engine{Intn: fixedIntn(2)}
	res := e.Apply("FREEBIE", nil, sampleCatalog)
	if res.Kind != KindFree {
		t.Fatalf("kind = %s", res.Kind)
	}
	p := res.Product
	if p == nil {
		t.Fatal("missing product")
	}
	if p.ID != "pengo-1b" || p.Name != "Egymilliárd B.-Pengő" {
		t.Fatalf("picked %+v", p)
	}
	if p.Price != 0 || p.Currency != "USD" || p.Quantity != 1 {
		t.Fatalf("free product not normalized: %+v", p)
	}
	if res.CatalogPrice != 120000 {
		t.Fatalf("catalog price = %d", res.CatalogPrice)
	}
}

func TestApplyFreeEmptyCatalog(t *testing.T) {
	res := Engine{}.Apply("FREE", sampleLines, nil)
	if res.Kind != KindError || res.Message != MsgEmptyCatalog {
		t.Fatalf("got %+v", res)
	}
}

func TestApplyPercentRange(t *testing.T) {
	e := Engine{}
	for i := 0; i < 500; i++ {
		res := e.Apply("CART", sampleLines, nil)
		if res.Percent < MinPercent || res.Percent > MaxPercent {
			t.Fatalf("percent %d out of range", res.Percent)
		}
	}
}

func TestApplyDoesNotMutateInputs(t *testing.T) {
	lines := []Line{{ID: "a", Price: 100, Quantity: 1}}
	catalog := []CatalogItem{{ID: "a", Title: "A", Price: 100}}
	res := Engine{Intn: fixedIntn(0)}.Apply("FREE", lines, catalog)
	if res.Product != nil {
		res.Product.Name = "mutated"
	}
	if catalog[0].Title != "A" || lines[0].Price != 100 {
		t.Fatal("inputs mutated")
	}
}

func TestApplyNormalizesPrefixCase(t *testing.T) {
	for _, code := range []string{"item9", "Item9", "ITEM9", " iTeM9 "} {
		res := Engine{Intn: fixedIntn(0, 0)}.Apply(code, sampleLines, nil)
		if res.Kind != KindItem {
			t.Fatalf("code %q: kind = %s", code, res.Kind)
		}
	}
}

func TestStored(t *testing.T) {
	free := Engine{Intn: fixedIntn(0)}.Apply("free ", nil, sampleCatalog)
	a := free.Stored("free ")
	if a.Code != "FREE" {
		t.Fatalf("code = %q", a.Code)
	}
	if a.Kind != KindFree || a.ProductID != "mark-1914" || a.CatalogPrice != 190 {
		t.Fatalf("stored = %+v", a)
	}

	item := Engine{Intn: fixedIntn(1, 5)}.Apply("ITEMX", sampleLines, nil)
	sa := item.Stored("itemx")
	if sa.ProductID != "fiji-50" || sa.Percent != MinPercent+5 {
		t.Fatalf("stored = %+v", sa)
	}
	if !strings.EqualFold(sa.Code, "ITEMX") {
		t.Fatalf("code = %q", sa.Code)
	}
}

func TestDiscountAmount(t *testing.T) {
	lines := []Line{
		{ID: "mark-1914", Price: 190, Quantity: 2},
		{ID: "fiji-50", Price: 4300, Quantity: 1},
	}
	subtotal := int64(190*2 + 4300)

	cases := []struct {
		name    string
		applied Applied
		want    int64
	}{
		{"item", Applied{Kind: KindItem, ProductID: "fiji-50", Percent: 10}, 430},
		{"item truncates", Applied{Kind: KindItem, ProductID: "mark-1914", Percent: 7}, 26}, // 380*7/100
		{"item line gone", Applied{Kind: KindItem, ProductID: "missing", Percent: 10}, 0},
		{"cart", Applied{Kind: KindCart, Percent: 20}, subtotal * 20 / 100},
		{"free", Applied{Kind: KindFree, ProductID: "pengo-1b", CatalogPrice: 120000}, 120000},
		{"zero value", Applied{}, 0},
	}
	for _, tc := range cases {
		if got := DiscountAmount(tc.applied, subtotal, lines); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}
