package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-numis/internal/catalog"
)

type banknotesResponse struct {
	Data       []catalog.Banknote `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

type banknoteDetailResponse struct {
	Data catalog.Banknote `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newFakeStore() *fakeStore {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &fakeStore{notes: []catalog.Banknote{
		{ID: "a1", Slug: "1-mark-1914", Title: "1 Mark Darlehnskassenschein", Price: 190, Currency: "USD", Country: "Germany", Year: 1914, InStock: true, CreatedAt: now},
		{ID: "b2", Slug: "50-dollars-fiji", Title: "50 Dollars", Price: 4300, Currency: "USD", Country: "Fiji", Year: 2020, InStock: true, CreatedAt: now.Add(time.Hour)},
		{ID: "c3", Slug: "egymilliard-b-pengo", Title: "Egymilliárd B.-Pengő", Price: 120000, Currency: "USD", Country: "Hungary", Year: 1946, InStock: true, CreatedAt: now.Add(2 * time.Hour)},
	}}
}

type fakeStore struct {
	notes []catalog.Banknote
}

func (f *fakeStore) filter(params catalog.ListParams) []catalog.Banknote {
	out := make([]catalog.Banknote, 0, len(f.notes))
	for _, n := range f.notes {
		if q := strings.ToLower(params.Query); q != "" {
			if !strings.Contains(strings.ToLower(n.Title), q) && !strings.Contains(strings.ToLower(n.Country), q) {
				continue
			}
		}
		if params.MinPrice != nil && n.Price < *params.MinPrice {
			continue
		}
		if params.MaxPrice != nil && n.Price > *params.MaxPrice {
			continue
		}
		out = append(out, n)
	}
	switch params.Sort {
	case "price_asc":
		sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case "price_desc":
		sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case "newest":
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}

func (f *fakeStore) Count(_ context.Context, params catalog.ListParams) (int64, error) {
	return int64(len(f.filter(params))), nil
}

func (f *fakeStore) List(_ context.Context, params catalog.ListParams) ([]catalog.Banknote, error) {
	filtered := f.filter(params)
	start := (params.Page - 1) * params.Limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + params.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}

func (f *fakeStore) GetBySlug(_ context.Context, slug string) (catalog.Banknote, error) {
	for _, n := range f.notes {
		if n.Slug == slug {
			return n, nil
		}
	}
	return catalog.Banknote{}, catalog.ErrNotFound
}

func (f *fakeStore) GetByID(_ context.Context, id string) (catalog.Banknote, error) {
	for _, n := range f.notes {
		if n.ID == id {
			return n, nil
		}
	}
	return catalog.Banknote{}, catalog.ErrNotFound
}

func (f *fakeStore) All(context.Context) ([]catalog.Banknote, error) {
	return append([]catalog.Banknote(nil), f.notes...), nil
}

func newTestHandler(t *testing.T) *catalog.Handler {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Store:        newFakeStore(),
		DefaultPage:  1,
		DefaultLimit: 20,
		MaxLimit:     100,
	})
	require.NoError(t, err)
	return catalog.NewHandler(catalog.HandlerConfig{Service: svc})
}

func TestBanknotesList(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/banknotes?limit=2&sort=price_desc", nil)
	rec := httptest.NewRecorder()
	handler.Banknotes(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3", rec.Header().Get("X-Total-Count"))

	var resp banknotesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, "Egymilliárd B.-Pengő", resp.Data[0].Title)
	require.Equal(t, int64(120000), resp.Data[0].Price)
	require.Equal(t, 1, resp.Pagination.Page)
	require.Equal(t, 2, resp.Pagination.PerPage)
	require.Equal(t, 3, resp.Pagination.TotalItems)
}

func TestBanknotesFilterByQueryAndPrice(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/banknotes?q=fiji&min_price=1000&max_price=10000", nil)
	rec := httptest.NewRecorder()
	handler.Banknotes(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp banknotesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "50-dollars-fiji", resp.Data[0].Slug)
}

func TestBanknotesRejectsBadParams(t *testing.T) {
	handler := newTestHandler(t)

	for _, query := range []string{"page=0", "limit=-1", "min_price=abc", "min_price=500&max_price=100"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/banknotes?"+query, nil)
		rec := httptest.NewRecorder()
		handler.Banknotes(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, query)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "BAD_REQUEST", resp.Error.Code)
	}
}

func TestBanknoteDetail(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/banknotes/1-mark-1914", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("slug", "1-mark-1914")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	handler.BanknoteDetail(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp banknoteDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "1 Mark Darlehnskassenschein", resp.Data.Title)
	require.Equal(t, "Germany", resp.Data.Country)
}

func TestBanknoteDetailNotFound(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/banknotes/missing", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("slug", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	handler.BanknoteDetail(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "NOT_FOUND", resp.Error.Code)
}
