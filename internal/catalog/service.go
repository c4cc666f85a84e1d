package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/backend-numis/internal/common"
)

// Banknote is the public catalog entry.
type Banknote struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Currency    string    `json:"currency"`
	ImageURL    string    `json:"imageUrl"`
	Country     string    `json:"country"`
	Year        int       `json:"year"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ErrNotFound indicates the requested banknote does not exist.
var ErrNotFound = errors.New("banknote not found")

type store interface {
	Count(ctx context.Context, params ListParams) (int64, error)
	List(ctx context.Context, params ListParams) ([]Banknote, error)
	GetBySlug(ctx context.Context, slug string) (Banknote, error)
	GetByID(ctx context.Context, id string) (Banknote, error)
	All(ctx context.Context) ([]Banknote, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	store        store
	cache        *Cache
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        store
	Cache        *Cache
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for banknote listing.
type ListParams struct {
	Query    string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
	Page     int
	Limit    int
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Banknote
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Query = strings.TrimSpace(values.Get("q"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}

	limit := s.defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		limit = l
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	params.Limit = limit

	if v := strings.TrimSpace(values.Get("min_price")); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return params, badRequest("min_price", "min_price must be a valid integer", err)
		}
		params.MinPrice = &parsed
	}
	if v := strings.TrimSpace(values.Get("max_price")); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return params, badRequest("max_price", "max_price must be a valid integer", err)
		}
		params.MaxPrice = &parsed
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		return params, badRequest("price", "min_price cannot be greater than max_price", fmt.Errorf("invalid price range"))
	}

	params.Sort = normalizeSort(values.Get("sort"))
	return params, nil
}

// List returns the filtered banknote list with pagination metadata. The
// unfiltered first page is served from cache when available.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	key, shouldUseCache := s.listCacheKey(params)
	if shouldUseCache && s.cache != nil {
		var cached cachedList
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			return ListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
	}

	total, err := s.store.Count(ctx, params)
	if err != nil {
		return ListResult{}, fmt.Errorf("count banknotes: %w", err)
	}
	items, err := s.store.List(ctx, params)
	if err != nil {
		return ListResult{}, fmt.Errorf("list banknotes: %w", err)
	}
	result := ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	if shouldUseCache && s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	}
	return result, nil
}

// GetBySlug returns the banknote detail payload.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Banknote, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Banknote{}, badRequest("slug", "slug is required", nil)
	}
	cacheKey := detailCacheKey(slug)
	if s.cache != nil {
		var cached Banknote
		ok, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && ok {
			return cached, nil
		}
	}
	note, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Banknote{}, &common.AppError{Code: "NOT_FOUND", Message: "banknote not found", HTTPStatus: http.StatusNotFound, Err: err}
		}
		return Banknote{}, fmt.Errorf("get banknote by slug: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey, note)
	}
	return note, nil
}

// GetByID returns a banknote by primary key. Cart additions resolve
// products this way.
func (s *Service) GetByID(ctx context.Context, id string) (Banknote, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Banknote{}, badRequest("id", "id is required", nil)
	}
	return s.store.GetByID(ctx, id)
}

// All returns the full catalog snapshot. Free-item vouchers draw from it.
func (s *Service) All(ctx context.Context) ([]Banknote, error) {
	if s.cache != nil {
		var cached []Banknote
		ok, err := s.cache.GetJSON(ctx, allCacheKey, &cached)
		if err == nil && ok {
			return cached, nil
		}
	}
	notes, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, allCacheKey, notes)
	}
	return notes, nil
}

type cachedList struct {
	Items []Banknote `json:"items"`
	Total int64      `json:"total"`
}

const allCacheKey = "catalog:banknotes:all"

func (s *Service) listCacheKey(params ListParams) (string, bool) {
	if params.Page != s.defaultPage {
		return "", false
	}
	if params.Limit != s.defaultLimit {
		return "", false
	}
	if params.Query != "" || params.MinPrice != nil || params.MaxPrice != nil || params.Sort != "" {
		return "", false
	}
	return "catalog:banknotes:list:front", true
}

func detailCacheKey(slug string) string {
	return "catalog:banknotes:detail:" + slug
}

func normalizeSort(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "price_asc", "price_desc", "newest":
		return s
	default:
		return ""
	}
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
