package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oliverbray/shopsmart-backend/pkg/config"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
	"github.com/oliverbray/shopsmart-backend/pkg/types"
)

const (
	defaultBaseURL  = "https://world.openfoodfacts.org"
	defaultCountry  = "United Kingdom"
	defaultPageSize = 100
)

// Client wraps the Open Food Facts product APIs. Responses are mapped to
// types.ProductResult at this boundary; upstream field names never escape
// this package.
type Client struct {
	httpClient *http.Client
	baseURL    string
	country    string
	pageSize   int
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// NewClient builds an Open Food Facts client from the search configuration.
func NewClient(cfg config.SearchConfig, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    defaultBaseURL,
		country:    cfg.Country,
		pageSize:   cfg.PageSize,
	}
	if cfg.BaseURL != "" {
		client.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if client.country == "" {
		client.country = defaultCountry
	}
	if client.pageSize <= 0 {
		client.pageSize = defaultPageSize
	}
	if client.httpClient.Timeout == 0 {
		client.httpClient.Timeout = 15 * time.Second
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client
}

type productPayload struct {
	Code          string `json:"code"`
	ProductName   string `json:"product_name"`
	Brands        string `json:"brands"`
	ImageSmallURL string `json:"image_small_url"`
	Categories    string `json:"categories"`
	Stores        string `json:"stores"`
}

type lookupResponse struct {
	Status  int            `json:"status"`
	Product productPayload `json:"product"`
}

type searchResponse struct {
	Products []productPayload `json:"products"`
}

func (p productPayload) toResult(fallbackBarcode string) types.ProductResult {
	barcode := p.Code
	if barcode == "" {
		barcode = fallbackBarcode
	}
	return types.ProductResult{
		Barcode:      barcode,
		Name:         p.ProductName,
		Brand:        p.Brands,
		ImageURL:     p.ImageSmallURL,
		CategoryHint: p.Categories,
		StoreHint:    p.Stores,
	}
}

// LookupByBarcode fetches product metadata for a scanned barcode. The second
// return value is false when the upstream has no record for the code.
func (c *Client) LookupByBarcode(ctx context.Context, barcode string) (types.ProductResult, bool, error) {
	trimmed := strings.TrimSpace(barcode)
	if trimmed == "" {
		return types.ProductResult{}, false, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	endpoint := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(trimmed))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.ProductResult{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building lookup request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.ProductResult{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product lookup request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return types.ProductResult{}, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.ProductResult{}, false, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("product lookup returned status %d", resp.StatusCode))
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return types.ProductResult{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding lookup response")
	}
	if payload.Status == 0 {
		return types.ProductResult{}, false, nil
	}

	return payload.Product.toResult(trimmed), true, nil
}

// Search runs a free-text product search scoped to a store tag. Results are
// mapped to the internal shape immediately.
func (c *Client) Search(ctx context.Context, query, storeName string) ([]types.ProductResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}

	params := url.Values{}
	params.Set("action", "process")
	params.Set("search_terms", trimmed)
	params.Set("tagtype_0", "stores")
	params.Set("tag_contains_0", "contains")
	params.Set("tag_0", storeName)
	params.Set("tagtype_1", "countries")
	params.Set("tag_contains_1", "contains")
	params.Set("tag_1", c.country)
	params.Set("json", "true")
	params.Set("page_size", strconv.Itoa(c.pageSize))

	endpoint := fmt.Sprintf("%s/cgi/search.pl?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building search request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product search request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("product search returned status %d", resp.StatusCode))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding search response")
	}

	results := make([]types.ProductResult, 0, len(payload.Products))
	for _, product := range payload.Products {
		if product.Code == "" {
			continue
		}
		results = append(results, product.toResult(""))
	}
	return results, nil
}
