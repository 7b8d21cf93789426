package source

// api.go is the remote bulk source: one GET of the full product collection.
// The client performs no retries; a failed fetch aborts the whole sync run
// and the caller decides what to log. Retry policy, if ever wanted, belongs
// to the HTTP client handed in, not here.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/skusync/skusync/internal/catalog"
)

// Fetcher is the consumed interface of the remote product source: a single
// blocking call returning the full collection or a transport error.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]APIProduct, error)
}

// APIProduct is the element shape of the remote collection.
type APIProduct struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      json.Number     `json:"price"`
	Currency   string          `json:"currency"`
	Variations json.RawMessage `json:"variations"`
}

// Client fetches the product collection from the remote REST endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the given collection URL. A nil httpClient
// falls back to http.DefaultClient.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: url, httpClient: httpClient}
}

// FetchAll retrieves the full collection in one call. Any non-2xx response
// is a transport failure; the body is drained into the error for logging.
func (c *Client) FetchAll(ctx context.Context) ([]APIProduct, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("source: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: fetch products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("source: fetch products: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var products []APIProduct
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("source: decode products: %w", err)
	}
	return products, nil
}

// ToRecord converts an API element into the common raw-record shape. The
// API feed carries no SKU and no standalone quantity; status is always
// "sale" per source behavior, and the quantity derives from the variations
// during normalization.
func (p APIProduct) ToRecord() catalog.RawRecord {
	return catalog.RawRecord{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price.String(),
		Currency:   p.Currency,
		Variations: []byte(p.Variations),
		Status:     catalog.StatusSale,
	}
}
