// Package categories is the HTTP client over the external category catalog.
package categories

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventcatalog/internal/domain"
)

type catalogClient struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a CategoryCatalog that calls the category catalog at
// baseURL. Every call is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) domain.CategoryCatalog {
	return &catalogClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *catalogClient) ResolveMany(ctx context.Context, ids []int64) (map[int64]*domain.Category, error) {
	if len(ids) == 0 {
		return map[int64]*domain.Category{}, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	u := fmt.Sprintf("%s/categories?ids=%s", c.baseURL, strings.Join(parts, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("category catalog returned status: %d", resp.StatusCode)
	}

	var found []*domain.Category
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
		return nil, fmt.Errorf("failed to decode categories response: %w", err)
	}
	out := make(map[int64]*domain.Category, len(found))
	for _, cat := range found {
		out[cat.ID] = cat
	}
	return out, nil
}

func (c *catalogClient) ResolveOne(ctx context.Context, id int64) (*domain.Category, error) {
	u := fmt.Sprintf("%s/categories/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category %d: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: id %d", domain.ErrCategoryNotFound, id)
	default:
		return nil, fmt.Errorf("category catalog returned status: %d", resp.StatusCode)
	}

	cat := &domain.Category{}
	if err := json.NewDecoder(resp.Body).Decode(cat); err != nil {
		return nil, fmt.Errorf("failed to decode category response: %w", err)
	}
	return cat, nil
}
