// Package users is the HTTP client over the external identity directory.
package users

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

type directoryClient struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a UserDirectory that calls the identity directory at
// baseURL. Every call is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) domain.UserDirectory {
	return &directoryClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *directoryClient) ResolveMany(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	if len(ids) == 0 {
		return map[int64]*domain.User{}, nil
	}
	u := fmt.Sprintf("%s/admin/users?ids=%s", c.baseURL, joinIDs(ids))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity directory returned status: %d", resp.StatusCode)
	}

	var found []*domain.User
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
		return nil, fmt.Errorf("failed to decode users response: %w", err)
	}
	out := make(map[int64]*domain.User, len(found))
	for _, u := range found {
		out[u.ID] = u
	}
	return out, nil
}

func (c *directoryClient) ResolveOne(ctx context.Context, id int64) (*domain.User, error) {
	u := fmt.Sprintf("%s/admin/users/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %d: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: id %d", domain.ErrUserNotFound, id)
	default:
		return nil, fmt.Errorf("identity directory returned status: %d", resp.StatusCode)
	}

	user := &domain.User{}
	if err := json.NewDecoder(resp.Body).Decode(user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	return user, nil
}

// joinIDs renders ids as a comma-separated query value.
func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
