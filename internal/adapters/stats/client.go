// Package stats is the client over the interaction/recommendation engine.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventcatalog/internal/domain"
)

type engineClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	timeout time.Duration
}

// NewClient returns an InteractionStats backed by the engine at baseURL.
// Queries are bounded by timeout; telemetry emission runs detached on its own
// deadline and only ever logs failures.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) domain.InteractionStats {
	return &engineClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		timeout: timeout,
	}
}

func (c *engineClient) CountsFor(ctx context.Context, eventIDs []int64) (map[int64]float64, error) {
	if len(eventIDs) == 0 {
		return map[int64]float64{}, nil
	}
	parts := make([]string, len(eventIDs))
	for i, id := range eventIDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	u := fmt.Sprintf("%s/stats/interactions?event_ids=%s", c.baseURL, strings.Join(parts, ","))
	scores, err := c.fetchScores(ctx, u)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]float64, len(scores))
	for _, s := range scores {
		out[s.EventID] = s.Score
	}
	return out, nil
}

func (c *engineClient) RecommendationsFor(ctx context.Context, userID int64, limit int) ([]domain.RecommendedEvent, error) {
	u := fmt.Sprintf("%s/stats/recommendations?user_id=%d&limit=%d", c.baseURL, userID, limit)
	// The engine's response order is its relevance ranking; keep it intact.
	return c.fetchScores(ctx, u)
}

func (c *engineClient) fetchScores(ctx context.Context, url string) ([]domain.RecommendedEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from interaction engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("interaction engine returned status: %d", resp.StatusCode)
	}

	var scores []domain.RecommendedEvent
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return nil, fmt.Errorf("failed to decode interaction engine response: %w", err)
	}
	return scores, nil
}

type actionPayload struct {
	UserID  int64  `json:"user_id"`
	EventID int64  `json:"event_id"`
	Action  string `json:"action"`
}

// RecordAction posts the action on a detached goroutine so the request that
// triggered it never waits on the engine.
func (c *engineClient) RecordAction(actorID, eventID int64, kind domain.ActionKind) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		body, err := json.Marshal(actionPayload{UserID: actorID, EventID: eventID, Action: string(kind)})
		if err != nil {
			c.logger.Warn("action telemetry dropped", "kind", kind, "err", err)
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stats/actions", bytes.NewReader(body))
		if err != nil {
			c.logger.Warn("action telemetry dropped", "kind", kind, "err", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.client.Do(req)
		if err != nil {
			c.logger.Warn("action telemetry dropped", "kind", kind, "err", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			c.logger.Warn("action telemetry rejected", "kind", kind, "status", resp.StatusCode)
		}
	}()
}
