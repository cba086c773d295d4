package recommender

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/domain"
)

// Client communicates with the external recommender service that proposes
// replacement candidates beyond the static reference feed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new recommender service client.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log.With().Str("component", "recommender_client").Logger(),
	}
}

// recommendResponse is the recommender service payload.
type recommendResponse struct {
	Alternative domain.Replacement `json:"alternative"`
}

// FetchAlternative asks the recommender for one replacement candidate for
// the given original, excluding the rejected candidate.
func (c *Client) FetchAlternative(ctx context.Context, originalID, rejectedID string) (domain.Replacement, error) {
	query := url.Values{}
	query.Set("original_id", originalID)
	if rejectedID != "" {
		query.Set("rejected_id", rejectedID)
	}

	endpoint := fmt.Sprintf("%s/recommend?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Replacement{}, fmt.Errorf("failed to create request: %w", err)
	}

	c.log.Debug().
		Str("original_id", originalID).
		Str("rejected_id", rejectedID).
		Msg("Requesting alternative")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Replacement{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Replacement{}, fmt.Errorf("recommender returned status %d: %s", resp.StatusCode, string(body))
	}

	var response recommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return domain.Replacement{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Alternative.ReplacementID == "" {
		return domain.Replacement{}, fmt.Errorf("recommender returned no candidate")
	}

	return response.Alternative, nil
}
