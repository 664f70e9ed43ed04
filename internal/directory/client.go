// Package directory is the client for the legislative-directory API. It
// answers zipcode lookups and the per-legislator info used by the IVR
// menu (contributors, votes, biography, committees).
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// RateLimit caps outbound requests per second. Zero means 10.
	RateLimit float64
}

// Client calls the legislative-directory API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a directory client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("directory base URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	limit := cfg.RateLimit
	if limit == 0 {
		limit = 10
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(limit), int(limit)),
		logger:  logger,
	}, nil
}

// LegislatorsForZip returns all legislators serving the given zipcode,
// in API order, with only the raw fields populated. An empty result is
// a valid outcome, not an error.
func (c *Client) LegislatorsForZip(ctx context.Context, zipcode string) ([]Legislator, error) {
	var body struct {
		Response struct {
			Legislators []struct {
				Legislator struct {
					Title      string `json:"title"`
					FirstName  string `json:"firstname"`
					LastName   string `json:"lastname"`
					BioguideID string `json:"bioguide_id"`
					Phone      string `json:"phone"`
					Chamber    string `json:"chamber"`
					State      string `json:"state"`
					District   string `json:"district"`
				} `json:"legislator"`
			} `json:"legislators"`
		} `json:"response"`
	}

	q := url.Values{"zip": {zipcode}}
	if err := c.get(ctx, "/legislators/allForZip", q, &body); err != nil {
		return nil, fmt.Errorf("legislators for zip %s: %w", zipcode, err)
	}

	legislators := make([]Legislator, 0, len(body.Response.Legislators))
	for _, entry := range body.Response.Legislators {
		l := entry.Legislator
		legislators = append(legislators, Legislator{
			BioguideID: l.BioguideID,
			FirstName:  l.FirstName,
			LastName:   l.LastName,
			ShortTitle: l.Title,
			Phone:      l.Phone,
			Chamber:    l.Chamber,
			State:      l.State,
			District:   l.District,
		})
	}
	return legislators, nil
}

// TopContributors returns the top donors for a legislator.
func (c *Client) TopContributors(ctx context.Context, bioguideID string) ([]Contribution, error) {
	var body struct {
		Response struct {
			Contributors []Contribution `json:"contributors"`
		} `json:"response"`
	}
	if err := c.get(ctx, "/legislators/"+url.PathEscape(bioguideID)+"/contributors", nil, &body); err != nil {
		return nil, fmt.Errorf("top contributors for %s: %w", bioguideID, err)
	}
	return body.Response.Contributors, nil
}

// RecentVotes returns the most recent roll-call votes for a legislator.
func (c *Client) RecentVotes(ctx context.Context, bioguideID string) ([]Vote, error) {
	var body struct {
		Response struct {
			Votes []Vote `json:"votes"`
		} `json:"response"`
	}
	if err := c.get(ctx, "/legislators/"+url.PathEscape(bioguideID)+"/votes", nil, &body); err != nil {
		return nil, fmt.Errorf("recent votes for %s: %w", bioguideID, err)
	}
	return body.Response.Votes, nil
}

// Biography returns the legislator's short biography, or "" if none exists.
func (c *Client) Biography(ctx context.Context, bioguideID string) (string, error) {
	var body struct {
		Response struct {
			Bio string `json:"bio"`
		} `json:"response"`
	}
	if err := c.get(ctx, "/legislators/"+url.PathEscape(bioguideID)+"/bio", nil, &body); err != nil {
		return "", fmt.Errorf("biography for %s: %w", bioguideID, err)
	}
	return body.Response.Bio, nil
}

// Committees returns the legislator's committee assignments.
func (c *Client) Committees(ctx context.Context, bioguideID string) ([]Committee, error) {
	var body struct {
		Response struct {
			Committees []Committee `json:"committees"`
		} `json:"response"`
	}
	if err := c.get(ctx, "/legislators/"+url.PathEscape(bioguideID)+"/committees", nil, &body); err != nil {
		return nil, fmt.Errorf("committees for %s: %w", bioguideID, err)
	}
	return body.Response.Committees, nil
}

// get performs a rate-limited GET against the API and decodes the JSON
// response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("directory request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
