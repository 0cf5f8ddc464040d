// Package serp is a client for a search-results API. It satisfies
// branded.RankChecker.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seo-optimizer/traffic-engine/branded"
)

const maxResults = 100

// ErrMissingAPIKey is returned before any request is made when no key is configured.
var ErrMissingAPIKey = eris.New("SERP_API_KEY is not set")

// Client calls GET {BaseURL}/search.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// New returns a Client with its own http.Client bounded by timeout.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	OrganicResults []struct {
		Position int    `json:"position"`
		Link     string `json:"link"`
		Domain   string `json:"domain"`
	} `json:"organic_results"`
	CreditsUsed float64 `json:"credits_used"`
}

// CheckRanking returns the top organic results for term in country.
func (c *Client) CheckRanking(ctx context.Context, term, country string, topN int) ([]branded.Ranking, branded.Usage, error) {
	if c.APIKey == "" {
		return nil, branded.Usage{}, ErrMissingAPIKey
	}
	if topN <= 0 {
		topN = 10
	}
	if topN > maxResults {
		topN = maxResults
	}

	params := url.Values{}
	params.Add("q", term)
	params.Add("num", fmt.Sprintf("%d", topN))
	if country != "" {
		params.Add("gl", strings.ToLower(country))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, branded.Usage{}, eris.Wrap(err, "serp: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.APIKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, branded.Usage{}, eris.Wrap(err, "serp: request results")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Debug("serp: close response body", zap.Error(err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, branded.Usage{}, eris.Wrap(err, "serp: read response")
	}
	usage := branded.Usage{Calls: 1}
	if resp.StatusCode != http.StatusOK {
		return nil, usage, eris.Errorf("serp: unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, usage, eris.Wrap(err, "serp: decode response")
	}
	usage.Credits = decoded.CreditsUsed

	rankings := make([]branded.Ranking, 0, len(decoded.OrganicResults))
	for i, r := range decoded.OrganicResults {
		pos := r.Position
		if pos <= 0 {
			pos = i + 1
		}
		if pos > topN {
			continue
		}
		rankings = append(rankings, branded.Ranking{Position: pos, URL: r.Link, Domain: r.Domain})
	}
	return rankings, usage, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}
